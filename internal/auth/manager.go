package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/config"
	"github.com/cliptube/backend/internal/models"
)

var (
	// ErrInvalidToken indicates a missing, malformed, expired, or foreign token.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrStaleRefreshToken indicates a refresh token that was superseded by a
	// later rotation or cleared by logout. The signature may still verify.
	ErrStaleRefreshToken = errors.New("refresh token is expired or used")
)

// AccountStore is the persistence surface the session manager needs: account
// lookup plus management of the single live refresh token per account.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	// SetRefreshToken unconditionally overwrites the stored refresh token.
	SetRefreshToken(ctx context.Context, userID, token string) error
	// SwapRefreshToken replaces the stored token only when it currently equals
	// previous, returning ErrStaleRefreshToken otherwise. The comparison and
	// write happen in one statement so concurrent rotations cannot both win.
	SwapRefreshToken(ctx context.Context, userID, previous, next string) error
	// ClearRefreshToken removes the stored token, invalidating all
	// outstanding refresh tokens for the account.
	ClearRefreshToken(ctx context.Context, userID string) error
}

// AccessClaims are embedded in access tokens: identity plus a profile
// snapshot so most requests need no account lookup to render who is calling.
type AccessClaims struct {
	UserID      string `json:"uid"`
	Email       string `json:"email"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the identity.
type RefreshClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

const issuer = "cliptube"

// Manager issues, verifies, and rotates signed token pairs. Access tokens are
// stateless; refresh tokens are additionally persisted verbatim on the
// account so they are single-use under rotation and revocable.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	accounts AccountStore
	now      func() time.Time
}

// NewManager constructs a Manager from the session configuration.
func NewManager(cfg config.SessionConfig, accounts AccountStore) *Manager {
	if accounts == nil {
		panic("auth: account store must not be nil")
	}
	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		accounts:      accounts,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the time source. Useful for expiry tests.
func (m *Manager) WithNowFunc(now func() time.Time) *Manager {
	m.now = now
	return m
}

// IssuePair mints a new access/refresh pair for the account and persists the
// refresh token, overwriting any prior value.
func (m *Manager) IssuePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	now := m.now()
	accessExpiry := now.Add(m.accessTTL)
	refreshExpiry := now.Add(m.refreshTTL)

	access, err := m.signAccess(user, now, accessExpiry)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := m.signRefresh(user.ID, now, refreshExpiry)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := m.accounts.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return models.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// VerifyAccess validates the access token and resolves the live account. A
// token for a deleted account fails even when the signature still verifies.
func (m *Manager) VerifyAccess(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrInvalidToken
	}

	claims := &AccessClaims{}
	if err := m.parse(token, claims, m.accessSecret); err != nil {
		return models.User{}, ErrInvalidToken
	}

	user, err := m.accounts.FindByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, ErrInvalidToken
	}
	return user, nil
}

// Rotate exchanges a valid, current refresh token for a new pair. The
// presented token must equal the account's stored token byte for byte;
// otherwise it has been superseded and the exchange fails, bounding a leaked
// refresh token to at most one use.
func (m *Manager) Rotate(ctx context.Context, presented string) (models.TokenPair, error) {
	if presented == "" {
		return models.TokenPair{}, ErrInvalidToken
	}

	claims := &RefreshClaims{}
	if err := m.parse(presented, claims, m.refreshSecret); err != nil {
		return models.TokenPair{}, ErrInvalidToken
	}

	user, err := m.accounts.FindByID(ctx, claims.UserID)
	if err != nil {
		return models.TokenPair{}, ErrInvalidToken
	}

	now := m.now()
	accessExpiry := now.Add(m.accessTTL)
	refreshExpiry := now.Add(m.refreshTTL)

	access, err := m.signAccess(user, now, accessExpiry)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.signRefresh(user.ID, now, refreshExpiry)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := m.accounts.SwapRefreshToken(ctx, user.ID, presented, refresh); err != nil {
		if errors.Is(err, ErrStaleRefreshToken) {
			return models.TokenPair{}, ErrStaleRefreshToken
		}
		return models.TokenPair{}, fmt.Errorf("persist rotated refresh token: %w", err)
	}

	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// Revoke clears the stored refresh token, making every outstanding refresh
// token for the account permanently unusable.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.accounts.ClearRefreshToken(ctx, userID)
}

func (m *Manager) signAccess(user models.User, now, expiry time.Time) (string, error) {
	claims := &AccessClaims{
		UserID:      user.ID,
		Email:       user.Email,
		Handle:      user.Handle,
		DisplayName: user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
}

// signRefresh embeds a unique jti in every refresh token. Token timestamps
// have whole-second granularity, so without it a rotation landing in the same
// second would mint bytes identical to the token it replaces and the
// stored-token swap would not actually invalidate the old one.
func (m *Manager) signRefresh(userID string, now, expiry time.Time) (string, error) {
	claims := &RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
}

func (m *Manager) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
