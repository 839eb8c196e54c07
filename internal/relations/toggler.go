package relations

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind tags the target of a social-graph edge. A like on a video, a like on
// a comment, a like on a post, and a channel subscription are all the same
// record shape distinguished by kind.
type Kind string

const (
	KindVideoLike    Kind = "video_like"
	KindCommentLike  Kind = "comment_like"
	KindPostLike     Kind = "post_like"
	KindSubscription Kind = "subscription"
)

// Valid reports whether the kind is one of the supported relation kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindVideoLike, KindCommentLike, KindPostLike, KindSubscription:
		return true
	}
	return false
}

// Relation is a social-graph edge. Its existence in the store IS the
// true/false state; there is no separate boolean flag.
type Relation struct {
	ActorID   string
	Kind      Kind
	TargetID  string
	CreatedAt time.Time
}

var (
	// ErrRelationExists indicates a duplicate create hit the uniqueness
	// constraint on (actor, kind, target).
	ErrRelationExists = errors.New("relation already exists")
	// ErrRelationMissing indicates a delete found no matching record.
	ErrRelationMissing = errors.New("relation not found")
	// ErrSelfSubscription rejects an actor subscribing to their own channel.
	ErrSelfSubscription = errors.New("cannot subscribe to your own channel")
	// ErrUnknownKind rejects toggles for unsupported relation kinds.
	ErrUnknownKind = errors.New("unknown relation kind")
)

// Store persists relation records. Implementations must enforce a uniqueness
// constraint on (actor, kind, target) so a racing duplicate create fails
// with ErrRelationExists rather than producing two records.
type Store interface {
	Create(ctx context.Context, rel Relation) error
	Delete(ctx context.Context, actor string, kind Kind, target string) error
	Exists(ctx context.Context, actor string, kind Kind, target string) (bool, error)
}

// Toggler flips the existence of a relation record and reports the resulting
// state. One implementation serves every relation kind.
type Toggler struct {
	store Store
	now   func() time.Time
}

// NewToggler constructs a Toggler over the provided store.
func NewToggler(store Store) *Toggler {
	if store == nil {
		panic("relations: store must not be nil")
	}
	return &Toggler{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// WithNowFunc overrides the time source. Useful for tests.
func (t *Toggler) WithNowFunc(now func() time.Time) *Toggler {
	t.now = now
	return t
}

// Toggle flips the (actor, kind, target) relation and returns whether the
// record exists after the call. The lookup and write are not atomic; the
// store's uniqueness constraint resolves the duplicate-create race, and a
// concurrent duplicate delete is a harmless no-op, so the reported boolean
// always equals "record now exists".
func (t *Toggler) Toggle(ctx context.Context, actor string, kind Kind, target string) (bool, error) {
	if actor == "" || target == "" {
		return false, fmt.Errorf("relations: actor and target are required")
	}
	if !kind.Valid() {
		return false, ErrUnknownKind
	}
	if kind == KindSubscription && actor == target {
		return false, ErrSelfSubscription
	}

	exists, err := t.store.Exists(ctx, actor, kind, target)
	if err != nil {
		return false, fmt.Errorf("look up relation: %w", err)
	}

	if exists {
		if err := t.store.Delete(ctx, actor, kind, target); err != nil && !errors.Is(err, ErrRelationMissing) {
			return false, fmt.Errorf("delete relation: %w", err)
		}
		return false, nil
	}

	err = t.store.Create(ctx, Relation{ActorID: actor, Kind: kind, TargetID: target, CreatedAt: t.now()})
	if errors.Is(err, ErrRelationExists) {
		// Lost a create race; the record exists, which is the state we report.
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("create relation: %w", err)
	}
	return true, nil
}
