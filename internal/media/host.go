package media

import (
	"context"
	"errors"
	"io"
)

// AssetKind tells the host what it is deleting; some hosts route image and
// video removal differently.
type AssetKind string

const (
	KindImage AssetKind = "image"
	KindVideo AssetKind = "video"
)

// Asset is the reference returned by the host after an upload. Duration is
// populated only when the host can probe it; callers fall back to
// client-supplied metadata otherwise.
type Asset struct {
	URL      string
	Duration float64
}

// ErrHostUnavailable indicates the media host is not configured.
var ErrHostUnavailable = errors.New("media host unavailable")

// Host is the external store holding all binary media. It is treated as an
// unreliable remote dependency: callers wrap uploads and deletes with
// timeouts, and deletes of orphaned assets go through DeleteWithRetry.
type Host interface {
	Upload(ctx context.Context, name string, r io.Reader) (Asset, error)
	Delete(ctx context.Context, ref string, kind AssetKind) error
}
