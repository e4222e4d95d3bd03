// Package session persists the single session record that survives restarts.
package session

import (
	"context"
	"errors"
)

// DefaultKey is the namespaced key the record is stored under.
const DefaultKey = "auth:user"

// ErrNoRecord is returned by Load when nothing is stored.
var ErrNoRecord = errors.New("session: no record")

// Store holds at most one serialized session record. Clear on an empty store
// is not an error.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, record []byte) error
	Clear(ctx context.Context) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
