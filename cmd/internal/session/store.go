// Package session is the process-wide credential/session cache.
//
// It maps opaque cookie-borne session ids to resumable AT-Proto token
// bundles, and separately caches constructed client handles. Records are
// serializable and may live in Redis; handles never leave the process.
package session

import (
	"context"

	"cardbox/cmd/internal/atproto"
)

// Store abstracts persistence of session records.
//
// Lookups on an unknown id report ok=false and never an error; callers
// treat absence as "not authenticated". Put is an unconditional upsert.
type Store interface {
	Get(ctx context.Context, id string) (atproto.Session, bool, error)
	Put(ctx context.Context, id string, sess atproto.Session) error
	Delete(ctx context.Context, id string) error
	Close() error
}
