package session

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh unguessable session identifier.
//
// UUIDv4 from the crypto source is the normal path. If that source fails,
// a time+PRNG string keeps logins working in degraded form; collisions are
// treated as negligible either way, so no existence check is done.
func NewID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	return strconv.FormatInt(rand.Int63(), 36) + strconv.FormatInt(time.Now().UnixNano(), 36)
}
