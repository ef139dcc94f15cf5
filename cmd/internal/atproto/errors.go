package atproto

import (
	"errors"
	"strings"

	"github.com/bluesky-social/indigo/xrpc"
)

var (
	// ErrAuth is returned when the PDS rejects the presented credentials
	// or tokens outright.
	ErrAuth = errors.New("authentication rejected")

	// ErrExpired is returned when a stored token bundle is no longer
	// resumable (expired or revoked upstream).
	ErrExpired = errors.New("session expired")

	// ErrNotFound is returned when the requested record or blob does not
	// exist in the repository.
	ErrNotFound = errors.New("not found")
)

// mapError folds an xrpc transport error into the client's taxonomy.
// Anything unrecognized is passed through wrapped so handlers surface it
// as an upstream failure.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var xe *xrpc.Error
	if !errors.As(err, &xe) {
		return err
	}
	switch xe.StatusCode {
	case 401:
		return ErrAuth
	case 404:
		return ErrNotFound
	case 400:
		// The PDS reports token expiry as a 400 with error "ExpiredToken".
		if strings.Contains(err.Error(), "ExpiredToken") {
			return ErrExpired
		}
	}
	return err
}
