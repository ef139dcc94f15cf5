package atproto

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidURI is returned for strings that cannot be read as an AT-URI
// with a valid NSID collection segment.
var ErrInvalidURI = errors.New("invalid at-uri")

var (
	atURIRe = regexp.MustCompile(`^at://([^/]+)/((?:[a-zA-Z0-9_-]+\.)+[a-zA-Z0-9_-]+)/(.+)$`)
	nsidRe  = regexp.MustCompile(`^([a-zA-Z0-9_-]+\.)+[a-zA-Z0-9_-]+$`)
)

// URI is a parsed at://<authority>/<collection>/<rkey> reference.
type URI struct {
	Authority  string
	Collection string
	RKey       string
}

// ValidNSID reports whether s is a dot-separated namespaced identifier
// (at least two segments, e.g. app.bsky.feed.post).
func ValidNSID(s string) bool {
	return nsidRe.MatchString(s)
}

// ParseURI parses an AT-URI and validates its collection segment as an
// NSID. A permissive slash-split fallback covers URIs whose rkey contains
// characters the strict pattern does not anticipate; the at:// scheme is
// required on both paths.
func ParseURI(s string) (URI, error) {
	s = strings.TrimSpace(s)
	if m := atURIRe.FindStringSubmatch(s); m != nil {
		return URI{Authority: m[1], Collection: m[2], RKey: m[3]}, nil
	}

	rest, ok := strings.CutPrefix(s, "at://")
	if !ok {
		return URI{}, ErrInvalidURI
	}
	parts := strings.Split(rest, "/")
	if len(parts) < 3 {
		return URI{}, ErrInvalidURI
	}
	u := URI{Authority: parts[0], Collection: parts[1], RKey: strings.Join(parts[2:], "/")}
	if !ValidNSID(u.Collection) || u.RKey == "" {
		return URI{}, ErrInvalidURI
	}
	return u, nil
}

// String renders the canonical at:// form.
func (u URI) String() string {
	return "at://" + u.Authority + "/" + u.Collection + "/" + u.RKey
}
