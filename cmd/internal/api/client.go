package api

import (
	"context"
	"io"
	"time"

	"cardbox/cmd/internal/atproto"
)

// Client is the protocol surface the routes invoke. *atproto.Client is the
// production implementation; tests substitute a fake so no handler test
// touches the network.
type Client interface {
	Session() atproto.Session
	DescribeRepo(ctx context.Context) (atproto.RepoDescription, error)
	ListRecords(ctx context.Context, collection string, limit int64, cursor string) (atproto.RecordPage, error)
	GetRecord(ctx context.Context, collection, rkey string) (atproto.Record, error)
	PutRecord(ctx context.Context, collection, rkey string, value map[string]any) (atproto.WriteResult, error)
	CreateRecord(ctx context.Context, collection string, value map[string]any) (atproto.WriteResult, error)
	DeleteRecord(ctx context.Context, collection, rkey string) error
	UploadBlob(ctx context.Context, r io.Reader, contentType string) (atproto.BlobRef, error)
	ListBlobs(ctx context.Context, limit int64, cursor string) (atproto.BlobPage, error)
	GetBlob(ctx context.Context, cid string) ([]byte, error)
	ListMissingBlobs(ctx context.Context, limit int64) ([]atproto.MissingBlob, error)
	GetProfile(ctx context.Context) (map[string]any, error)
}

// Dialer constructs authenticated clients. Construction is idempotent and
// side-effect free beyond the returned handle, which is what makes the
// cache's racy populate-on-miss acceptable.
type Dialer interface {
	// Login authenticates with raw credentials and returns a fresh handle.
	Login(ctx context.Context, identifier, password string) (Client, error)
	// Resume rebuilds a handle from a stored token bundle. The returned
	// session may differ from the input when tokens were refreshed.
	Resume(ctx context.Context, sess atproto.Session) (Client, atproto.Session, error)
}

type pdsDialer struct {
	host    string
	timeout time.Duration
}

// NewPDSDialer returns the production Dialer for one PDS host.
func NewPDSDialer(host string, timeout time.Duration) Dialer {
	return &pdsDialer{host: host, timeout: timeout}
}

func (d *pdsDialer) Login(ctx context.Context, identifier, password string) (Client, error) {
	c := atproto.Dial(d.host, d.timeout)
	if _, err := c.Login(ctx, identifier, password); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *pdsDialer) Resume(ctx context.Context, sess atproto.Session) (Client, atproto.Session, error) {
	c := atproto.Dial(d.host, d.timeout)
	updated, err := c.Resume(ctx, sess)
	if err != nil {
		return nil, atproto.Session{}, err
	}
	return c, updated, nil
}
