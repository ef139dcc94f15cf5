// Package atproto is the boundary to the AT-Proto personal data server.
//
// It wraps the indigo SDK's xrpc transport with exactly the operations the
// console routes need, maps upstream failures into a small error taxonomy,
// and owns the one tolerant decode of upload-blob responses.
package atproto

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bluesky-social/indigo/xrpc"
)

// DefaultHost is the Bluesky-hosted PDS entrypoint.
const DefaultHost = "https://bsky.social"

// Client is an authenticated handle onto one account's repository.
// A handle is safe for concurrent use; token refresh is serialized.
type Client struct {
	mu   sync.RWMutex
	x    *xrpc.Client
	sess Session
}

// Dial returns an unauthenticated client for the given PDS host.
// The HTTP timeout bounds every upstream call in addition to the
// per-request context.
func Dial(host string, timeout time.Duration) *Client {
	if strings.TrimSpace(host) == "" {
		host = DefaultHost
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		x: &xrpc.Client{
			Host:   host,
			Client: &http.Client{Timeout: timeout},
		},
	}
}

// Session returns the current token bundle. Callers persist this after
// Login and Resume so a refreshed bundle is not lost.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess
}

// Did returns the account DID, empty until authenticated.
func (c *Client) Did() string {
	return c.Session().Did
}

func (c *Client) setSession(sess Session) {
	c.mu.Lock()
	c.sess = sess
	c.x.Auth = &xrpc.AuthInfo{
		AccessJwt:  sess.AccessJwt,
		RefreshJwt: sess.RefreshJwt,
		Handle:     sess.Handle,
		Did:        sess.Did,
	}
	c.mu.Unlock()
}

// Login exchanges identifier+password for a fresh token bundle.
func (c *Client) Login(ctx context.Context, identifier, password string) (Session, error) {
	var out Session
	body := map[string]any{
		"identifier": identifier,
		"password":   password,
	}
	if err := c.x.Do(ctx, xrpc.Procedure, "application/json", "com.atproto.server.createSession", nil, body, &out); err != nil {
		return Session{}, mapError(err)
	}
	c.setSession(out)
	return out, nil
}

// Resume installs a stored token bundle and verifies it against the PDS.
// When the access token has expired it refreshes with the refresh token;
// the returned session is the bundle callers must persist (it may differ
// from the input after a refresh).
func (c *Client) Resume(ctx context.Context, sess Session) (Session, error) {
	c.setSession(sess)

	err := c.x.Do(ctx, xrpc.Query, "", "com.atproto.server.getSession", nil, nil, &struct{}{})
	if err == nil {
		return sess, nil
	}
	mapped := mapError(err)
	if mapped != ErrExpired && mapped != ErrAuth {
		return Session{}, mapped
	}

	refreshed, rerr := c.refresh(ctx, sess)
	if rerr != nil {
		return Session{}, ErrExpired
	}
	c.setSession(refreshed)
	return refreshed, nil
}

// refresh trades the refresh token for a new bundle. The refresh endpoint
// authenticates with the refresh JWT in place of the access JWT.
func (c *Client) refresh(ctx context.Context, sess Session) (Session, error) {
	rc := &xrpc.Client{
		Host:   c.x.Host,
		Client: c.x.Client,
		Auth: &xrpc.AuthInfo{
			AccessJwt:  sess.RefreshJwt,
			RefreshJwt: sess.RefreshJwt,
			Handle:     sess.Handle,
			Did:        sess.Did,
		},
	}
	var out Session
	if err := rc.Do(ctx, xrpc.Procedure, "", "com.atproto.server.refreshSession", nil, nil, &out); err != nil {
		return Session{}, mapError(err)
	}
	return out, nil
}

// DescribeRepo lists the repository's collection NSIDs.
func (c *Client) DescribeRepo(ctx context.Context) (RepoDescription, error) {
	var out RepoDescription
	params := map[string]any{"repo": c.Did()}
	if err := c.x.Do(ctx, xrpc.Query, "", "com.atproto.repo.describeRepo", params, nil, &out); err != nil {
		return RepoDescription{}, mapError(err)
	}
	return out, nil
}

// ListRecords pages through one collection of the repository.
func (c *Client) ListRecords(ctx context.Context, collection string, limit int64, cursor string) (RecordPage, error) {
	var out RecordPage
	params := map[string]any{
		"repo":       c.Did(),
		"collection": collection,
	}
	if limit > 0 {
		params["limit"] = limit
	}
	if cursor != "" {
		params["cursor"] = cursor
	}
	if err := c.x.Do(ctx, xrpc.Query, "", "com.atproto.repo.listRecords", params, nil, &out); err != nil {
		return RecordPage{}, mapError(err)
	}
	return out, nil
}

// GetRecord fetches one record by collection and rkey.
func (c *Client) GetRecord(ctx context.Context, collection, rkey string) (Record, error) {
	var out Record
	params := map[string]any{
		"repo":       c.Did(),
		"collection": collection,
		"rkey":       rkey,
	}
	if err := c.x.Do(ctx, xrpc.Query, "", "com.atproto.repo.getRecord", params, nil, &out); err != nil {
		return Record{}, mapError(err)
	}
	return out, nil
}

// PutRecord overwrites a record's value.
func (c *Client) PutRecord(ctx context.Context, collection, rkey string, value map[string]any) (WriteResult, error) {
	var out WriteResult
	body := map[string]any{
		"repo":       c.Did(),
		"collection": collection,
		"rkey":       rkey,
		"record":     value,
	}
	if err := c.x.Do(ctx, xrpc.Procedure, "application/json", "com.atproto.repo.putRecord", nil, body, &out); err != nil {
		return WriteResult{}, mapError(err)
	}
	return out, nil
}

// CreateRecord appends a record with a server-assigned rkey.
func (c *Client) CreateRecord(ctx context.Context, collection string, value map[string]any) (WriteResult, error) {
	var out WriteResult
	body := map[string]any{
		"repo":       c.Did(),
		"collection": collection,
		"record":     value,
	}
	if err := c.x.Do(ctx, xrpc.Procedure, "application/json", "com.atproto.repo.createRecord", nil, body, &out); err != nil {
		return WriteResult{}, mapError(err)
	}
	return out, nil
}

// DeleteRecord removes one record. Deleting an absent rkey is an upstream
// error, not a local one; callers decide whether that matters.
func (c *Client) DeleteRecord(ctx context.Context, collection, rkey string) error {
	body := map[string]any{
		"repo":       c.Did(),
		"collection": collection,
		"rkey":       rkey,
	}
	if err := c.x.Do(ctx, xrpc.Procedure, "application/json", "com.atproto.repo.deleteRecord", nil, body, &struct{}{}); err != nil {
		return mapError(err)
	}
	return nil
}

// UploadBlob streams blob bytes to the PDS and returns the typed reference.
func (c *Client) UploadBlob(ctx context.Context, r io.Reader, contentType string) (BlobRef, error) {
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}
	var out struct {
		Blob BlobRef `json:"blob"`
	}
	if err := c.x.Do(ctx, xrpc.Procedure, contentType, "com.atproto.repo.uploadBlob", nil, r, &out); err != nil {
		return BlobRef{}, mapError(err)
	}
	if out.Blob.MimeType == "" {
		out.Blob.MimeType = contentType
	}
	return out.Blob, nil
}

// ListBlobs pages through the repository's blob CIDs.
func (c *Client) ListBlobs(ctx context.Context, limit int64, cursor string) (BlobPage, error) {
	var out BlobPage
	params := map[string]any{"did": c.Did()}
	if limit > 0 {
		params["limit"] = limit
	}
	if cursor != "" {
		params["cursor"] = cursor
	}
	if err := c.x.Do(ctx, xrpc.Query, "", "com.atproto.sync.listBlobs", params, nil, &out); err != nil {
		return BlobPage{}, mapError(err)
	}
	return out, nil
}

// GetBlob fetches raw blob bytes by CID.
func (c *Client) GetBlob(ctx context.Context, cid string) ([]byte, error) {
	buf := new(bytes.Buffer)
	params := map[string]any{
		"did": c.Did(),
		"cid": cid,
	}
	if err := c.x.Do(ctx, xrpc.Query, "", "com.atproto.sync.getBlob", params, nil, buf); err != nil {
		return nil, mapError(err)
	}
	return buf.Bytes(), nil
}

// ListMissingBlobs reports blobs referenced by records but absent from
// storage, which happens to carry record-URI associations the blob index
// uses for enrichment.
func (c *Client) ListMissingBlobs(ctx context.Context, limit int64) ([]MissingBlob, error) {
	var out struct {
		Blobs  []MissingBlob `json:"blobs"`
		Cursor string        `json:"cursor"`
	}
	params := map[string]any{}
	if limit > 0 {
		params["limit"] = limit
	}
	if err := c.x.Do(ctx, xrpc.Query, "", "com.atproto.repo.listMissingBlobs", params, nil, &out); err != nil {
		return nil, mapError(err)
	}
	return out.Blobs, nil
}

// GetProfile fetches the bsky actor profile view for the account.
func (c *Client) GetProfile(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	params := map[string]any{"actor": c.Did()}
	if err := c.x.Do(ctx, xrpc.Query, "", "app.bsky.actor.getProfile", params, nil, &out); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}
