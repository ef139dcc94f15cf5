package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"

	"cardbox/cmd/internal/atproto"
	"cardbox/cmd/internal/session"
)

// repoState is the shared fake PDS repository: every client handed out by
// a fakeDialer operates on the same record and blob tables, the way real
// handles all talk to the same upstream.
type repoState struct {
	mu       sync.Mutex
	records  map[string]map[string]map[string]any // collection -> rkey -> value
	blobs    map[string][]byte
	missing  []atproto.MissingBlob
	nextRKey int

	listCalls   int
	getCalls    int
	uploadCalls int
}

func newRepoState() *repoState {
	return &repoState{
		records: make(map[string]map[string]map[string]any),
		blobs:   make(map[string][]byte),
	}
}

type fakeClient struct {
	repo *repoState
	sess atproto.Session

	// opErr, when set, fails every repo operation. It simulates a handle
	// whose tokens lapsed after it was handed out.
	opErr error
}

func (c *fakeClient) Session() atproto.Session { return c.sess }

func (c *fakeClient) DescribeRepo(_ context.Context) (atproto.RepoDescription, error) {
	if c.opErr != nil {
		return atproto.RepoDescription{}, c.opErr
	}
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	collections := make([]string, 0, len(c.repo.records))
	for name := range c.repo.records {
		collections = append(collections, name)
	}
	return atproto.RepoDescription{Did: c.sess.Did, Handle: c.sess.Handle, Collections: collections}, nil
}

func (c *fakeClient) uri(collection, rkey string) string {
	return fmt.Sprintf("at://%s/%s/%s", c.sess.Did, collection, rkey)
}

func (c *fakeClient) ListRecords(_ context.Context, collection string, _ int64, _ string) (atproto.RecordPage, error) {
	if c.opErr != nil {
		return atproto.RecordPage{}, c.opErr
	}
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	c.repo.listCalls++
	table, ok := c.repo.records[collection]
	if !ok {
		return atproto.RecordPage{}, fmt.Errorf("collection %s: %w", collection, atproto.ErrNotFound)
	}
	var page atproto.RecordPage
	for rkey, value := range table {
		page.Records = append(page.Records, atproto.Record{URI: c.uri(collection, rkey), CID: "cid-" + rkey, Value: value})
	}
	return page, nil
}

func (c *fakeClient) GetRecord(_ context.Context, collection, rkey string) (atproto.Record, error) {
	if c.opErr != nil {
		return atproto.Record{}, c.opErr
	}
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	c.repo.getCalls++
	value, ok := c.repo.records[collection][rkey]
	if !ok {
		return atproto.Record{}, atproto.ErrNotFound
	}
	return atproto.Record{URI: c.uri(collection, rkey), CID: "cid-" + rkey, Value: value}, nil
}

func (c *fakeClient) PutRecord(_ context.Context, collection, rkey string, value map[string]any) (atproto.WriteResult, error) {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	if c.repo.records[collection] == nil {
		c.repo.records[collection] = make(map[string]map[string]any)
	}
	c.repo.records[collection][rkey] = value
	return atproto.WriteResult{URI: c.uri(collection, rkey), CID: "cid-" + rkey}, nil
}

func (c *fakeClient) CreateRecord(_ context.Context, collection string, value map[string]any) (atproto.WriteResult, error) {
	if c.opErr != nil {
		return atproto.WriteResult{}, c.opErr
	}
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	c.repo.nextRKey++
	rkey := fmt.Sprintf("rkey%d", c.repo.nextRKey)
	if c.repo.records[collection] == nil {
		c.repo.records[collection] = make(map[string]map[string]any)
	}
	c.repo.records[collection][rkey] = value
	return atproto.WriteResult{URI: c.uri(collection, rkey), CID: "cid-" + rkey}, nil
}

func (c *fakeClient) DeleteRecord(_ context.Context, collection, rkey string) error {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	if _, ok := c.repo.records[collection][rkey]; !ok {
		return atproto.ErrNotFound
	}
	delete(c.repo.records[collection], rkey)
	return nil
}

func (c *fakeClient) UploadBlob(_ context.Context, r io.Reader, contentType string) (atproto.BlobRef, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return atproto.BlobRef{}, err
	}
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	c.repo.uploadCalls++
	cid := fmt.Sprintf("bafyfake%d", c.repo.uploadCalls)
	c.repo.blobs[cid] = data
	return atproto.BlobRef{CID: cid, MimeType: contentType, Size: int64(len(data))}, nil
}

func (c *fakeClient) ListBlobs(_ context.Context, _ int64, _ string) (atproto.BlobPage, error) {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	var page atproto.BlobPage
	for cid := range c.repo.blobs {
		page.CIDs = append(page.CIDs, cid)
	}
	return page, nil
}

func (c *fakeClient) GetBlob(_ context.Context, cid string) ([]byte, error) {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	data, ok := c.repo.blobs[cid]
	if !ok {
		return nil, atproto.ErrNotFound
	}
	return data, nil
}

func (c *fakeClient) ListMissingBlobs(_ context.Context, _ int64) ([]atproto.MissingBlob, error) {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	return append([]atproto.MissingBlob(nil), c.repo.missing...), nil
}

func (c *fakeClient) GetProfile(_ context.Context) (map[string]any, error) {
	return map[string]any{"did": c.sess.Did, "handle": c.sess.Handle}, nil
}

// fakeDialer authenticates against a static credential table.
type fakeDialer struct {
	mu    sync.Mutex
	repo  *repoState
	creds map[string]string // identifier -> password

	resumeErr   error
	loginCalls  int
	resumeCalls int

	// lastClient is the most recent handle handed out by Login or Resume,
	// so tests can break it after the handler has cached it.
	lastClient *fakeClient
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		repo:  newRepoState(),
		creds: map[string]string{"alice.bsky.social": "hunter2"},
	}
}

func (d *fakeDialer) session(identifier string) atproto.Session {
	return atproto.Session{
		Did:        "did:plc:" + strings.ReplaceAll(identifier, ".", ""),
		Handle:     identifier,
		AccessJwt:  "access-" + identifier,
		RefreshJwt: "refresh-" + identifier,
	}
}

func (d *fakeDialer) Login(_ context.Context, identifier, password string) (Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loginCalls++
	if pw, ok := d.creds[identifier]; !ok || pw != password {
		return nil, atproto.ErrAuth
	}
	d.lastClient = &fakeClient{repo: d.repo, sess: d.session(identifier)}
	return d.lastClient, nil
}

func (d *fakeDialer) Resume(_ context.Context, sess atproto.Session) (Client, atproto.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resumeCalls++
	if d.resumeErr != nil {
		return nil, atproto.Session{}, d.resumeErr
	}
	d.lastClient = &fakeClient{repo: d.repo, sess: sess}
	return d.lastClient, sess, nil
}

func testConfig() Config {
	return Config{
		CookieName:      "atp_session",
		CookieMaxAge:    3600,
		MaxBodyBytes:    1 << 20,
		MaxUploadBytes:  1 << 20,
		BoosterSize:     2,
		LoginRatePerMin: 6000,
		LoginRateBurst:  1000,
		IPFSGateway:     "https://ipfs.example/ipfs/",
	}
}

func newTestHandler(t *testing.T) (*Handler, *fakeDialer, *http.ServeMux) {
	t.Helper()
	dial := newFakeDialer()
	h := NewHandler(slog.New(slog.DiscardHandler), testConfig(), session.NewMemoryStore(), dial, nil)
	mux := http.NewServeMux()
	h.Register(mux)
	return h, dial, mux
}
