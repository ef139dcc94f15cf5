package api

import "cardbox/cmd/internal/atproto"

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type sessionResponse struct {
	LoggedIn   bool   `json:"loggedIn"`
	Identifier string `json:"identifier,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// cardInput is the client-supplied card payload. imageBase64 is optional
// and uploaded as a blob before the record is written.
type cardInput struct {
	Name        string `json:"name"`
	Attack      int    `json:"attack"`
	Defense     int    `json:"defense"`
	Type        string `json:"type"`
	Rarity      string `json:"rarity"`
	ImageBase64 string `json:"imageBase64,omitempty"`
}

type createCardRequest struct {
	// Inline credentials are a legacy fallback for clients without a
	// session cookie.
	Identifier string     `json:"identifier,omitempty"`
	Password   string     `json:"password,omitempty"`
	Card       *cardInput `json:"card"`
}

type deleteCardsRequest struct {
	URI string `json:"uri,omitempty"`
}

type putRecordRequest struct {
	Value map[string]any `json:"value"`
}

// blobInfo is one entry of the blob index, enriched best-effort with
// metadata recovered from records that reference the blob.
type blobInfo struct {
	CID       string `json:"cid"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	CreatedAt string `json:"createdAt,omitempty"`
	RecordURI string `json:"recordUri,omitempty"`
}

type blobListResponse struct {
	Blobs      []*blobInfo `json:"blobs"`
	Cursor     string      `json:"cursor,omitempty"`
	TotalBlobs int         `json:"totalBlobs"`
	HasMore    bool        `json:"hasMore"`
}

type uploadImageResponse struct {
	Success bool           `json:"success"`
	Blob    map[string]any `json:"blob"`
	CID     string         `json:"cid"`
}

type boosterResponse struct {
	Success bool                  `json:"success"`
	Cards   []atproto.WriteResult `json:"cards"`
	Count   int                   `json:"count"`
}
