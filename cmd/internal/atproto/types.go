package atproto

import (
	"encoding/json"
	"fmt"
)

// Session is the resumable token bundle issued by the PDS on login.
// It is the only thing the session cache persists; raw credentials never are.
type Session struct {
	Did        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
}

// Record is one repository record as returned by listRecords/getRecord.
type Record struct {
	URI   string         `json:"uri"`
	CID   string         `json:"cid"`
	Value map[string]any `json:"value"`
}

// RecordPage is a cursor-paged listRecords result.
type RecordPage struct {
	Records []Record `json:"records"`
	Cursor  string   `json:"cursor,omitempty"`
}

// WriteResult is the outcome of createRecord/putRecord.
type WriteResult struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// RepoDescription is the subset of describeRepo the console uses.
type RepoDescription struct {
	Handle      string   `json:"handle"`
	Did         string   `json:"did"`
	Collections []string `json:"collections"`
}

// BlobPage is a cursor-paged sync.listBlobs result.
type BlobPage struct {
	CIDs   []string `json:"cids"`
	Cursor string   `json:"cursor,omitempty"`
}

// MissingBlob links a blob CID to the record that references it.
type MissingBlob struct {
	CID       string `json:"cid"`
	RecordURI string `json:"recordUri"`
}

// BlobRef is the single typed contract for an uploaded blob. The upstream
// SDKs have shipped several spellings of this shape over time; decoding is
// tolerant here, once, and nowhere else.
type BlobRef struct {
	CID      string
	MimeType string
	Size     int64
}

// AsRecordValue renders the blob reference in the lexicon blob form used
// inside record values.
func (b BlobRef) AsRecordValue() map[string]any {
	return map[string]any{
		"$type":    "blob",
		"ref":      map[string]any{"$link": b.CID},
		"mimeType": b.MimeType,
		"size":     b.Size,
	}
}

// UnmarshalJSON accepts the canonical {"ref":{"$link":...}} shape as well as
// the legacy {"ref":"..."} and {"cid":"..."} spellings.
func (b *BlobRef) UnmarshalJSON(data []byte) error {
	var raw struct {
		Ref      json.RawMessage `json:"ref"`
		CID      string          `json:"cid"`
		MimeType string          `json:"mimeType"`
		Size     int64           `json:"size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.MimeType = raw.MimeType
	b.Size = raw.Size

	if len(raw.Ref) > 0 {
		var link struct {
			Link string `json:"$link"`
		}
		if err := json.Unmarshal(raw.Ref, &link); err == nil && link.Link != "" {
			b.CID = link.Link
			return nil
		}
		var plain string
		if err := json.Unmarshal(raw.Ref, &plain); err == nil && plain != "" {
			b.CID = plain
			return nil
		}
	}
	if raw.CID != "" {
		b.CID = raw.CID
		return nil
	}
	return fmt.Errorf("blob ref: no recognizable cid in %s", string(data))
}
