package atproto

import (
	"encoding/json"
	"testing"
)

func TestBlobRefDecodeShapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		cid  string
		mime string
		size int64
	}{
		{
			name: "canonical link ref",
			in:   `{"$type":"blob","ref":{"$link":"bafyrei123"},"mimeType":"image/png","size":2048}`,
			cid:  "bafyrei123",
			mime: "image/png",
			size: 2048,
		},
		{
			name: "legacy string ref",
			in:   `{"ref":"bafyrei456","mimeType":"image/jpeg"}`,
			cid:  "bafyrei456",
			mime: "image/jpeg",
		},
		{
			name: "bare cid",
			in:   `{"cid":"bafyrei789"}`,
			cid:  "bafyrei789",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var b BlobRef
			if err := json.Unmarshal([]byte(tc.in), &b); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if b.CID != tc.cid {
				t.Fatalf("cid = %q, want %q", b.CID, tc.cid)
			}
			if b.MimeType != tc.mime {
				t.Fatalf("mimeType = %q, want %q", b.MimeType, tc.mime)
			}
			if b.Size != tc.size {
				t.Fatalf("size = %d, want %d", b.Size, tc.size)
			}
		})
	}
}

func TestBlobRefDecodeRejectsUnrecognized(t *testing.T) {
	var b BlobRef
	if err := json.Unmarshal([]byte(`{"mimeType":"image/png"}`), &b); err == nil {
		t.Fatalf("expected error for blob without cid, got %+v", b)
	}
}

func TestBlobRefAsRecordValue(t *testing.T) {
	b := BlobRef{CID: "bafyreiabc", MimeType: "image/png", Size: 10}
	v := b.AsRecordValue()
	if v["$type"] != "blob" {
		t.Fatalf("$type = %v", v["$type"])
	}
	ref, ok := v["ref"].(map[string]any)
	if !ok || ref["$link"] != "bafyreiabc" {
		t.Fatalf("ref = %v", v["ref"])
	}
}
