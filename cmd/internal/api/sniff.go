package api

import "bytes"

// sniffContentType inspects magic bytes for the handful of formats blobs
// actually hold. Anything unrecognized downloads as octet-stream.
func sniffContentType(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte{0x89, 0x50, 0x4E, 0x47}):
		return "image/png"
	case bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(b, []byte("GIF8")):
		return "image/gif"
	case len(b) >= 12 && bytes.HasPrefix(b, []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return "image/webp"
	case bytes.HasPrefix(b, []byte("%PDF")):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
