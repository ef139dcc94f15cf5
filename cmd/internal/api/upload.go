package api

import (
	"net/http"
	"strings"
)

func (h *Handler) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	client, ok := h.requireClient(w, r, false)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		// Rejected before any upload call is attempted.
		writeError(w, http.StatusBadRequest, "File must be an image")
		return
	}

	blob, err := client.UploadBlob(r.Context(), file, contentType)
	if err != nil {
		h.upstreamError(w, r, "api.upload.fail", err)
		return
	}

	writeJSON(w, http.StatusOK, uploadImageResponse{
		Success: true,
		Blob:    blob.AsRecordValue(),
		CID:     blob.CID,
	})
}
