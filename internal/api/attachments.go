package api

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/zrl37/crystallize/internal/models"
)

const maxUploadBytes = 10 << 20 // 10 MB

var imageMIMEs = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadAttachment handles POST /api/attachments (multipart/form-data, field
// "file"). The image is not stored; the response is an Attachment ready to
// be sent with a chat turn.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	if len(data) > maxUploadBytes {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("file too large: exceeds %d bytes", maxUploadBytes)))
		return
	}

	mime, err := detectImage(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	enc := base64.StdEncoding.EncodeToString(data)
	writeJSON(w, http.StatusCreated, models.Attachment{
		ID:       uuid.NewString(),
		Kind:     models.AttachmentImage,
		MimeType: mime,
		Data:     enc,
		URL:      "data:" + mime + ";base64," + enc,
		Name:     filepath.Base(header.Filename),
	})
}

// detectImage sniffs the content type and rejects anything but a supported
// raster image.
func detectImage(data []byte) (string, error) {
	detected := strings.Split(http.DetectContentType(data), ";")[0]
	if !imageMIMEs[detected] {
		return "", fmt.Errorf("unsupported content type: %s (allowed: png, jpeg, gif, webp)", detected)
	}
	return detected, nil
}
