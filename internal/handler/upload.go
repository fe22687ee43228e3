package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/danuwirya/homechore/internal/apperr"
	"github.com/danuwirya/homechore/internal/auth"
	"github.com/danuwirya/homechore/internal/storage"
)

// maxUploadMemory bounds multipart parsing; the uploader enforces the real
// file size limit.
const maxUploadMemory = 6 << 20

type UploadHandler struct {
	uploader *storage.Uploader
	logger   *slog.Logger
}

func NewUploadHandler(u *storage.Uploader, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{uploader: u, logger: logger}
}

// Upload accepts a multipart "file" field plus an optional "bucket" field
// and stores the image, returning its path and public URL.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadMemory)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, fmt.Errorf("invalid multipart form: %w", apperr.ErrValidation))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("no file provided: %w", apperr.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("read upload: %w", apperr.ErrValidation))
		return
	}

	contentType := header.Header.Get("Content-Type")
	result, err := h.uploader.Upload(r.Context(), userID, r.FormValue("bucket"), header.Filename, contentType, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}
