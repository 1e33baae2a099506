package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const maxUploadBytes = 50 << 20 // 50 MB

// UploadHandler accepts primary-source documents and places them in the
// drop directory, where the importer picks them up.
type UploadHandler struct {
	dropDir string
}

// NewUploadHandler creates a handler writing into dropDir.
func NewUploadHandler(dropDir string) *UploadHandler {
	return &UploadHandler{dropDir: dropDir}
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the drop dir.
func (h *UploadHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.dropDir, cleaned)
	if !strings.HasPrefix(abs, h.dropDir+string(os.PathSeparator)) && abs != h.dropDir {
		return "", fmt.Errorf("path escapes drop directory")
	}
	return abs, nil
}

// Upload handles POST /api/upload (multipart/form-data, field "file").
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

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

	abs, err := h.safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if err := os.MkdirAll(h.dropDir, 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create drop dir"))
		return
	}

	dst, err := os.Create(abs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create file"))
		return
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"filename": header.Filename,
		"size":     written,
	})
}
