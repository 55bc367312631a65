package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dom/watchnest/internal/domain"
)

const (
	multipartMemory = 32 << 20
	sniffLen        = 512
)

type uploadKind struct {
	extensions map[string]bool
	// accepts reports whether a sniffed content type fits the kind.
	accepts func(contentType string) bool
}

var (
	imageUpload = uploadKind{
		extensions: map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true},
		accepts: func(ct string) bool {
			return strings.HasPrefix(ct, "image/")
		},
	}
	// Container formats the sniffer does not know come back as
	// application/octet-stream and are trusted on their extension.
	videoUpload = uploadKind{
		extensions: map[string]bool{".mp4": true, ".m4v": true, ".mov": true, ".webm": true, ".mkv": true, ".avi": true, ".ogv": true},
		accepts: func(ct string) bool {
			return strings.HasPrefix(ct, "video/") || ct == "application/ogg" || ct == "application/octet-stream"
		},
	}

	uploadFields = map[string]uploadKind{
		"avatar":     imageUpload,
		"coverImage": imageUpload,
		"thumbnail":  imageUpload,
		"videoFile":  videoUpload,
	}
)

// uploads tracks temp files saved from a multipart request. cleanup removes
// whatever the media host did not already consume.
type uploads struct {
	paths []string
}

func (u *uploads) cleanup() {
	for _, p := range u.paths {
		os.Remove(p)
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.NewValidationError("Upload too large")
		}
		return domain.NewValidationError("Invalid multipart form")
	}
	return nil
}

// save copies the named file field into a temp file and returns its path, or
// "" when the field is absent. The file must carry an extension allowed for
// the field and content that sniffs as the same kind of media.
func (u *uploads) save(r *http.Request, field string) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	kind, ok := uploadFields[field]
	if !ok {
		return "", domain.NewInternalError(fmt.Sprintf("no upload rules for field %q", field), nil)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", domain.NewValidationError(fmt.Sprintf("Invalid %s upload", field))
	}
	defer file.Close()

	unsupported := domain.NewValidationError(fmt.Sprintf("Unsupported %s file type", field))
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !kind.extensions[ext] {
		return "", unsupported
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", domain.NewValidationError(fmt.Sprintf("Invalid %s upload", field))
	}
	head = head[:n]
	if n == 0 || !kind.accepts(http.DetectContentType(head)) {
		return "", unsupported
	}

	tmp, err := os.CreateTemp("", "watchnest-*"+ext)
	if err != nil {
		return "", domain.NewInternalError("failed to create temp file", err)
	}
	u.paths = append(u.paths, tmp.Name())

	if _, err := io.Copy(tmp, io.MultiReader(bytes.NewReader(head), file)); err != nil {
		tmp.Close()
		return "", domain.NewInternalError("failed to store upload", err)
	}
	if err := tmp.Close(); err != nil {
		return "", domain.NewInternalError("failed to store upload", err)
	}
	return tmp.Name(), nil
}
