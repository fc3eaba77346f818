package httputil

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
)

// ParseMultipart bounds the body and parses a multipart form whose files
// total at most maxBytes.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<20))
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return apperrors.InvalidInput("failed to parse multipart form: " + err.Error())
	}
	return nil
}

// FormFile parses a multipart body of at most maxBytes and opens the named
// file part, which must be present. The caller closes the file.
func FormFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (multipart.File, string, error) {
	if err := ParseMultipart(w, r, maxBytes); err != nil {
		return nil, "", err
	}
	file, contentType, ok, err := OptionalFile(r, field, maxBytes)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", apperrors.Validation(map[string]string{field: "is required"})
	}
	return file, contentType, nil
}

// OptionalFile opens the named file part of a parsed multipart form. ok is
// false when the form has no such part. The content type comes from the part
// header, falling back to sniffing the first bytes.
func OptionalFile(r *http.Request, field string, maxBytes int64) (multipart.File, string, bool, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, apperrors.InvalidInput("failed to read " + field + ": " + err.Error())
	}
	if header.Size > maxBytes {
		_ = file.Close()
		return nil, "", false, apperrors.Validation(map[string]string{field: fmt.Sprintf("must be at most %d bytes", maxBytes)})
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		buf := make([]byte, 512)
		n, _ := file.Read(buf)
		contentType = http.DetectContentType(buf[:n])
		if _, err := file.Seek(0, 0); err != nil {
			_ = file.Close()
			return nil, "", false, apperrors.Internal(err)
		}
	}
	return file, contentType, true, nil
}
