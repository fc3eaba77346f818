package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
)

// Allowed content types for image uploads.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// MaxPathLength bounds the length of a blob path.
const MaxPathLength = 512

// segmentPattern matches one path segment: letters, digits, dots, hyphens
// and underscores.
var segmentPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Image is one stored blob. Path is the caller-chosen key, URI is where the
// blob is served from.
type Image struct {
	Path        string    `json:"path"`
	URI         string    `json:"uri"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsAllowedContentType checks whether the given content type is allowed.
func IsAllowedContentType(contentType string) bool {
	return AllowedContentTypes[contentType]
}

// ValidatePath checks a slash separated blob path such as
// "Beers/{breweryId}/{beerId}". Empty segments, "." and ".." are rejected.
func ValidatePath(path string) error {
	if path == "" {
		return apperrors.Validation(map[string]string{"path": "is required"})
	}
	if len(path) > MaxPathLength {
		return apperrors.Validation(map[string]string{
			"path": fmt.Sprintf("must be at most %d characters", MaxPathLength),
		})
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "." || seg == ".." || !segmentPattern.MatchString(seg) {
			return apperrors.Validation(map[string]string{
				"path": fmt.Sprintf("segment %q is not allowed", seg),
			})
		}
	}
	return nil
}
