// Package file stores uploaded media (tenant logos, item photos) in S3
// or, for development, on local disk.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"slices"
	"strings"
)

var (
	ErrInvalidConfig   = errors.New("file: invalid storage config")
	ErrFileTooLarge    = errors.New("file: too large")
	ErrUnsupportedType = errors.New("file: unsupported content type")
	ErrInvalidPath     = errors.New("file: invalid path")
	ErrNotFound        = errors.New("file: not found")
	ErrAccessDenied    = errors.New("file: access denied")
	ErrUnavailable     = errors.New("file: storage unavailable")
	ErrFailedToStore   = errors.New("file: failed to store")
)

// Storage persists objects and returns their public URLs.
type Storage interface {
	Save(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// ImageTypes are the content types accepted for media uploads.
var ImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// SniffImage reads the first bytes of r to detect its content type and
// returns a reader that still yields the whole stream.
func SniffImage(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("%w: %v", ErrFailedToStore, err)
	}
	head = head[:n]

	ct := http.DetectContentType(head)
	if !slices.Contains(ImageTypes, ct) {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return ct, io.MultiReader(bytes.NewReader(head), r), nil
}

var unsafeSegment = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Key joins segments into a clean object key. Every segment is
// sanitized so user input cannot escape its prefix.
func Key(segments ...string) (string, error) {
	clean := make([]string, 0, len(segments))
	for _, s := range segments {
		s = unsafeSegment.ReplaceAllString(strings.TrimSpace(s), "_")
		if s == "" || s == "." || s == ".." {
			return "", ErrInvalidPath
		}
		clean = append(clean, s)
	}
	if len(clean) == 0 {
		return "", ErrInvalidPath
	}
	return path.Join(clean...), nil
}

// Extension returns the conventional extension for an image type.
func Extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
