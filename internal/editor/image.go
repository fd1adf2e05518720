package editor

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// MaxImageSize is the largest accepted category image (2 MiB).
const MaxImageSize = 2 << 20

// allowedImageTypes maps accepted declared MIME types to their canonical form.
var allowedImageTypes = map[string]string{
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg",
	"image/png":  "image/png",
	"image/gif":  "image/gif",
}

// Image is an attachment held by the editor until the form is submitted.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// DataURL returns the image encoded as a data: URL for inline previews.
func (img *Image) DataURL() string {
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// checkImage validates an attachment and returns its canonical content
// type. The declared type must be allowed and must agree with the
// sniffed bytes.
func checkImage(contentType string, data []byte) (string, error) {
	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	declared := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	canonical, ok := allowedImageTypes[declared]
	if !ok {
		return "", ErrImageType
	}

	if sniffed := http.DetectContentType(data); sniffed != canonical {
		return "", ErrImageType
	}
	return canonical, nil
}
