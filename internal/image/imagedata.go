// Package image provides the image objects placed on the canvas and the raster
// payload helpers used to decode, encode and load them.
package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MimePNG is the MIME type used for masks and re-encoded rasters.
const MimePNG = "image/png"

var (
	// ErrEmptyData is returned when an ImageData carries no payload.
	ErrEmptyData = errors.New("image data is empty")

	// ErrUnsupportedFormat is returned for payloads that are not a known raster format.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// ImageData is a base64 encoded raster payload.
type ImageData struct {
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType"`
}

// NewImageData encodes raw bytes. An empty mimeType is sniffed from the content.
func NewImageData(raw []byte, mimeType string) ImageData {
	if mimeType == "" {
		mimeType = http.DetectContentType(raw)
	}
	return ImageData{
		Base64:   base64.StdEncoding.EncodeToString(raw),
		MimeType: mimeType,
	}
}

// IsZero reports whether the payload is empty.
func (d ImageData) IsZero() bool {
	return d.Base64 == ""
}

// Bytes returns the decoded payload.
func (d ImageData) Bytes() ([]byte, error) {
	if d.IsZero() {
		return nil, ErrEmptyData
	}
	raw, err := base64.StdEncoding.DecodeString(d.Base64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return raw, nil
}

// Decode decodes the payload into an image.
func (d ImageData) Decode() (image.Image, error) {
	raw, err := d.Bytes()
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Dimensions returns the native pixel size without decoding the whole raster.
func (d ImageData) Dimensions() (width, height int, err error) {
	raw, err := d.Bytes()
	if err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return cfg.Width, cfg.Height, nil
}

// EncodePNG encodes img as a PNG payload.
func EncodePNG(img image.Image) (ImageData, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ImageData{}, fmt.Errorf("failed to encode png: %w", err)
	}
	return NewImageData(buf.Bytes(), MimePNG), nil
}

// Load reads an image file from disk for the upload flow.
func Load(path string) (ImageData, error) {
	if !IsSupportedFormat(path) {
		return ImageData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return ImageData{}, fmt.Errorf("failed to open image: %w", err)
	}
	data := NewImageData(raw, mimeForExt(path))
	if _, _, err := data.Dimensions(); err != nil {
		return ImageData{}, err
	}
	return data, nil
}

func mimeForExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return MimePNG
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	}
	return ""
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".tiff", ".tif", ".bmp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
