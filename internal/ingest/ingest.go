// Package ingest turns user-supplied files into validated image inputs.
//
// Only common raster formats are accepted (PNG, JPEG, GIF, BMP, TIFF, WEBP).
// The media type is sniffed from the content, never trusted from the file
// extension. No count or size limit is applied here; callers that need one
// (the HTTP API) enforce it themselves.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // Register WEBP decoder for normalisation

	"ocrdoc/pkg/models"
)

var (
	// ErrUnsupportedMediaType is returned for content that is not a supported raster image.
	ErrUnsupportedMediaType = errors.New("unsupported image type")

	// ErrEmptyFile is returned for zero-length input.
	ErrEmptyFile = errors.New("image file is empty")
)

// Supported media types.
const (
	MediaPNG  = "image/png"
	MediaJPEG = "image/jpeg"
	MediaGIF  = "image/gif"
	MediaBMP  = "image/bmp"
	MediaTIFF = "image/tiff"
	MediaWEBP = "image/webp"
)

var supported = map[string]bool{
	MediaPNG:  true,
	MediaJPEG: true,
	MediaGIF:  true,
	MediaBMP:  true,
	MediaTIFF: true,
	MediaWEBP: true,
}

var extensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// DetectMediaType sniffs the media type of data.
func DetectMediaType(data []byte) string {
	mt := mimetype.Detect(data)
	// Some detectors report the legacy alias.
	if mt.Is("image/x-ms-bmp") {
		return MediaBMP
	}
	return mt.String()
}

// IsSupported reports whether mediaType is an accepted raster format.
func IsSupported(mediaType string) bool {
	return supported[mediaType]
}

// HasImageExtension reports whether a path looks like a supported image by name.
func HasImageExtension(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// FromBytes validates data and wraps it as an ImageInput.
func FromBytes(name string, data []byte) (models.ImageInput, error) {
	if len(data) == 0 {
		return models.ImageInput{}, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}
	mediaType := DetectMediaType(data)
	if !IsSupported(mediaType) {
		return models.ImageInput{}, fmt.Errorf("%s: %w: %s", name, ErrUnsupportedMediaType, mediaType)
	}
	return models.ImageInput{
		Name:      name,
		MediaType: mediaType,
		Data:      data,
	}, nil
}

// FromReader reads r fully and validates it.
func FromReader(name string, r io.Reader) (models.ImageInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.ImageInput{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return FromBytes(name, data)
}

// LoadFile reads one image file. The input is named after the file's base name.
func LoadFile(path string) (models.ImageInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ImageInput{}, fmt.Errorf("failed to read image file: %w", err)
	}
	return FromBytes(filepath.Base(path), data)
}

// ExpandPaths resolves files and directories into an ordered list of image
// paths. Explicit files keep argument order; each directory contributes its
// images (by extension, recursively) sorted by path.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}

		var found []string
		err = filepath.Walk(p, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && HasImageExtension(fi.Name()) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", p, err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// LoadPaths expands paths and loads every image in order.
func LoadPaths(paths []string) ([]models.ImageInput, error) {
	files, err := ExpandPaths(paths)
	if err != nil {
		return nil, err
	}
	inputs := make([]models.ImageInput, 0, len(files))
	for _, f := range files {
		in, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// Normalize re-encodes in as PNG unless its media type is in accepted.
// Pixels are not altered; only the container format changes.
func Normalize(in models.ImageInput, accepted ...string) (models.ImageInput, error) {
	for _, a := range accepted {
		if in.MediaType == a {
			return in, nil
		}
	}

	img, err := imaging.Decode(bytes.NewReader(in.Data))
	if err != nil {
		return models.ImageInput{}, fmt.Errorf("failed to decode %s: %w", in.Name, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return models.ImageInput{}, fmt.Errorf("failed to encode %s as PNG: %w", in.Name, err)
	}
	return models.ImageInput{
		Name:      in.Name,
		MediaType: MediaPNG,
		Data:      buf.Bytes(),
	}, nil
}
