package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"path"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harvest/pkg/domain/model"
)

// captionColumns is checked in order; the first non-null string wins
var captionColumns = []string{"caption", "text", "label", "prompt"}

// imageByteFields are the struct fields that may carry the embedded payload
var imageByteFields = []string{"bytes", "data"}

const (
	imageColumn = "image"
	pathField   = "path"

	// hashNameLen is the hex-prefix length for content-derived base names
	hashNameLen = 16
)

// secondaryFetcher downloads a repository-relative path for rows that
// reference their image instead of embedding it
type secondaryFetcher func(ctx context.Context, path string) ([]byte, error)

// extractRow derives the image and caption of one row. The second return is
// true when the row has no obtainable image and must be counted as skipped;
// an error is always scoped to this row only.
func extractRow(ctx context.Context, row model.TableRow, fetch secondaryFetcher) (*model.Asset, bool, error) {
	caption := extractCaption(row)

	img := row.Lookup(imageColumn)
	if img == nil {
		return nil, true, nil
	}

	var imgBytes []byte
	var pathHint string

	switch {
	case img.Fields != nil:
		for _, field := range imageByteFields {
			v := img.Fields[field]
			if v == nil {
				continue
			}
			b, err := coerceBytes(v)
			if err != nil {
				return nil, false, goerr.Wrap(err, "image column has an unreadable byte payload",
					goerr.V("field", field))
			}
			imgBytes = b
			break
		}
		if p := img.Fields[pathField]; p != nil && p.Str != nil {
			pathHint = *p.Str
		}
	case img.Bytes != nil:
		imgBytes = img.Bytes
	case img.IsEmpty():
		// a struct whose fields were all null; nothing to extract
	default:
		return nil, false, goerr.New("unsupported image column shape")
	}

	if len(imgBytes) == 0 && pathHint != "" && fetch != nil {
		b, err := fetch(ctx, pathHint)
		if err != nil {
			return nil, false, goerr.Wrap(err, "failed to fetch referenced image",
				goerr.V("path", pathHint))
		}
		imgBytes = b
	}

	if len(imgBytes) == 0 {
		return nil, true, nil
	}

	base, ext := assetName(imgBytes, pathHint)

	return &model.Asset{
		ImageBytes: imgBytes,
		Caption:    caption,
		BaseName:   base,
		Ext:        ext,
	}, false, nil
}

func extractCaption(row model.TableRow) string {
	for _, name := range captionColumns {
		if v := row.Lookup(name); v != nil && v.Str != nil {
			return *v.Str
		}
	}
	return ""
}

// coerceBytes accepts the payload shapes the wire format can carry: raw
// bytes, base64 text, or plain UTF-8 text. A text payload is treated as
// base64 only when the decoded bytes carry a known image signature, so
// text that merely happens to be valid base64 is not mangled.
func coerceBytes(v *model.Value) ([]byte, error) {
	switch {
	case v.Bytes != nil:
		return v.Bytes, nil
	case v.Str != nil:
		s := *v.Str
		if b, err := base64.StdEncoding.DecodeString(s); err == nil && looksLikeImage(b) {
			return b, nil
		}
		return []byte(s), nil
	default:
		return nil, goerr.New("byte payload has an unsupported type")
	}
}

// assetName derives the file base name and extension: from the path hint's
// basename when present, otherwise a content-hash base with an extension
// sniffed from the byte signature
func assetName(imgBytes []byte, pathHint string) (string, string) {
	if pathHint != "" {
		name := path.Base(pathHint)
		ext := path.Ext(name)
		base := strings.TrimSuffix(name, ext)
		if base != "" && base != "." {
			if ext == "" {
				ext = sniffImageExt(imgBytes)
			}
			return base, ext
		}
	}

	sum := sha256.Sum256(imgBytes)
	return hex.EncodeToString(sum[:])[:hashNameLen], sniffImageExt(imgBytes)
}

func sniffImageExt(b []byte) string {
	if ext := imageExt(b); ext != "" {
		return ext
	}
	return ".jpg"
}

func looksLikeImage(b []byte) bool {
	return imageExt(b) != ""
}

// imageExt maps a byte signature to its extension, or "" when the
// signature is unknown
func imageExt(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte{0xff, 0xd8, 0xff}):
		return ".jpg"
	case bytes.HasPrefix(b, []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}):
		return ".png"
	case bytes.HasPrefix(b, []byte("GIF8")):
		return ".gif"
	case len(b) >= 12 && bytes.Equal(b[:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return ".webp"
	case bytes.HasPrefix(b, []byte("BM")):
		return ".bmp"
	default:
		return ""
	}
}
