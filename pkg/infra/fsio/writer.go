package fsio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harvest/pkg/domain/model"
	"github.com/m-mizutani/harvest/pkg/domain/types"
)

// maxNameAttempts bounds the numeric-suffix search for a free file name
const maxNameAttempts = 9999

const captionExt = ".txt"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// WriteAsset writes the asset's image into datasetDir together with its
// caption sidecar and returns the absolute image path. The base name and
// extension are sanitized to a restricted character set. When the target
// name is taken, an incrementing numeric suffix is appended until a free
// name is found; the search is bounded so a pathological directory fails
// instead of looping.
func WriteAsset(datasetDir string, asset *model.Asset) (string, error) {
	base := sanitize(asset.BaseName)
	if base == "" {
		base = "image"
	}
	ext := normalizeExt(asset.Ext)

	if err := os.MkdirAll(datasetDir, 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create dataset directory", goerr.V("dir", datasetDir))
	}

	name, err := uniqueName(datasetDir, base, ext)
	if err != nil {
		return "", err
	}

	imagePath := filepath.Join(datasetDir, name+ext)
	if err := os.WriteFile(imagePath, asset.ImageBytes, 0644); err != nil {
		return "", goerr.Wrap(err, "failed to write image file", goerr.V("path", imagePath))
	}

	captionPath := filepath.Join(datasetDir, name+captionExt)
	if err := os.WriteFile(captionPath, []byte(asset.Caption), 0644); err != nil {
		return "", goerr.Wrap(err, "failed to write caption file", goerr.V("path", captionPath))
	}

	abs, err := filepath.Abs(imagePath)
	if err != nil {
		return imagePath, nil
	}
	return abs, nil
}

// uniqueName finds a base name whose image and sidecar paths are both free
func uniqueName(dir, base, ext string) (string, error) {
	for n := 0; n <= maxNameAttempts; n++ {
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		if pathFree(filepath.Join(dir, name+ext)) && pathFree(filepath.Join(dir, name+captionExt)) {
			return name, nil
		}
	}
	return "", goerr.New("could not allocate a unique file name",
		goerr.T(types.TagNoUniqueName), goerr.V("base", base), goerr.V("dir", dir))
}

func pathFree(p string) bool {
	_, err := os.Stat(p)
	return errors.Is(err, fs.ErrNotExist)
}

func sanitize(s string) string {
	return unsafeChars.ReplaceAllString(strings.TrimSpace(s), "_")
}

func normalizeExt(ext string) string {
	e := sanitize(strings.TrimPrefix(ext, "."))
	e = strings.Trim(e, "._")
	if e == "" {
		return ""
	}
	return "." + e
}
