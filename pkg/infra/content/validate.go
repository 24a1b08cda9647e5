package content

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harvest/pkg/domain/types"
	"github.com/m-mizutani/harvest/pkg/utils/safe"
)

// parquetMagic opens and closes every parquet file
var parquetMagic = []byte("PAR1")

var gzipMagic = []byte{0x1f, 0x8b}

const lfsPointerPrefix = "version https://git-lfs.github.com/spec/v1"

const previewLimit = 256

// Validate decompresses buf when the response looks gzip-compressed and
// verifies the parquet magic at both ends of the buffer. Failed
// decompression is not fatal: the original bytes are validated instead,
// since transport layers sometimes lie about encoding. A buffer that fails
// validation gets targeted diagnostics for the two known failure shapes: a
// Git LFS pointer record and an HTML error/login page.
func Validate(buf []byte, contentType, contentEncoding string) ([]byte, error) {
	data := buf
	if looksCompressed(buf, contentType, contentEncoding) {
		if d, err := decompress(buf); err == nil {
			data = d
		}
	}

	if hasParquetMagic(data) {
		return data, nil
	}

	opts := []goerr.Option{
		goerr.T(types.TagInvalidContent),
		goerr.V("size", len(data)),
		goerr.V("preview", safe.Preview(data, previewLimit)),
	}
	if hint := diagnose(data); hint != "" {
		opts = append(opts, goerr.V("hint", hint))
	}
	return nil, goerr.New("buffer is not a parquet archive", opts...)
}

func hasParquetMagic(data []byte) bool {
	return len(data) >= 2*len(parquetMagic) &&
		bytes.HasPrefix(data, parquetMagic) &&
		bytes.HasSuffix(data, parquetMagic)
}

func looksCompressed(buf []byte, contentType, contentEncoding string) bool {
	if strings.Contains(contentEncoding, "gzip") {
		return true
	}
	switch {
	case strings.Contains(contentType, "application/gzip"),
		strings.Contains(contentType, "application/x-gzip"):
		return true
	}
	return bytes.HasPrefix(buf, gzipMagic)
}

func decompress(buf []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func diagnose(data []byte) string {
	if isLFSPointer(data) {
		return "content is a Git LFS pointer record; the real file is stored externally and was not fetched"
	}
	if isMarkup(data) {
		return "content looks like an HTML document, likely an error or login page instead of the file"
	}
	return ""
}

func isLFSPointer(data []byte) bool {
	return len(data) < 1024 && bytes.HasPrefix(data, []byte(lfsPointerPrefix))
}

func isMarkup(data []byte) bool {
	head := strings.ToLower(string(bytes.TrimLeft(data[:min(len(data), 64)], " \t\r\n")))
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.HasPrefix(head, "<?xml")
}
