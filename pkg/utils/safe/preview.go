package safe

import "io"

// Preview renders at most limit bytes of buf with control and invalid bytes
// replaced, so binary payloads can travel inside error messages and logs
func Preview(buf []byte, limit int) string {
	if len(buf) > limit {
		buf = buf[:limit]
	}

	out := make([]byte, len(buf))
	for i, b := range buf {
		if b == '\n' || b == '\t' || (b >= 0x20 && b < 0x7f) {
			out[i] = b
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}

// ReadPreview reads at most limit bytes from r and renders them via Preview.
// Read errors are swallowed; whatever arrived is still useful diagnostics.
func ReadPreview(r io.Reader, limit int) string {
	buf := make([]byte, limit)
	n, _ := io.ReadFull(r, buf)
	return Preview(buf[:n], limit)
}
