// Package checksum computes the SHA-256 digests used as note ETags and for
// index change detection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Fields digests parts separated by NUL bytes, so ("ab", "c") and ("a", "bc")
// differ.
func Fields(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{0})
		}
		_, _ = io.WriteString(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ETag quotes a digest as a strong entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// ParseETag extracts the digest from an If-Match value, dropping a weak
// prefix and the quotes.
func ParseETag(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "W/")
	return strings.Trim(v, `"`)
}
