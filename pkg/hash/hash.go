package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Prefix returns the first prefixLen characters of SHA256(input).
// Used to correlate values in logs without storing them.
func Prefix(input string, prefixLen int) string {
	full := SHA256Hex(input)
	if prefixLen > len(full) || prefixLen <= 0 {
		return full
	}
	return full[:prefixLen]
}

// SessionKey derives the cache and rate-limit key of a Cookie header. An
// empty header has no session and yields "".
func SessionKey(cookieHeader string) string {
	cookieHeader = strings.TrimSpace(cookieHeader)
	if cookieHeader == "" {
		return ""
	}
	return SHA256Hex(cookieHeader)
}
