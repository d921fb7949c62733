package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// StripDataURL drops a "data:<mime>;base64," prefix and returns the payload
// together with the declared MIME type (empty when there was no prefix).
// Anything else, whitespace included, is returned untouched.
func StripDataURL(s string) (string, string) {
	i := strings.IndexByte(s, ',')
	if i == -1 || !strings.HasPrefix(strings.ToLower(s[:i]), "data:") {
		return s, ""
	}
	meta := s[len("data:"):i] // "<mime>;base64"
	if semi := strings.IndexByte(meta, ';'); semi >= 0 {
		meta = meta[:semi]
	}
	return s[i+1:], meta
}

// ImageHash is the hex SHA-256 of the base64 payload as received.
func ImageHash(b64 string) string {
	if b64 == "" {
		return ""
	}
	h := sha256.Sum256([]byte(b64))
	return hex.EncodeToString(h[:])
}

// ShortHash возвращает первые 16 hex-символов ImageHash для логов.
func ShortHash(b64 string) string {
	h := ImageHash(b64)
	if len(h) > 16 {
		return h[:16]
	}
	return h
}
