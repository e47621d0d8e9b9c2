package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateCacheKey generates a cache key from components.
func GenerateCacheKey(components ...string) string {
	key := strings.Join(components, ":")
	return fmt.Sprintf("%s:%s", key, KeyHash(key))
}

// KeyHash generates a short SHA256 hash of the key.
func KeyHash(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])[:16]
}
