// Package cache owns the lifecycle of cloned repositories on local storage:
// deterministic key derivation, validity checks, removal of corrupted
// entries, and clone-on-miss with per-key serialization.
package cache

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// cacheKeyLength is the number of hexadecimal characters kept from the
// digest. 48 bits keeps accidental collisions negligible for realistic
// cache sizes.
const cacheKeyLength = 12

// DeriveKey maps a source URL to a stable filesystem-safe identifier. The
// same URL yields the same key across process restarts.
func DeriveKey(sourceURL string) string {
	digest := blake3.Sum256([]byte(sourceURL))
	return hex.EncodeToString(digest[:])[:cacheKeyLength]
}
