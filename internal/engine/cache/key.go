package cache

import (
	"encoding/hex"
	"strings"

	"github.com/minio/highwayhash"
)

// keySeed is the fixed 32-byte HighwayHash key. Changing it invalidates every
// existing cache file.
//
//nolint:gochecknoglobals // Fixed hash key.
var keySeed = []byte("medcarbon-cache-key-seed-v1-0000")

// Key derives a cache key from its parts. Parts are normalised to lower case
// and joined with a separator that cannot appear in location names, so
// ("a", "bc") and ("ab", "c") hash differently.
func Key(namespace string, parts ...string) string {
	h, err := highwayhash.New64(keySeed)
	if err != nil {
		// Only returned for a seed that is not 32 bytes long.
		panic(err)
	}
	for _, p := range parts {
		_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		_, _ = h.Write([]byte{0})
	}
	return namespace + "-" + hex.EncodeToString(h.Sum(nil))
}
