package utils

import (
	"crypto/md5"
	"fmt"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// ChunkID derives a stable chunk identifier from the source reference and the
// chunk's position within it. Re-ingesting identical content yields identical
// IDs, so the downstream store can upsert instead of duplicating.
func ChunkID(sourceRef string, position int) string {
	return HashString(fmt.Sprintf("%s#%d", sourceRef, position))
}
