package vfs

import (
	"crypto/sha256"
	"encoding/hex"
)

// EntryID derives the stable identifier for a virtual path: the sha256 of
// its UTF-8 bytes, hex encoded. The id survives re-listings of the same
// path and changes whenever the path does, which is exactly what the UI
// needs for selection tracking and list diffing.
func EntryID(virtualPath string) string {
	sum := sha256.Sum256([]byte(virtualPath))
	return hex.EncodeToString(sum[:])
}
