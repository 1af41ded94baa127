package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash computes the SHA-256 hash of data as a 64-character uppercase hex
// string. The fixed width keeps leading zero bytes in the name.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
