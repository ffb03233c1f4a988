package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken derives the storage key for a session token. Sessions keep
// only hashes; the raw token never touches the database.
func HashToken(raw, pepper string) string {
	h := sha256.Sum256([]byte(raw + ":" + pepper))
	return hex.EncodeToString(h[:])
}
