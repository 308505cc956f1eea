// Package misc holds small helpers shared by the adapters: env lookups,
// retry schedules, body buffer pooling and payload signatures.
package misc

import (
	"crypto/sha256"
	"encoding/hex"
)

// SumSHA256 signs value with key and returns the hex digest. value is not modified.
func SumSHA256(value []byte, key string) string {
	h := sha256.New()
	h.Write(value)
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}
