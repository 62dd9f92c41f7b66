package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeriveID computes the stable, content-derived memory id from spec.md's
// Memory invariants: identical normalized text + agent yields the same id.
func DeriveID(agent, normalizedText string) string {
	h := sha256.New()
	h.Write([]byte(agent))
	h.Write([]byte{0})
	h.Write([]byte(normalizedText))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}
