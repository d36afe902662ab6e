package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a 32-hex-char random identifier tagged with an entity
// prefix, e.g. "ord_3f2a...". Prefixes in use: ord (orders), eqp/mat/cst
// (child rows), evd (evidence).
func NewID(prefix string) string {
	raw := make([]byte, 16)
	_, _ = rand.Read(raw)
	id := hex.EncodeToString(raw)
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
