package util

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	mathrand "math/rand"
	"strconv"
	"time"
)

// NewID returns 16 random bytes hex-encoded, optionally prefixed.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

// PseudoRandomID is the fallback token when no secure source is usable:
// a pseudo-random base36 run followed by the clock in base36.
func PseudoRandomID(now time.Time) string {
	n := new(big.Int).SetUint64(mathrand.Uint64())
	return n.Text(36) + strconv.FormatInt(now.UnixMilli(), 36)
}
