// Package random picks seeds for the bag layout generator.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}

// Resolve returns configured when it is non-zero, otherwise a fresh seed.
// A failing entropy source falls back to 1 so callers always get a layout.
func Resolve(configured uint64) uint64 {
	if configured != 0 {
		return configured
	}
	seed, err := NewSeed()
	if err != nil || seed == 0 {
		return 1
	}
	return seed
}
