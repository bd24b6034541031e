// Package sharelink mints the public slugs that expose tours anonymously.
package sharelink

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"

	"github.com/strollio/backend/internal/models"
)

// fragmentLen is the length of one base-36 slug fragment. Two fragments,
// each drawn from an independent 64-bit value, give far more combinations
// than the store will ever hold; the unique index on share_slug is the
// backstop should the generator ever collide anyway.
const fragmentLen = 13

// Manager assigns share slugs to tours. The zero value is not usable; call New.
type Manager struct {
	// randUint64 is swappable so tests can force collisions and fixed slugs.
	randUint64 func() uint64
}

// New creates a Manager backed by crypto/rand.
func New() *Manager {
	return &Manager{randUint64: cryptoUint64}
}

// NewWithSource creates a Manager with a caller-supplied randomness source.
func NewWithSource(src func() uint64) *Manager {
	return &Manager{randUint64: src}
}

// EnsureShareSlug assigns a slug to the tour if it is public and has none.
// It is idempotent: a tour that already carries a slug is left untouched, so
// toggling visibility off and on reuses the original slug. It reports whether
// a slug was assigned by this call.
func (m *Manager) EnsureShareSlug(tour *models.Tour) bool {
	if !tour.IsPublic || tour.ShareSlug != "" {
		return false
	}
	tour.ShareSlug = m.generate()
	return true
}

// generate produces two concatenated base-36 fragments.
func (m *Manager) generate() string {
	return m.fragment() + m.fragment()
}

func (m *Manager) fragment() string {
	// A uint64 in base 36 is at most 13 digits, so padding is the only
	// adjustment needed.
	s := strconv.FormatUint(m.randUint64(), 36)
	for len(s) < fragmentLen {
		s = "0" + s
	}
	return s
}

func cryptoUint64() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms; if it does the
		// process has bigger problems than slug entropy.
		panic(err)
	}
	return binary.BigEndian.Uint64(b[:])
}
