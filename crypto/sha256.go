// Package crypto wraps the hashing and encoding primitives the
// packaging pipeline needs: streaming SHA-256 over part contents and
// base64 for block map attribute values.
package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"hash"
)

// ErrHashFinished indicates a hasher was used after Get finalized it.
var ErrHashFinished = errors.New("crypto: hasher already finalized")

// HashSize is the size in bytes of a SHA-256 digest.
const HashSize = sha256.Size

// SHA256 computes a digest incrementally. Get finalizes the hasher;
// after that every operation fails with ErrHashFinished.
type SHA256 struct {
	h hash.Hash
}

// NewSHA256 returns a fresh streaming hasher.
func NewSHA256() *SHA256 {
	return &SHA256{h: sha256.New()}
}

// Add mixes buf into the digest.
func (s *SHA256) Add(buf []byte) error {
	if s.h == nil {
		return ErrHashFinished
	}
	s.h.Write(buf)
	return nil
}

// Get finalizes the digest and invalidates the hasher.
func (s *SHA256) Get() ([]byte, error) {
	if s.h == nil {
		return nil, ErrHashFinished
	}
	sum := s.h.Sum(nil)
	s.h = nil
	return sum, nil
}

// ComputeHash returns the SHA-256 digest of buf in one shot.
func ComputeHash(buf []byte) []byte {
	sum := sha256.Sum256(buf)
	return sum[:]
}

// Base64 encodes buf as standard base64 without line breaks, the form
// block map Hash attributes use.
func Base64(buf []byte) string {
	return base64.StdEncoding.EncodeToString(buf)
}
