package digest

import "crypto/sha256"

// Hasher computes SHA-256(base || nonce) for a fixed base. Each worker gets
// its own clone so hashing never touches shared memory.
type Hasher struct {
	base []byte
}

// NewHasher creates a Hasher over a copy of base.
func NewHasher(base []byte) *Hasher {
	b := make([]byte, len(base))
	copy(b, base)
	return &Hasher{base: b}
}

// Clone returns an independent Hasher over the same base.
func (h *Hasher) Clone() *Hasher {
	return NewHasher(h.base)
}

// Sum hashes the base concatenated with the little-endian nonce encoding.
func (h *Hasher) Sum(n Nonce) Digest {
	s := sha256.New()
	s.Write(h.base)
	nb := n.Bytes()
	s.Write(nb[:])
	var d Digest
	s.Sum(d[:0])
	return d
}
