// Package digest implements the fixed-width hash codec used throughout the
// solver: 256-bit digests with a total big-endian ordering, and the 8-byte
// little-endian nonce encoding shared by the hasher and the lock device
// protocol.
package digest

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// HexLen is the length of the canonical textual form of a Digest.
const HexLen = 64

// Digest is a 256-bit value, ordered as an unsigned big-endian integer.
type Digest [32]byte

// ParseHex decodes the canonical 64-character hexadecimal form of a digest.
// Input of any other length, or containing non-hex characters, is rejected.
func ParseHex(s string) (Digest, error) {
	var d Digest
	if len(s) != HexLen {
		return d, fmt.Errorf("digest must be %d hex characters, got %d", HexLen, len(s))
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return d, fmt.Errorf("invalid digest hex: %w", err)
	}
	return d, nil
}

// Hex returns the canonical textual form: 64 lowercase hex characters,
// big-endian byte order.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// String implements fmt.Stringer.
func (d Digest) String() string { return d.Hex() }

// Cmp compares two digests as unsigned big-endian integers.
func (d Digest) Cmp(other Digest) int {
	return bytes.Compare(d[:], other[:])
}

// Less reports whether d is strictly below other. The proof-of-work test is
// Less(target): a hash solves the puzzle when it falls under the target.
func (d Digest) Less(other Digest) bool {
	return d.Cmp(other) < 0
}

// IsZero reports whether d is the all-zero digest. No digest is strictly
// below zero, so a zero target is unsolvable.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Nonce is the 64-bit value the solver searches for.
type Nonce uint64

// Bytes returns the 8-byte little-endian encoding appended to the base for
// hashing. The same encoding, hex-encoded, is the device wire form.
func (n Nonce) Bytes() [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(n))
	return b
}

// HexBytes returns the 16-character hex encoding of Bytes, the form the lock
// device expects in an unlock request.
func (n Nonce) HexBytes() string {
	b := n.Bytes()
	return hex.EncodeToString(b[:])
}
