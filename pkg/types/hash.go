package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// HashSize is the length of a transaction hash in bytes.
const HashSize = 32

// Hash represents a 256-bit transaction or block hash.
type Hash [HashSize]byte

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the 0x-prefixed lowercase hex encoding.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// MarshalJSON encodes the hash as a 0x-hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a 0x-hex (or raw hex) string into a hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*h = Hash{}
		return nil
	}
	parsed, err := ParseHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash parses a 0x-prefixed or raw 64-char hex hash string.
func ParseHash(s string) (Hash, error) {
	if s == "" {
		return Hash{}, fmt.Errorf("empty hash")
	}
	hexStr := strings.TrimPrefix(strings.ToLower(s), "0x")
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash: %w", err)
	}
	if len(decoded) != HashSize {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(decoded))
	}
	var h Hash
	copy(h[:], decoded)
	return h, nil
}

// BytesToHash converts a byte slice to a Hash, zero-padding on the left
// if the slice is shorter than HashSize.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashSize {
		b = b[len(b)-HashSize:]
	}
	copy(h[HashSize-len(b):], b)
	return h
}
