package types

import (
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a BLAKE3 content hash (32 bytes) identifying a document's inputs.
type Digest [32]byte

// ComputeDigest hashes one or more byte slices. Each part is length-prefixed
// so ("ab", "c") and ("a", "bc") hash differently.
func ComputeDigest(parts ...[]byte) Digest {
	h := blake3.New()
	var n [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// IsZero reports whether the digest was never set.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Hex returns 64-character hex string.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// String implements Stringer (returns Hex()).
func (d Digest) String() string {
	return d.Hex()
}

// ParseDigest parses 64-char hex string to Digest.
func ParseDigest(hexStr string) (Digest, error) {
	if len(hexStr) != 64 {
		return Digest{}, fmt.Errorf("invalid digest length: expected 64, got %d", len(hexStr))
	}

	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return Digest{}, fmt.Errorf("invalid hex string: %w", err)
	}

	var d Digest
	copy(d[:], decoded)
	return d, nil
}

// MarshalJSON implements json.Marshaler.
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Hex())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Digest) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}

	parsed, err := ParseDigest(hexStr)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

// Value implements driver.Valuer for SQL serialization.
func (d Digest) Value() (driver.Value, error) {
	return d.Hex(), nil
}

// Scan implements sql.Scanner for SQL deserialization.
func (d *Digest) Scan(value interface{}) error {
	if value == nil {
		return fmt.Errorf("cannot scan nil into Digest")
	}

	var hexStr string
	switch v := value.(type) {
	case string:
		hexStr = v
	case []byte:
		hexStr = string(v)
	default:
		return fmt.Errorf("cannot scan type %T into Digest", value)
	}

	parsed, err := ParseDigest(hexStr)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}
