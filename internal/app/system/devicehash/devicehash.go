// Package devicehash turns raw device identifiers into ledger keys.
//
// The ledger never stores what a client sent. A keyed BLAKE2b-256 digest
// lets the server match repeat submissions without being able to hand the
// original identifier back to anyone who reads the collection.
package devicehash

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// MaxDeviceIDLen bounds accepted identifiers.
const MaxDeviceIDLen = 256

// ErrEmptyDeviceID is returned for blank identifiers.
var ErrEmptyDeviceID = errors.New("device id is required")

// ErrDeviceIDTooLong is returned for identifiers over MaxDeviceIDLen bytes.
var ErrDeviceIDTooLong = errors.New("device id is too long")

// Hasher computes keyed digests. The zero value hashes without a key.
type Hasher struct {
	key []byte
}

// New returns a Hasher. Keys longer than 64 bytes are pre-hashed.
func New(key string) *Hasher {
	k := []byte(key)
	if len(k) > blake2b.Size {
		sum := blake2b.Sum512(k)
		k = sum[:]
	}
	return &Hasher{key: k}
}

// Hash returns the hex digest of the trimmed device id.
func (h *Hasher) Hash(deviceID string) (string, error) {
	id := strings.TrimSpace(deviceID)
	if id == "" {
		return "", ErrEmptyDeviceID
	}
	if len(id) > MaxDeviceIDLen {
		return "", ErrDeviceIDTooLong
	}
	var key []byte
	if h != nil {
		key = h.key
	}
	d, err := blake2b.New256(key)
	if err != nil {
		return "", err
	}
	d.Write([]byte(id))
	return hex.EncodeToString(d.Sum(nil)), nil
}
