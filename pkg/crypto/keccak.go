// Package crypto exposes the two primitives the signature toolkit depends on,
// Keccak-256 hashing and secp256k1 signer recovery, behind narrow interfaces.
package crypto

import (
	"encoding/hex"
	"fmt"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// Keccak computes Keccak-256 (the pre-standard SHA3 variant) over the concatenation of data.
type Keccak interface {
	Keccak256(data ...[]byte) []byte
}

// LegacyKeccak is backed by golang.org/x/crypto/sha3.
type LegacyKeccak struct{}

// Keccak256 implements Keccak
func (LegacyKeccak) Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// GethKeccak is backed by go-ethereum's crypto package.
type GethKeccak struct{}

// Keccak256 implements Keccak
func (GethKeccak) Keccak256(data ...[]byte) []byte {
	return gethcrypto.Keccak256(data...)
}

// NewKeccak returns the backend registered under name ("sha3" or "geth"; empty means sha3).
func NewKeccak(name string) (Keccak, error) {
	switch name {
	case "", "sha3":
		return LegacyKeccak{}, nil
	case "geth":
		return GethKeccak{}, nil
	default:
		return nil, fmt.Errorf("unknown keccak backend %q", name)
	}
}

// Keccak256 hashes with the default backend.
func Keccak256(data ...[]byte) []byte {
	return LegacyKeccak{}.Keccak256(data...)
}

// Keccak256Hash returns the 0x-prefixed lowercase hex digest.
func Keccak256Hash(data ...[]byte) string {
	return "0x" + hex.EncodeToString(Keccak256(data...))
}
