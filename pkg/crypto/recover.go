package crypto

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ECRecover turns a 32-byte digest and an (r, s, v) triple into the signer address.
// v is the legacy 27/28 form; anything else is rejected by the backend.
type ECRecover interface {
	RecoverAddress(digest []byte, r, s [32]byte, v byte) (common.Address, error)
}

// NewRecoverer returns the backend registered under name ("geth" or "btcec"; empty means geth).
func NewRecoverer(name string) (ECRecover, error) {
	switch name {
	case "", "geth":
		return GethRecoverer{}, nil
	case "btcec":
		return BtcecRecoverer{}, nil
	default:
		return nil, fmt.Errorf("unknown recovery backend %q", name)
	}
}

// GethRecoverer recovers through go-ethereum's secp256k1 bindings.
type GethRecoverer struct{}

// RecoverAddress implements ECRecover
func (GethRecoverer) RecoverAddress(digest []byte, r, s [32]byte, v byte) (common.Address, error) {
	recID, err := recoveryID(digest, v)
	if err != nil {
		return common.Address{}, err
	}

	// High s is accepted; malleability is reported by the signature package.
	if !gethcrypto.ValidateSignatureValues(recID, new(big.Int).SetBytes(r[:]), new(big.Int).SetBytes(s[:]), false) {
		return common.Address{}, fmt.Errorf("signature values out of range")
	}

	sig := make([]byte, 65)
	copy(sig[:32], r[:])
	copy(sig[32:64], s[:])
	sig[64] = recID

	pub, err := gethcrypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return gethcrypto.PubkeyToAddress(*pub), nil
}

// BtcecRecoverer recovers through btcec's compact signature recovery.
type BtcecRecoverer struct{}

// RecoverAddress implements ECRecover
func (BtcecRecoverer) RecoverAddress(digest []byte, r, s [32]byte, v byte) (common.Address, error) {
	recID, err := recoveryID(digest, v)
	if err != nil {
		return common.Address{}, err
	}

	// btcec compact layout: header || r || s, header = 27 + recid for uncompressed keys
	compact := make([]byte, 65)
	compact[0] = 27 + recID
	copy(compact[1:33], r[:])
	copy(compact[33:], s[:])

	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return PubkeyToAddress(pub.SerializeUncompressed())
}

// PubkeyToAddress derives the address from a 65-byte uncompressed public key.
func PubkeyToAddress(uncompressed []byte) (common.Address, error) {
	if len(uncompressed) != 65 || uncompressed[0] != 0x04 {
		return common.Address{}, fmt.Errorf("invalid uncompressed public key length %d", len(uncompressed))
	}
	hash := Keccak256(uncompressed[1:])
	return common.BytesToAddress(hash[12:]), nil
}

func recoveryID(digest []byte, v byte) (byte, error) {
	if len(digest) != 32 {
		return 0, fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	if v != 27 && v != 28 {
		return 0, fmt.Errorf("invalid recovery id v=%d", v)
	}
	return v - 27, nil
}
