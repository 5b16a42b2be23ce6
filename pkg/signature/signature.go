// Package signature validates raw secp256k1 signature blobs and splits them
// into r, s and the recovery id. Two wire formats are recognised: the standard
// 65-byte r||s||v layout and the EIP-2098 compact 64-byte layout that folds
// the recovery bit into the top bit of s.
package signature

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
)

const (
	// StandardLength r(32) || s(32) || v(1)
	StandardLength = 65
	// CompactLength r(32) || yParityAndS(32)
	CompactLength = 64
)

// Format identifies the wire format of a signature.
type Format string

const (
	FormatStandard Format = "Standard (65 bytes)"
	FormatCompact  Format = "EIP-2098 Compact (64 bytes)"
)

// Tag returns the short machine name of f.
func (f Format) Tag() string {
	switch f {
	case FormatStandard:
		return "standard"
	case FormatCompact:
		return "compact"
	default:
		return ""
	}
}

// Classification is the structural verdict on a hex signature. An invalid
// classification is a normal result, not an error.
type Classification struct {
	Valid  bool   `json:"valid"`
	Length int    `json:"length,omitempty"`
	Format Format `json:"format,omitempty"`
}

// Classify never fails: anything that is not 0x followed by exactly 64 or 65
// bytes of hex is reported as invalid.
func Classify(sig string) Classification {
	b, err := decode(sig)
	if err != nil {
		return Classification{Valid: false}
	}
	return Classification{Valid: true, Length: len(b), Format: formatOf(len(b))}
}

// Signature is a parsed signature. V is normalised to the 27-based form when the
// wire value was below 27; larger values are kept as-is for the recovery
// primitive to judge.
type Signature struct {
	R       [32]byte
	S       [32]byte
	V       uint8
	YParity uint8
	Format  Format
}

// Parse decodes sig. Structurally invalid input yields a nil Signature and an
// InvalidInput error; Parse never panics.
//
// High-s (malleable) signatures are structurally valid and parse normally.
func Parse(sig string) (*Signature, error) {
	b, err := decode(sig)
	if err != nil {
		return nil, err
	}
	return FromBytes(b)
}

// FromBytes parses a raw 64 or 65 byte signature.
func FromBytes(b []byte) (*Signature, error) {
	out := &Signature{Format: formatOf(len(b))}

	switch len(b) {
	case StandardLength:
		copy(out.R[:], b[:32])
		copy(out.S[:], b[32:64])
		v := b[64]
		if v < 27 {
			v += 27
		}
		out.V = v
		out.YParity = v - 27

	case CompactLength:
		copy(out.R[:], b[:32])
		copy(out.S[:], b[32:64])
		out.YParity = out.S[0] >> 7
		out.S[0] &= 0x7f
		out.V = out.YParity + 27

	default:
		return nil, errors.ErrInvalidSignatureLength.WithMessagef("signature must be 64 or 65 bytes, got %d", len(b))
	}
	return out, nil
}

// Bytes returns the canonical 65-byte r || s || v encoding.
func (s *Signature) Bytes() []byte {
	out := make([]byte, StandardLength)
	copy(out[:32], s.R[:])
	copy(out[32:64], s.S[:])
	out[64] = s.V
	return out
}

// Compact returns the EIP-2098 encoding. Only signatures with v of 27 or 28 and
// a low s (top bit clear) can be represented.
func (s *Signature) Compact() ([]byte, error) {
	if !s.HasStandardV() {
		return nil, errors.ErrInvalidSignature.WithMessagef("v=%d cannot be expressed in compact form", s.V)
	}
	if s.S[0]&0x80 != 0 {
		return nil, errors.ErrInvalidSignature.WithMessage("s uses the top bit and cannot be expressed in compact form")
	}
	out := make([]byte, CompactLength)
	copy(out[:32], s.R[:])
	copy(out[32:], s.S[:])
	out[32] |= s.YParity << 7
	return out, nil
}

// HasStandardV reports whether V is 27 or 28.
func (s *Signature) HasStandardV() bool {
	return s.V == 27 || s.V == 28
}

var secp256k1HalfN = new(big.Int).Rsh(gethcrypto.S256().Params().N, 1)

// IsLowS reports whether s is in the lower half of the curve order. This is an
// informational malleability flag, not a validity criterion.
func (s *Signature) IsLowS() bool {
	return new(big.Int).SetBytes(s.S[:]).Cmp(secp256k1HalfN) <= 0
}

func (s *Signature) RHex() string { return hexutil.Encode(s.R[:]) }
func (s *Signature) SHex() string { return hexutil.Encode(s.S[:]) }

// MarshalJSON renders byte values as 0x-prefixed lowercase hex.
func (s *Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		R       string `json:"r"`
		S       string `json:"s"`
		V       uint8  `json:"v"`
		YParity uint8  `json:"yParity"`
		Format  Format `json:"format"`
		LowS    bool   `json:"lowS"`
	}{
		R:       s.RHex(),
		S:       s.SHex(),
		V:       s.V,
		YParity: s.YParity,
		Format:  s.Format,
		LowS:    s.IsLowS(),
	})
}

func (s *Signature) String() string {
	return fmt.Sprintf("Signature{r=%s s=%s v=%d format=%s}", s.RHex(), s.SHex(), s.V, s.Format.Tag())
}

func decode(sig string) ([]byte, error) {
	if !strings.HasPrefix(sig, "0x") {
		return nil, errors.ErrInvalidSignature.WithMessage("signature must start with 0x")
	}
	body := sig[2:]
	if len(body) != 2*StandardLength && len(body) != 2*CompactLength {
		return nil, errors.ErrInvalidSignatureLength.WithMessagef("signature must be 64 or 65 bytes, got %d hex characters", len(body))
	}
	b, err := hex.DecodeString(body)
	if err != nil {
		return nil, errors.WrapWithCause(errors.ErrInvalidSignature, err, "signature contains non-hex characters")
	}
	return b, nil
}

func formatOf(n int) Format {
	switch n {
	case StandardLength:
		return FormatStandard
	case CompactLength:
		return FormatCompact
	default:
		return ""
	}
}
