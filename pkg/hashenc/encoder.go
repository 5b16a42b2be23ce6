// Package hashenc computes the Keccak-256 digests of a single Solidity scalar:
// over the raw input text, over its abi.encodePacked form and over its abi.encode form.
package hashenc

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/crypto"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
)

// Result holds the three digests of one value. All byte values are 0x-prefixed lowercase hex.
// The zero Result means there was nothing to hash.
type Result struct {
	RawHash             string `json:"rawHash,omitempty"`
	EncodedBytes        string `json:"encodedBytes,omitempty"`
	EncodedPadded       string `json:"encodedPadded,omitempty"`
	PackedHash          string `json:"packedHash,omitempty"`
	PaddedHash          string `json:"paddedHash,omitempty"`
	FunctionSelector    string `json:"functionSelector,omitempty"`
	IsFunctionSignature bool   `json:"isFunctionSignature,omitempty"`
}

// IsEmpty reports whether r carries no digests.
func (r *Result) IsEmpty() bool {
	return r == nil || r.RawHash == ""
}

var functionSignaturePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\(.*\)$`)

// LooksLikeFunctionSignature reports whether s has the shape name(args).
// The argument list is not validated.
func LooksLikeFunctionSignature(s string) bool {
	return functionSignaturePattern.MatchString(strings.TrimSpace(s))
}

// Encoder hashes scalars with an injected Keccak backend.
type Encoder struct {
	keccak crypto.Keccak
}

// New creates an Encoder.
func New(k crypto.Keccak) *Encoder {
	if k == nil {
		k = crypto.LegacyKeccak{}
	}
	return &Encoder{keccak: k}
}

var defaultEncoder = New(crypto.LegacyKeccak{})

// Hash hashes value as typ with the default Keccak backend.
func Hash(value string, typ Type) (*Result, error) {
	return defaultEncoder.Hash(value, typ)
}

// Hash parses value as typ and returns all three digests. Empty value yields an empty Result.
func (e *Encoder) Hash(value string, typ Type) (*Result, error) {
	if value == "" {
		return &Result{}, nil
	}
	info, ok := typeTable[typ]
	if !ok {
		return nil, errors.ErrUnknownType.WithMessagef("unsupported solidity type %q", string(typ))
	}

	goValue, packed, err := parseValue(value, typ, info)
	if err != nil {
		return nil, err
	}
	padded, err := EncodePadded(typ, goValue)
	if err != nil {
		return nil, err
	}

	raw := e.keccak.Keccak256([]byte(value))
	result := &Result{
		RawHash:       hexutil.Encode(raw),
		EncodedBytes:  hexutil.Encode(packed),
		EncodedPadded: hexutil.Encode(padded),
		PackedHash:    hexutil.Encode(e.keccak.Keccak256(packed)),
		PaddedHash:    hexutil.Encode(e.keccak.Keccak256(padded)),
	}
	if typ == String && LooksLikeFunctionSignature(value) {
		result.IsFunctionSignature = true
		result.FunctionSelector = hexutil.Encode(raw[:4])
	}
	return result, nil
}

// EncodePacked returns the abi.encodePacked bytes of value as typ.
func EncodePacked(value string, typ Type) ([]byte, error) {
	info, ok := typeTable[typ]
	if !ok {
		return nil, errors.ErrUnknownType.WithMessagef("unsupported solidity type %q", string(typ))
	}
	_, packed, err := parseValue(value, typ, info)
	return packed, err
}

// EncodePadded runs goValue through go-ethereum's ABI packer, i.e. abi.encode.
func EncodePadded(typ Type, goValue interface{}) ([]byte, error) {
	abiType, err := abi.NewType(string(typ), "", nil)
	if err != nil {
		return nil, errors.WrapWithCause(errors.ErrABIEncode, err, "type %s", typ)
	}
	out, err := abi.Arguments{{Type: abiType}}.Pack(goValue)
	if err != nil {
		return nil, errors.WrapWithCause(errors.ErrABIEncode, err, "pack %s", typ)
	}
	return out, nil
}

// parseValue returns the Go value the ABI packer expects for typ together with
// the minimal packed encoding.
func parseValue(value string, typ Type, info typeInfo) (interface{}, []byte, error) {
	switch {
	case typ == String:
		return value, []byte(value), nil

	case typ == Bytes:
		b, err := ParseHex(strings.TrimSpace(value))
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil

	case typ == Address:
		addr, err := ParseAddress(value)
		if err != nil {
			return nil, nil, err
		}
		return addr, addr.Bytes(), nil

	case typ == Bool:
		b, err := ParseBool(value)
		if err != nil {
			return nil, nil, err
		}
		if b {
			return true, []byte{1}, nil
		}
		return false, []byte{0}, nil

	case typ == Bytes32:
		b, err := FixedBytes(value, 32)
		if err != nil {
			return nil, nil, err
		}
		var out [32]byte
		copy(out[:], b)
		return out, b, nil

	case typ == Bytes4:
		b, err := FixedBytes(value, 4)
		if err != nil {
			return nil, nil, err
		}
		var out [4]byte
		copy(out[:], b)
		return out, b, nil

	case typ.isInteger():
		v, err := ParseInteger(value, info.bits, info.signed)
		if err != nil {
			return nil, nil, err
		}
		return integerGoValue(v, info), TwosComplement(v, info.size), nil
	}
	return nil, nil, errors.ErrUnknownType.WithMessagef("unsupported solidity type %q", string(typ))
}

// integerGoValue maps v to the concrete Go type go-ethereum's packer requires
// for the width: native ints up to 64 bits, *big.Int beyond.
func integerGoValue(v *big.Int, info typeInfo) interface{} {
	switch {
	case info.signed && info.bits == 8:
		return int8(v.Int64())
	case info.signed && info.bits == 32:
		return int32(v.Int64())
	case info.signed && info.bits == 64:
		return v.Int64()
	case !info.signed && info.bits == 8:
		return uint8(v.Uint64())
	case !info.signed && info.bits == 32:
		return uint32(v.Uint64())
	case !info.signed && info.bits == 64:
		return v.Uint64()
	default:
		return v
	}
}
