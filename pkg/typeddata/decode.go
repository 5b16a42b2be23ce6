package typeddata

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/hashenc"
)

// HashedValue stands in for a member whose word is a hash of the original
// content (string, bytes, structs and arrays).
type HashedValue struct {
	Hash common.Hash
}

// Original always fails: the preimage cannot be recovered from the word.
func (HashedValue) Original() (interface{}, error) {
	return nil, errors.ErrHashedUnrecoverable
}

// MarshalJSON implements json.Marshaler
func (h HashedValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"hashed": true,
		"hash":   h.Hash.Hex(),
		"note":   errors.ErrHashedUnrecoverable.Message,
	})
}

// DecodedField is one member recovered from an encoded struct.
type DecodedField struct {
	Name  string
	Type  string
	Value interface{}
}

// Recoverable reports whether Value holds the original content.
func (f DecodedField) Recoverable() bool {
	_, hashed := f.Value.(HashedValue)
	return !hashed
}

// DecodedStruct is the result of DecodeStruct.
type DecodedStruct struct {
	PrimaryType string
	TypeHash    common.Hash
	// TypeHashMatches is false when the leading word is not the typeHash of
	// the declared types. The member values are still decoded.
	TypeHashMatches bool
	Fields          []DecodedField
}

// Get returns the decoded value of name. Hashed members fail with
// ErrHashedUnrecoverable.
func (d *DecodedStruct) Get(name string) (interface{}, error) {
	for _, f := range d.Fields {
		if f.Name != name {
			continue
		}
		if h, ok := f.Value.(HashedValue); ok {
			return h.Original()
		}
		return f.Value, nil
	}
	return nil, errors.ErrInvalidField.WithMessagef("%s has no member %q", d.PrimaryType, name)
}

// Map flattens the struct into {"_typeHash": ..., member: value}.
func (d *DecodedStruct) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(d.Fields)+1)
	out["_typeHash"] = d.TypeHash.Hex()
	for _, f := range d.Fields {
		out[f.Name] = f.Value
	}
	return out
}

// MarshalJSON implements json.Marshaler
func (d *DecodedStruct) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

// DecodeStruct splits encodedData (0x-prefixed, one 32-byte word for the
// typeHash plus one per member) back into member values using the declared
// types. An empty primaryType resolves to the only non-domain type.
func DecodeStruct(types Types, primaryType, encodedData string) (*DecodedStruct, error) {
	return defaultResolver.DecodeStruct(types, primaryType, encodedData)
}

// DecodeStruct is the Resolver form of the package-level DecodeStruct.
func (r *Resolver) DecodeStruct(types Types, primaryType, encodedData string) (*DecodedStruct, error) {
	if len(types) == 0 {
		return nil, errors.ErrMissingTypes
	}
	primary, err := soleType(types, primaryType)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(encodedData, "0x") {
		return nil, errors.ErrInvalidEncoding.WithMessage("encoded data must start with 0x")
	}
	raw, err := hexutil.Decode(encodedData)
	if err != nil {
		return nil, errors.WrapWithCause(errors.ErrInvalidEncoding, err, "encoded data")
	}

	fields := types[primary]
	if want := 32 * (len(fields) + 1); len(raw) != want {
		return nil, errors.ErrInvalidEncoding.WithMessagef("%s needs %d bytes, got %d", primary, want, len(raw))
	}

	out := &DecodedStruct{
		PrimaryType: primary,
		TypeHash:    common.BytesToHash(raw[:32]),
		Fields:      make([]DecodedField, 0, len(fields)),
	}
	enc := &structEncoder{types: types, keccak: r.keccak}
	if th, err := enc.typeHash(primary); err == nil {
		out.TypeHashMatches = bytes.Equal(th, raw[:32])
	}

	for i, f := range fields {
		word := raw[32*(i+1) : 32*(i+2)]
		value, err := decodeWord(types, f.Type, word)
		if err != nil {
			return nil, errors.WrapWithCause(errors.ErrInvalidEncoding, err, "%s.%s (%s)", primary, f.Name, f.Type)
		}
		out.Fields = append(out.Fields, DecodedField{Name: f.Name, Type: f.Type, Value: value})
	}
	return out, nil
}

func soleType(types Types, primaryType string) (string, error) {
	if primaryType != "" {
		if _, ok := types[primaryType]; !ok {
			return "", errors.ErrNoPrimaryType.WithMessagef("primaryType %q is not declared", primaryType)
		}
		return primaryType, nil
	}
	var candidate string
	for name := range types {
		if name == DomainTypeName {
			continue
		}
		if candidate != "" {
			return "", errors.ErrNoPrimaryType.WithMessage("several types declared, primaryType is required")
		}
		candidate = name
	}
	if candidate == "" {
		return "", errors.ErrNoPrimaryType
	}
	return candidate, nil
}

func decodeWord(types Types, typ string, word []byte) (interface{}, error) {
	if _, _, isArray := splitArray(typ); isArray {
		return HashedValue{Hash: common.BytesToHash(word)}, nil
	}
	if _, isStruct := types[typ]; isStruct {
		return HashedValue{Hash: common.BytesToHash(word)}, nil
	}
	a, ok := parseAtom(typ)
	if !ok {
		return nil, errors.ErrUndefinedType.WithMessagef("type %q is not defined", typ)
	}

	switch a.kind {
	case atomString, atomBytes:
		return HashedValue{Hash: common.BytesToHash(word)}, nil
	case atomBool:
		if !isZero(word[:31]) || word[31] > 1 {
			return nil, errors.ErrInvalidBool.WithMessagef("word %s is not 0 or 1", hexutil.Encode(word))
		}
		return word[31] == 1, nil
	case atomAddress:
		if !isZero(word[:12]) {
			return nil, errors.ErrInvalidAddress.WithMessagef("word %s has non-zero padding", hexutil.Encode(word))
		}
		return hexutil.Encode(word[12:]), nil
	case atomFixedBytes:
		if !isZero(word[a.size:]) {
			return nil, errors.ErrInvalidHex.WithMessagef("word %s has non-zero padding", hexutil.Encode(word))
		}
		return hexutil.Encode(word[:a.size]), nil
	case atomUint:
		v := new(big.Int).SetBytes(word)
		if err := hashenc.CheckIntegerRange(v, a.size, false); err != nil {
			return nil, err
		}
		return v.String(), nil
	case atomInt:
		v := new(big.Int).SetBytes(word)
		if word[0]&0x80 != 0 {
			v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 256))
		}
		if err := hashenc.CheckIntegerRange(v, a.size, true); err != nil {
			return nil, err
		}
		return v.String(), nil
	}
	return nil, errors.ErrUnknownType
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
