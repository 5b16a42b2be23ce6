package hashenc

import (
	"strings"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
)

// Type is a Solidity scalar type name.
type Type string

const (
	String  Type = "string"
	Bytes   Type = "bytes"
	Address Type = "address"
	Bool    Type = "bool"
	Bytes32 Type = "bytes32"
	Bytes4  Type = "bytes4"
	Uint8   Type = "uint8"
	Uint32  Type = "uint32"
	Uint64  Type = "uint64"
	Uint128 Type = "uint128"
	Uint256 Type = "uint256"
	Int8    Type = "int8"
	Int32   Type = "int32"
	Int64   Type = "int64"
	Int128  Type = "int128"
	Int256  Type = "int256"
)

// SupportedTypes lists every type Hash accepts.
var SupportedTypes = []Type{
	String, Bytes, Address,
	Uint8, Uint32, Uint64, Uint128, Uint256,
	Int8, Int32, Int64, Int128, Int256,
	Bool, Bytes32, Bytes4,
}

type typeInfo struct {
	signed bool
	bits   int // integer width, 0 for non-integers
	size   int // fixed byte width, 0 for dynamic types
}

var typeTable = map[Type]typeInfo{
	String:  {},
	Bytes:   {},
	Address: {size: 20},
	Bool:    {size: 1},
	Bytes32: {size: 32},
	Bytes4:  {size: 4},
	Uint8:   {bits: 8, size: 1},
	Uint32:  {bits: 32, size: 4},
	Uint64:  {bits: 64, size: 8},
	Uint128: {bits: 128, size: 16},
	Uint256: {bits: 256, size: 32},
	Int8:    {signed: true, bits: 8, size: 1},
	Int32:   {signed: true, bits: 32, size: 4},
	Int64:   {signed: true, bits: 64, size: 8},
	Int128:  {signed: true, bits: 128, size: 16},
	Int256:  {signed: true, bits: 256, size: 32},
}

// ParseType resolves a type name, ignoring surrounding whitespace and case.
// "uint" and "int" are accepted as their 256-bit aliases.
func ParseType(name string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	switch t {
	case "uint":
		t = Uint256
	case "int":
		t = Int256
	}
	if _, ok := typeTable[t]; !ok {
		return "", errors.ErrUnknownType.WithMessagef("unsupported solidity type %q", name)
	}
	return t, nil
}

func (t Type) isInteger() bool {
	return typeTable[t].bits > 0
}
