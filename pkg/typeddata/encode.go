package typeddata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/crypto"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/hashenc"
)

// domainFields lists the recognised domain members in canonical order.
var domainFields = []Field{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
	{Name: "salt", Type: "bytes32"},
}

// EncodeResult is the outcome of hashing a typed-data document.
type EncodeResult struct {
	PrimaryType     string `json:"primaryType"`
	TypeString      string `json:"typeString"`
	TypeHash        string `json:"typeHash"`
	DomainSeparator string `json:"domainSeparator"`
	StructHash      string `json:"structHash"`
	MessageHash     string `json:"messageHash"`
	// EncodedData is typeHash followed by one word per member of the primary struct.
	EncodedData string `json:"encodedData"`

	digest []byte
}

// Digest returns the raw 32-byte signable hash.
func (r *EncodeResult) Digest() []byte {
	return r.digest
}

// Resolver hashes signing inputs with a pluggable Keccak backend.
type Resolver struct {
	keccak crypto.Keccak
}

// NewResolver creates a Resolver. A nil backend falls back to x/crypto sha3.
func NewResolver(k crypto.Keccak) *Resolver {
	if k == nil {
		k = crypto.LegacyKeccak{}
	}
	return &Resolver{keccak: k}
}

var defaultResolver = NewResolver(nil)

// Encode hashes td with the default backend.
func Encode(td *TypedData) (*EncodeResult, error) {
	return defaultResolver.Encode(td)
}

// EncodeJSON parses and hashes a typed-data JSON document.
func EncodeJSON(raw []byte) (*EncodeResult, error) {
	td, err := ParseTypedData(raw)
	if err != nil {
		return nil, err
	}
	return defaultResolver.Encode(td)
}

// Encode computes the domain separator, struct hash and signable hash of td.
func (r *Resolver) Encode(td *TypedData) (*EncodeResult, error) {
	switch {
	case td == nil || td.Types == nil:
		return nil, errors.ErrMissingTypes
	case td.Domain == nil:
		return nil, errors.ErrMissingDomain
	case td.Message == nil:
		return nil, errors.ErrMissingMessage
	}

	domainSeparator, err := r.DomainSeparator(td.Domain)
	if err != nil {
		return nil, err
	}

	primary, err := td.ResolvePrimaryType()
	if err != nil {
		return nil, err
	}

	// EIP712Domain is always derived from the domain object, never from types.
	msgTypes := make(Types, len(td.Types))
	for name, fields := range td.Types {
		if name != DomainTypeName {
			msgTypes[name] = fields
		}
	}
	if primary == DomainTypeName {
		return nil, errors.ErrNoPrimaryType.WithMessage("EIP712Domain cannot be the primary type")
	}

	enc := &structEncoder{types: msgTypes, keccak: r.keccak}
	typeString, err := TypeString(msgTypes, primary)
	if err != nil {
		return nil, err
	}
	encoded, err := enc.encodeData(primary, td.Message)
	if err != nil {
		return nil, err
	}
	structHash := r.keccak.Keccak256(encoded)
	digest := r.keccak.Keccak256([]byte{0x19, 0x01}, domainSeparator, structHash)

	return &EncodeResult{
		PrimaryType:     primary,
		TypeString:      typeString,
		TypeHash:        hexutil.Encode(encoded[:32]),
		DomainSeparator: hexutil.Encode(domainSeparator),
		StructHash:      hexutil.Encode(structHash),
		MessageHash:     hexutil.Encode(digest),
		EncodedData:     hexutil.Encode(encoded),
		digest:          digest,
	}, nil
}

// DomainSeparator hashes a domain object against the implicit EIP712Domain
// type built from whichever recognised members are present.
func (r *Resolver) DomainSeparator(domain map[string]interface{}) ([]byte, error) {
	fields := make([]Field, 0, len(domainFields))
	for _, f := range domainFields {
		if _, ok := domain[f.Name]; ok {
			fields = append(fields, f)
		}
	}
	if len(fields) != len(domain) {
		var unknown []string
		for key := range domain {
			if !isDomainField(key) {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		return nil, errors.ErrInvalidDomain.WithMessagef("unrecognised domain members %v", unknown)
	}

	enc := &structEncoder{types: Types{DomainTypeName: fields}, keccak: r.keccak}
	encoded, err := enc.encodeData(DomainTypeName, domain)
	if err != nil {
		return nil, errors.WrapWithCause(errors.ErrInvalidDomain, err, "domain")
	}
	return r.keccak.Keccak256(encoded), nil
}

func isDomainField(name string) bool {
	for _, f := range domainFields {
		if f.Name == name {
			return true
		}
	}
	return false
}

type structEncoder struct {
	types  Types
	keccak crypto.Keccak
}

func (e *structEncoder) typeHash(name string) ([]byte, error) {
	s, err := TypeString(e.types, name)
	if err != nil {
		return nil, err
	}
	return e.keccak.Keccak256([]byte(s)), nil
}

// encodeData returns typeHash || enc(member_1) || ... || enc(member_n).
func (e *structEncoder) encodeData(name string, data map[string]interface{}) ([]byte, error) {
	fields, ok := e.types[name]
	if !ok {
		return nil, errors.ErrUndefinedType.WithMessagef("type %q is not defined", name)
	}
	th, err := e.typeHash(name)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(fields))
	buf := bytes.NewBuffer(make([]byte, 0, 32*(len(fields)+1)))
	buf.Write(th)
	for _, f := range fields {
		known[f.Name] = struct{}{}
		value, ok := data[f.Name]
		if !ok {
			return nil, errors.ErrInvalidField.WithMessagef("%s.%s is missing", name, f.Name)
		}
		word, err := e.encodeValue(f.Type, value, name+"."+f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(word)
	}
	for key := range data {
		if _, ok := known[key]; !ok {
			return nil, errors.ErrInvalidField.WithMessagef("%s has no member %q", name, key)
		}
	}
	return buf.Bytes(), nil
}

// encodeValue produces the 32-byte word for one value. path names the value
// in error messages.
func (e *structEncoder) encodeValue(typ string, value interface{}, path string) ([]byte, error) {
	if elem, length, ok := splitArray(typ); ok {
		items, ok := value.([]interface{})
		if !ok {
			return nil, errors.ErrInvalidField.WithMessagef("%s must be an array", path)
		}
		if length >= 0 && len(items) != length {
			return nil, errors.ErrInvalidField.WithMessagef("%s must have %d elements, got %d", path, length, len(items))
		}
		buf := make([]byte, 0, 32*len(items))
		for i, item := range items {
			word, err := e.encodeValue(elem, item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			buf = append(buf, word...)
		}
		return e.keccak.Keccak256(buf), nil
	}

	if _, ok := e.types[typ]; ok {
		obj, ok := value.(map[string]interface{})
		if !ok {
			return nil, errors.ErrInvalidField.WithMessagef("%s must be an object of type %s", path, typ)
		}
		encoded, err := e.encodeData(typ, obj)
		if err != nil {
			return nil, err
		}
		return e.keccak.Keccak256(encoded), nil
	}

	a, ok := parseAtom(typ)
	if !ok {
		return nil, errors.ErrUndefinedType.WithMessagef("type %q of %s is not defined", typ, path)
	}
	word, err := encodeAtom(a, value)
	if err != nil {
		return nil, errors.WrapWithCause(errors.ErrInvalidField, err, "%s (%s)", path, typ)
	}
	if a.dynamic() {
		return e.keccak.Keccak256(word), nil
	}
	return word, nil
}

// encodeAtom returns the padded word for static atoms and the raw content for
// string and bytes, which the caller hashes.
func encodeAtom(a atom, value interface{}) ([]byte, error) {
	switch a.kind {
	case atomString:
		s, ok := value.(string)
		if !ok {
			return nil, errors.ErrInvalidField.WithMessage("expected a string")
		}
		return []byte(s), nil
	case atomBytes:
		s, ok := value.(string)
		if !ok {
			return nil, errors.ErrInvalidHex.WithMessage("expected a hex string")
		}
		return hashenc.ParseHex(s)
	case atomFixedBytes:
		s, ok := value.(string)
		if !ok {
			return nil, errors.ErrInvalidHex.WithMessage("expected a hex string")
		}
		b, err := hashenc.FixedBytes(s, a.size)
		if err != nil {
			return nil, err
		}
		word := make([]byte, 32)
		copy(word, b)
		return word, nil
	case atomAddress:
		s, ok := value.(string)
		if !ok {
			return nil, errors.ErrInvalidAddress.WithMessage("expected an address string")
		}
		addr, err := hashenc.ParseAddress(s)
		if err != nil {
			return nil, err
		}
		return common.LeftPadBytes(addr.Bytes(), 32), nil
	case atomBool:
		b, err := boolValue(value)
		if err != nil {
			return nil, err
		}
		word := make([]byte, 32)
		if b {
			word[31] = 1
		}
		return word, nil
	case atomUint, atomInt:
		v, err := integerValue(value, a.size, a.kind == atomInt)
		if err != nil {
			return nil, err
		}
		return hashenc.TwosComplement(v, 32), nil
	}
	return nil, errors.ErrUnknownType
}

func boolValue(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return hashenc.ParseBool(v)
	}
	return false, errors.ErrInvalidBool.WithMessagef("%v is not a boolean", value)
}

// integerValue accepts JSON numbers and decimal or 0x-hex strings.
func integerValue(value interface{}, bits int, signed bool) (*big.Int, error) {
	var s string
	switch v := value.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = v
	case float64:
		if v != float64(int64(v)) {
			return nil, errors.ErrInvalidInteger.WithMessagef("%v is not an integer", v)
		}
		s = strconv.FormatInt(int64(v), 10)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case uint64:
		s = strconv.FormatUint(v, 10)
	case *big.Int:
		if v == nil {
			return nil, errors.ErrInvalidInteger
		}
		s = v.String()
	default:
		return nil, errors.ErrInvalidInteger.WithMessagef("%v is not an integer", value)
	}
	return hashenc.ParseInteger(s, bits, signed)
}
