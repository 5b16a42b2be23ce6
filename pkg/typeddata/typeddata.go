// Package typeddata resolves signing inputs into the digest a wallet signed:
// raw 32-byte digests, EIP-712 typed data and EIP-191 personal messages.
package typeddata

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
)

// DomainTypeName is the reserved name of the domain struct.
const DomainTypeName = "EIP712Domain"

// Field is one member of a struct type.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Types maps struct names to their ordered members.
type Types map[string][]Field

// TypedData is an EIP-712 document. Values decode with json.Number so
// integers above 2^53 survive.
type TypedData struct {
	Types       Types                  `json:"types"`
	PrimaryType string                 `json:"primaryType,omitempty"`
	Domain      map[string]interface{} `json:"domain"`
	Message     map[string]interface{} `json:"message"`

	// typeOrder keeps the key order of "types" as it appeared on the wire.
	typeOrder []string
}

// ParseTypedData decodes a typed-data JSON document.
func ParseTypedData(raw []byte) (*TypedData, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, errors.WrapWithCause(errors.ErrInvalidJSON, err, "typed data")
	}

	td := &TypedData{}

	typesRaw, ok := present(top, "types")
	if !ok {
		return nil, errors.ErrMissingTypes
	}
	types, order, err := decodeTypes(typesRaw)
	if err != nil {
		return nil, err
	}
	td.Types = types
	td.typeOrder = order

	domainRaw, ok := present(top, "domain")
	if !ok {
		return nil, errors.ErrMissingDomain
	}
	if td.Domain, err = decodeObject(domainRaw); err != nil {
		return nil, errors.WrapWithCause(errors.ErrInvalidDomain, err, "domain must be an object")
	}

	messageRaw, ok := present(top, "message")
	if !ok {
		return nil, errors.ErrMissingMessage
	}
	if td.Message, err = decodeObject(messageRaw); err != nil {
		return nil, errors.WrapWithCause(errors.ErrInvalidField, err, "message must be an object")
	}

	if pt, ok := present(top, "primaryType"); ok {
		if err := json.Unmarshal(pt, &td.PrimaryType); err != nil {
			return nil, errors.WrapWithCause(errors.ErrInvalidField, err, "primaryType must be a string")
		}
	}
	return td, nil
}

// UnmarshalJSON lets TypedData sit inside larger request bodies.
func (td *TypedData) UnmarshalJSON(raw []byte) error {
	parsed, err := ParseTypedData(raw)
	if err != nil {
		return err
	}
	*td = *parsed
	return nil
}

// TypeOrder returns the struct names in declaration order. Documents built in
// code have no wire order, so their names come back sorted.
func (td *TypedData) TypeOrder() []string {
	if len(td.typeOrder) == len(td.Types) {
		return td.typeOrder
	}
	names := make([]string, 0, len(td.Types))
	for name := range td.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolvePrimaryType returns the explicit primaryType or else the first
// declared type that is not EIP712Domain.
func (td *TypedData) ResolvePrimaryType() (string, error) {
	if td.PrimaryType != "" {
		if _, ok := td.Types[td.PrimaryType]; !ok {
			return "", errors.ErrNoPrimaryType.WithMessagef("primaryType %q is not declared", td.PrimaryType)
		}
		return td.PrimaryType, nil
	}
	for _, name := range td.TypeOrder() {
		if name != DomainTypeName {
			return name, nil
		}
	}
	return "", errors.ErrNoPrimaryType
}

// present treats an explicit null like an absent key.
func present(top map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := top[key]
	if !ok || len(v) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func decodeTypes(raw json.RawMessage) (Types, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, errors.WrapWithCause(errors.ErrInvalidJSON, err, "types")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.ErrInvalidField.WithMessage("types must be an object")
	}

	types := make(Types)
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, errors.WrapWithCause(errors.ErrInvalidJSON, err, "types")
		}
		name, _ := tok.(string)
		var fields []Field
		if err := dec.Decode(&fields); err != nil {
			return nil, nil, errors.WrapWithCause(errors.ErrInvalidField, err, "type %q must be a list of {name, type}", name)
		}
		for _, f := range fields {
			if f.Name == "" || f.Type == "" {
				return nil, nil, errors.ErrInvalidField.WithMessagef("type %q has a member without name or type", name)
			}
		}
		if _, dup := types[name]; !dup {
			order = append(order, name)
		}
		types[name] = fields
	}
	return types, order, nil
}

func decodeObject(raw json.RawMessage) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.ErrInvalidJSON.WithMessage("expected a JSON object")
	}
	return obj, nil
}
