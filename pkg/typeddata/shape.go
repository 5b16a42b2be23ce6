package typeddata

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
)

// Shape names how a signing input was interpreted.
type Shape string

const (
	ShapePreHashed Shape = "PreHashed"
	ShapeTypedData Shape = "TypedData"
	ShapePlainText Shape = "PlainText"
)

// personalPrefix is the EIP-191 version 0x45 prefix.
const personalPrefix = "\x19Ethereum Signed Message:\n"

// SigningInput is one of PreHashed, TypedDataInput or PlainText.
type SigningInput interface {
	Shape() Shape
	signingInput()
}

// PreHashed is a 32-byte digest used as-is.
type PreHashed struct {
	Digest common.Hash
}

// TypedDataInput is a JSON document carrying domain, types and message. It is
// parsed lazily so classification never fails.
type TypedDataInput struct {
	Raw []byte
}

// PlainText is any other input, hashed as an EIP-191 personal message.
type PlainText struct {
	Text string
}

func (PreHashed) Shape() Shape      { return ShapePreHashed }
func (TypedDataInput) Shape() Shape { return ShapeTypedData }
func (PlainText) Shape() Shape      { return ShapePlainText }

func (PreHashed) signingInput()      {}
func (TypedDataInput) signingInput() {}
func (PlainText) signingInput()      {}

// ParseSigningInput classifies input. Exactly 0x plus 64 hex characters
// (surrounding whitespace ignored) is a digest; a JSON object with domain,
// types and message keys is typed data; everything else is plain text.
func ParseSigningInput(input string) SigningInput {
	if trimmed := strings.TrimSpace(input); len(trimmed) == 66 && strings.HasPrefix(trimmed, "0x") {
		if b, err := hexutil.Decode(trimmed); err == nil {
			return PreHashed{Digest: common.BytesToHash(b)}
		}
	}
	if looksLikeTypedData(input) {
		return TypedDataInput{Raw: []byte(input)}
	}
	return PlainText{Text: input}
}

// ClassifyShape returns the shape ParseSigningInput would pick.
func ClassifyShape(input string) Shape {
	return ParseSigningInput(input).Shape()
}

func looksLikeTypedData(input string) bool {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &top); err != nil {
		return false
	}
	for _, key := range []string{"domain", "types", "message"} {
		if _, ok := top[key]; !ok {
			return false
		}
	}
	return true
}

// MessageHash returns the digest a signer committed to for in.
func MessageHash(in SigningInput) ([]byte, error) {
	return defaultResolver.MessageHash(in)
}

// PersonalHash returns keccak256("\x19Ethereum Signed Message:\n" + len(msg) + msg).
func PersonalHash(msg []byte) []byte {
	return defaultResolver.PersonalHash(msg)
}

// MessageHash is the Resolver form of the package-level MessageHash.
func (r *Resolver) MessageHash(in SigningInput) ([]byte, error) {
	switch v := in.(type) {
	case PreHashed:
		return v.Digest.Bytes(), nil
	case TypedDataInput:
		td, err := ParseTypedData(v.Raw)
		if err != nil {
			return nil, err
		}
		res, err := r.Encode(td)
		if err != nil {
			return nil, err
		}
		return res.Digest(), nil
	case PlainText:
		return r.PersonalHash([]byte(v.Text)), nil
	}
	return nil, errors.ErrUnsupportedShape
}

// PersonalHash is the Resolver form of the package-level PersonalHash.
func (r *Resolver) PersonalHash(msg []byte) []byte {
	return r.keccak.Keccak256([]byte(personalPrefix), []byte(strconv.Itoa(len(msg))), msg)
}
