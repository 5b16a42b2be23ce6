package typeddata

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/crypto"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
)

const etherMail = `{
  "types": {
    "EIP712Domain": [
      {"name": "name", "type": "string"},
      {"name": "version", "type": "string"},
      {"name": "chainId", "type": "uint256"},
      {"name": "verifyingContract", "type": "address"}
    ],
    "Mail": [
      {"name": "from", "type": "Person"},
      {"name": "to", "type": "Person"},
      {"name": "contents", "type": "string"}
    ],
    "Person": [
      {"name": "name", "type": "string"},
      {"name": "wallet", "type": "address"}
    ]
  },
  "domain": {
    "name": "Ether Mail",
    "version": "1",
    "chainId": 1,
    "verifyingContract": "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"
  },
  "message": {
    "from": {"name": "Cow", "wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"},
    "to": {"name": "Bob", "wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"},
    "contents": "Hello, Bob!"
  }
}`

const (
	mailDomainSeparator = "0xf2cee375fa42b42143804025fc449deafd50cc031ca257e0b194a650a912090f"
	mailStructHash      = "0xc52c0ee5d84264471806290a3f2c4cecfc5490626bf912d01f240d7a274b371e"
	mailMessageHash     = "0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2"
	mailTypeHash        = "0xa0cedeb2dc280ba39b857546d74f5549c3a1d7bdc2dd96bf881f76108e23dac2"
	mailTypeString      = "Mail(Person from,Person to,string contents)Person(string name,address wallet)"
)

const orderDoc = `{
  "types": {
    "Order": [
      {"name": "maker", "type": "address"},
      {"name": "amount", "type": "uint256"},
      {"name": "delta", "type": "int8"},
      {"name": "active", "type": "bool"},
      {"name": "tag", "type": "bytes4"},
      {"name": "memo", "type": "string"},
      {"name": "ids", "type": "uint32[]"}
    ]
  },
  "domain": {"chainId": 5, "name": "Book"},
  "message": {
    "maker": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB",
    "amount": "1000000000000000000000",
    "delta": -5,
    "active": true,
    "tag": "0xdeadbeef",
    "memo": "gm",
    "ids": [1, 2, 3]
  }
}`

const (
	orderDomainSeparator = "0xc1a7f728d8a247373fbbdf19a4e4427875270ef792191406041e1b3e523f235f"
	orderStructHash      = "0xe1f422f9e488df8dc838f6dccf6782ced5b63a95ddf06f7b0fa50ba84f2b49a9"
	orderMessageHash     = "0xe50f457e6e71383ae0edac55eda7c06ee8fde785347be7660e1e9d64325909ee"
	orderEncoded         = "0x62aa11c12402fbf93fd656e5eba9087556ad94fa72ba472df360c679a22cc70c" +
		"000000000000000000000000bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb" +
		"00000000000000000000000000000000000000000000003635c9adc5dea00000" +
		"fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffb" +
		"0000000000000000000000000000000000000000000000000000000000000001" +
		"deadbeef00000000000000000000000000000000000000000000000000000000" +
		"71b78290913af2addd8fcbe5766de306af2c8afbc466ca891e207f73638c7270" +
		"6e0c627900b24bd432fe7b1f713f1b0744091a646a9fe4a65a18dfed21f2949c"
)

func orderTypes() Types {
	return Types{
		"Order": {
			{Name: "maker", Type: "address"},
			{Name: "amount", Type: "uint256"},
			{Name: "delta", Type: "int8"},
			{Name: "active", Type: "bool"},
			{Name: "tag", Type: "bytes4"},
			{Name: "memo", Type: "string"},
			{Name: "ids", Type: "uint32[]"},
		},
	}
}

// ========== Shape classification ==========

func TestClassifyShape(t *testing.T) {
	digest := "0x" + strings.Repeat("ab", 32)
	tests := []struct {
		name  string
		input string
		want  Shape
	}{
		{"digest", digest, ShapePreHashed},
		{"digest with whitespace", "  " + digest + "\n", ShapePreHashed},
		{"uppercase digest", "0x" + strings.Repeat("AB", 32), ShapePreHashed},
		{"digest missing prefix", strings.Repeat("ab", 32), ShapePlainText},
		{"digest too short", "0x" + strings.Repeat("ab", 31), ShapePlainText},
		{"digest non hex", "0x" + strings.Repeat("zz", 32), ShapePlainText},
		{"typed data", etherMail, ShapeTypedData},
		{"typed data leading whitespace", "\n\t " + etherMail, ShapeTypedData},
		{"typed data null members", `{"domain":null,"types":null,"message":null}`, ShapeTypedData},
		{"partial typed data", `{"domain":{},"types":{}}`, ShapePlainText},
		{"invalid json", "{ invalid json", ShapePlainText},
		{"json array", `[{"domain":{},"types":{},"message":{}}]`, ShapePlainText},
		{"plain sentence", "Hello Augusto!", ShapePlainText},
		{"empty", "", ShapePlainText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyShape(tt.input))
			assert.Equal(t, ClassifyShape(tt.input), ClassifyShape(tt.input))
		})
	}
}

func TestParseSigningInput_Variants(t *testing.T) {
	digest := "0x" + strings.Repeat("01", 32)

	in := ParseSigningInput(digest)
	pre, ok := in.(PreHashed)
	require.True(t, ok)
	assert.Equal(t, digest, pre.Digest.Hex())

	_, ok = ParseSigningInput(etherMail).(TypedDataInput)
	assert.True(t, ok)

	text, ok := ParseSigningInput("gm").(PlainText)
	require.True(t, ok)
	assert.Equal(t, "gm", text.Text)
}

// ========== Message hash ==========

func TestPersonalHash(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"Hello Augusto!", "0x2a9957525e404a3ca32a35370f5a18351bcc1435bbeb175bff61c6cd948c0d58"},
		{"", "0x5f35dce98ba4fba25530a026ed80b2cecdaa31091ba4958b99b52ea1d068adad"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := PersonalHash([]byte(tt.msg))
			assert.Equal(t, tt.want, hexutil.Encode(got))
			assert.Equal(t, accounts.TextHash([]byte(tt.msg)), got)
		})
	}
}

func TestPersonalHash_MultiByteLength(t *testing.T) {
	// length prefix counts bytes, not runes
	msg := "héllo"
	assert.Equal(t, accounts.TextHash([]byte(msg)), PersonalHash([]byte(msg)))
}

func TestMessageHash(t *testing.T) {
	digest := "0x" + strings.Repeat("ab", 32)
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"pre-hashed passes through", digest, digest},
		{"typed data", etherMail, mailMessageHash},
		{"plain text", "Hello Augusto!", "0x2a9957525e404a3ca32a35370f5a18351bcc1435bbeb175bff61c6cd948c0d58"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MessageHash(ParseSigningInput(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, hexutil.Encode(got))
		})
	}
}

func TestMessageHash_TypedDataErrors(t *testing.T) {
	_, err := MessageHash(ParseSigningInput(`{"domain":null,"types":{"A":[]},"message":{}}`))
	assert.True(t, errors.Is(err, errors.ErrMissingDomain))
}

func TestMessageHash_UnknownShape(t *testing.T) {
	_, err := MessageHash(nil)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedShape))
	assert.Equal(t, errors.KindUnsupportedShape, errors.KindOf(err))
}

// ========== Encoding ==========

func TestEncodeJSON_EtherMail(t *testing.T) {
	res, err := EncodeJSON([]byte(etherMail))
	require.NoError(t, err)

	assert.Equal(t, "Mail", res.PrimaryType)
	assert.Equal(t, mailTypeString, res.TypeString)
	assert.Equal(t, mailTypeHash, res.TypeHash)
	assert.Equal(t, mailDomainSeparator, res.DomainSeparator)
	assert.Equal(t, mailStructHash, res.StructHash)
	assert.Equal(t, mailMessageHash, res.MessageHash)
	assert.Equal(t, mailMessageHash, hexutil.Encode(res.Digest()))
	assert.True(t, strings.HasPrefix(res.EncodedData, mailTypeHash))
	assert.Len(t, res.EncodedData, 2+64*4)
}

func TestEncodeJSON_Scalars(t *testing.T) {
	res, err := EncodeJSON([]byte(orderDoc))
	require.NoError(t, err)

	assert.Equal(t, orderDomainSeparator, res.DomainSeparator)
	assert.Equal(t, orderEncoded, res.EncodedData)
	assert.Equal(t, orderStructHash, res.StructHash)
	assert.Equal(t, orderMessageHash, res.MessageHash)
}

func TestEncode_BackendsAgree(t *testing.T) {
	td, err := ParseTypedData([]byte(etherMail))
	require.NoError(t, err)

	legacy, err := NewResolver(crypto.LegacyKeccak{}).Encode(td)
	require.NoError(t, err)
	geth, err := NewResolver(crypto.GethKeccak{}).Encode(td)
	require.NoError(t, err)
	assert.Equal(t, legacy, geth)
}

func TestEncode_ExplicitPrimaryType(t *testing.T) {
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(etherMail), &doc))
	doc["primaryType"] = "Person"
	doc["message"] = map[string]interface{}{"name": "Cow", "wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	res, err := EncodeJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, "Person", res.PrimaryType)
	assert.Equal(t, mailDomainSeparator, res.DomainSeparator)
	assert.Equal(t, "Person(string name,address wallet)", res.TypeString)
}

func TestEncode_DomainSubset(t *testing.T) {
	r := NewResolver(nil)
	tests := []struct {
		name   string
		domain map[string]interface{}
		want   string
	}{
		{"empty", map[string]interface{}{}, "0x6192106f129ce05c9075d319c1fa6ea9b3ae37cbd0c1ef92e2be7137bb07baa1"},
		{"name and chainId", map[string]interface{}{"chainId": json.Number("1"), "name": "Ether Mail"}, "0xadf7a172164e149ca810ffc562728fed6da0da52578ddb4276b0991becb4ff34"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.DomainSeparator(tt.domain)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hexutil.Encode(got))
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	mailTypes := `{"Mail":[{"name":"contents","type":"string"}]}`
	tests := []struct {
		name string
		doc  string
		want *errors.Error
	}{
		{"not json", `{`, errors.ErrInvalidJSON},
		{"missing types", `{"domain":{},"message":{}}`, errors.ErrMissingTypes},
		{"missing domain", `{"types":` + mailTypes + `,"message":{}}`, errors.ErrMissingDomain},
		{"missing message", `{"types":` + mailTypes + `,"domain":{}}`, errors.ErrMissingMessage},
		{"only domain type", `{"types":{"EIP712Domain":[]},"domain":{},"message":{}}`, errors.ErrNoPrimaryType},
		{"unknown primaryType", `{"types":` + mailTypes + `,"primaryType":"Nope","domain":{},"message":{}}`, errors.ErrNoPrimaryType},
		{"domain as primaryType", `{"types":{"EIP712Domain":[]},"primaryType":"EIP712Domain","domain":{},"message":{}}`, errors.ErrNoPrimaryType},
		{"undefined nested type", `{"types":{"Mail":[{"name":"from","type":"Person"}]},"domain":{},"message":{"from":{}}}`, errors.ErrUndefinedType},
		{"undefined array element type", `{"types":{"Mail":[{"name":"to","type":"Person[]"}]},"domain":{},"message":{"to":[]}}`, errors.ErrUndefinedType},
		{"unknown domain member", `{"types":` + mailTypes + `,"domain":{"owner":"x"},"message":{"contents":""}}`, errors.ErrInvalidDomain},
		{"bad domain value", `{"types":` + mailTypes + `,"domain":{"chainId":"one"},"message":{"contents":""}}`, errors.ErrInvalidDomain},
		{"missing field", `{"types":` + mailTypes + `,"domain":{},"message":{}}`, errors.ErrInvalidField},
		{"extra field", `{"types":` + mailTypes + `,"domain":{},"message":{"contents":"","cc":"x"}}`, errors.ErrInvalidField},
		{"wrong value type", `{"types":` + mailTypes + `,"domain":{},"message":{"contents":5}}`, errors.ErrInvalidField},
		{"uint overflow", `{"types":{"A":[{"name":"n","type":"uint8"}]},"domain":{},"message":{"n":256}}`, errors.ErrInvalidInteger},
		{"negative uint", `{"types":{"A":[{"name":"n","type":"uint256"}]},"domain":{},"message":{"n":-1}}`, errors.ErrInvalidInteger},
		{"fixed array length", `{"types":{"A":[{"name":"n","type":"uint8[2]"}]},"domain":{},"message":{"n":[1]}}`, errors.ErrInvalidField},
		{"short bytes32", `{"types":{"A":[{"name":"b","type":"bytes32"}]},"domain":{},"message":{"b":"0x01"}}`, errors.ErrInvalidHex},
		{"bad address", `{"types":{"A":[{"name":"a","type":"address"}]},"domain":{},"message":{"a":"0x1234"}}`, errors.ErrInvalidAddress},
		{"bad type tag", `{"types":{"A":[{"name":"n","type":"uint7"}]},"domain":{},"message":{"n":1}}`, errors.ErrUndefinedType},
		{"member without type", `{"types":{"A":[{"name":"n"}]},"domain":{},"message":{"n":1}}`, errors.ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := EncodeJSON([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestEncode_RecursiveType(t *testing.T) {
	doc := `{
	  "types": {"Node": [{"name": "value", "type": "uint256"}, {"name": "children", "type": "Node[]"}]},
	  "domain": {},
	  "message": {"value": 1, "children": [{"value": 2, "children": []}]}
	}`
	res, err := EncodeJSON([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Node(uint256 value,Node[] children)", res.TypeString)
}

// ========== Type strings ==========

func TestTypeString_DependenciesSorted(t *testing.T) {
	types := Types{
		"Z": {{Name: "b", Type: "B"}, {Name: "a", Type: "A[2]"}},
		"A": {{Name: "c", Type: "C"}},
		"B": {{Name: "x", Type: "uint8"}},
		"C": {{Name: "y", Type: "bytes"}},
	}
	got, err := TypeString(types, "Z")
	require.NoError(t, err)
	assert.Equal(t, "Z(B b,A[2] a)A(C c)B(uint8 x)C(bytes y)", got)
}

func TestParseTypedData_KeepsTypeOrder(t *testing.T) {
	td, err := ParseTypedData([]byte(`{"types":{"Zeta":[],"Alpha":[]},"domain":{},"message":{}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta", "Alpha"}, td.TypeOrder())

	primary, err := td.ResolvePrimaryType()
	require.NoError(t, err)
	assert.Equal(t, "Zeta", primary)
}

func TestParseTypedData_LargeNumbersStayExact(t *testing.T) {
	td, err := ParseTypedData([]byte(`{"types":{"A":[]},"domain":{"chainId":123456789012345678901234567890},"message":{}}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("123456789012345678901234567890"), td.Domain["chainId"])
}

// ========== Decoding ==========

func TestDecodeStruct(t *testing.T) {
	got, err := DecodeStruct(orderTypes(), "Order", orderEncoded)
	require.NoError(t, err)

	assert.Equal(t, "Order", got.PrimaryType)
	assert.True(t, got.TypeHashMatches)
	assert.Equal(t, orderEncoded[:66], got.TypeHash.Hex())

	m := got.Map()
	assert.Equal(t, orderEncoded[:66], m["_typeHash"])
	assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", m["maker"])
	assert.Equal(t, "1000000000000000000000", m["amount"])
	assert.Equal(t, "-5", m["delta"])
	assert.Equal(t, true, m["active"])
	assert.Equal(t, "0xdeadbeef", m["tag"])

	memo, ok := m["memo"].(HashedValue)
	require.True(t, ok)
	assert.Equal(t, "0x71b78290913af2addd8fcbe5766de306af2c8afbc466ca891e207f73638c7270", memo.Hash.Hex())
	_, ok = m["ids"].(HashedValue)
	assert.True(t, ok)
}

func TestDecodeStruct_HashedFieldsAreUnrecoverable(t *testing.T) {
	got, err := DecodeStruct(orderTypes(), "", orderEncoded)
	require.NoError(t, err)

	v, err := got.Get("memo")
	assert.Nil(t, v)
	assert.True(t, errors.Is(err, errors.ErrHashedUnrecoverable))
	assert.Equal(t, errors.KindUnrecoverable, errors.KindOf(err))

	v, err = got.Get("amount")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000000", v)

	for _, f := range got.Fields {
		switch f.Type {
		case "string", "uint32[]":
			assert.False(t, f.Recoverable(), f.Name)
		default:
			assert.True(t, f.Recoverable(), f.Name)
		}
	}

	_, err = got.Get("nope")
	assert.True(t, errors.Is(err, errors.ErrInvalidField))
}

func TestDecodeStruct_NestedStructIsHashed(t *testing.T) {
	res, err := EncodeJSON([]byte(etherMail))
	require.NoError(t, err)
	td, err := ParseTypedData([]byte(etherMail))
	require.NoError(t, err)

	got, err := DecodeStruct(td.Types, "Mail", res.EncodedData)
	require.NoError(t, err)
	assert.True(t, got.TypeHashMatches)
	for _, f := range got.Fields {
		assert.False(t, f.Recoverable(), f.Name)
	}
}

func TestDecodeStruct_JSON(t *testing.T) {
	got, err := DecodeStruct(orderTypes(), "Order", orderEncoded)
	require.NoError(t, err)

	raw, err := json.Marshal(got)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	memo := m["memo"].(map[string]interface{})
	assert.Equal(t, true, memo["hashed"])
	assert.Equal(t, "hashed value, original unrecoverable", memo["note"])
	// never a fabricated string
	assert.NotEqual(t, "gm", m["memo"])
}

func TestDecodeStruct_TypeHashMismatch(t *testing.T) {
	types := orderTypes()
	types["Order"][0].Name = "taker"
	got, err := DecodeStruct(types, "Order", orderEncoded)
	require.NoError(t, err)
	assert.False(t, got.TypeHashMatches)
}

func TestDecodeStruct_Errors(t *testing.T) {
	word := func(hex string) string { return strings.Repeat("0", 64-len(hex)) + hex }
	typeHash := strings.Repeat("11", 32)
	one := func(typ string) Types { return Types{"A": {{Name: "v", Type: typ}}} }

	tests := []struct {
		name    string
		types   Types
		primary string
		encoded string
		want    *errors.Error
	}{
		{"no types", Types{}, "A", "0x" + typeHash, errors.ErrMissingTypes},
		{"missing prefix", one("bool"), "A", typeHash + word("1"), errors.ErrInvalidEncoding},
		{"not hex", one("bool"), "A", "0x" + strings.Repeat("zz", 64), errors.ErrInvalidEncoding},
		{"too short", one("bool"), "A", "0x" + typeHash, errors.ErrInvalidEncoding},
		{"too long", one("bool"), "A", "0x" + typeHash + word("1") + word("1"), errors.ErrInvalidEncoding},
		{"unknown primary", one("bool"), "B", "0x" + typeHash + word("1"), errors.ErrNoPrimaryType},
		{"ambiguous primary", Types{"A": {}, "B": {}}, "", "0x" + typeHash, errors.ErrNoPrimaryType},
		{"bool out of range", one("bool"), "A", "0x" + typeHash + word("2"), errors.ErrInvalidBool},
		{"address padding", one("address"), "A", "0x" + typeHash + "01" + strings.Repeat("0", 62), errors.ErrInvalidAddress},
		{"uint8 overflow", one("uint8"), "A", "0x" + typeHash + word("100"), errors.ErrInvalidInteger},
		{"int8 underflow", one("int8"), "A", "0x" + typeHash + strings.Repeat("f", 62) + "7f", errors.ErrInvalidInteger},
		{"bytes4 padding", one("bytes4"), "A", "0x" + typeHash + strings.Repeat("0", 63) + "1", errors.ErrInvalidHex},
		{"undefined type", one("Person"), "A", "0x" + typeHash + word("1"), errors.ErrUndefinedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeStruct(tt.types, tt.primary, tt.encoded)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDecodeStruct_SignedIntegers(t *testing.T) {
	types := Types{"A": {{Name: "v", Type: "int256"}}}
	typeHash := "0x" + strings.Repeat("00", 32)

	got, err := DecodeStruct(types, "A", typeHash+strings.Repeat("f", 64))
	require.NoError(t, err)
	v, err := got.Get("v")
	require.NoError(t, err)
	assert.Equal(t, "-1", v)

	got, err = DecodeStruct(types, "A", typeHash+strings.Repeat("0", 62)+"2a")
	require.NoError(t, err)
	v, err = got.Get("v")
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}
