package dto

import (
	"encoding/json"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/typeddata"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/verify"
)

// ConvertUnitsRequest POST /api/v1/units/convert
type ConvertUnitsRequest struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit" binding:"required"`
}

// ConvertUnitsResponse lists the amount in every denomination.
type ConvertUnitsResponse struct {
	Wei    string            `json:"wei"`
	Values map[string]string `json:"values"`
}

// HashRequest POST /api/v1/hash
type HashRequest struct {
	Value string `json:"value"`
	Type  string `json:"type" binding:"required"`
}

// SignatureRequest POST /api/v1/signatures/classify and /parse
type SignatureRequest struct {
	Signature string `json:"signature"`
}

// MessageRequest POST /api/v1/messages/classify
type MessageRequest struct {
	Message string `json:"message"`
}

// MessageShapeResponse reports how a signing input will be hashed.
type MessageShapeResponse struct {
	Shape       typeddata.Shape `json:"shape"`
	MessageHash string          `json:"messageHash,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// VerifyRequest POST /api/v1/verify
type VerifyRequest struct {
	Message         string `json:"message"`
	Signature       string `json:"signature" binding:"required"`
	ExpectedAddress string `json:"expectedAddress"`
}

// ToVerifyRequest converts to the toolkit request.
func (r *VerifyRequest) ToVerifyRequest() verify.Request {
	return verify.Request{
		Message:         r.Message,
		Signature:       r.Signature,
		ExpectedAddress: r.ExpectedAddress,
	}
}

// EncodeTypedDataRequest POST /api/v1/typed-data/encode. TypedData is either
// the document itself or a string holding it.
type EncodeTypedDataRequest struct {
	TypedData json.RawMessage `json:"typedData" binding:"required"`
}

// Document returns the typed-data JSON, unwrapping a string form.
func (r *EncodeTypedDataRequest) Document() ([]byte, error) {
	if len(r.TypedData) > 0 && r.TypedData[0] == '"' {
		var s string
		if err := json.Unmarshal(r.TypedData, &s); err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return r.TypedData, nil
}

// DecodeTypedDataRequest POST /api/v1/typed-data/decode
type DecodeTypedDataRequest struct {
	Types       typeddata.Types `json:"types" binding:"required"`
	PrimaryType string          `json:"primaryType"`
	EncodedData string          `json:"encodedData" binding:"required"`
}
