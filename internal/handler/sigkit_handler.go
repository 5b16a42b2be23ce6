package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/dto"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/hashenc"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/signature"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/typeddata"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/verify"
)

// Toolkit is the service behind SigkitHandler.
type Toolkit interface {
	ConvertUnits(ctx context.Context, amount, unit string) (*dto.ConvertUnitsResponse, error)
	Hash(ctx context.Context, value, typ string) (*hashenc.Result, error)
	ClassifySignature(ctx context.Context, sig string) signature.Classification
	ParseSignature(ctx context.Context, sig string) (*signature.Signature, error)
	ClassifyMessage(ctx context.Context, msg string) (*dto.MessageShapeResponse, error)
	Verify(ctx context.Context, req verify.Request) (*verify.Result, error)
	EncodeTypedData(ctx context.Context, doc []byte) (*typeddata.EncodeResult, error)
	DecodeTypedData(ctx context.Context, req *dto.DecodeTypedDataRequest) (*typeddata.DecodedStruct, error)
}

// SigkitHandler exposes the toolkit operations.
type SigkitHandler struct {
	svc Toolkit
}

// NewSigkitHandler creates a SigkitHandler.
func NewSigkitHandler(svc Toolkit) *SigkitHandler {
	return &SigkitHandler{svc: svc}
}

// ConvertUnits POST /api/v1/units/convert
func (h *SigkitHandler) ConvertUnits(c *gin.Context) {
	var req dto.ConvertUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	resp, err := h.svc.ConvertUnits(c, req.Amount, req.Unit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, resp)
}

// Hash POST /api/v1/hash
func (h *SigkitHandler) Hash(c *gin.Context) {
	var req dto.HashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Hash(c, req.Value, req.Type)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, resp)
}

// ClassifySignature POST /api/v1/signatures/classify
// Invalid signatures are a successful reply with valid=false.
func (h *SigkitHandler) ClassifySignature(c *gin.Context) {
	var req dto.SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	Success(c, h.svc.ClassifySignature(c, req.Signature))
}

// ParseSignature POST /api/v1/signatures/parse
func (h *SigkitHandler) ParseSignature(c *gin.Context) {
	var req dto.SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	sig, err := h.svc.ParseSignature(c, req.Signature)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, sig)
}

// ClassifyMessage POST /api/v1/messages/classify
func (h *SigkitHandler) ClassifyMessage(c *gin.Context) {
	var req dto.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	resp, err := h.svc.ClassifyMessage(c, req.Message)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, resp)
}

// Verify POST /api/v1/verify
func (h *SigkitHandler) Verify(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Verify(c, req.ToVerifyRequest())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, resp)
}

// EncodeTypedData POST /api/v1/typed-data/encode
func (h *SigkitHandler) EncodeTypedData(c *gin.Context) {
	var req dto.EncodeTypedDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	doc, err := req.Document()
	if err != nil {
		BadRequest(c, "typedData: "+err.Error())
		return
	}

	resp, err := h.svc.EncodeTypedData(c, doc)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, resp)
}

// DecodeTypedData POST /api/v1/typed-data/decode
func (h *SigkitHandler) DecodeTypedData(c *gin.Context) {
	var req dto.DecodeTypedDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	resp, err := h.svc.DecodeTypedData(c, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, resp)
}
