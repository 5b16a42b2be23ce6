// Package service binds the toolkit packages to the configured backends.
package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/config"
	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/dto"
	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/metrics"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/crypto"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/hashenc"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/logger"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/signature"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/typeddata"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/units"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/verify"
)

// Toolkit serves the HTTP handlers.
type Toolkit struct {
	encoder  *hashenc.Encoder
	resolver *typeddata.Resolver
	verifier *verify.Verifier
	limits   config.LimitsConfig
}

// NewToolkit builds the backends named in cfg.
func NewToolkit(cfg *config.Config) (*Toolkit, error) {
	k, err := crypto.NewKeccak(cfg.Crypto.Keccak)
	if err != nil {
		return nil, err
	}
	rec, err := crypto.NewRecoverer(cfg.Crypto.Recovery)
	if err != nil {
		return nil, err
	}
	return &Toolkit{
		encoder:  hashenc.New(k),
		resolver: typeddata.NewResolver(k),
		verifier: verify.New(k, rec),
		limits:   cfg.Limits,
	}, nil
}

// ConvertUnits expresses amount, given in unit, in every denomination.
func (t *Toolkit) ConvertUnits(ctx context.Context, amount, unit string) (*dto.ConvertUnitsResponse, error) {
	metrics.RecordOperation("convert")
	d, err := units.ParseDenomination(unit)
	if err != nil {
		return nil, err
	}
	conv, err := units.Convert(amount, d)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(conv))
	for denom, v := range conv {
		values[string(denom)] = v
	}
	return &dto.ConvertUnitsResponse{Wei: conv[units.Wei], Values: values}, nil
}

// Hash computes the raw, packed and padded digests of value.
func (t *Toolkit) Hash(ctx context.Context, value, typ string) (*hashenc.Result, error) {
	metrics.RecordOperation("hash")
	parsed, err := hashenc.ParseType(typ)
	if err != nil {
		return nil, err
	}
	return t.encoder.Hash(value, parsed)
}

// ClassifySignature never fails.
func (t *Toolkit) ClassifySignature(ctx context.Context, sig string) signature.Classification {
	metrics.RecordOperation("classify_signature")
	return signature.Classify(sig)
}

// ParseSignature splits sig into its components.
func (t *Toolkit) ParseSignature(ctx context.Context, sig string) (*signature.Signature, error) {
	metrics.RecordOperation("parse_signature")
	return signature.Parse(sig)
}

// ClassifyMessage reports the shape of msg and, when it resolves, its hash.
// Resolution failures are reported in the response, not as an error.
func (t *Toolkit) ClassifyMessage(ctx context.Context, msg string) (*dto.MessageShapeResponse, error) {
	metrics.RecordOperation("classify_message")
	if err := t.checkDocumentSize(len(msg)); err != nil {
		return nil, err
	}
	in := typeddata.ParseSigningInput(msg)
	resp := &dto.MessageShapeResponse{Shape: in.Shape()}
	digest, err := t.resolver.MessageHash(in)
	if err != nil {
		resp.Error = errors.FromError(err).Chain()
		return resp, nil
	}
	resp.MessageHash = hexutil.Encode(digest)
	return resp, nil
}

// Verify recovers the signer of req and records the outcome.
func (t *Toolkit) Verify(ctx context.Context, req verify.Request) (*verify.Result, error) {
	metrics.RecordOperation("verify")
	if err := t.checkDocumentSize(len(req.Message)); err != nil {
		return nil, err
	}

	res, err := t.verifier.Verify(ctx, req)
	if err != nil {
		format := signature.Classify(req.Signature).Format.Tag()
		if format == "" {
			format = "invalid"
		}
		metrics.RecordVerification(string(typeddata.ClassifyShape(req.Message)), format, "error")
		logger.WithContext(ctx).Debug("verification failed",
			zap.String("kind", string(errors.KindOf(err))),
			zap.Error(err))
		return nil, err
	}

	outcome := "recovered"
	if res.AddressMatch != nil {
		outcome = "mismatch"
		if *res.AddressMatch {
			outcome = "match"
		}
	}
	metrics.RecordVerification(string(res.MessageShape), res.SignatureFormat.Tag(), outcome)
	logger.WithContext(ctx).Debug("verification",
		zap.String("shape", string(res.MessageShape)),
		zap.String("format", res.SignatureFormat.Tag()),
		zap.String("signer", res.RecoveredAddress),
		zap.String("outcome", outcome))
	return res, nil
}

// EncodeTypedData hashes a typed-data document.
func (t *Toolkit) EncodeTypedData(ctx context.Context, doc []byte) (*typeddata.EncodeResult, error) {
	metrics.RecordOperation("encode_typed_data")
	if err := t.checkDocumentSize(len(doc)); err != nil {
		return nil, err
	}
	td, err := typeddata.ParseTypedData(doc)
	if err != nil {
		return nil, err
	}
	return t.resolver.Encode(td)
}

// DecodeTypedData splits encoded struct data back into member values.
func (t *Toolkit) DecodeTypedData(ctx context.Context, req *dto.DecodeTypedDataRequest) (*typeddata.DecodedStruct, error) {
	metrics.RecordOperation("decode_typed_data")
	return t.resolver.DecodeStruct(req.Types, req.PrimaryType, req.EncodedData)
}

// Known-answer vector for Ping: the Ether Mail example signed by the cow key.
const (
	selfTestDigest    = "0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2"
	selfTestSignature = "0x4355c47d63924e8a72e509b65029052eb6c299d53a04e167c5775fd466751c9d" +
		"07299936d304c153f6443dfa05f40ff007d72911b6f72307f996231605b915621c"
	selfTestSigner = "0xcd2a3d9f938e13cd947ec05abc7fe734df8dd826"
)

// Ping recovers a known signature with the configured backends.
func (t *Toolkit) Ping() error {
	res, err := t.verifier.Verify(context.Background(), verify.Request{
		Message:         selfTestDigest,
		Signature:       selfTestSignature,
		ExpectedAddress: selfTestSigner,
	})
	if err != nil {
		return err
	}
	if res.AddressMatch == nil || !*res.AddressMatch {
		return errors.ErrInternal.WithMessagef("self test recovered %s", res.RecoveredAddress)
	}
	return nil
}

func (t *Toolkit) checkDocumentSize(n int) error {
	if t.limits.MaxTypedDataBytes > 0 && n > t.limits.MaxTypedDataBytes {
		return dto.ErrPayloadTooLarge.WithMessage("message exceeds the typed data size limit")
	}
	return nil
}
