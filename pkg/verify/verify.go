// Package verify recovers the signer of a message and compares it with an
// expected address.
package verify

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/crypto"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/hashenc"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/signature"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/typeddata"
)

// Request is one verification: the signing input (digest, typed-data JSON or
// text), the signature and, optionally, the address expected to have signed.
type Request struct {
	Message         string `json:"message"`
	Signature       string `json:"signature"`
	ExpectedAddress string `json:"expectedAddress,omitempty"`
}

// Result is the display-only outcome of a verification.
type Result struct {
	SignatureFormat  signature.Format `json:"signatureFormat"`
	MessageShape     typeddata.Shape  `json:"messageShape"`
	MessageHash      string           `json:"messageHash"`
	RecoveredAddress string           `json:"recoveredAddress"`
	R                string           `json:"r"`
	S                string           `json:"s"`
	V                uint8            `json:"v"`
	YParity          uint8            `json:"yParity"`
	// AddressMatch is nil when no expected address was given.
	AddressMatch *bool `json:"addressMatch,omitempty"`
}

// Verifier ties a Keccak backend and a recovery backend together.
type Verifier struct {
	resolver  *typeddata.Resolver
	recoverer crypto.ECRecover
}

// New creates a Verifier. Nil arguments select the default backends.
func New(k crypto.Keccak, rec crypto.ECRecover) *Verifier {
	if rec == nil {
		rec = crypto.GethRecoverer{}
	}
	return &Verifier{
		resolver:  typeddata.NewResolver(k),
		recoverer: rec,
	}
}

var defaultVerifier = New(nil, nil)

// Verify runs req through the default backends.
func Verify(ctx context.Context, req Request) (*Result, error) {
	return defaultVerifier.Verify(ctx, req)
}

// Verify parses the signature, hashes the message according to its shape and
// recovers the signer. An address mismatch is reported in the result, not as
// an error.
func (v *Verifier) Verify(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapWithCause(errors.ErrInternal, err, "verification cancelled")
	}

	sig, err := signature.Parse(req.Signature)
	if err != nil {
		return nil, err
	}

	input := typeddata.ParseSigningInput(req.Message)
	digest, err := v.resolver.MessageHash(input)
	if err != nil {
		return nil, err
	}

	addr, err := v.recoverer.RecoverAddress(digest, sig.R, sig.S, sig.V)
	if err != nil {
		return nil, errors.Wrap(errors.ErrRecoveryFailed, err)
	}
	recovered := hexutil.Encode(addr.Bytes())

	res := &Result{
		SignatureFormat:  sig.Format,
		MessageShape:     input.Shape(),
		MessageHash:      hexutil.Encode(digest),
		RecoveredAddress: recovered,
		R:                sig.RHex(),
		S:                sig.SHex(),
		V:                sig.V,
		YParity:          sig.YParity,
	}

	if strings.TrimSpace(req.ExpectedAddress) != "" {
		expected, err := hashenc.ParseAddress(req.ExpectedAddress)
		if err != nil {
			return nil, err
		}
		match := expected == addr
		res.AddressMatch = &match
	}
	return res, nil
}
