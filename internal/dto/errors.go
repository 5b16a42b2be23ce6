package dto

import (
	"net/http"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
)

// BizError is an error as rendered to API clients.
type BizError struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`

	// Reason and Kind carry the toolkit error code and taxonomy kind.
	Reason  string            `json:"-"`
	Kind    string            `json:"-"`
	Details map[string]string `json:"-"`
}

// Error implements error
func (e *BizError) Error() string {
	return e.Message
}

// Toolkit errors (10xxx), one code per taxonomy kind
var (
	ErrInvalidInput     = &BizError{Code: 10001, Message: "INVALID_INPUT", HTTPStatus: http.StatusBadRequest}
	ErrUnsupportedShape = &BizError{Code: 10002, Message: "UNSUPPORTED_SHAPE", HTTPStatus: http.StatusUnprocessableEntity}
	ErrPrimitiveFailure = &BizError{Code: 10003, Message: "PRIMITIVE_FAILURE", HTTPStatus: http.StatusUnprocessableEntity}
	ErrUnrecoverable    = &BizError{Code: 10004, Message: "UNRECOVERABLE", HTTPStatus: http.StatusUnprocessableEntity}
)

// Request errors (11xxx)
var (
	ErrInvalidParams   = &BizError{Code: 11001, Message: "INVALID_PARAMS", HTTPStatus: http.StatusBadRequest}
	ErrPayloadTooLarge = &BizError{Code: 11002, Message: "PAYLOAD_TOO_LARGE", HTTPStatus: http.StatusRequestEntityTooLarge}
)

// System errors (20xxx)
var (
	ErrInternalError = &BizError{Code: 20003, Message: "INTERNAL_ERROR", HTTPStatus: http.StatusInternalServerError}
	ErrNotFound      = &BizError{Code: 20004, Message: "NOT_FOUND", HTTPStatus: http.StatusNotFound}
)

var kindErrors = map[errors.Kind]*BizError{
	errors.KindInvalidInput:     ErrInvalidInput,
	errors.KindUnsupportedShape: ErrUnsupportedShape,
	errors.KindPrimitiveFailure: ErrPrimitiveFailure,
	errors.KindUnrecoverable:    ErrUnrecoverable,
}

// FromError maps a toolkit error onto its API form. The message chain is
// passed through verbatim.
func FromError(err error) *BizError {
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr
	}

	e := errors.FromError(err)
	base, ok := kindErrors[e.Kind]
	if !ok {
		base = ErrInternalError
	}
	status := e.HTTPStatus
	if status == 0 {
		status = base.HTTPStatus
	}
	return &BizError{
		Code:       base.Code,
		Message:    e.Chain(),
		HTTPStatus: status,
		Reason:     e.Code,
		Kind:       string(e.Kind),
		Details:    e.Details,
	}
}

// WithMessage returns a copy carrying msg.
func (e *BizError) WithMessage(msg string) *BizError {
	cp := *e
	cp.Message = msg
	return &cp
}
