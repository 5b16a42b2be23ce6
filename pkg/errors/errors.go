// Package errors defines the coded error taxonomy shared by every sigkit package.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind is the error category of the taxonomy.
type Kind string

const (
	// KindInvalidInput malformed hex/JSON/decimal, wrong length, unknown type tag
	KindInvalidInput Kind = "InvalidInput"
	// KindUnsupportedShape the input is well formed but cannot be resolved
	KindUnsupportedShape Kind = "UnsupportedShape"
	// KindPrimitiveFailure a hashing/recovery/ABI collaborator rejected the input
	KindPrimitiveFailure Kind = "PrimitiveFailure"
	// KindUnrecoverable documented information loss, not a bug
	KindUnrecoverable Kind = "Unrecoverable"
	// KindInternal anything that escaped the taxonomy
	KindInternal Kind = "Internal"
)

// Error coded error
type Error struct {
	Code       string            `json:"code"`
	Kind       Kind              `json:"kind"`
	Message    string            `json:"message"`
	HTTPStatus int               `json:"-"`
	GRPCCode   codes.Code        `json:"-"`
	Cause      error             `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on code so wrapped copies still compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Chain returns the message followed by the message of every cause.
func (e *Error) Chain() string {
	msg := e.Message
	for cause := e.Cause; cause != nil; {
		var next *Error
		if !errors.As(cause, &next) {
			return msg + ": " + cause.Error()
		}
		msg += ": " + next.Message
		cause = next.Cause
	}
	return msg
}

// WithDetail returns a copy carrying one more detail entry.
func (e *Error) WithDetail(key, value string) *Error {
	newErr := e.Copy()
	if newErr.Details == nil {
		newErr.Details = make(map[string]string)
	}
	newErr.Details[key] = value
	return newErr
}

// WithMessage returns a copy with the message replaced.
func (e *Error) WithMessage(message string) *Error {
	newErr := e.Copy()
	newErr.Message = message
	return newErr
}

// WithMessagef formats and replaces the message.
func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// Copy returns a deep copy.
func (e *Error) Copy() *Error {
	newErr := &Error{
		Code:       e.Code,
		Kind:       e.Kind,
		Message:    e.Message,
		HTTPStatus: e.HTTPStatus,
		GRPCCode:   e.GRPCCode,
		Cause:      e.Cause,
	}
	if e.Details != nil {
		newErr.Details = make(map[string]string, len(e.Details))
		for k, v := range e.Details {
			newErr.Details[k] = v
		}
	}
	return newErr
}

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error,omitempty"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
	})
}

// New creates an error of the given kind with transport codes derived from the kind.
func New(kind Kind, code, message string) *Error {
	httpStatus, grpcCode := kindStatus(kind)
	return &Error{
		Code:       code,
		Kind:       kind,
		Message:    message,
		HTTPStatus: httpStatus,
		GRPCCode:   grpcCode,
	}
}

// Wrap attaches a cause to a copy of err.
func Wrap(err *Error, cause error) *Error {
	newErr := err.Copy()
	newErr.Cause = cause
	return newErr
}

// Wrapf appends formatted context to a copy of err's message.
func Wrapf(err *Error, format string, args ...interface{}) *Error {
	newErr := err.Copy()
	newErr.Message = fmt.Sprintf("%s: %s", err.Message, fmt.Sprintf(format, args...))
	return newErr
}

// WrapWithCause combines Wrap and Wrapf.
func WrapWithCause(err *Error, cause error, format string, args ...interface{}) *Error {
	newErr := Wrapf(err, format, args...)
	newErr.Cause = cause
	return newErr
}

func kindStatus(kind Kind) (int, codes.Code) {
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest, codes.InvalidArgument
	case KindUnsupportedShape:
		return http.StatusUnprocessableEntity, codes.FailedPrecondition
	case KindPrimitiveFailure:
		return http.StatusUnprocessableEntity, codes.Aborted
	case KindUnrecoverable:
		return http.StatusUnprocessableEntity, codes.DataLoss
	default:
		return http.StatusInternalServerError, codes.Internal
	}
}

// FromError converts any error into *Error, tagging foreign errors as internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var bizErr *Error
	if errors.As(err, &bizErr) {
		return bizErr
	}
	return Wrap(ErrInternal, err)
}

// Generic
var (
	ErrInternal     = New(KindInternal, "INTERNAL_ERROR", "internal error")
	ErrInvalidInput = New(KindInvalidInput, "INVALID_INPUT", "invalid input")
)

// Encoding and parsing
var (
	ErrInvalidHex     = New(KindInvalidInput, "INVALID_HEX", "invalid hex string")
	ErrInvalidDecimal = New(KindInvalidInput, "INVALID_DECIMAL", "invalid decimal amount")
	ErrInvalidUnit    = New(KindInvalidInput, "INVALID_UNIT", "unknown denomination")
	ErrInvalidAddress = New(KindInvalidInput, "INVALID_ADDRESS", "address must be 40 hex characters")
	ErrInvalidInteger = New(KindInvalidInput, "INVALID_INTEGER", "invalid integer value")
	ErrInvalidBool    = New(KindInvalidInput, "INVALID_BOOL", "invalid boolean value")
	ErrUnknownType    = New(KindInvalidInput, "UNKNOWN_TYPE", "unsupported solidity type")
	ErrInvalidJSON    = New(KindInvalidInput, "INVALID_JSON", "invalid JSON")
)

// Signatures
var (
	ErrInvalidSignature       = New(KindInvalidInput, "INVALID_SIGNATURE", "invalid signature")
	ErrInvalidSignatureLength = New(KindInvalidInput, "INVALID_SIGNATURE_LENGTH", "signature must be 64 or 65 bytes")
)

// Typed data
var (
	ErrMissingDomain       = New(KindInvalidInput, "MISSING_DOMAIN", "typed data is missing domain")
	ErrMissingTypes        = New(KindInvalidInput, "MISSING_TYPES", "typed data is missing types")
	ErrMissingMessage      = New(KindInvalidInput, "MISSING_MESSAGE", "typed data is missing message")
	ErrInvalidDomain       = New(KindInvalidInput, "INVALID_DOMAIN", "invalid typed data domain")
	ErrInvalidField        = New(KindInvalidInput, "INVALID_FIELD", "invalid typed data field")
	ErrInvalidEncoding     = New(KindInvalidInput, "INVALID_ENCODING", "invalid encoded struct")
	ErrNoPrimaryType       = New(KindUnsupportedShape, "NO_PRIMARY_TYPE", "no resolvable primary type")
	ErrUndefinedType       = New(KindUnsupportedShape, "UNDEFINED_TYPE", "referenced type is not defined")
	ErrUnsupportedShape    = New(KindUnsupportedShape, "UNSUPPORTED_SHAPE", "unsupported signing input shape")
	ErrHashedUnrecoverable = New(KindUnrecoverable, "HASHED_VALUE", "hashed value, original unrecoverable")
)

// Collaborators
var (
	ErrRecoveryFailed = New(KindPrimitiveFailure, "RECOVERY_FAILED", "signer recovery failed")
	ErrABIEncode      = New(KindPrimitiveFailure, "ABI_ENCODE_FAILED", "abi encoding failed")
)

// ToGRPCError converts err to a gRPC status error.
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	var bizErr *Error
	if errors.As(err, &bizErr) {
		return status.Error(bizErr.GRPCCode, bizErr.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// ToHTTPStatus returns the HTTP status for err.
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var bizErr *Error
	if errors.As(err, &bizErr) && bizErr.HTTPStatus != 0 {
		return bizErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Is reports whether err matches target by code.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.Is(err, target)
}

// As is errors.As re-exported so callers need only one errors import.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// KindOf returns the taxonomy kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var bizErr *Error
	if errors.As(err, &bizErr) {
		return bizErr.Kind
	}
	return KindInternal
}

// GetCode returns the code of err or "UNKNOWN".
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	var bizErr *Error
	if errors.As(err, &bizErr) {
		return bizErr.Code
	}
	return "UNKNOWN"
}

// GetMessage returns the user-facing message of err.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var bizErr *Error
	if errors.As(err, &bizErr) {
		return bizErr.Message
	}
	return err.Error()
}

// IsInvalidInput reports whether err is an InvalidInput error.
func IsInvalidInput(err error) bool {
	return KindOf(err) == KindInvalidInput
}
