// Package dto defines the HTTP request and response shapes.
package dto

// Response is the envelope of every API reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorDetail accompanies failed replies so clients can branch on the
// taxonomy without parsing messages.
type ErrorDetail struct {
	Error   string            `json:"error"`
	Kind    string            `json:"kind,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse builds the envelope for err.
func NewErrorResponse(err *BizError) *Response {
	resp := &Response{
		Code:    err.Code,
		Message: err.Message,
	}
	if err.Reason != "" {
		resp.Data = &ErrorDetail{
			Error:   err.Reason,
			Kind:    err.Kind,
			Details: err.Details,
		}
	}
	return resp
}
