package errors

// ErrorResponse is the JSON body returned to clients.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the client-visible error fields.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse converts e for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable,
		Details:   e.Details,
	}}
}

// ToResponse converts any error. Errors that are not AppErrors become an
// opaque internal error.
func ToResponse(err error) (int, ErrorResponse) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal(err)
	}
	return appErr.HTTPStatus, appErr.ToResponse()
}
