package dto

// Response is the envelope of every JSON response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo describes a failed request.
// Kind is one of validation, not_found, permission, transient, config, conflict or invalid_state.
type ErrorInfo struct {
	Kind      string             `json:"kind"`
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail is a single rejected field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta carries paging information for list responses
type Meta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// NewSuccessResponse wraps data in a success envelope
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta wraps a page of data in a success envelope
func NewSuccessResponseWithMeta(data any, total int64, page, pageSize int) Response {
	return Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{Total: total, Page: page, PageSize: pageSize},
	}
}

// NewErrorResponse builds an error envelope
func NewErrorResponse(kind, code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Kind:      kind,
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	}
}

// NewValidationErrorResponse builds a validation envelope with field details
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponse(KindValidation, ErrCodeValidationFailed, message, requestID)
	resp.Error.Details = details
	return resp
}

// IDRequest binds a uuid path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
