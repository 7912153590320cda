package utils

import (
	"encoding/json"
	"net/http"

	"github.com/advisorlens/advisorlens/internal/pkg/errors"
)

// SuccessResponse represents a successful API response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Items    interface{} `json:"items"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int64       `json:"total"`
}

// NewPaginatedResponse builds a paginated response envelope
func NewPaginatedResponse(items interface{}, page, pageSize int, total int64) PaginatedResponse {
	return PaginatedResponse{Items: items, Page: page, PageSize: pageSize, Total: total}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response
func WriteSuccess(w http.ResponseWriter, status int, data interface{}) error {
	return WriteJSON(w, status, SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// WriteError writes an error JSON response from AppError
func WriteError(w http.ResponseWriter, err *errors.AppError) error {
	return WriteJSON(w, err.StatusCode, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    err.Code,
			Message: err.Message,
			Details: err.Details,
		},
	})
}

// WriteAnyError maps an arbitrary error to an API error response. AppError
// values keep their code and status; anything else becomes an internal error.
func WriteAnyError(w http.ResponseWriter, err error) error {
	if appErr, ok := err.(*errors.AppError); ok {
		return WriteError(w, appErr)
	}
	return WriteError(w, errors.Internal("unexpected error", err))
}
