package errors

import (
	"fmt"
	"net/http"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Common error codes
const (
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeDatabase    = "DATABASE_ERROR"
	ErrCodeRateLimited = "RATE_LIMITED"
)

// Upload rejection codes. All are terminal for the upload: retrying the same
// bytes yields the same rejection.
const (
	ErrCodeInvalidFileType = "INVALID_FILE_TYPE"
	ErrCodeFileTooLarge    = "FILE_TOO_LARGE"
	ErrCodeEmptyFile       = "EMPTY_FILE"
	ErrCodeMIMEMismatch    = "MIME_MISMATCH"
	ErrCodeMalformedCSV    = "MALFORMED_CSV"
	ErrCodeMissingColumns  = "MISSING_REQUIRED_COLUMNS"
	ErrCodeCellTooLarge    = "CELL_TOO_LARGE"
	ErrCodeNoValidRows     = "NO_VALID_ROWS"
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ValidationError creates a validation error
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).WithDetails(details)
}

// DatabaseError creates a database error
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

// Upload rejection constructors

// InvalidFileType rejects a file whose extension is not allow-listed
func InvalidFileType(ext string) *AppError {
	return New(ErrCodeInvalidFileType,
		fmt.Sprintf("file extension %q is not allowed", ext),
		http.StatusBadRequest)
}

// FileTooLarge rejects a file exceeding the configured size ceiling
func FileTooLarge(size, max int64) *AppError {
	return New(ErrCodeFileTooLarge,
		fmt.Sprintf("file size %d exceeds the maximum of %d bytes", size, max),
		http.StatusBadRequest)
}

// EmptyFile rejects a zero-length upload
func EmptyFile() *AppError {
	return New(ErrCodeEmptyFile, "uploaded file is empty", http.StatusBadRequest)
}

// MIMEMismatch rejects a file whose sniffed content type is not allow-listed
func MIMEMismatch(detected string) *AppError {
	return New(ErrCodeMIMEMismatch,
		fmt.Sprintf("detected content type %q is not an accepted CSV type", detected),
		http.StatusBadRequest)
}

// MalformedCSV rejects a file that fails the structural CSV check
func MalformedCSV(message string, err error) *AppError {
	return Wrap(err, ErrCodeMalformedCSV, message, http.StatusBadRequest)
}

// MissingColumns rejects a file whose header lacks required columns
func MissingColumns(columns []string) *AppError {
	return New(ErrCodeMissingColumns,
		fmt.Sprintf("required columns missing from header: %v", columns),
		http.StatusBadRequest)
}

// CellTooLarge rejects a file containing an oversized cell
func CellTooLarge(row, max int) *AppError {
	return New(ErrCodeCellTooLarge,
		fmt.Sprintf("row %d contains a cell exceeding %d characters", row, max),
		http.StatusBadRequest)
}

// NoValidRows fails a file that passed header validation but yielded nothing usable
func NoValidRows() *AppError {
	return New(ErrCodeNoValidRows, "no valid recommendations found", http.StatusBadRequest)
}
