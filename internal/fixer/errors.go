package fixer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error that occurred
type ErrorType int

const (
	// ErrorTypeUnknown is for unknown errors
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeUnsupported is for recognized shapes the fixer cannot repair yet
	ErrorTypeUnsupported
	// ErrorTypeHunkNotFound is when a hunk's context does not occur in the reference
	ErrorTypeHunkNotFound
	// ErrorTypeOutOfOrder is when a hunk resolves before the end of the previous one
	ErrorTypeOutOfOrder
	// ErrorTypeMalformedLine is for lines with broken terminators
	ErrorTypeMalformedLine
	// ErrorTypeEmptyPatch is for empty patch input
	ErrorTypeEmptyPatch
	// ErrorTypeDiffNotFound is for patches without any diff header
	ErrorTypeDiffNotFound
	// ErrorTypeFileNotFound is when a file named in a header cannot be found
	ErrorTypeFileNotFound
	// ErrorTypeIsDirectory is when a header names a directory instead of a file
	ErrorTypeIsDirectory
	// ErrorTypeFileExists is when a creation would overwrite an existing file
	ErrorTypeFileExists
	// ErrorTypePathMismatch is when a header does not name the single-file target
	ErrorTypePathMismatch
	// ErrorTypeInvalidHeader is for contradictory or duplicated headers
	ErrorTypeInvalidHeader
	// ErrorTypeIO is for I/O errors
	ErrorTypeIO
	// ErrorTypeVerification is when a repaired patch does not apply cleanly
	ErrorTypeVerification
)

// String returns a short name for the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeUnsupported:
		return "unsupported"
	case ErrorTypeHunkNotFound:
		return "hunk not found"
	case ErrorTypeOutOfOrder:
		return "out of order"
	case ErrorTypeMalformedLine:
		return "malformed line"
	case ErrorTypeEmptyPatch:
		return "empty patch"
	case ErrorTypeDiffNotFound:
		return "diff not found"
	case ErrorTypeFileNotFound:
		return "file not found"
	case ErrorTypeIsDirectory:
		return "is a directory"
	case ErrorTypeFileExists:
		return "file exists"
	case ErrorTypePathMismatch:
		return "path mismatch"
	case ErrorTypeInvalidHeader:
		return "invalid header"
	case ErrorTypeIO:
		return "io"
	case ErrorTypeVerification:
		return "verification"
	default:
		return "unknown"
	}
}

// ErrEmptyHunk is returned by the locator for a hunk without body lines.
// It is not a content error; the engine drops such a hunk at the end of an entry.
var ErrEmptyHunk = errors.New("empty hunk")

// FixerError represents a custom error with additional context
type FixerError struct {
	Type    ErrorType
	Message string
	Err     error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *FixerError) Error() string {
	msg := e.Message
	if file, ok := e.Context["file"].(string); ok && file != "" {
		msg = fmt.Sprintf("%s (in %s)", msg, file)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if hunk, ok := e.Context["hunk"].(string); ok && hunk != "" {
		msg = msg + "\n" + hunk
	}
	return msg
}

// Unwrap allows errors.Is and errors.As to work
func (e *FixerError) Unwrap() error {
	return e.Err
}

// Is allows comparison with error types
func (e *FixerError) Is(target error) bool {
	t, ok := target.(*FixerError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewFixerError creates a new FixerError
func NewFixerError(errType ErrorType, message string, err error) *FixerError {
	return &FixerError{
		Type:    errType,
		Message: message,
		Err:     err,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *FixerError) WithContext(key string, value interface{}) *FixerError {
	e.Context[key] = value
	return e
}

// Common error constructors

// NewUnsupportedError creates an error for malformations that are not yet supported
func NewUnsupportedError(what string) *FixerError {
	return NewFixerError(ErrorTypeUnsupported,
		fmt.Sprintf("%s not yet supported", what), nil)
}

// NewHunkNotFoundError creates a hunk not found error carrying the context and deletion lines
func NewHunkNotFoundError(pattern []string) *FixerError {
	return NewFixerError(ErrorTypeHunkNotFound,
		"could not find hunk in reference", nil).
		WithContext("hunk", strings.Join(pattern, "\n"))
}

// NewOutOfOrderError creates an out of order error
func NewOutOfOrderError(pattern []string, previous string) *FixerError {
	return NewFixerError(ErrorTypeOutOfOrder,
		"hunk resolves before the end of the previous hunk", nil).
		WithContext("hunk", strings.Join(pattern, "\n")).
		WithContext("previous", previous)
}

// NewMalformedLineError creates a malformed line error for a 1-based input line
func NewMalformedLineError(lineNumber int, err error) *FixerError {
	return NewFixerError(ErrorTypeMalformedLine,
		fmt.Sprintf("malformed line %d", lineNumber), err).
		WithContext("line", lineNumber)
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(filename string, err error) *FixerError {
	return NewFixerError(ErrorTypeFileNotFound,
		fmt.Sprintf("file not found: %s", filename), err).
		WithContext("filename", filename)
}

// NewIsDirectoryError creates an error for a header naming a directory
func NewIsDirectoryError(filename string) *FixerError {
	return NewFixerError(ErrorTypeIsDirectory,
		fmt.Sprintf("header points to a directory, not a file: %s", filename), nil).
		WithContext("filename", filename)
}

// NewFileExistsError creates an error for a creation that would overwrite a file
func NewFileExistsError(filename string) *FixerError {
	return NewFixerError(ErrorTypeFileExists,
		fmt.Sprintf("file creation would overwrite existing file: %s", filename), nil).
		WithContext("filename", filename)
}

// NewPathMismatchError creates an error for a header path that is not the target file
func NewPathMismatchError(filename, target string) *FixerError {
	return NewFixerError(ErrorTypePathMismatch,
		fmt.Sprintf("filename %s in header does not match argument %s", filename, target), nil).
		WithContext("filename", filename).
		WithContext("target", target)
}

// NewInvalidHeaderError creates an error for contradictory headers
func NewInvalidHeaderError(description string) *FixerError {
	return NewFixerError(ErrorTypeInvalidHeader, description, nil)
}

// NewIOError creates an I/O error
func NewIOError(operation string, err error) *FixerError {
	return NewFixerError(ErrorTypeIO,
		fmt.Sprintf("I/O error during %s", operation), err).
		WithContext("operation", operation)
}

// NewVerificationError creates an error for a repaired patch that failed to apply
func NewVerificationError(filename string, err error) *FixerError {
	return NewFixerError(ErrorTypeVerification,
		fmt.Sprintf("repaired patch does not apply to %s", filename), err).
		WithContext("filename", filename)
}

// IsHunkNotFound reports whether err is a hunk not found error
func IsHunkNotFound(err error) bool {
	return hasType(err, ErrorTypeHunkNotFound)
}

// IsOutOfOrder reports whether err is an out of order error
func IsOutOfOrder(err error) bool {
	return hasType(err, ErrorTypeOutOfOrder)
}

// IsUnsupported reports whether err is a not yet supported error
func IsUnsupported(err error) bool {
	return hasType(err, ErrorTypeUnsupported)
}

func hasType(err error, t ErrorType) bool {
	var fe *FixerError
	return errors.As(err, &fe) && fe.Type == t
}
