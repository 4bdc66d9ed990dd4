package errors

import (
	stderrors "errors"
	"fmt"
)

// Error types for the categories of fatal failures
const (
	// Template compilation
	ErrObjectCreation  = "OBJECT_CREATION_ERROR"
	ErrUnknownVariable = "UNKNOWN_VARIABLE"
	ErrInvalidArgument = "INVALID_ARGUMENT"

	// Input
	ErrTemplateRead = "TEMPLATE_READ_ERROR"

	// Configuration
	ErrConfigLoad    = "CONFIG_LOAD_ERROR"
	ErrConfigInvalid = "CONFIG_INVALID"
)

// Error is a structured error with a type code, the template position it
// refers to (0 when not tied to one) and free-form context.
type Error struct {
	Type    string
	Message string
	Line    int
	Column  int // 1-based byte column on Line
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap allows error unwrapping
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error
func New(errorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// Wrap creates a new Error wrapping an existing error
func Wrap(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	e.Context[key] = value
	return e
}

// AtLine records the template line the error refers to
func (e *Error) AtLine(line int) *Error {
	e.Line = line
	return e
}

// AtColumn records the byte column on the error's line, counted from 1
func (e *Error) AtColumn(column int) *Error {
	e.Column = column
	return e
}

// GetContext returns context value by key
func (e *Error) GetContext(key string) (interface{}, bool) {
	value, exists := e.Context[key]
	return value, exists
}

// NewObjectCreationError reports that the variable kind behind name could not
// build an object at line. It is the only fatal error the compiler returns.
func NewObjectCreationError(name string, line int, cause error) *Error {
	return Wrap(ErrObjectCreation, fmt.Sprintf("cannot create $%s", name), cause).
		AtLine(line).
		WithContext("variable", name)
}

// NewUnknownVariableError reports a name no registered kind answers to.
// suggestion may be empty.
func NewUnknownVariableError(name, suggestion string) *Error {
	msg := fmt.Sprintf("unknown variable $%s", name)
	if suggestion != "" {
		msg = fmt.Sprintf("%s (did you mean $%s?)", msg, suggestion)
	}
	e := New(ErrUnknownVariable, msg).WithContext("variable", name)
	if suggestion != "" {
		e.WithContext("suggestion", suggestion)
	}
	return e
}

// NewInvalidArgumentError reports a malformed or missing argument for name.
func NewInvalidArgumentError(name, message string) *Error {
	return New(ErrInvalidArgument, fmt.Sprintf("$%s: %s", name, message)).
		WithContext("variable", name)
}

// IsErrorType reports whether any error in err's chain is an *Error of errorType.
func IsErrorType(err error, errorType string) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Type == errorType {
			return true
		}
		err = e.Cause
	}
	return false
}

// IsObjectCreation reports whether err is a fatal object-creation failure.
func IsObjectCreation(err error) bool {
	return IsErrorType(err, ErrObjectCreation)
}

// LineOf returns the template line recorded on the outermost *Error in err's
// chain that has one, or 0.
func LineOf(err error) int {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return 0
		}
		if e.Line > 0 {
			return e.Line
		}
		err = e.Cause
	}
	return 0
}

// ColumnOf returns the column recorded on the outermost *Error in err's
// chain that has one, or 0.
func ColumnOf(err error) int {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return 0
		}
		if e.Column > 0 {
			return e.Column
		}
		err = e.Cause
	}
	return 0
}
