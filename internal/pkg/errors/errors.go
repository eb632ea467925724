// Package errors provides the coded error type shared by the stores, the
// generation pipeline and the HTTP boundary.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Code categorizes an error for logging and status mapping.
type Code string

const (
	CodeInternal    Code = "INTERNAL_ERROR"
	CodeValidation  Code = "VALIDATION_ERROR"
	CodeNotFound    Code = "NOT_FOUND"
	CodeStorage     Code = "STORAGE_ERROR"
	CodeGeneration  Code = "GENERATION_ERROR"
	CodeConflict    Code = "CONFLICT"
	CodeTimeout     Code = "TIMEOUT"
	CodeUnavailable Code = "UNAVAILABLE"
)

// Error carries a code, the failing operation and optional context fields.
type Error struct {
	Code    Code
	Message string
	// Op is the operation that failed, e.g. "assets.store".
	Op     string
	Err    error
	Fields map[string]any
	Stack  []Frame
}

// Frame is a single captured stack frame.
type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Code != "" {
		b.WriteString("[")
		b.WriteString(string(e.Code))
		b.WriteString("] ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithField attaches a context field and returns e.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// HTTPStatus maps the code onto a response status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return 400
	case CodeNotFound:
		return 404
	case CodeConflict:
		return 409
	case CodeTimeout:
		return 504
	case CodeUnavailable:
		return 503
	default:
		return 500
	}
}

// StackTrace formats the captured frames, one per line.
func (e *Error) StackTrace() string {
	var b strings.Builder
	for _, f := range e.Stack {
		fmt.Fprintf(&b, "  %s:%d %s\n", f.File, f.Line, f.Function)
	}
	return b.String()
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Stack: captureStack(2)}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Stack: captureStack(2)}
}

// Wrap adds an operation and message to err. An existing code is preserved,
// anything else becomes CodeInternal.
func Wrap(err error, op, message string) *Error {
	if err == nil {
		return nil
	}
	code := CodeInternal
	var fields map[string]any
	var e *Error
	if errors.As(err, &e) {
		code = e.Code
		if len(e.Fields) > 0 {
			fields = make(map[string]any, len(e.Fields))
			for k, v := range e.Fields {
				fields[k] = v
			}
		}
	}
	return &Error{Code: code, Message: message, Op: op, Err: err, Fields: fields, Stack: captureStack(2)}
}

// WrapWithCode wraps err and forces code.
func WrapWithCode(err error, code Code, op, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Op: op, Err: err, Stack: captureStack(2)}
}

// NotFound reports a missing asset, artifact or job.
func NotFound(resource, id string) *Error {
	return New(CodeNotFound, resource+" not found").
		WithField("resource", resource).
		WithField("id", id)
}

// Storage reports a failed read or write against a store.
func Storage(op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: CodeStorage, Message: "storage operation failed", Op: op, Err: err, Stack: captureStack(2)}
}

// Generation reports a transform step that raised or misbehaved.
func Generation(op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: CodeGeneration, Message: "generation failed", Op: op, Err: err, Stack: captureStack(2)}
}

func Validation(message string) *Error {
	return New(CodeValidation, message)
}

func ValidationField(field, message string) *Error {
	return New(CodeValidation, message).WithField("field", field)
}

func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// GetCode returns the code of the first *Error in err's chain.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func GetHTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return 500
}

func GetFields(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// Cause returns the innermost error message, skipping our own wrapping.
func Cause(err error) string {
	for {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		if e.Err == nil {
			return e.Message
		}
		err = e.Err
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func IsCode(err error, code Code) bool { return GetCode(err) == code }

func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }

func captureStack(skip int) []Frame {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip+1, pcs[:])

	frames := make([]Frame, 0, n)
	it := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := it.Next()
		if !strings.Contains(frame.File, "runtime/") {
			frames = append(frames, Frame{File: frame.File, Line: frame.Line, Function: frame.Function})
		}
		if !more || len(frames) >= 10 {
			break
		}
	}
	return frames
}

// As is errors.As, re-exported so callers need only this package.
func As(err error, target any) bool { return errors.As(err, target) }

// Is is errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }
