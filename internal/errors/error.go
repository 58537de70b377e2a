package errors

import (
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryMisuse    Category = "misuse"
	CategoryLifecycle Category = "lifecycle"
	CategoryRender    Category = "render"
	CategoryPatch     Category = "patch"
	CategoryScheduler Category = "scheduler"
	CategoryReactive  Category = "reactive"
	CategoryConfig    Category = "config"
)

// Error is a structured runtime error.
type Error struct {
	// Code is a unique error identifier (e.g., "E100").
	Code string

	// Category is the error type.
	Category Category

	// Op is the operation that failed (e.g., "Counter.BeforeMount").
	Op string

	// Component is the type name of the component involved, if any.
	Component string

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Stack is the goroutine stack captured when a panic was recovered.
	Stack string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is matches another *Error with the same code, so registered sentinels work
// with errors.Is regardless of the context attached to either side.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// WithOp records the failing operation.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithComponent records the component type involved.
func (e *Error) WithComponent(name string) *Error {
	e.Component = name
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detailed explanation to the error.
func (e *Error) WithDetailf(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates an Error with a formatted message and no code.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err under code unless it already is an *Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

// Recovered converts a recovered panic value into an Error carrying the
// current stack.
func Recovered(op string, value any) *Error {
	e := New(CodePanic).WithOp(op)
	e.Stack = string(debug.Stack())
	if err, ok := value.(error); ok {
		return e.Wrap(err)
	}
	return e.Wrap(fmt.Errorf("%v", value))
}

// Catch runs fn and converts a panic into an error tagged with op.
func Catch(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Recovered(op, r)
		}
	}()
	return fn()
}

// HasCode reports whether err (or anything it wraps) is an *Error with code.
func HasCode(err error, code string) bool {
	var e *Error
	for err != nil {
		if stderrors.As(err, &e) {
			if e.Code == code {
				return true
			}
			err = e.Wrapped
			continue
		}
		return false
	}
	return false
}

// Is is errors.Is, re-exported so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As is errors.As, re-exported so callers need a single import.
func As(err error, target any) bool { return stderrors.As(err, target) }
