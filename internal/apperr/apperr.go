package apperr

import (
	"errors"
	"strings"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "unexpected"
	}
}

// Error is an expected business failure. Code is stable and machine readable
// ("Event.AlreadyCancelled"), Message is meant for humans.
type Error struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches on code so that a copy of a sentinel still compares equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

func Unexpected(code, message string) *Error {
	return &Error{Kind: KindUnexpected, Code: code, Message: message}
}

// List collects every violation found in one pass.
type List []*Error

func (l *List) Add(err *Error) {
	if err != nil {
		*l = append(*l, err)
	}
}

// Extend appends the business errors carried by err. Anything else is kept as
// an unexpected failure so it is never silently dropped.
func (l *List) Extend(err error) {
	if err == nil {
		return
	}

	items := Errors(err)
	if len(items) == 0 {
		*l = append(*l, Unexpected("General.Unexpected", err.Error()))
		return
	}

	*l = append(*l, items...)
}

func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	if len(l) == 1 {
		return l[0]
	}
	return l
}

func (l List) Error() string {
	parts := make([]string, 0, len(l))
	for _, e := range l {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

func (l List) Unwrap() []error {
	out := make([]error, 0, len(l))
	for _, e := range l {
		out = append(out, e)
	}
	return out
}

// Errors flattens err into its business errors.
func Errors(err error) []*Error {
	if err == nil {
		return nil
	}

	var list List
	if errors.As(err, &list) {
		return list
	}

	var single *Error
	if errors.As(err, &single) {
		return []*Error{single}
	}

	return nil
}

// KindOf reports the kind of the first business error in err. A list of
// validation errors is Validation; unknown errors are Unexpected.
func KindOf(err error) Kind {
	items := Errors(err)
	if len(items) == 0 {
		return KindUnexpected
	}
	return items[0].Kind
}
