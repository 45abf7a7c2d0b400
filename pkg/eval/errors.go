package eval

import (
	"errors"
	"fmt"

	"github.com/ucg-lang/ucg/pkg/ast"
)

// ErrorKind classifies an evaluation error.
type ErrorKind string

const (
	// ErrName is an unbound identifier or a duplicate binding.
	ErrName ErrorKind = "NameError"

	// ErrTypeFail is an operand type mismatch, a tuple override type
	// mismatch, or a bad argument to a builtin.
	ErrTypeFail ErrorKind = "TypeFail"

	// ErrArity is a wrong number of call or format arguments, or a bad
	// select shape.
	ErrArity ErrorKind = "ArityError"

	// ErrIndex is a list index out of range or a missing tuple field.
	ErrIndex ErrorKind = "IndexError"

	// ErrImport is a failed import: not found, cyclic, or broken inside
	// the imported file. The inner failure is wrapped.
	ErrImport ErrorKind = "ImportError"

	// ErrUserFail is a `fail` expression, including runaway module
	// recursion.
	ErrUserFail ErrorKind = "UserFail"
)

// Error is a classified evaluation error with the source position of the
// expression that produced it.
type Error struct {
	Kind ErrorKind
	Pos  ast.Position
	Msg  string
	Err  error
}

// Error implements the error interface. A wrapped cause is rendered first,
// one line per link, so the chain reads innermost-first.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s\n%s: %s: %s", e.Err, e.Pos, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// Is matches errors by kind so callers can use errors.Is with a bare
// &Error{Kind: ...} probe.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError constructs a classified error at a position.
func NewError(kind ErrorKind, pos ast.Position, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// WrapImport wraps an inner file's failure as an ImportError at the import
// site, preserving the inner chain of positions.
func WrapImport(pos ast.Position, path string, err error) *Error {
	return &Error{Kind: ErrImport, Pos: pos, Msg: fmt.Sprintf("import %q failed", path), Err: err}
}

// KindOf returns the kind of err when it is a classified evaluation error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsTypeFail reports whether err is classified as a TypeFail.
func IsTypeFail(err error) bool { k, ok := KindOf(err); return ok && k == ErrTypeFail }

// IsNameError reports whether err is classified as a NameError.
func IsNameError(err error) bool { k, ok := KindOf(err); return ok && k == ErrName }

// IsIndexError reports whether err is classified as an IndexError.
func IsIndexError(err error) bool { k, ok := KindOf(err); return ok && k == ErrIndex }

// IsArityError reports whether err is classified as an ArityError.
func IsArityError(err error) bool { k, ok := KindOf(err); return ok && k == ErrArity }

// IsImportError reports whether err is classified as an ImportError.
func IsImportError(err error) bool { k, ok := KindOf(err); return ok && k == ErrImport }

// IsUserFail reports whether err is classified as a UserFail.
func IsUserFail(err error) bool { k, ok := KindOf(err); return ok && k == ErrUserFail }
