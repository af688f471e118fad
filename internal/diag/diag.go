// Package diag defines the SyntaxError kinds every core failure
// carries, per the error handling design: a kind, a message, and the
// positional attributes of the offending node.
package diag

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/wyfront/corec/internal/source"
)

// Kind tags the variety of failure. The list is spec §7's, plus
// NoSuchLabel, and InternalFailure for unexpected internal states.
type Kind int

const (
	ResolveError Kind = iota
	CyclicConstant
	CyclicType
	InvalidConstantAsType
	InvalidFunctionAsType
	NonConstantExpression
	InvalidBooleanExpression
	InvalidBinaryExpression
	InvalidNumericExpression
	InvalidListExpression
	InvalidSetExpression
	InvalidLValExpression
	InvalidTupleLVal
	UnknownVariable
	UnknownFunctionOrMethod
	VariablePossiblyUninitialised
	BreakOutsideLoop
	DuplicateCaseLabel
	DuplicateDefaultLabel
	UnreachableCode
	SubtypeError
	NoSuchLabel
	InternalFailure
)

func (k Kind) String() string {
	switch k {
	case ResolveError:
		return "ResolveError"
	case CyclicConstant:
		return "CyclicConstant"
	case CyclicType:
		return "CyclicType"
	case InvalidConstantAsType:
		return "InvalidConstantAsType"
	case InvalidFunctionAsType:
		return "InvalidFunctionAsType"
	case NonConstantExpression:
		return "NonConstantExpression"
	case InvalidBooleanExpression:
		return "InvalidBooleanExpression"
	case InvalidBinaryExpression:
		return "InvalidBinaryExpression"
	case InvalidNumericExpression:
		return "InvalidNumericExpression"
	case InvalidListExpression:
		return "InvalidListExpression"
	case InvalidSetExpression:
		return "InvalidSetExpression"
	case InvalidLValExpression:
		return "InvalidLValExpression"
	case InvalidTupleLVal:
		return "InvalidTupleLVal"
	case UnknownVariable:
		return "UnknownVariable"
	case UnknownFunctionOrMethod:
		return "UnknownFunctionOrMethod"
	case VariablePossiblyUninitialised:
		return "VariablePossiblyUninitialised"
	case BreakOutsideLoop:
		return "BreakOutsideLoop"
	case DuplicateCaseLabel:
		return "DuplicateCaseLabel"
	case DuplicateDefaultLabel:
		return "DuplicateDefaultLabel"
	case UnreachableCode:
		return "UnreachableCode"
	case SubtypeError:
		return "SubtypeError"
	case NoSuchLabel:
		return "NoSuchLabel"
	case InternalFailure:
		return "InternalFailure"
	default:
		return "UnknownKind"
	}
}

// Error is the SyntaxError every core failure produces. It satisfies
// the standard error interface and additionally exposes Unwrap for
// callers that need to unwrap a wrapped underlying error.
type Error struct {
	Kind Kind
	Msg  string
	Pos  source.Position
	Err  error
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no wrapped cause. The message is formatted
// with errors.Errorf and only its text is kept, so no stack trace is
// retained.
func New(kind Kind, pos source.Position, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: errors.Errorf(format, args...).Error()}
}

// Wrap attaches kind and position to an underlying cause, preserving
// it for Unwrap.
func Wrap(err error, kind Kind, pos source.Position, context string) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: context, Err: errors.Wrap(err, context)}
}

// Internal raises an InternalFailure; per the recovery policy callers
// must never swallow it.
func Internal(pos source.Position, format string, args ...interface{}) *Error {
	return New(InternalFailure, pos, format, args...)
}
