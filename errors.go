package vpack

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a failure class. The set is closed; callers switch on
// it or match the package sentinels with errors.Is.
type ErrorCode int

const (
	InternalError ErrorCode = iota + 1
	NotImplemented
	NoJsonEquivalent
	ParseError
	UnexpectedControlCharacter
	InvalidUtf8Sequence
	NumberOutOfRange
	IndexOutOfBounds
	// ItemNotFound names the "missing key" outcome. Get reports it with a
	// None slice, never with an error.
	ItemNotFound
	DuplicateAttributeName
	BuilderNotSealed
	BuilderNeedOpenObjectOrArray
	BuilderNeedOpenObject
	BuilderKeyAlreadyWritten
	BuilderKeyMustBeString
	BuilderUnexpectedValue
	BuilderExternalsDisallowed
	BuilderCustomDisallowed
	BuilderTagsDisallowed
	ValueTypeMismatch
	TooDeepNesting
	ValidatorInvalidLength
	ValidatorInvalidType
)

var codeNames = map[ErrorCode]string{
	InternalError:                "internal error",
	NotImplemented:               "not implemented",
	NoJsonEquivalent:             "no json equivalent",
	ParseError:                   "parse error",
	UnexpectedControlCharacter:   "unexpected control character",
	InvalidUtf8Sequence:          "invalid utf-8 sequence",
	NumberOutOfRange:             "number out of range",
	IndexOutOfBounds:             "index out of bounds",
	ItemNotFound:                 "item not found",
	DuplicateAttributeName:       "duplicate attribute name",
	BuilderNotSealed:             "builder not sealed",
	BuilderNeedOpenObjectOrArray: "builder needs open object or array",
	BuilderNeedOpenObject:        "builder needs open object",
	BuilderKeyAlreadyWritten:     "builder key already written",
	BuilderKeyMustBeString:       "builder key must be string",
	BuilderUnexpectedValue:       "builder unexpected value",
	BuilderExternalsDisallowed:   "externals disallowed",
	BuilderCustomDisallowed:      "custom types disallowed",
	BuilderTagsDisallowed:        "tagged values disallowed",
	ValueTypeMismatch:            "value type mismatch",
	TooDeepNesting:               "too deep nesting",
	ValidatorInvalidLength:       "invalid length",
	ValidatorInvalidType:         "invalid type",
}

func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("error code %d", int(c))
}

// Error is the single error type returned by the engine. Offset is the byte
// position in the parser input or inspected value, -1 when not applicable.
type Error struct {
	Code   ErrorCode
	Msg    string
	Offset int
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("vpack: %s (at offset %d)", msg, e.Offset)
	}
	return "vpack: " + msg
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, ErrParse) works for every parse failure.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is. They carry no message or offset.
var (
	ErrInternal                  = &Error{Code: InternalError, Offset: -1}
	ErrNotImplemented            = &Error{Code: NotImplemented, Offset: -1}
	ErrNoJsonEquivalent          = &Error{Code: NoJsonEquivalent, Offset: -1}
	ErrParse                     = &Error{Code: ParseError, Offset: -1}
	ErrUnexpectedControlChar     = &Error{Code: UnexpectedControlCharacter, Offset: -1}
	ErrInvalidUtf8               = &Error{Code: InvalidUtf8Sequence, Offset: -1}
	ErrNumberOutOfRange          = &Error{Code: NumberOutOfRange, Offset: -1}
	ErrIndexOutOfBounds          = &Error{Code: IndexOutOfBounds, Offset: -1}
	ErrDuplicateAttributeName    = &Error{Code: DuplicateAttributeName, Offset: -1}
	ErrBuilderNotSealed          = &Error{Code: BuilderNotSealed, Offset: -1}
	ErrBuilderNeedOpenContainer  = &Error{Code: BuilderNeedOpenObjectOrArray, Offset: -1}
	ErrBuilderNeedOpenObject     = &Error{Code: BuilderNeedOpenObject, Offset: -1}
	ErrBuilderKeyAlreadyWritten  = &Error{Code: BuilderKeyAlreadyWritten, Offset: -1}
	ErrBuilderKeyMustBeString    = &Error{Code: BuilderKeyMustBeString, Offset: -1}
	ErrBuilderUnexpectedValue    = &Error{Code: BuilderUnexpectedValue, Offset: -1}
	ErrBuilderExternalsForbidden = &Error{Code: BuilderExternalsDisallowed, Offset: -1}
	ErrBuilderCustomForbidden    = &Error{Code: BuilderCustomDisallowed, Offset: -1}
	ErrBuilderTagsForbidden      = &Error{Code: BuilderTagsDisallowed, Offset: -1}
	ErrValueTypeMismatch         = &Error{Code: ValueTypeMismatch, Offset: -1}
	ErrTooDeepNesting            = &Error{Code: TooDeepNesting, Offset: -1}
	ErrValidatorInvalidLength    = &Error{Code: ValidatorInvalidLength, Offset: -1}
	ErrValidatorInvalidType      = &Error{Code: ValidatorInvalidType, Offset: -1}
)

func newError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Msg: msg, Offset: -1}
}

func errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Offset: -1}
}

func errorAt(code ErrorCode, offset int, msg string) *Error {
	return &Error{Code: code, Msg: msg, Offset: offset}
}

// CodeOf returns the ErrorCode carried by err, or 0 when err is nil or not
// produced by this package.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
