package positionsmap

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure kind. Match them with errors.Is.
var (
	ErrNonMonotonicInput    = errors.New("following number less than previous")
	ErrInvalidElementType   = errors.New("element is not a non-negative integer")
	ErrEncodingFailure      = errors.New("numeric encoding failed")
	ErrDecodingFailure      = errors.New("numeric decoding failed")
	ErrCompressionFailure   = errors.New("compression failed")
	ErrDecompressionFailure = errors.New("decompression failed")
	ErrPreconditionRejected = errors.New("precondition rejected")
)

// Kind categorizes codec failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindNonMonotonicInput
	KindInvalidElementType
	KindEncodingFailure
	KindDecodingFailure
	KindCompressionFailure
	KindDecompressionFailure
	KindPreconditionRejected
)

var kindSentinels = map[Kind]error{
	KindNonMonotonicInput:    ErrNonMonotonicInput,
	KindInvalidElementType:   ErrInvalidElementType,
	KindEncodingFailure:      ErrEncodingFailure,
	KindDecodingFailure:      ErrDecodingFailure,
	KindCompressionFailure:   ErrCompressionFailure,
	KindDecompressionFailure: ErrDecompressionFailure,
	KindPreconditionRejected: ErrPreconditionRejected,
}

func (k Kind) String() string {
	switch k {
	case KindNonMonotonicInput:
		return "non_monotonic_input"
	case KindInvalidElementType:
		return "invalid_element_type"
	case KindEncodingFailure:
		return "encoding_failure"
	case KindDecodingFailure:
		return "decoding_failure"
	case KindCompressionFailure:
		return "compression_failure"
	case KindDecompressionFailure:
		return "decompression_failure"
	case KindPreconditionRejected:
		return "precondition_rejected"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Error describes a failed codec call.
type Error struct {
	Kind Kind
	// Op is the public operation that failed: "pack", "unpack" or "delta".
	Op string
	// Index is the offending element, or -1.
	Index int
	// Cause is the collaborator error, if any.
	Cause error
}

func (e *Error) Error() string {
	msg := e.Op + ": "
	if s, ok := kindSentinels[e.Kind]; ok {
		msg += s.Error()
	} else {
		msg += e.Kind.String()
	}
	if e.Index >= 0 {
		msg += fmt.Sprintf(" at index %d", e.Index)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error matching against the kind sentinels.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

func newError(kind Kind, op string, index int, cause error) *Error {
	return &Error{Kind: kind, Op: op, Index: index, Cause: cause}
}

// KindOf returns the Kind of err, or KindUnknown when err is not a codec
// failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
