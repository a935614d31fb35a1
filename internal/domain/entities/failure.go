package entities

import (
	"errors"
	"fmt"
	"io/fs"
)

// FailureKind classifies conversion failures. The numeric values are part of
// the plugin protocol and are returned to the host as-is.
type FailureKind uint32

// Failure kinds
const (
	FailureNone FailureKind = iota
	FailureUnsupported
	FailureNotFound
	FailureIO
	FailureDecoding
	FailureEncoding
	FailureParameter
	FailureLimits
	FailureInputSize
)

var failureNames = map[FailureKind]string{
	FailureNone:        "None",
	FailureUnsupported: "Unsupported",
	FailureNotFound:    "NotFound",
	FailureIO:          "IoError",
	FailureDecoding:    "DecodingError",
	FailureEncoding:    "EncodingError",
	FailureParameter:   "ParameterError",
	FailureLimits:      "LimitsError",
	FailureInputSize:   "InputSizeError",
}

// Code returns the numeric protocol code
func (k FailureKind) Code() uint32 {
	return uint32(k)
}

func (k FailureKind) String() string {
	if name, ok := failureNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FailureKind(%d)", uint32(k))
}

// ConversionError is returned by every step of the image pipeline
type ConversionError struct {
	Kind FailureKind
	Op   string
	Err  error
}

// NewConversionError wraps err with a failure kind and the failing operation
func NewConversionError(kind FailureKind, op string, err error) *ConversionError {
	return &ConversionError{Kind: kind, Op: op, Err: err}
}

func (e *ConversionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from err.
// Errors that did not come from the image pipeline are reported as I/O failures.
func KindOf(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return convErr.Kind
	}
	return FailureIO
}

// IOFailure classifies a filesystem error as NotFound or IoError
func IOFailure(op string, err error) *ConversionError {
	if errors.Is(err, fs.ErrNotExist) {
		return NewConversionError(FailureNotFound, op, err)
	}
	return NewConversionError(FailureIO, op, err)
}
