package model

import "errors"

// ErrorKind classifies failures of a run.
type ErrorKind int

const (
	// KindUnknown is an error that was not classified.
	KindUnknown ErrorKind = iota

	// KindNetwork covers catalog or image fetch failures: timeouts,
	// connection errors and non-2xx responses.
	KindNetwork

	// KindDecode means a response body is not a valid image.
	KindDecode

	// KindWrite means the destination could not be created or written.
	KindWrite

	// KindConfig means the run configuration is invalid.
	KindConfig
)

// Sentinel errors for use with errors.Is.
var (
	ErrNetwork = errors.New("network error")
	ErrDecode  = errors.New("decode error")
	ErrWrite   = errors.New("write error")
	ErrConfig  = errors.New("config error")
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	case KindWrite:
		return "write"
	case KindConfig:
		return "config"
	}
	return "unknown"
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindDecode:
		return ErrDecode
	case KindWrite:
		return ErrWrite
	case KindConfig:
		return ErrConfig
	}
	return nil
}

// Error is a classified failure.
//
// Op names the failed operation (for example "fetch catalog" or
// "decode image"), Path the affected URL or file if any.
//
// Example:
//
//	err := &Error{Kind: KindDecode, Op: "decode image", Path: url, Err: cause}
//	errors.Is(err, ErrDecode) // true
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of this error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewError builds a classified error.
func NewError(kind ErrorKind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// NewConfigError builds a KindConfig error with a human-readable message.
func NewConfigError(msg string) *Error {
	return &Error{Kind: KindConfig, Op: "invalid configuration", Err: errors.New(msg)}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
