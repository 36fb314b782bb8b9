package nsof

import "github.com/pkg/errors"

// ErrMalformedObject is the family of decode failures. A failed decode
// leaves no shared state behind, so the next independent stream can be
// decoded normally.
var ErrMalformedObject = errors.New("nsof: malformed object")

// Decode failures. Each one matches ErrMalformedObject with errors.Is.
var (
	ErrUnknownObjectTag      = &malformedError{"unknown object tag"}
	ErrUnexpectedEndOfInput  = &malformedError{"unexpected end of input"}
	ErrDanglingBackReference = &malformedError{"dangling back-reference"}
	ErrUnsupportedVersion    = &malformedError{"unsupported version"}
	ErrDuplicateFrameKey     = &malformedError{"duplicate frame key"}
)

// ErrUnencodable is returned when an object cannot be written.
var ErrUnencodable = errors.New("nsof: unencodable object")

type malformedError struct {
	msg string
}

func (e *malformedError) Error() string { return "nsof: " + e.msg }

func (e *malformedError) Is(target error) bool { return target == ErrMalformedObject }
