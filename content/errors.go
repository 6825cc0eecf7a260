package content

import "errors"

var (
	// ErrMalformed matches every *Error.
	ErrMalformed = errors.New("malformed content")

	// ErrDuplicate is reported when two files map to the same output path.
	ErrDuplicate = errors.New("duplicate output path")

	// ErrBadName is reported for file names that do not make safe URLs.
	ErrBadName = errors.New("file name is not URL safe")
)

// Error reports a content file that cannot be built. Field names the
// metadata key at fault, or is empty when the problem is the file itself.
type Error struct {
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Path + ": " + e.Err.Error()
	}
	return e.Path + ": " + e.Field + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes every content error match ErrMalformed.
func (e *Error) Is(target error) bool {
	return target == ErrMalformed
}
