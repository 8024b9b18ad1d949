package race

import "errors"

// InvalidArgumentError is returned when a caller breaks the input contract of
// a Race operation. The message names the offending field.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

func invalidArgument(message string) error {
	return &InvalidArgumentError{Message: message}
}

// IsInvalidArgument reports whether err is, or wraps, an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var iae *InvalidArgumentError
	return errors.As(err, &iae)
}
