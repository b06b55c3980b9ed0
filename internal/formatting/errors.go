package formatting

import "fmt"

// Error represents a failed formatting attempt
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("formatting error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("formatting error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
