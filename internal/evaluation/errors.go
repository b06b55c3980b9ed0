// Package evaluation maps canonical form records into structured evaluation documents.
package evaluation

import "fmt"

// FormatError represents a record that cannot be read as key/value pairs
type FormatError struct {
	Message string
	Cause   error
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("format error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("format error: %s", e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

// LayoutError represents an invalid or unreadable layout table
type LayoutError struct {
	Message string
	Cause   error
}

func (e *LayoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("layout error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("layout error: %s", e.Message)
}

func (e *LayoutError) Unwrap() error {
	return e.Cause
}
