// Package delivery addresses and sends evaluation reports by email.
package delivery

import (
	"errors"
	"fmt"
)

// ErrNoRecipient is returned when a record has no usable consultant address
var ErrNoRecipient = errors.New("no recipient address")

// SendError represents a failed SMTP exchange
type SendError struct {
	Stage string // dial, starttls, auth, mail, rcpt, data, quit
	Cause error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send error: %s: %v", e.Stage, e.Cause)
}

func (e *SendError) Unwrap() error {
	return e.Cause
}
