package events

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by Recv once the bus is closed and drained.
	ErrClosed = errors.New("events: bus closed")

	// ErrReceiverClosed is returned by Recv after the receiver's own Close.
	ErrReceiverClosed = errors.New("events: receiver closed")
)

// LaggedError reports events overwritten before the receiver read them.
// The receiver has already skipped forward; the next Recv continues.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("events: receiver lagged, skipped %d events", e.Skipped)
}
