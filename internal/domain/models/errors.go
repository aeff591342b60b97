package models

import (
	"errors"
	"fmt"
)

// ErrSignalNotFound is returned when no current signal exists for a key.
var ErrSignalNotFound = errors.New("signal not found")

// ErrInvalidInput marks malformed caller input (bad ticker, unknown doc
// type). Fatal to the call, mapped to a 4xx at the transport layer.
var ErrInvalidInput = errors.New("invalid input")

// ErrNoValidFields rejects a document in which zero extracted fields passed
// validation. Individual failing fields are marked needs_review instead.
var ErrNoValidFields = errors.New("no extracted fields passed validation")

// ExtractionError wraps a failure of the extraction provider. It is the only
// downstream error fatal to an ingestion call.
type ExtractionError struct {
	DocID string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.DocID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ChannelDeliveryError marks a secondary-channel delivery failure. Logged and
// retried once; never propagated to the ingestion caller.
type ChannelDeliveryError struct {
	Channel   Channel
	UserID    string
	Transient bool
	Err       error
}

func (e *ChannelDeliveryError) Error() string {
	return fmt.Sprintf("%s delivery to %s failed: %v", e.Channel, e.UserID, e.Err)
}

func (e *ChannelDeliveryError) Unwrap() error { return e.Err }
