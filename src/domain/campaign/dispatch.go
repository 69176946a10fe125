package campaign

import (
	"context"
	"errors"
	"time"
)

// ErrorClass classifies a dispatch failure. The class is decided once, at the
// provider-client boundary, so everything downstream works over a closed set.
type ErrorClass string

const (
	// ErrorTransient covers failures worth retrying: timeouts, provider 5xx
	ErrorTransient ErrorClass = "transient"

	// ErrorPermanent covers failures that will never succeed: invalid
	// address, blocked recipient, malformed message
	ErrorPermanent ErrorClass = "permanent"

	// ErrorRateLimited is not a failure but a signal to re-check the rate
	// limiter before trying again
	ErrorRateLimited ErrorClass = "rate_limited"

	// ErrorInternal covers orchestration bugs; the affected recipient is
	// marked failed so nothing is silently dropped
	ErrorInternal ErrorClass = "internal"
)

// DispatchError is the classified error returned by a DispatchClient
type DispatchError struct {
	Class   ErrorClass
	Code    int
	Message string
}

func (e *DispatchError) Error() string {
	return e.Message
}

// NewDispatchError creates a classified dispatch error
func NewDispatchError(class ErrorClass, code int, message string) *DispatchError {
	return &DispatchError{Class: class, Code: code, Message: message}
}

// ClassifyError extracts the error class from a dispatch error, defaulting to
// internal for anything that did not come through the client boundary
func ClassifyError(err error) ErrorClass {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Class
	}
	return ErrorInternal
}

// DispatchClient is the send capability of the external messaging provider
type DispatchClient interface {
	Send(ctx context.Context, address string, renderedMessage string) (providerMessageID string, err error)
}

// RecipientResolver materializes the audience of a campaign. Audience
// resolution lives outside the engine; the snapshot is frozen once the
// campaign starts running.
type RecipientResolver interface {
	Resolve(ctx context.Context, campaignID int) ([]RecipientSnapshot, error)
}

// MessageRenderer renders the campaign template for one recipient
type MessageRenderer interface {
	Render(templateRef string, recipientContext map[string]string) (string, error)
}

// DeliveryStatus is a provider-reported delivery state carried by an
// asynchronous status callback
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Valid reports whether the status is one the provider may report
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliverySent, DeliveryDelivered, DeliveryRead, DeliveryFailed:
		return true
	}
	return false
}

// RecipientStatus maps the delivery status onto the recipient progression
func (s DeliveryStatus) RecipientStatus() RecipientStatus {
	switch s {
	case DeliverySent:
		return RecipientSent
	case DeliveryDelivered:
		return RecipientDelivered
	case DeliveryRead:
		return RecipientRead
	case DeliveryFailed:
		return RecipientFailed
	}
	return RecipientPending
}

// StatusEvent is one asynchronous delivery-status callback from the provider
type StatusEvent struct {
	ProviderMessageID string
	Status            DeliveryStatus
	Timestamp         time.Time
}
