package webhook

import "time"

// StatusCallbackRequest is the delivery receipt payload posted by the
// messaging provider
type StatusCallbackRequest struct {
	MessageID string    `json:"message_id" binding:"required"`
	Status    string    `json:"status" binding:"required"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

type StatusCallbackResponse struct {
	Accepted bool `json:"accepted"`
}
