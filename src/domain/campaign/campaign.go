package campaign

import (
	"time"
)

// CampaignState represents the lifecycle state of a campaign
type CampaignState string

const (
	StateDraft     CampaignState = "draft"
	StateRunning   CampaignState = "running"
	StatePaused    CampaignState = "paused"
	StateCompleted CampaignState = "completed"
	StateCancelled CampaignState = "cancelled"
)

// IsTerminal returns whether the state admits no further transitions
func (s CampaignState) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// PauseReason records why a running campaign was paused
type PauseReason string

const (
	PauseReasonOperator      PauseReason = "operator"
	PauseReasonRateExhausted PauseReason = "rate_exhausted"
	PauseReasonIncomplete    PauseReason = "incomplete_batches"
)

// Counters holds the aggregate delivery counters of a campaign.
// Within a run they only ever grow, and they satisfy
// sent >= delivered >= read and sent + failed + queued == total recipients.
type Counters struct {
	Queued    int
	Sent      int
	Delivered int
	Read      int
	Failed    int
	Cancelled int
}

// CounterDelta is a set of increments applied to campaign counters in a
// single atomic step
type CounterDelta struct {
	Queued    int
	Sent      int
	Delivered int
	Read      int
	Failed    int
	Cancelled int
}

// IsZero reports whether the delta carries no increments
func (d CounterDelta) IsZero() bool {
	return d == CounterDelta{}
}

// Add merges another delta into this one
func (d *CounterDelta) Add(other CounterDelta) {
	d.Queued += other.Queued
	d.Sent += other.Sent
	d.Delivered += other.Delivered
	d.Read += other.Read
	d.Failed += other.Failed
	d.Cancelled += other.Cancelled
}

// Campaign represents one bulk-send job for a tenant
type Campaign struct {
	ID              int
	TenantID        int
	ChannelID       int
	Name            string
	TemplateRef     string
	Variables       string // JSON variable bindings, opaque to the engine
	State           CampaignState
	PauseReason     PauseReason
	Generation      int // bumped on every run, guards stale finalization
	TotalRecipients int
	Counters        Counters
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	UpdatedAt       time.Time
}

// RecipientStatus represents the per-recipient dispatch/delivery state
type RecipientStatus string

const (
	RecipientPending   RecipientStatus = "pending"
	RecipientSending   RecipientStatus = "sending"
	RecipientSent      RecipientStatus = "sent"
	RecipientDelivered RecipientStatus = "delivered"
	RecipientRead      RecipientStatus = "read"
	RecipientFailed    RecipientStatus = "failed"
	RecipientCancelled RecipientStatus = "cancelled"
)

// IsTerminal returns whether the recipient needs no further dispatch work
func (s RecipientStatus) IsTerminal() bool {
	switch s {
	case RecipientFailed, RecipientCancelled, RecipientRead:
		return true
	}
	return false
}

// deliveryRank orders the forward-only delivery progression. Statuses outside
// the progression rank zero.
func (s RecipientStatus) deliveryRank() int {
	switch s {
	case RecipientSent:
		return 1
	case RecipientDelivered:
		return 2
	case RecipientRead:
		return 3
	}
	return 0
}

// Advances reports whether moving to next from s is forward progress in the
// sent < delivered < read ordering. failed is terminal and never advanced out of.
func (s RecipientStatus) Advances(next RecipientStatus) bool {
	if s == RecipientFailed {
		return false
	}
	if next == RecipientFailed {
		return s != RecipientFailed
	}
	return next.deliveryRank() > s.deliveryRank()
}

// Recipient represents one contact's participation record within a campaign
type Recipient struct {
	ID                int
	CampaignID        int
	ContactID         int
	Address           string
	Status            RecipientStatus
	ProviderMessageID string
	Attempts          []DispatchAttempt
	LastError         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DispatchAttempt records one try at sending a message to one recipient
type DispatchAttempt struct {
	Seq        int           `json:"seq"`
	Delay      time.Duration `json:"delay"`
	Outcome    string        `json:"outcome"` // sent, failed, retried
	ErrorClass ErrorClass    `json:"error_class,omitempty"`
	Error      string        `json:"error,omitempty"`
	At         time.Time     `json:"at"`
}

// RecipientSnapshot is the audience materialization handed over by the
// external resolver when a campaign starts
type RecipientSnapshot struct {
	ContactID int
	Address   string
	Context   map[string]string
}
