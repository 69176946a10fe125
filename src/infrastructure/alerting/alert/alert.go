package alert

import (
	"errors"
	"strings"
)

var (
	// ErrAlertWithInvalidDescription is returned when an alert description contains characters
	// that would break the rendered payload
	ErrAlertWithInvalidDescription = errors.New("alert description must not have \" or \\")
)

// Event names the campaign lifecycle moment an alert describes
type Event string

const (
	// EventCampaignPaused fires when a run stops early and operator attention is wanted
	EventCampaignPaused Event = "campaign_paused"

	// EventCampaignFinished fires when a run reaches a terminal outcome
	EventCampaignFinished Event = "campaign_finished"
)

// Alert is one operator notification about a campaign
type Alert struct {
	Type Type `yaml:"type"`

	Event Event `yaml:"event"`

	Enabled *bool `yaml:"enabled,omitempty"`

	Subject string `yaml:"subject,omitempty"`

	Description string `yaml:"description,omitempty"`

	CampaignID int `yaml:"campaign-id,omitempty"`

	CampaignName string `yaml:"campaign-name,omitempty"`
}

// ValidateAndSetDefaults validates the alert's configuration
func (alert *Alert) ValidateAndSetDefaults() error {
	if strings.ContainsAny(alert.Description, "\"\\") {
		return ErrAlertWithInvalidDescription
	}
	return nil
}

// IsEnabled returns whether an alert is enabled or not
// Returns true if not set
func (alert *Alert) IsEnabled() bool {
	if alert.Enabled == nil {
		return true
	}
	return *alert.Enabled
}
