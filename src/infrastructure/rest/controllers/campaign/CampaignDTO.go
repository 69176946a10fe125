package campaign

import "time"

type CreateCampaignRequest struct {
	ChannelID   int    `json:"channel_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	TemplateRef string `json:"template_ref" binding:"required"`
	Variables   string `json:"variables,omitempty"`
}

type CampaignResponse struct {
	ID              int        `json:"id"`
	TenantID        int        `json:"tenant_id"`
	ChannelID       int        `json:"channel_id"`
	Name            string     `json:"name"`
	TemplateRef     string     `json:"template_ref"`
	State           string     `json:"state"`
	PauseReason     string     `json:"pause_reason,omitempty"`
	TotalRecipients int        `json:"total_recipients"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

type CampaignIDRequest struct {
	ID int `uri:"id" binding:"required"`
}

type CampaignStatsResponse struct {
	CampaignID      int        `json:"campaign_id"`
	State           string     `json:"state"`
	PauseReason     string     `json:"pause_reason,omitempty"`
	TotalRecipients int        `json:"total_recipients"`
	Queued          int        `json:"queued"`
	Sent            int        `json:"sent"`
	Delivered       int        `json:"delivered"`
	Read            int        `json:"read"`
	Failed          int        `json:"failed"`
	Cancelled       int        `json:"cancelled"`
	DeliveryRate    float64    `json:"delivery_rate"`
	ReadRate        float64    `json:"read_rate"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

type RecipientResponse struct {
	ID                int    `json:"id"`
	ContactID         int    `json:"contact_id"`
	Address           string `json:"address"`
	Status            string `json:"status"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	LastError         string `json:"last_error,omitempty"`
	AttemptCount      int    `json:"attempt_count"`
}
