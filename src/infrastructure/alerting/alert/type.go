package alert

// Type is the type of the alert.
// The value will generally be the name of the alert provider
type Type string

const (

	// TypeWebhook is the Type for the webhook alerting provider
	TypeWebhook Type = "webhook"
)
