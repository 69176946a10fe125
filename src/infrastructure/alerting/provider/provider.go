package provider

import (
	"go-campaign-api/src/infrastructure/alerting/alert"
	"go-campaign-api/src/infrastructure/alerting/provider/webhook"
)

// AlertProvider is the interface that each provider should implement
type AlertProvider interface {
	// Validate the provider's configuration
	Validate() error

	// Send an alert using the provider
	Send(alert *alert.Alert) error

	// GetDefaultAlert returns the provider's default alert configuration
	GetDefaultAlert() *alert.Alert
}

type Config[T any] interface {
	Validate() error
	Merge(override *T)
}

var (
	// Validate provider interface implementation on compile
	_ AlertProvider = (*webhook.AlertProvider)(nil)

	_ Config[webhook.Config] = (*webhook.Config)(nil)
)
