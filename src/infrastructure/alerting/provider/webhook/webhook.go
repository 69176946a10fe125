package webhook

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-campaign-api/src/infrastructure/alerting/alert"

	"github.com/tidwall/sjson"
)

// AlertProvider posts campaign alerts to an operator-configured HTTP endpoint
type AlertProvider struct {
	Config `yaml:",inline"`
}

// Config is the configuration for the webhook alerting provider
type Config struct {
	URL string `yaml:"url"`

	// Token is sent as a bearer token when set
	Token string `yaml:"token,omitempty"`

	// Timeout bounds each delivery attempt. Defaults to 10s
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

var ErrURLNotSet = errors.New("webhook url not set")

// Validate the provider's configuration
func (provider *AlertProvider) Validate() error {
	return provider.Config.Validate()
}

func (cfg *Config) Validate() error {
	if len(cfg.URL) == 0 {
		return ErrURLNotSet
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return nil
}

func (cfg *Config) Merge(override *Config) {
	if len(override.URL) > 0 {
		cfg.URL = override.URL
	}
	if len(override.Token) > 0 {
		cfg.Token = override.Token
	}
	if override.Timeout > 0 {
		cfg.Timeout = override.Timeout
	}
}

// Send an alert using the provider
func (provider *AlertProvider) Send(a *alert.Alert) error {
	body, err := provider.buildRequestBody(a)
	if err != nil {
		return err
	}
	request, err := http.NewRequest(http.MethodPost, provider.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	if len(provider.Token) > 0 {
		request.Header.Set("Authorization", "Bearer "+provider.Token)
	}
	client := &http.Client{Timeout: provider.Timeout}
	response, err := client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode > 399 {
		return fmt.Errorf("call to webhook alert provider returned status code %d", response.StatusCode)
	}
	return nil
}

func (provider *AlertProvider) buildRequestBody(a *alert.Alert) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	if body, err = sjson.SetBytes(body, "event", string(a.Event)); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "subject", a.Subject); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "description", a.Description); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "campaign.id", a.CampaignID); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "campaign.name", a.CampaignName); err != nil {
		return nil, err
	}
	return body, nil
}

// GetDefaultAlert returns the provider's default alert configuration
func (provider *AlertProvider) GetDefaultAlert() *alert.Alert {
	return &alert.Alert{Type: alert.TypeWebhook}
}
