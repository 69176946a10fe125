package alerting

import (
	"os"
	"reflect"
	"strings"

	"go-campaign-api/src/infrastructure/alerting/alert"
	"go-campaign-api/src/infrastructure/alerting/provider"
	"go-campaign-api/src/infrastructure/alerting/provider/webhook"

	"gopkg.in/yaml.v3"
)

// Config is the configuration for alerting providers
type Config struct {

	// FailedThreshold is the number of failed recipients above which a
	// finished campaign raises an alert. Clean completions stay quiet.
	FailedThreshold int `yaml:"failed-threshold,omitempty"`

	// Webhook is the configuration for the webhook alerting provider
	Webhook *webhook.AlertProvider `yaml:"webhook,omitempty"`
}

// LoadConfig reads the alerting configuration from the yaml file at path.
// A missing file yields an empty configuration, which disables alerting.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}
	if path == "" {
		return config, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, err
	}
	return config, nil
}

// GetAlertingProviderByAlertType returns an provider.AlertProvider by its corresponding alert.Type
func (config *Config) GetAlertingProviderByAlertType(alertType alert.Type) provider.AlertProvider {
	entityType := reflect.TypeOf(config).Elem()
	for i := 0; i < entityType.NumField(); i++ {
		field := entityType.Field(i)
		tag := strings.Split(field.Tag.Get("yaml"), ",")[0]
		if tag == string(alertType) {
			fieldValue := reflect.ValueOf(config).Elem().Field(i)
			if fieldValue.IsNil() {
				return nil
			}
			return fieldValue.Interface().(provider.AlertProvider)
		}
	}
	return nil
}

// SetAlertingProviderToNil Sets an alerting provider to nil to avoid having to revalidate it every time an
// alert of its corresponding type is sent.
func (config *Config) SetAlertingProviderToNil(p provider.AlertProvider) {
	entityType := reflect.TypeOf(config).Elem()
	for i := 0; i < entityType.NumField(); i++ {
		field := entityType.Field(i)
		if field.Type == reflect.TypeOf(p) {
			reflect.ValueOf(config).Elem().Field(i).Set(reflect.Zero(field.Type))
		}
	}
}
