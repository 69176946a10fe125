package alerting

import (
	"fmt"

	domainCampaign "go-campaign-api/src/domain/campaign"
	"go-campaign-api/src/infrastructure/alerting/alert"
	logger "go-campaign-api/src/infrastructure/logger"

	"go.uber.org/zap"
)

// Notifier turns campaign lifecycle events into alerts and fans them out to
// every configured provider. Delivery failures are logged, never propagated:
// a broken webhook must not stall a campaign run.
type Notifier struct {
	config *Config
	Logger *logger.Logger
}

func NewNotifier(config *Config, loggerInstance *logger.Logger) *Notifier {
	return &Notifier{config: config, Logger: loggerInstance}
}

// CampaignPaused notifies operators that a run stopped before completing
func (n *Notifier) CampaignPaused(campaignID int, name string, reason domainCampaign.PauseReason) {
	n.send(&alert.Alert{
		Event:        alert.EventCampaignPaused,
		Subject:      fmt.Sprintf("Campaign %q paused", name),
		Description:  fmt.Sprintf("campaign %d paused, reason: %s", campaignID, reason),
		CampaignID:   campaignID,
		CampaignName: name,
	})
}

// CampaignFinished notifies operators of a terminal campaign outcome.
// Completed runs only alert when failures exceed the configured threshold;
// cancellations always do.
func (n *Notifier) CampaignFinished(campaignID int, name string, state domainCampaign.CampaignState, sent int, failed int) {
	if n.config != nil && state == domainCampaign.StateCompleted && failed <= n.config.FailedThreshold {
		n.Logger.Info("Campaign completed below the alerting threshold",
			zap.Int("campaignID", campaignID), zap.Int("failed", failed))
		return
	}
	n.send(&alert.Alert{
		Event:        alert.EventCampaignFinished,
		Subject:      fmt.Sprintf("Campaign %q %s", name, state),
		Description:  fmt.Sprintf("campaign %d reached state %s with %d sent and %d failed", campaignID, state, sent, failed),
		CampaignID:   campaignID,
		CampaignName: name,
	})
}

func (n *Notifier) send(a *alert.Alert) {
	if n.config == nil {
		return
	}
	for _, alertType := range []alert.Type{alert.TypeWebhook} {
		a.Type = alertType
		alertProvider := n.config.GetAlertingProviderByAlertType(alertType)
		if alertProvider == nil {
			continue
		}
		if err := alertProvider.Validate(); err != nil {
			n.Logger.Warn("Alerting provider has an invalid configuration, disabling it",
				zap.String("provider", string(alertType)), zap.Error(err))
			n.config.SetAlertingProviderToNil(alertProvider)
			continue
		}
		if err := a.ValidateAndSetDefaults(); err != nil {
			n.Logger.Warn("Dropping invalid alert", zap.Error(err))
			return
		}
		if err := alertProvider.Send(a); err != nil {
			n.Logger.Error("Failed to deliver alert",
				zap.String("provider", string(alertType)),
				zap.String("event", string(a.Event)),
				zap.Int("campaignID", a.CampaignID),
				zap.Error(err))
		}
	}
}
