package status

import (
	"errors"
	"time"

	domainCampaign "go-campaign-api/src/domain/campaign"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"

	"go.uber.org/zap"
)

// StatusEventRequest is one delivery receipt reported by the provider
type StatusEventRequest struct {
	ProviderMessageID string
	Status            string
	Timestamp         time.Time
}

// StatusSink consumes validated delivery receipts. *dispatch.StatusTracker
// satisfies it.
type StatusSink interface {
	OnStatusEvent(providerMessageID string, status domainCampaign.DeliveryStatus, timestamp time.Time) error
}

// IStatusUseCase defines the interface for delivery status use cases
type IStatusUseCase interface {
	ProcessStatusEvent(request *StatusEventRequest) error
}

// StatusUseCase implements the IStatusUseCase interface
type StatusUseCase struct {
	tracker StatusSink
	Logger  *logger.Logger
}

// NewStatusUseCase creates a new StatusUseCase
func NewStatusUseCase(tracker StatusSink, loggerInstance *logger.Logger) IStatusUseCase {
	return &StatusUseCase{tracker: tracker, Logger: loggerInstance}
}

// ProcessStatusEvent validates and applies one provider delivery receipt.
// Unknown statuses are rejected; receipts for not-yet-recorded message ids
// are held by the tracker, so the caller always gets an accepted response.
func (s *StatusUseCase) ProcessStatusEvent(request *StatusEventRequest) error {
	if request.ProviderMessageID == "" {
		return domainErrors.NewAppError(errors.New("message_id is required"), domainErrors.ValidationError)
	}
	deliveryStatus := domainCampaign.DeliveryStatus(request.Status)
	if !deliveryStatus.Valid() {
		return domainErrors.NewAppError(errors.New("unknown delivery status: "+request.Status), domainErrors.ValidationError)
	}
	timestamp := request.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	if err := s.tracker.OnStatusEvent(request.ProviderMessageID, deliveryStatus, timestamp); err != nil {
		s.Logger.Error("Error processing status event",
			zap.String("providerMessageID", request.ProviderMessageID),
			zap.String("status", request.Status),
			zap.Error(err))
		return err
	}
	return nil
}
