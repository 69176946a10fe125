package dispatch

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	domainCampaign "go-campaign-api/src/domain/campaign"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"
	campaignRepo "go-campaign-api/src/infrastructure/repository/mysql/campaign"

	"go.uber.org/zap"
)

// StatusTracker ingests asynchronous delivery-status callbacks and reconciles
// them against recipient records. Callbacks arrive on their own path, in any
// order, possibly duplicated, and possibly before the dispatch write for the
// same message has landed; the tracker's forward-only transition rule and the
// hold buffer absorb all of that.
type StatusTracker struct {
	recipients campaignRepo.RecipientRepositoryInterface
	campaigns  campaignRepo.CampaignRepositoryInterface
	clock      Clock
	holdWindow time.Duration
	Logger     *logger.Logger

	mu   sync.Mutex
	held map[string][]heldEvent
}

type heldEvent struct {
	status    domainCampaign.DeliveryStatus
	timestamp time.Time
	expiresAt time.Time
}

// NewStatusTracker creates a status tracker
func NewStatusTracker(
	recipients campaignRepo.RecipientRepositoryInterface,
	campaigns campaignRepo.CampaignRepositoryInterface,
	clock Clock,
	holdWindow time.Duration,
	loggerInstance *logger.Logger,
) *StatusTracker {
	return &StatusTracker{
		recipients: recipients,
		campaigns:  campaigns,
		clock:      clock,
		holdWindow: holdWindow,
		Logger:     loggerInstance,
		held:       make(map[string][]heldEvent),
	}
}

// OnStatusEvent applies one provider callback. Unknown provider message ids
// are held for the configured window and replayed once the dispatch write
// lands; everything else is applied immediately.
func (t *StatusTracker) OnStatusEvent(providerMessageID string, status domainCampaign.DeliveryStatus, timestamp time.Time) error {
	if providerMessageID == "" || !status.Valid() {
		return domainErrors.NewAppErrorWithType(domainErrors.ValidationError)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	recipient, err := t.recipients.GetByProviderMessageID(providerMessageID)
	if err != nil {
		var appErr *domainErrors.AppError
		if errors.As(err, &appErr) && appErr.Type == domainErrors.NotFound {
			t.holdEvent(providerMessageID, status, timestamp)
			return nil
		}
		return err
	}

	return t.apply(recipient, status)
}

// RegisterDispatch is invoked by the batch worker right after the dispatch
// write for a recipient lands. Any status events that raced ahead of the
// write are replayed in delivery order.
func (t *StatusTracker) RegisterDispatch(providerMessageID string) {
	t.mu.Lock()
	events, ok := t.held[providerMessageID]
	if ok {
		delete(t.held, providerMessageID)
	}
	t.mu.Unlock()

	if !ok {
		return
	}

	sort.SliceStable(events, func(i, j int) bool {
		return rankOf(events[i].status) < rankOf(events[j].status)
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ev := range events {
		recipient, err := t.recipients.GetByProviderMessageID(providerMessageID)
		if err != nil {
			t.Logger.Error("Held status event could not find its recipient",
				zap.Error(err), zap.String("providerMessageID", providerMessageID))
			return
		}
		if err := t.apply(recipient, ev.status); err != nil {
			t.Logger.Error("Error replaying held status event",
				zap.Error(err), zap.String("providerMessageID", providerMessageID), zap.String("status", string(ev.status)))
		}
	}
}

// Run sweeps expired held events until the context is cancelled
func (t *StatusTracker) Run(ctx context.Context) {
	for {
		if err := t.clock.Sleep(ctx, t.holdWindow/2); err != nil {
			return
		}
		t.Sweep()
	}
}

// Sweep drops held events whose lookup window has expired
func (t *StatusTracker) Sweep() {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for id, events := range t.held {
		kept := events[:0]
		for _, ev := range events {
			if ev.expiresAt.After(now) {
				kept = append(kept, ev)
				continue
			}
			t.Logger.Warn("Dropping status event for unknown provider message id",
				zap.String("providerMessageID", id), zap.String("status", string(ev.status)))
		}
		if len(kept) == 0 {
			delete(t.held, id)
			continue
		}
		t.held[id] = kept
	}
}

// HeldCount returns how many provider message ids currently have held events
func (t *StatusTracker) HeldCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.held)
}

func (t *StatusTracker) holdEvent(providerMessageID string, status domainCampaign.DeliveryStatus, timestamp time.Time) {
	t.held[providerMessageID] = append(t.held[providerMessageID], heldEvent{
		status:    status,
		timestamp: timestamp,
		expiresAt: t.clock.Now().Add(t.holdWindow),
	})
	t.Logger.Info("Holding status event for unknown provider message id",
		zap.String("providerMessageID", providerMessageID), zap.String("status", string(status)))
}

// apply advances the recipient along the delivery progression and increments
// the campaign aggregates derived from the previous recorded status, so a
// duplicate delivery of the same status can never double count.
func (t *StatusTracker) apply(recipient *domainCampaign.Recipient, status domainCampaign.DeliveryStatus) error {
	next := status.RecipientStatus()
	if !recipient.Status.Advances(next) {
		return nil
	}

	delta := counterDelta(recipient.Status, next)

	lastError := ""
	if next == domainCampaign.RecipientFailed {
		lastError = "delivery failure reported by provider"
	}
	if err := t.recipients.AdvanceStatus(recipient.ID, next, lastError); err != nil {
		return err
	}
	if err := t.campaigns.IncrementCounters(recipient.CampaignID, delta); err != nil {
		return err
	}

	t.Logger.Info("Applied delivery status",
		zap.Int("recipientID", recipient.ID),
		zap.Int("campaignID", recipient.CampaignID),
		zap.String("from", string(recipient.Status)),
		zap.String("to", string(next)))
	return nil
}

// counterDelta fills every delivery step between the previous status and the
// new one, keeping sent >= delivered >= read intact even when the provider
// skips intermediate callbacks.
func counterDelta(prev, next domainCampaign.RecipientStatus) domainCampaign.CounterDelta {
	var delta domainCampaign.CounterDelta
	if next == domainCampaign.RecipientFailed {
		delta.Failed = 1
		return delta
	}
	prevRank := rankOfRecipient(prev)
	nextRank := rankOfRecipient(next)
	for r := prevRank + 1; r <= nextRank; r++ {
		switch r {
		case 1:
			delta.Sent = 1
		case 2:
			delta.Delivered = 1
		case 3:
			delta.Read = 1
		}
	}
	return delta
}

func rankOf(status domainCampaign.DeliveryStatus) int {
	return rankOfRecipient(status.RecipientStatus())
}

func rankOfRecipient(status domainCampaign.RecipientStatus) int {
	switch status {
	case domainCampaign.RecipientSent:
		return 1
	case domainCampaign.RecipientDelivered:
		return 2
	case domainCampaign.RecipientRead:
		return 3
	}
	return 0
}
