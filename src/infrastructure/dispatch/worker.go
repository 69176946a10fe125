package dispatch

import (
	"context"

	domainCampaign "go-campaign-api/src/domain/campaign"
	domainChannel "go-campaign-api/src/domain/channel"
	logger "go-campaign-api/src/infrastructure/logger"
	campaignRepo "go-campaign-api/src/infrastructure/repository/mysql/campaign"

	"go.uber.org/zap"
)

// StateProbe exposes the live campaign state to workers. It is checked before
// every recipient, which is what makes pause and cancel take effect within at
// most one recipient's worth of latency.
type StateProbe func() domainCampaign.CampaignState

// PauseRequest lets a worker escalate a campaign-level condition (sustained
// rate exhaustion) to the orchestrator
type PauseRequest func(reason domainCampaign.PauseReason)

// BatchResult is what one batch unit reports to the fan-in barrier
type BatchResult struct {
	Sent           int
	Failed         int
	Cancelled      int
	Remaining      int // recipients left pending for a later resume
	PauseRequested bool
}

// BatchWorker processes one partition of recipients strictly sequentially,
// consulting the rate limiter and the retry policy per recipient. Sequential
// processing inside a batch is what keeps pacing and provider ordering
// guarantees tractable.
type BatchWorker struct {
	recipients campaignRepo.RecipientRepositoryInterface
	campaigns  campaignRepo.CampaignRepositoryInterface
	limiter    *RateLimiter
	retry      RetryPolicy
	client     domainCampaign.DispatchClient
	renderer   domainCampaign.MessageRenderer
	tracker    *StatusTracker
	clock      Clock
	cfg        Config
	Logger     *logger.Logger
}

// NewBatchWorker creates a batch worker
func NewBatchWorker(
	recipients campaignRepo.RecipientRepositoryInterface,
	campaigns campaignRepo.CampaignRepositoryInterface,
	limiter *RateLimiter,
	client domainCampaign.DispatchClient,
	renderer domainCampaign.MessageRenderer,
	tracker *StatusTracker,
	clock Clock,
	cfg Config,
	loggerInstance *logger.Logger,
) *BatchWorker {
	cfg.Normalize()
	return &BatchWorker{
		recipients: recipients,
		campaigns:  campaigns,
		limiter:    limiter,
		retry:      cfg.RetryPolicy(),
		client:     client,
		renderer:   renderer,
		tracker:    tracker,
		clock:      clock,
		cfg:        cfg,
		Logger:     loggerInstance,
	}
}

type recipientOutcome int

const (
	outcomeDone recipientOutcome = iota
	outcomePause
	outcomeStopped
)

// Run processes one batch. Re-invoking it for a campaign that is no longer
// running is a no-op: the state probe is consulted before any message goes out.
func (w *BatchWorker) Run(ctx context.Context, camp *domainCampaign.Campaign, ch *domainChannel.Channel, batch []domainCampaign.Recipient, state StateProbe, pause PauseRequest) BatchResult {
	var result BatchResult

	for i := range batch {
		recipient := &batch[i]

		switch state() {
		case domainCampaign.StateRunning:
			// keep going
		case domainCampaign.StateCancelled:
			result.Cancelled += w.cancelRemaining(camp, batch[i:])
			return result
		default:
			result.Remaining += countPending(batch[i:])
			return result
		}

		if recipient.Status != domainCampaign.RecipientPending {
			continue
		}

		outcome := w.processRecipient(ctx, camp, ch, recipient, &result, state)
		switch outcome {
		case outcomePause:
			result.PauseRequested = true
			pause(domainCampaign.PauseReasonRateExhausted)
			result.Remaining += countPending(batch[i:])
			return result
		case outcomeStopped:
			result.Remaining += countPending(batch[i:])
			return result
		}

		// fixed inter-message pacing, independent of rate-limit waits
		if i < len(batch)-1 && w.cfg.Pacing > 0 {
			if err := w.clock.Sleep(ctx, w.cfg.Pacing); err != nil {
				result.Remaining += countPending(batch[i+1:])
				return result
			}
		}
	}

	return result
}

// processRecipient drives one recipient through rate limiting, dispatch, and
// retries. Attempts are strictly ordered: attempt N+1 never starts before
// attempt N's outcome is recorded.
func (w *BatchWorker) processRecipient(ctx context.Context, camp *domainCampaign.Campaign, ch *domainChannel.Channel, recipient *domainCampaign.Recipient, result *BatchResult, state StateProbe) recipientOutcome {
	rendered, err := w.renderer.Render(camp.TemplateRef, map[string]string{
		"address":   recipient.Address,
		"variables": camp.Variables,
	})
	if err != nil {
		// an unrenderable message is an orchestration problem, not a
		// provider one; fail the recipient so it is never silently dropped
		w.Logger.Error("Error rendering message", zap.Error(err), zap.Int("recipientID", recipient.ID))
		w.failRecipient(camp, recipient, result, err.Error())
		return outcomeDone
	}

	attempts := recipient.Attempts
	attempt := 0

	for {
		if out := w.acquire(ctx, ch, state); out != outcomeDone {
			w.restorePending(recipient)
			return out
		}

		if err := w.recipients.UpdateStatus(recipient.ID, domainCampaign.RecipientSending, ""); err != nil {
			w.failRecipient(camp, recipient, result, err.Error())
			return outcomeDone
		}
		recipient.Status = domainCampaign.RecipientSending

		now := w.clock.Now()
		providerMessageID, sendErr := w.client.Send(ctx, recipient.Address, rendered)
		if sendErr == nil {
			attempts = append(attempts, domainCampaign.DispatchAttempt{
				Seq: attempt + 1, Outcome: "sent", At: now,
			})
			if err := w.recipients.MarkSent(recipient.ID, providerMessageID, attempts); err != nil {
				w.Logger.Error("Error recording dispatch", zap.Error(err), zap.Int("recipientID", recipient.ID))
			}
			recipient.Status = domainCampaign.RecipientSent
			recipient.ProviderMessageID = providerMessageID
			if err := w.campaigns.IncrementCounters(camp.ID, domainCampaign.CounterDelta{Sent: 1}); err != nil {
				w.Logger.Error("Error incrementing sent counter", zap.Error(err), zap.Int("campaignID", camp.ID))
			}
			w.tracker.RegisterDispatch(providerMessageID)
			result.Sent++
			return outcomeDone
		}

		class := domainCampaign.ClassifyError(sendErr)

		if class == domainCampaign.ErrorRateLimited {
			// the provider throttled us: not a failed attempt, go back to
			// the limiter and let it pace the next try
			attempts = append(attempts, domainCampaign.DispatchAttempt{
				Seq: attempt + 1, Outcome: "rate_limited", ErrorClass: class, Error: sendErr.Error(), At: now,
			})
			continue
		}

		attempt++
		decision := w.retry.NextDelay(attempt, class)

		if !decision.Retry {
			attempts = append(attempts, domainCampaign.DispatchAttempt{
				Seq: attempt, Outcome: "failed", ErrorClass: class, Error: sendErr.Error(), At: now,
			})
			if err := w.recipients.MarkFailed(recipient.ID, sendErr.Error(), attempts); err != nil {
				w.Logger.Error("Error marking recipient failed", zap.Error(err), zap.Int("recipientID", recipient.ID))
			}
			recipient.Status = domainCampaign.RecipientFailed
			recipient.LastError = sendErr.Error()
			if err := w.campaigns.IncrementCounters(camp.ID, domainCampaign.CounterDelta{Failed: 1}); err != nil {
				w.Logger.Error("Error incrementing failed counter", zap.Error(err), zap.Int("campaignID", camp.ID))
			}
			result.Failed++
			w.Logger.Warn("Recipient failed",
				zap.Int("recipientID", recipient.ID),
				zap.Int("attempts", attempt),
				zap.String("class", string(class)),
				zap.String("error", sendErr.Error()))
			return outcomeDone
		}

		attempts = append(attempts, domainCampaign.DispatchAttempt{
			Seq: attempt, Outcome: "retried", ErrorClass: class, Error: sendErr.Error(), Delay: decision.Delay, At: now,
		})
		w.Logger.Info("Retrying recipient after transient failure",
			zap.Int("recipientID", recipient.ID),
			zap.Int("attempt", attempt),
			zap.Duration("delay", decision.Delay))
		if err := w.clock.Sleep(ctx, decision.Delay); err != nil {
			w.restorePending(recipient)
			return outcomeStopped
		}
	}
}

// acquire waits on the rate limiter. A wait beyond the pause threshold means
// global rate exhaustion, which is a campaign-level event, not a per-batch one.
func (w *BatchWorker) acquire(ctx context.Context, ch *domainChannel.Channel, state StateProbe) recipientOutcome {
	for {
		if state() != domainCampaign.StateRunning {
			return outcomeStopped
		}

		admission := w.limiter.Acquire(ch)
		if admission.OK {
			return outcomeDone
		}
		if admission.Wait > w.cfg.PauseThreshold {
			w.Logger.Warn("Rate limit exhausted beyond pause threshold",
				zap.String("channel", ch.Key()), zap.Duration("wait", admission.Wait))
			return outcomePause
		}
		if err := w.clock.Sleep(ctx, admission.Wait); err != nil {
			return outcomeStopped
		}
	}
}

func (w *BatchWorker) failRecipient(camp *domainCampaign.Campaign, recipient *domainCampaign.Recipient, result *BatchResult, reason string) {
	attempts := append(recipient.Attempts, domainCampaign.DispatchAttempt{
		Seq: len(recipient.Attempts) + 1, Outcome: "failed", ErrorClass: domainCampaign.ErrorInternal, Error: reason, At: w.clock.Now(),
	})
	if err := w.recipients.MarkFailed(recipient.ID, reason, attempts); err != nil {
		w.Logger.Error("Error marking recipient failed", zap.Error(err), zap.Int("recipientID", recipient.ID))
	}
	recipient.Status = domainCampaign.RecipientFailed
	recipient.LastError = reason
	if err := w.campaigns.IncrementCounters(camp.ID, domainCampaign.CounterDelta{Failed: 1}); err != nil {
		w.Logger.Error("Error incrementing failed counter", zap.Error(err), zap.Int("campaignID", camp.ID))
	}
	result.Failed++
}

// restorePending puts a recipient interrupted mid-dispatch back into the
// pending pool so a later resume picks it up. The caller counts it among the
// batch remainder.
func (w *BatchWorker) restorePending(recipient *domainCampaign.Recipient) {
	if recipient.Status == domainCampaign.RecipientSending {
		if err := w.recipients.UpdateStatus(recipient.ID, domainCampaign.RecipientPending, ""); err != nil {
			w.Logger.Error("Error restoring recipient to pending", zap.Error(err), zap.Int("recipientID", recipient.ID))
		}
		recipient.Status = domainCampaign.RecipientPending
	}
}

// cancelRemaining marks every not-yet-attempted recipient in the rest of the
// batch as cancelled
func (w *BatchWorker) cancelRemaining(camp *domainCampaign.Campaign, rest []domainCampaign.Recipient) int {
	cancelled := 0
	for i := range rest {
		if rest[i].Status != domainCampaign.RecipientPending {
			continue
		}
		if err := w.recipients.UpdateStatus(rest[i].ID, domainCampaign.RecipientCancelled, ""); err != nil {
			w.Logger.Error("Error cancelling recipient", zap.Error(err), zap.Int("recipientID", rest[i].ID))
			continue
		}
		rest[i].Status = domainCampaign.RecipientCancelled
		cancelled++
	}
	if cancelled > 0 {
		if err := w.campaigns.IncrementCounters(camp.ID, domainCampaign.CounterDelta{Cancelled: cancelled}); err != nil {
			w.Logger.Error("Error incrementing cancelled counter", zap.Error(err), zap.Int("campaignID", camp.ID))
		}
	}
	return cancelled
}

func countPending(rest []domainCampaign.Recipient) int {
	n := 0
	for i := range rest {
		if rest[i].Status == domainCampaign.RecipientPending {
			n++
		}
	}
	return n
}
