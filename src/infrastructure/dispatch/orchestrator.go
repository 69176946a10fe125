package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	domainCampaign "go-campaign-api/src/domain/campaign"
	domainChannel "go-campaign-api/src/domain/channel"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"
	campaignRepo "go-campaign-api/src/infrastructure/repository/mysql/campaign"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Notifier receives campaign-level events worth surfacing to an operator.
// Implementations must not block.
type Notifier interface {
	CampaignPaused(campaignID int, name string, reason domainCampaign.PauseReason)
	CampaignFinished(campaignID int, name string, state domainCampaign.CampaignState, sent int, failed int)
}

// Orchestrator owns the campaign lifecycle: it materializes the audience
// snapshot, fans recipients out across batch workers, joins their results,
// and finalizes the run exactly once.
type Orchestrator struct {
	campaigns  campaignRepo.CampaignRepositoryInterface
	recipients campaignRepo.RecipientRepositoryInterface
	channels   campaignRepo.ChannelRepositoryInterface
	resolver   domainCampaign.RecipientResolver
	worker     *BatchWorker
	sm         StateMachine
	clock      Clock
	cfg        Config
	notifier   Notifier
	Logger     *logger.Logger

	mu   sync.Mutex
	runs map[int]*campaignRun
}

// NewOrchestrator creates a campaign orchestrator. notifier may be nil.
func NewOrchestrator(
	campaigns campaignRepo.CampaignRepositoryInterface,
	recipients campaignRepo.RecipientRepositoryInterface,
	channels campaignRepo.ChannelRepositoryInterface,
	resolver domainCampaign.RecipientResolver,
	worker *BatchWorker,
	clock Clock,
	cfg Config,
	notifier Notifier,
	loggerInstance *logger.Logger,
) *Orchestrator {
	cfg.Normalize()
	return &Orchestrator{
		campaigns:  campaigns,
		recipients: recipients,
		channels:   channels,
		resolver:   resolver,
		worker:     worker,
		sm:         NewStateMachine(),
		clock:      clock,
		cfg:        cfg,
		notifier:   notifier,
		Logger:     loggerInstance,
		runs:       make(map[int]*campaignRun),
	}
}

// campaignRun is the live state of one run, shared between the orchestrator
// and its batch workers
type campaignRun struct {
	generation int
	state      atomic.Value // domainCampaign.CampaignState
}

func newCampaignRun(generation int) *campaignRun {
	run := &campaignRun{generation: generation}
	run.state.Store(domainCampaign.StateRunning)
	return run
}

func (r *campaignRun) currentState() domainCampaign.CampaignState {
	return r.state.Load().(domainCampaign.CampaignState)
}

func (r *campaignRun) setState(state domainCampaign.CampaignState) {
	r.state.Store(state)
}

// Start runs a campaign to the fan-in barrier: it blocks until every batch
// unit has finished or the campaign left the running state. Campaigns in
// draft get their audience snapshot materialized; paused campaigns re-enter
// with only their still-pending recipients.
func (o *Orchestrator) Start(ctx context.Context, campaignID int) error {
	camp, err := o.campaigns.GetByID(campaignID)
	if err != nil {
		return err
	}

	resuming := camp.State == domainCampaign.StatePaused
	if err := o.sm.Transition(camp, domainCampaign.StateRunning, ""); err != nil {
		return err
	}

	o.mu.Lock()
	if _, active := o.runs[campaignID]; active {
		o.mu.Unlock()
		return domainErrors.NewAppErrorWithType(domainErrors.InvalidStateTransition)
	}
	run := newCampaignRun(camp.Generation + 1)
	o.runs[campaignID] = run
	o.mu.Unlock()
	defer o.dropRun(campaignID)

	ch, err := o.channels.GetByID(camp.ChannelID)
	if err != nil {
		return err
	}

	recipients, err := o.materialize(ctx, camp, resuming)
	if err != nil {
		return err
	}

	camp.Generation = run.generation
	if err := o.campaigns.MarkRunning(campaignID, run.generation, camp.TotalRecipients, o.clock.Now()); err != nil {
		return err
	}

	o.Logger.Info("Campaign run starting",
		zap.Int("campaignID", campaignID),
		zap.Int("generation", run.generation),
		zap.Int("recipients", len(recipients)),
		zap.Bool("resuming", resuming))

	return o.run(ctx, camp, ch, recipients, run)
}

// Resume re-partitions only the recipients still pending and re-enters the
// fan-out step
func (o *Orchestrator) Resume(ctx context.Context, campaignID int) error {
	return o.Start(ctx, campaignID)
}

// Pause flips the campaign out of running. In-flight workers observe the new
// state before their next recipient; not-yet-attempted recipients stay pending.
func (o *Orchestrator) Pause(ctx context.Context, campaignID int, reason domainCampaign.PauseReason) error {
	camp, err := o.campaigns.GetByID(campaignID)
	if err != nil {
		return err
	}
	if err := o.sm.Transition(camp, domainCampaign.StatePaused, reason); err != nil {
		return err
	}
	if err := o.campaigns.UpdateState(campaignID, domainCampaign.StatePaused, reason); err != nil {
		return err
	}

	o.mu.Lock()
	if run, active := o.runs[campaignID]; active {
		run.setState(domainCampaign.StatePaused)
	}
	o.mu.Unlock()

	if o.notifier != nil {
		o.notifier.CampaignPaused(campaignID, camp.Name, reason)
	}
	return nil
}

// Cancel terminates the campaign. Recipients not yet attempted become
// terminally cancelled and are never retried on a future resume.
func (o *Orchestrator) Cancel(ctx context.Context, campaignID int) error {
	camp, err := o.campaigns.GetByID(campaignID)
	if err != nil {
		return err
	}
	if err := o.sm.Transition(camp, domainCampaign.StateCancelled, ""); err != nil {
		return err
	}
	if err := o.campaigns.UpdateState(campaignID, domainCampaign.StateCancelled, ""); err != nil {
		return err
	}

	o.mu.Lock()
	run, active := o.runs[campaignID]
	o.mu.Unlock()

	if active {
		// workers cancel their own remainders at the next checkpoint
		run.setState(domainCampaign.StateCancelled)
		return nil
	}

	cancelled, err := o.recipients.CancelPending(campaignID)
	if err != nil {
		return err
	}
	if cancelled > 0 {
		if err := o.campaigns.IncrementCounters(campaignID, domainCampaign.CounterDelta{Cancelled: int(cancelled)}); err != nil {
			return err
		}
	}
	return nil
}

// materialize freezes the audience snapshot on first start, or reloads the
// pending remainder on resume. The snapshot is fixed once the campaign has
// run: resume never re-resolves the audience.
func (o *Orchestrator) materialize(ctx context.Context, camp *domainCampaign.Campaign, resuming bool) ([]domainCampaign.Recipient, error) {
	if resuming {
		pending, err := o.recipients.GetByCampaignAndStatus(camp.ID, domainCampaign.RecipientPending)
		if err != nil {
			return nil, err
		}
		return *pending, nil
	}

	snapshots, err := o.resolver.Resolve(ctx, camp.ID)
	if err != nil {
		return nil, err
	}
	recipients := make([]domainCampaign.Recipient, 0, len(snapshots))
	for _, snap := range snapshots {
		recipients = append(recipients, domainCampaign.Recipient{
			CampaignID: camp.ID,
			ContactID:  snap.ContactID,
			Address:    snap.Address,
			Status:     domainCampaign.RecipientPending,
		})
	}
	created, err := o.recipients.CreateBatch(recipients)
	if err != nil {
		return nil, err
	}
	camp.TotalRecipients = len(created)
	return created, nil
}

// run is the fan-out/fan-in step: one worker per batch, joined on a barrier,
// then a finalize guarded by the run generation.
func (o *Orchestrator) run(ctx context.Context, camp *domainCampaign.Campaign, ch *domainChannel.Channel, recipients []domainCampaign.Recipient, run *campaignRun) error {
	batches := partition(recipients, o.cfg.BatchSize)
	results := make([]BatchResult, len(batches))

	pause := func(reason domainCampaign.PauseReason) {
		if run.currentState() != domainCampaign.StateRunning {
			return
		}
		run.setState(domainCampaign.StatePaused)
		if err := o.campaigns.UpdateState(camp.ID, domainCampaign.StatePaused, reason); err != nil {
			o.Logger.Error("Error persisting pause", zap.Error(err), zap.Int("campaignID", camp.ID))
		}
		o.Logger.Warn("Campaign paused", zap.Int("campaignID", camp.ID), zap.String("reason", string(reason)))
		if o.notifier != nil {
			o.notifier.CampaignPaused(camp.ID, camp.Name, reason)
		}
	}

	group := new(errgroup.Group)
	if o.cfg.MaxConcurrentBatches > 0 {
		group.SetLimit(o.cfg.MaxConcurrentBatches)
	}
	for i := range batches {
		index := i
		batch := batches[i]
		group.Go(func() error {
			// a crashing worker must not corrupt the other batches'
			// results; its unprocessed recipients stay pending
			defer func() {
				if rec := recover(); rec != nil {
					o.Logger.Error("Batch worker panic",
						zap.Int("campaignID", camp.ID), zap.Int("batch", index), zap.Any("panic", rec))
					results[index].Remaining = countPending(batch)
				}
			}()
			results[index] = o.worker.Run(ctx, camp, ch, batch, run.currentState, pause)
			return nil
		})
	}
	_ = group.Wait()

	return o.finalize(camp, run, results)
}

// finalize aggregates batch outcomes and records the final state. The
// generation guard in the repository makes a stale finalize from an earlier
// run a no-op.
func (o *Orchestrator) finalize(camp *domainCampaign.Campaign, run *campaignRun, results []BatchResult) error {
	var agg BatchResult
	for _, res := range results {
		agg.Sent += res.Sent
		agg.Failed += res.Failed
		agg.Cancelled += res.Cancelled
		agg.Remaining += res.Remaining
		agg.PauseRequested = agg.PauseRequested || res.PauseRequested
	}

	finalState := run.currentState()
	reason := domainCampaign.PauseReason("")
	switch finalState {
	case domainCampaign.StateRunning:
		if agg.Remaining == 0 {
			finalState = domainCampaign.StateCompleted
		} else {
			finalState = domainCampaign.StatePaused
			reason = domainCampaign.PauseReasonIncomplete
		}
	case domainCampaign.StatePaused:
		if agg.PauseRequested {
			reason = domainCampaign.PauseReasonRateExhausted
		} else {
			reason = domainCampaign.PauseReasonOperator
		}
	case domainCampaign.StateCancelled:
		// catch recipients in batches that never started
		stragglers, err := o.recipients.CancelPending(camp.ID)
		if err != nil {
			o.Logger.Error("Error cancelling pending recipients", zap.Error(err), zap.Int("campaignID", camp.ID))
		} else if stragglers > 0 {
			agg.Cancelled += int(stragglers)
			if err := o.campaigns.IncrementCounters(camp.ID, domainCampaign.CounterDelta{Cancelled: int(stragglers)}); err != nil {
				o.Logger.Error("Error incrementing cancelled counter", zap.Error(err), zap.Int("campaignID", camp.ID))
			}
		}
	}

	var completedAt *time.Time
	if finalState.IsTerminal() {
		now := o.clock.Now()
		completedAt = &now
	}

	applied, err := o.campaigns.FinalizeRun(camp.ID, run.generation, finalState, reason, completedAt)
	if err != nil {
		return err
	}
	if !applied {
		o.Logger.Warn("Finalize skipped: run superseded",
			zap.Int("campaignID", camp.ID), zap.Int("generation", run.generation))
		return nil
	}

	o.Logger.Info("Campaign run finished",
		zap.Int("campaignID", camp.ID),
		zap.Int("generation", run.generation),
		zap.String("state", string(finalState)),
		zap.Int("sent", agg.Sent),
		zap.Int("failed", agg.Failed),
		zap.Int("cancelled", agg.Cancelled),
		zap.Int("remaining", agg.Remaining))

	if o.notifier != nil && finalState != domainCampaign.StatePaused {
		o.notifier.CampaignFinished(camp.ID, camp.Name, finalState, agg.Sent, agg.Failed)
	}
	return nil
}

func (o *Orchestrator) dropRun(campaignID int) {
	o.mu.Lock()
	delete(o.runs, campaignID)
	o.mu.Unlock()
}

// IsRunning reports whether a run is currently active for the campaign
func (o *Orchestrator) IsRunning(campaignID int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, active := o.runs[campaignID]
	return active
}

// partition splits recipients into fixed-size batches, preserving order
func partition(recipients []domainCampaign.Recipient, size int) [][]domainCampaign.Recipient {
	if size <= 0 {
		size = len(recipients)
	}
	var batches [][]domainCampaign.Recipient
	for start := 0; start < len(recipients); start += size {
		end := start + size
		if end > len(recipients) {
			end = len(recipients)
		}
		batches = append(batches, recipients[start:end])
	}
	return batches
}
