package dispatch

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	domainCampaign "go-campaign-api/src/domain/campaign"
	domainChannel "go-campaign-api/src/domain/channel"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"
)

func setupLogger(t *testing.T) *logger.Logger {
	loggerInstance, err := logger.NewLogger()
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return loggerInstance
}

// fakeClock drives the engine's waits manually so tests never sleep for real.
// Sleep records the requested duration and advances the clock by it.
type fakeClock struct {
	mu       sync.Mutex
	now      time.Time
	sleeps   []time.Duration
	sleepErr error
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sleepErr != nil {
		return c.sleepErr
	}
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

type statusChange struct {
	id        int
	status    domainCampaign.RecipientStatus
	lastError string
}

type sentRecord struct {
	id                int
	providerMessageID string
	attempts          []domainCampaign.DispatchAttempt
}

type failedRecord struct {
	id        int
	lastError string
	attempts  []domainCampaign.DispatchAttempt
}

type recipientRepoMock struct {
	mu sync.Mutex

	createBatchFn            func([]domainCampaign.Recipient) ([]domainCampaign.Recipient, error)
	getByCampaignAndStatusFn func(int, domainCampaign.RecipientStatus) (*[]domainCampaign.Recipient, error)
	getByProviderMessageIDFn func(string) (*domainCampaign.Recipient, error)
	cancelPendingFn          func(int) (int64, error)
	advanceStatusFn          func(int, domainCampaign.RecipientStatus, string) error
	updateStatusErr          error

	updates  []statusChange
	advances []statusChange
	sent     []sentRecord
	failed   []failedRecord
}

func (m *recipientRepoMock) CreateBatch(recipients []domainCampaign.Recipient) ([]domainCampaign.Recipient, error) {
	if m.createBatchFn != nil {
		return m.createBatchFn(recipients)
	}
	for i := range recipients {
		recipients[i].ID = i + 1
	}
	return recipients, nil
}

func (m *recipientRepoMock) GetByCampaign(campaignID int) (*[]domainCampaign.Recipient, error) {
	return &[]domainCampaign.Recipient{}, nil
}

func (m *recipientRepoMock) GetByCampaignAndStatus(campaignID int, status domainCampaign.RecipientStatus) (*[]domainCampaign.Recipient, error) {
	if m.getByCampaignAndStatusFn != nil {
		return m.getByCampaignAndStatusFn(campaignID, status)
	}
	return &[]domainCampaign.Recipient{}, nil
}

func (m *recipientRepoMock) GetByProviderMessageID(providerMessageID string) (*domainCampaign.Recipient, error) {
	if m.getByProviderMessageIDFn != nil {
		return m.getByProviderMessageIDFn(providerMessageID)
	}
	return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
}

func (m *recipientRepoMock) UpdateStatus(id int, status domainCampaign.RecipientStatus, lastError string) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, statusChange{id: id, status: status, lastError: lastError})
	return nil
}

func (m *recipientRepoMock) MarkSent(id int, providerMessageID string, attempts []domainCampaign.DispatchAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentRecord{id: id, providerMessageID: providerMessageID, attempts: attempts})
	return nil
}

func (m *recipientRepoMock) MarkFailed(id int, lastError string, attempts []domainCampaign.DispatchAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, failedRecord{id: id, lastError: lastError, attempts: attempts})
	return nil
}

func (m *recipientRepoMock) AdvanceStatus(id int, status domainCampaign.RecipientStatus, lastError string) error {
	if m.advanceStatusFn != nil {
		return m.advanceStatusFn(id, status, lastError)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advances = append(m.advances, statusChange{id: id, status: status, lastError: lastError})
	return nil
}

func (m *recipientRepoMock) CancelPending(campaignID int) (int64, error) {
	if m.cancelPendingFn != nil {
		return m.cancelPendingFn(campaignID)
	}
	return 0, nil
}

func (m *recipientRepoMock) CountByStatus(campaignID int) (map[domainCampaign.RecipientStatus]int, error) {
	return map[domainCampaign.RecipientStatus]int{}, nil
}

func (m *recipientRepoMock) statusUpdates() []statusChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]statusChange, len(m.updates))
	copy(out, m.updates)
	return out
}

func (m *recipientRepoMock) sentRecords() []sentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentRecord, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *recipientRepoMock) failedRecords() []failedRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]failedRecord, len(m.failed))
	copy(out, m.failed)
	return out
}

type counterCall struct {
	id    int
	delta domainCampaign.CounterDelta
}

type finalizeCall struct {
	id          int
	generation  int
	state       domainCampaign.CampaignState
	reason      domainCampaign.PauseReason
	completedAt *time.Time
}

type markRunningCall struct {
	id              int
	generation      int
	totalRecipients int
}

type campaignRepoMock struct {
	mu sync.Mutex

	getByIDFn     func(int) (*domainCampaign.Campaign, error)
	finalizeRunFn func(int, int, domainCampaign.CampaignState, domainCampaign.PauseReason, *time.Time) (bool, error)

	stateChanges []statusChange
	markRunnings []markRunningCall
	finalizes    []finalizeCall
	counters     []counterCall
}

func (m *campaignRepoMock) Create(c *domainCampaign.Campaign) (*domainCampaign.Campaign, error) {
	return c, nil
}

func (m *campaignRepoMock) GetByID(id int) (*domainCampaign.Campaign, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
}

func (m *campaignRepoMock) GetByTenant(tenantID int) (*[]domainCampaign.Campaign, error) {
	return &[]domainCampaign.Campaign{}, nil
}

func (m *campaignRepoMock) UpdateState(id int, state domainCampaign.CampaignState, reason domainCampaign.PauseReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateChanges = append(m.stateChanges, statusChange{id: id, status: domainCampaign.RecipientStatus(state), lastError: string(reason)})
	return nil
}

func (m *campaignRepoMock) MarkRunning(id int, generation int, totalRecipients int, startedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markRunnings = append(m.markRunnings, markRunningCall{id: id, generation: generation, totalRecipients: totalRecipients})
	return nil
}

func (m *campaignRepoMock) FinalizeRun(id int, generation int, state domainCampaign.CampaignState, reason domainCampaign.PauseReason, completedAt *time.Time) (bool, error) {
	m.mu.Lock()
	m.finalizes = append(m.finalizes, finalizeCall{id: id, generation: generation, state: state, reason: reason, completedAt: completedAt})
	m.mu.Unlock()
	if m.finalizeRunFn != nil {
		return m.finalizeRunFn(id, generation, state, reason, completedAt)
	}
	return true, nil
}

func (m *campaignRepoMock) IncrementCounters(id int, delta domainCampaign.CounterDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, counterCall{id: id, delta: delta})
	return nil
}

// counterTotal folds all recorded increments into one delta
func (m *campaignRepoMock) counterTotal() domainCampaign.CounterDelta {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total domainCampaign.CounterDelta
	for _, call := range m.counters {
		total.Add(call.delta)
	}
	return total
}

func (m *campaignRepoMock) finalizeCalls() []finalizeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]finalizeCall, len(m.finalizes))
	copy(out, m.finalizes)
	return out
}

type channelRepoMock struct {
	getByIDFn func(int) (*domainChannel.Channel, error)
}

func (m *channelRepoMock) Create(c *domainChannel.Channel) (*domainChannel.Channel, error) {
	return c, nil
}

func (m *channelRepoMock) GetByID(id int) (*domainChannel.Channel, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
}

func (m *channelRepoMock) GetByTenant(tenantID int) (*[]domainChannel.Channel, error) {
	return &[]domainChannel.Channel{}, nil
}

type dispatchClientMock struct {
	mu     sync.Mutex
	sendFn func(ctx context.Context, address string, renderedMessage string) (string, error)
	sends  []string
}

func (m *dispatchClientMock) Send(ctx context.Context, address string, renderedMessage string) (string, error) {
	m.mu.Lock()
	m.sends = append(m.sends, address)
	n := len(m.sends)
	m.mu.Unlock()
	if m.sendFn != nil {
		return m.sendFn(ctx, address, renderedMessage)
	}
	return "pm-" + strconv.Itoa(n), nil
}

func (m *dispatchClientMock) sendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sends)
}

type rendererMock struct {
	renderFn func(string, map[string]string) (string, error)
}

func (m *rendererMock) Render(templateRef string, recipientContext map[string]string) (string, error) {
	if m.renderFn != nil {
		return m.renderFn(templateRef, recipientContext)
	}
	return "hello", nil
}

type resolverMock struct {
	resolveFn func(context.Context, int) ([]domainCampaign.RecipientSnapshot, error)
}

func (m *resolverMock) Resolve(ctx context.Context, campaignID int) ([]domainCampaign.RecipientSnapshot, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, campaignID)
	}
	return nil, nil
}

type pauseNote struct {
	campaignID int
	reason     domainCampaign.PauseReason
}

type finishNote struct {
	campaignID int
	state      domainCampaign.CampaignState
	sent       int
	failed     int
}

type notifierMock struct {
	mu       sync.Mutex
	paused   []pauseNote
	finished []finishNote
}

func (m *notifierMock) CampaignPaused(campaignID int, name string, reason domainCampaign.PauseReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = append(m.paused, pauseNote{campaignID: campaignID, reason: reason})
}

func (m *notifierMock) CampaignFinished(campaignID int, name string, state domainCampaign.CampaignState, sent int, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, finishNote{campaignID: campaignID, state: state, sent: sent, failed: failed})
}

func (m *notifierMock) pausedNotes() []pauseNote {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pauseNote, len(m.paused))
	copy(out, m.paused)
	return out
}

func (m *notifierMock) finishedNotes() []finishNote {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]finishNote, len(m.finished))
	copy(out, m.finished)
	return out
}

func officialChannel(perMinute, perHour, perDay int) *domainChannel.Channel {
	return &domainChannel.Channel{
		ID:       7,
		TenantID: 3,
		Name:     "main-official",
		Class:    domainChannel.ClassOfficial,
		RateProfile: domainChannel.RateProfile{
			PerMinute: perMinute,
			PerHour:   perHour,
			PerDay:    perDay,
		},
		Status: true,
	}
}

func unofficialChannel(minInterval time.Duration, hourlyCeiling int) *domainChannel.Channel {
	return &domainChannel.Channel{
		ID:       8,
		TenantID: 3,
		Name:     "side-unofficial",
		Class:    domainChannel.ClassUnofficial,
		RateProfile: domainChannel.RateProfile{
			MinInterval:   minInterval,
			HourlyCeiling: hourlyCeiling,
		},
		Status: true,
	}
}
