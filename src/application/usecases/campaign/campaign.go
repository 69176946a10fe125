package campaign

import (
	"context"
	"time"

	domainCampaign "go-campaign-api/src/domain/campaign"
	domainErrors "go-campaign-api/src/domain/errors"
	"go-campaign-api/src/infrastructure/dispatch"
	logger "go-campaign-api/src/infrastructure/logger"
	campaignRepo "go-campaign-api/src/infrastructure/repository/mysql/campaign"

	"go.uber.org/zap"
)

// CreateCampaignRequest represents a request to create a draft campaign
type CreateCampaignRequest struct {
	TenantID    int
	ChannelID   int
	Name        string
	TemplateRef string
	Variables   string
}

// CampaignStatsResponse aggregates the delivery counters of a campaign.
// Queued is derived so the totals always add up even while workers are
// incrementing the stored counters.
type CampaignStatsResponse struct {
	CampaignID      int
	State           domainCampaign.CampaignState
	PauseReason     domainCampaign.PauseReason
	TotalRecipients int
	Queued          int
	Sent            int
	Delivered       int
	Read            int
	Failed          int
	Cancelled       int
	DeliveryRate    float64
	ReadRate        float64
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// CampaignOrchestrator is the dispatch engine surface the use case drives.
// *dispatch.Orchestrator satisfies it.
type CampaignOrchestrator interface {
	Start(ctx context.Context, campaignID int) error
	Resume(ctx context.Context, campaignID int) error
	Pause(ctx context.Context, campaignID int, reason domainCampaign.PauseReason) error
	Cancel(ctx context.Context, campaignID int) error
	IsRunning(campaignID int) bool
}

// ICampaignUseCase defines the interface for campaign use cases
type ICampaignUseCase interface {
	Create(request *CreateCampaignRequest) (*domainCampaign.Campaign, error)
	GetByID(tenantID int, campaignID int) (*domainCampaign.Campaign, error)
	GetByTenant(tenantID int) (*[]domainCampaign.Campaign, error)
	Start(tenantID int, campaignID int) error
	Pause(ctx context.Context, tenantID int, campaignID int) error
	Resume(tenantID int, campaignID int) error
	Cancel(ctx context.Context, tenantID int, campaignID int) error
	GetStats(tenantID int, campaignID int) (*CampaignStatsResponse, error)
	GetRecipients(tenantID int, campaignID int) (*[]domainCampaign.Recipient, error)
}

// CampaignUseCase implements the ICampaignUseCase interface
type CampaignUseCase struct {
	campaignRepository  campaignRepo.CampaignRepositoryInterface
	recipientRepository campaignRepo.RecipientRepositoryInterface
	channelRepository   campaignRepo.ChannelRepositoryInterface
	orchestrator        CampaignOrchestrator
	stateMachine        dispatch.StateMachine
	Logger              *logger.Logger
}

// NewCampaignUseCase creates a new CampaignUseCase
func NewCampaignUseCase(
	campaignRepository campaignRepo.CampaignRepositoryInterface,
	recipientRepository campaignRepo.RecipientRepositoryInterface,
	channelRepository campaignRepo.ChannelRepositoryInterface,
	orchestrator CampaignOrchestrator,
	loggerInstance *logger.Logger,
) ICampaignUseCase {
	return &CampaignUseCase{
		campaignRepository:  campaignRepository,
		recipientRepository: recipientRepository,
		channelRepository:   channelRepository,
		orchestrator:        orchestrator,
		stateMachine:        dispatch.NewStateMachine(),
		Logger:              loggerInstance,
	}
}

// Create registers a draft campaign after checking the channel belongs to
// the requesting tenant
func (c *CampaignUseCase) Create(request *CreateCampaignRequest) (*domainCampaign.Campaign, error) {
	channel, err := c.channelRepository.GetByID(request.ChannelID)
	if err != nil {
		return nil, err
	}
	if channel.TenantID != request.TenantID {
		return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}

	campaign := &domainCampaign.Campaign{
		TenantID:    request.TenantID,
		ChannelID:   request.ChannelID,
		Name:        request.Name,
		TemplateRef: request.TemplateRef,
		Variables:   request.Variables,
		State:       domainCampaign.StateDraft,
	}
	created, err := c.campaignRepository.Create(campaign)
	if err != nil {
		c.Logger.Error("Error creating campaign", zap.Error(err), zap.Int("tenantID", request.TenantID))
		return nil, err
	}
	c.Logger.Info("Campaign created",
		zap.Int("campaignID", created.ID),
		zap.Int("tenantID", created.TenantID),
		zap.String("name", created.Name))
	return created, nil
}

// GetByID returns one campaign, scoped to the requesting tenant
func (c *CampaignUseCase) GetByID(tenantID int, campaignID int) (*domainCampaign.Campaign, error) {
	return c.getOwned(tenantID, campaignID)
}

// GetByTenant lists all campaigns of a tenant
func (c *CampaignUseCase) GetByTenant(tenantID int) (*[]domainCampaign.Campaign, error) {
	return c.campaignRepository.GetByTenant(tenantID)
}

// Start launches a campaign run in the background. Preconditions are checked
// synchronously so the caller gets an immediate error for an illegal start;
// the run itself outlives the request.
func (c *CampaignUseCase) Start(tenantID int, campaignID int) error {
	campaign, err := c.getOwned(tenantID, campaignID)
	if err != nil {
		return err
	}
	if c.orchestrator.IsRunning(campaign.ID) {
		return domainErrors.NewAppErrorWithType(domainErrors.InvalidStateTransition)
	}
	if !c.stateMachine.CanTransition(campaign.State, domainCampaign.StateRunning) {
		return domainErrors.NewAppErrorWithType(domainErrors.InvalidStateTransition)
	}

	go func() {
		if err := c.orchestrator.Start(context.Background(), campaign.ID); err != nil {
			c.Logger.Error("Campaign run ended with error",
				zap.Int("campaignID", campaign.ID), zap.Error(err))
		}
	}()
	return nil
}

// Resume continues a paused campaign with its remaining pending recipients
func (c *CampaignUseCase) Resume(tenantID int, campaignID int) error {
	campaign, err := c.getOwned(tenantID, campaignID)
	if err != nil {
		return err
	}
	if campaign.State != domainCampaign.StatePaused {
		return domainErrors.NewAppErrorWithType(domainErrors.InvalidStateTransition)
	}
	if c.orchestrator.IsRunning(campaign.ID) {
		return domainErrors.NewAppErrorWithType(domainErrors.InvalidStateTransition)
	}

	go func() {
		if err := c.orchestrator.Resume(context.Background(), campaign.ID); err != nil {
			c.Logger.Error("Campaign resume ended with error",
				zap.Int("campaignID", campaign.ID), zap.Error(err))
		}
	}()
	return nil
}

// Pause asks a running campaign to stop after in-flight sends settle
func (c *CampaignUseCase) Pause(ctx context.Context, tenantID int, campaignID int) error {
	if _, err := c.getOwned(tenantID, campaignID); err != nil {
		return err
	}
	return c.orchestrator.Pause(ctx, campaignID, domainCampaign.PauseReasonOperator)
}

// Cancel terminally stops a campaign and cancels its undispatched recipients
func (c *CampaignUseCase) Cancel(ctx context.Context, tenantID int, campaignID int) error {
	if _, err := c.getOwned(tenantID, campaignID); err != nil {
		return err
	}
	return c.orchestrator.Cancel(ctx, campaignID)
}

// GetStats returns the aggregate delivery counters of a campaign. The queued
// figure is derived from the recipient rows rather than read from a stored
// counter, so mid-run reads stay consistent.
func (c *CampaignUseCase) GetStats(tenantID int, campaignID int) (*CampaignStatsResponse, error) {
	campaign, err := c.getOwned(tenantID, campaignID)
	if err != nil {
		return nil, err
	}
	byStatus, err := c.recipientRepository.CountByStatus(campaignID)
	if err != nil {
		return nil, err
	}

	queued := byStatus[domainCampaign.RecipientPending] + byStatus[domainCampaign.RecipientSending]
	sent := byStatus[domainCampaign.RecipientSent] +
		byStatus[domainCampaign.RecipientDelivered] +
		byStatus[domainCampaign.RecipientRead]
	delivered := byStatus[domainCampaign.RecipientDelivered] + byStatus[domainCampaign.RecipientRead]
	read := byStatus[domainCampaign.RecipientRead]

	stats := &CampaignStatsResponse{
		CampaignID:      campaign.ID,
		State:           campaign.State,
		PauseReason:     campaign.PauseReason,
		TotalRecipients: campaign.TotalRecipients,
		Queued:          queued,
		Sent:            sent,
		Delivered:       delivered,
		Read:            read,
		Failed:          byStatus[domainCampaign.RecipientFailed],
		Cancelled:       byStatus[domainCampaign.RecipientCancelled],
		StartedAt:       campaign.StartedAt,
		CompletedAt:     campaign.CompletedAt,
	}
	if sent > 0 {
		stats.DeliveryRate = float64(delivered) / float64(sent)
		stats.ReadRate = float64(read) / float64(sent)
	}
	return stats, nil
}

// GetRecipients lists the per-recipient delivery records of a campaign
func (c *CampaignUseCase) GetRecipients(tenantID int, campaignID int) (*[]domainCampaign.Recipient, error) {
	if _, err := c.getOwned(tenantID, campaignID); err != nil {
		return nil, err
	}
	return c.recipientRepository.GetByCampaign(campaignID)
}

// getOwned loads a campaign and hides other tenants' campaigns behind NotFound
func (c *CampaignUseCase) getOwned(tenantID int, campaignID int) (*domainCampaign.Campaign, error) {
	campaign, err := c.campaignRepository.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.TenantID != tenantID {
		return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}
	return campaign, nil
}
