package campaign

import (
	"time"

	domainCampaign "go-campaign-api/src/domain/campaign"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Campaign is the database model for campaigns
type Campaign struct {
	ID              int        `gorm:"primaryKey"`
	TenantID        int        `gorm:"column:tenant_id;index"`
	ChannelID       int        `gorm:"column:channel_id;index"`
	Name            string     `gorm:"column:name"`
	TemplateRef     string     `gorm:"column:template_ref"`
	Variables       string     `gorm:"column:variables;type:text"`
	State           string     `gorm:"column:state;index"`
	PauseReason     string     `gorm:"column:pause_reason"`
	Generation      int        `gorm:"column:generation;default:0"`
	TotalRecipients int        `gorm:"column:total_recipients;default:0"`
	Queued          int        `gorm:"column:queued;default:0"`
	Sent            int        `gorm:"column:sent;default:0"`
	Delivered       int        `gorm:"column:delivered;default:0"`
	ReadCount       int        `gorm:"column:read_count;default:0"`
	Failed          int        `gorm:"column:failed;default:0"`
	Cancelled       int        `gorm:"column:cancelled;default:0"`
	StartedAt       *time.Time `gorm:"column:started_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime:mili"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime:mili"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func (c *Campaign) toDomainMapper() *domainCampaign.Campaign {
	return &domainCampaign.Campaign{
		ID:              c.ID,
		TenantID:        c.TenantID,
		ChannelID:       c.ChannelID,
		Name:            c.Name,
		TemplateRef:     c.TemplateRef,
		Variables:       c.Variables,
		State:           domainCampaign.CampaignState(c.State),
		PauseReason:     domainCampaign.PauseReason(c.PauseReason),
		Generation:      c.Generation,
		TotalRecipients: c.TotalRecipients,
		Counters: domainCampaign.Counters{
			Queued:    c.Queued,
			Sent:      c.Sent,
			Delivered: c.Delivered,
			Read:      c.ReadCount,
			Failed:    c.Failed,
			Cancelled: c.Cancelled,
		},
		StartedAt:   c.StartedAt,
		CompletedAt: c.CompletedAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func campaignFromDomainMapper(c *domainCampaign.Campaign) *Campaign {
	return &Campaign{
		ID:              c.ID,
		TenantID:        c.TenantID,
		ChannelID:       c.ChannelID,
		Name:            c.Name,
		TemplateRef:     c.TemplateRef,
		Variables:       c.Variables,
		State:           string(c.State),
		PauseReason:     string(c.PauseReason),
		Generation:      c.Generation,
		TotalRecipients: c.TotalRecipients,
		Queued:          c.Counters.Queued,
		Sent:            c.Counters.Sent,
		Delivered:       c.Counters.Delivered,
		ReadCount:       c.Counters.Read,
		Failed:          c.Counters.Failed,
		Cancelled:       c.Counters.Cancelled,
		StartedAt:       c.StartedAt,
		CompletedAt:     c.CompletedAt,
	}
}

// CampaignRepositoryInterface defines the interface for campaign repository operations
type CampaignRepositoryInterface interface {
	Create(campaignDomain *domainCampaign.Campaign) (*domainCampaign.Campaign, error)
	GetByID(id int) (*domainCampaign.Campaign, error)
	GetByTenant(tenantID int) (*[]domainCampaign.Campaign, error)
	UpdateState(id int, state domainCampaign.CampaignState, reason domainCampaign.PauseReason) error
	MarkRunning(id int, generation int, totalRecipients int, startedAt time.Time) error
	FinalizeRun(id int, generation int, state domainCampaign.CampaignState, reason domainCampaign.PauseReason, completedAt *time.Time) (bool, error)
	IncrementCounters(id int, delta domainCampaign.CounterDelta) error
}

type CampaignRepository struct {
	DB     *gorm.DB
	Logger *logger.Logger
}

func NewCampaignRepository(db *gorm.DB, loggerInstance *logger.Logger) CampaignRepositoryInterface {
	return &CampaignRepository{DB: db, Logger: loggerInstance}
}

func (r *CampaignRepository) Create(campaignDomain *domainCampaign.Campaign) (*domainCampaign.Campaign, error) {
	model := campaignFromDomainMapper(campaignDomain)
	if model.State == "" {
		model.State = string(domainCampaign.StateDraft)
	}
	if err := r.DB.Create(model).Error; err != nil {
		r.Logger.Error("Error creating campaign", zap.Error(err), zap.Int("tenantID", campaignDomain.TenantID))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	r.Logger.Info("Created campaign", zap.Int("id", model.ID), zap.Int("tenantID", model.TenantID))
	return model.toDomainMapper(), nil
}

func (r *CampaignRepository) GetByID(id int) (*domainCampaign.Campaign, error) {
	var model Campaign
	if err := r.DB.Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			r.Logger.Warn("Campaign not found", zap.Int("id", id))
			return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
		}
		r.Logger.Error("Error getting campaign by ID", zap.Error(err), zap.Int("id", id))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return model.toDomainMapper(), nil
}

func (r *CampaignRepository) GetByTenant(tenantID int) (*[]domainCampaign.Campaign, error) {
	var models []Campaign
	if err := r.DB.Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&models).Error; err != nil {
		r.Logger.Error("Error getting tenant campaigns", zap.Error(err), zap.Int("tenantID", tenantID))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	out := make([]domainCampaign.Campaign, 0, len(models))
	for i := range models {
		out = append(out, *models[i].toDomainMapper())
	}
	return &out, nil
}

func (r *CampaignRepository) UpdateState(id int, state domainCampaign.CampaignState, reason domainCampaign.PauseReason) error {
	updates := map[string]interface{}{
		"state":        string(state),
		"pause_reason": string(reason),
	}
	tx := r.DB.Model(&Campaign{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		r.Logger.Error("Error updating campaign state", zap.Error(tx.Error), zap.Int("id", id), zap.String("state", string(state)))
		return domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	if tx.RowsAffected == 0 {
		return domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}
	r.Logger.Info("Updated campaign state", zap.Int("id", id), zap.String("state", string(state)), zap.String("reason", string(reason)))
	return nil
}

// MarkRunning transitions a campaign into the running state for a new run
// generation and records the materialized audience size.
func (r *CampaignRepository) MarkRunning(id int, generation int, totalRecipients int, startedAt time.Time) error {
	updates := map[string]interface{}{
		"state":            string(domainCampaign.StateRunning),
		"pause_reason":     "",
		"generation":       generation,
		"total_recipients": totalRecipients,
		"started_at":       startedAt,
	}
	tx := r.DB.Model(&Campaign{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		r.Logger.Error("Error marking campaign running", zap.Error(tx.Error), zap.Int("id", id))
		return domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	if tx.RowsAffected == 0 {
		return domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}
	return nil
}

// FinalizeRun records the final state of a run. The generation guard makes a
// stale finalize from an earlier run a no-op: it returns false when the stored
// generation no longer matches.
func (r *CampaignRepository) FinalizeRun(id int, generation int, state domainCampaign.CampaignState, reason domainCampaign.PauseReason, completedAt *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"state":        string(state),
		"pause_reason": string(reason),
	}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}
	tx := r.DB.Model(&Campaign{}).Where("id = ? AND generation = ?", id, generation).Updates(updates)
	if tx.Error != nil {
		r.Logger.Error("Error finalizing campaign run", zap.Error(tx.Error), zap.Int("id", id), zap.Int("generation", generation))
		return false, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	if tx.RowsAffected == 0 {
		r.Logger.Warn("Stale finalize ignored", zap.Int("id", id), zap.Int("generation", generation))
		return false, nil
	}
	r.Logger.Info("Finalized campaign run", zap.Int("id", id), zap.Int("generation", generation), zap.String("state", string(state)))
	return true, nil
}

// IncrementCounters applies counter increments in a single statement so
// concurrent writers never read-modify-write the aggregate row.
func (r *CampaignRepository) IncrementCounters(id int, delta domainCampaign.CounterDelta) error {
	if delta.IsZero() {
		return nil
	}
	updates := map[string]interface{}{}
	if delta.Queued != 0 {
		updates["queued"] = gorm.Expr("queued + ?", delta.Queued)
	}
	if delta.Sent != 0 {
		updates["sent"] = gorm.Expr("sent + ?", delta.Sent)
	}
	if delta.Delivered != 0 {
		updates["delivered"] = gorm.Expr("delivered + ?", delta.Delivered)
	}
	if delta.Read != 0 {
		updates["read_count"] = gorm.Expr("read_count + ?", delta.Read)
	}
	if delta.Failed != 0 {
		updates["failed"] = gorm.Expr("failed + ?", delta.Failed)
	}
	if delta.Cancelled != 0 {
		updates["cancelled"] = gorm.Expr("cancelled + ?", delta.Cancelled)
	}
	if err := r.DB.Model(&Campaign{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		r.Logger.Error("Error incrementing campaign counters", zap.Error(err), zap.Int("id", id))
		return domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return nil
}
