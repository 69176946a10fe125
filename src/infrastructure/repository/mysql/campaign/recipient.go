package campaign

import (
	"encoding/json"
	"time"

	domainCampaign "go-campaign-api/src/domain/campaign"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recipient is the database model for campaign recipients
type Recipient struct {
	ID                int       `gorm:"primaryKey"`
	CampaignID        int       `gorm:"column:campaign_id;index"`
	ContactID         int       `gorm:"column:contact_id;index"`
	Address           string    `gorm:"column:address"`
	Status            string    `gorm:"column:status;index"`
	ProviderMessageID string    `gorm:"column:provider_message_id;index"`
	Attempts          string    `gorm:"column:attempts;type:text"`
	LastError         string    `gorm:"column:last_error;type:text"`
	CreatedAt         time.Time `gorm:"autoCreateTime:mili"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime:mili"`
}

func (Recipient) TableName() string {
	return "campaign_recipients"
}

func (m *Recipient) toDomainMapper() *domainCampaign.Recipient {
	var attempts []domainCampaign.DispatchAttempt
	if m.Attempts != "" {
		// attempt history is written by a single worker; a decode failure
		// only loses history, not status
		_ = json.Unmarshal([]byte(m.Attempts), &attempts)
	}
	return &domainCampaign.Recipient{
		ID:                m.ID,
		CampaignID:        m.CampaignID,
		ContactID:         m.ContactID,
		Address:           m.Address,
		Status:            domainCampaign.RecipientStatus(m.Status),
		ProviderMessageID: m.ProviderMessageID,
		Attempts:          attempts,
		LastError:         m.LastError,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func recipientFromDomainMapper(d *domainCampaign.Recipient) *Recipient {
	attempts := ""
	if len(d.Attempts) > 0 {
		if raw, err := json.Marshal(d.Attempts); err == nil {
			attempts = string(raw)
		}
	}
	return &Recipient{
		ID:                d.ID,
		CampaignID:        d.CampaignID,
		ContactID:         d.ContactID,
		Address:           d.Address,
		Status:            string(d.Status),
		ProviderMessageID: d.ProviderMessageID,
		Attempts:          attempts,
		LastError:         d.LastError,
	}
}

func marshalAttempts(attempts []domainCampaign.DispatchAttempt) string {
	if len(attempts) == 0 {
		return ""
	}
	raw, err := json.Marshal(attempts)
	if err != nil {
		return ""
	}
	return string(raw)
}

// RecipientRepositoryInterface defines the interface for recipient repository operations
type RecipientRepositoryInterface interface {
	CreateBatch(recipients []domainCampaign.Recipient) ([]domainCampaign.Recipient, error)
	GetByCampaign(campaignID int) (*[]domainCampaign.Recipient, error)
	GetByCampaignAndStatus(campaignID int, status domainCampaign.RecipientStatus) (*[]domainCampaign.Recipient, error)
	GetByProviderMessageID(providerMessageID string) (*domainCampaign.Recipient, error)
	UpdateStatus(id int, status domainCampaign.RecipientStatus, lastError string) error
	MarkSent(id int, providerMessageID string, attempts []domainCampaign.DispatchAttempt) error
	MarkFailed(id int, lastError string, attempts []domainCampaign.DispatchAttempt) error
	AdvanceStatus(id int, status domainCampaign.RecipientStatus, lastError string) error
	CancelPending(campaignID int) (int64, error)
	CountByStatus(campaignID int) (map[domainCampaign.RecipientStatus]int, error)
}

type RecipientRepository struct {
	DB     *gorm.DB
	Logger *logger.Logger
}

func NewRecipientRepository(db *gorm.DB, loggerInstance *logger.Logger) RecipientRepositoryInterface {
	return &RecipientRepository{DB: db, Logger: loggerInstance}
}

// CreateBatch inserts the frozen audience snapshot when a campaign starts
func (r *RecipientRepository) CreateBatch(recipients []domainCampaign.Recipient) ([]domainCampaign.Recipient, error) {
	if len(recipients) == 0 {
		return nil, nil
	}
	models := make([]Recipient, 0, len(recipients))
	for i := range recipients {
		models = append(models, *recipientFromDomainMapper(&recipients[i]))
	}
	if err := r.DB.CreateInBatches(&models, 500).Error; err != nil {
		r.Logger.Error("Error creating recipient snapshot", zap.Error(err), zap.Int("campaignID", recipients[0].CampaignID), zap.Int("count", len(recipients)))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	out := make([]domainCampaign.Recipient, 0, len(models))
	for i := range models {
		out = append(out, *models[i].toDomainMapper())
	}
	r.Logger.Info("Created recipient snapshot", zap.Int("campaignID", recipients[0].CampaignID), zap.Int("count", len(out)))
	return out, nil
}

func (r *RecipientRepository) GetByCampaign(campaignID int) (*[]domainCampaign.Recipient, error) {
	var models []Recipient
	if err := r.DB.Where("campaign_id = ?", campaignID).Order("id ASC").Find(&models).Error; err != nil {
		r.Logger.Error("Error getting campaign recipients", zap.Error(err), zap.Int("campaignID", campaignID))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return recipientArrayToDomainMapper(models), nil
}

func (r *RecipientRepository) GetByCampaignAndStatus(campaignID int, status domainCampaign.RecipientStatus) (*[]domainCampaign.Recipient, error) {
	var models []Recipient
	if err := r.DB.Where("campaign_id = ? AND status = ?", campaignID, string(status)).Order("id ASC").Find(&models).Error; err != nil {
		r.Logger.Error("Error getting campaign recipients by status", zap.Error(err), zap.Int("campaignID", campaignID), zap.String("status", string(status)))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return recipientArrayToDomainMapper(models), nil
}

func (r *RecipientRepository) GetByProviderMessageID(providerMessageID string) (*domainCampaign.Recipient, error) {
	var model Recipient
	if err := r.DB.Where("provider_message_id = ?", providerMessageID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
		}
		r.Logger.Error("Error getting recipient by provider message ID", zap.Error(err), zap.String("providerMessageID", providerMessageID))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return model.toDomainMapper(), nil
}

func (r *RecipientRepository) UpdateStatus(id int, status domainCampaign.RecipientStatus, lastError string) error {
	updates := map[string]interface{}{
		"status":     string(status),
		"last_error": lastError,
	}
	if err := r.DB.Model(&Recipient{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		r.Logger.Error("Error updating recipient status", zap.Error(err), zap.Int("id", id))
		return domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return nil
}

func (r *RecipientRepository) MarkSent(id int, providerMessageID string, attempts []domainCampaign.DispatchAttempt) error {
	updates := map[string]interface{}{
		"status":              string(domainCampaign.RecipientSent),
		"provider_message_id": providerMessageID,
		"attempts":            marshalAttempts(attempts),
		"last_error":          "",
	}
	if err := r.DB.Model(&Recipient{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		r.Logger.Error("Error marking recipient sent", zap.Error(err), zap.Int("id", id))
		return domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return nil
}

func (r *RecipientRepository) MarkFailed(id int, lastError string, attempts []domainCampaign.DispatchAttempt) error {
	updates := map[string]interface{}{
		"status":     string(domainCampaign.RecipientFailed),
		"attempts":   marshalAttempts(attempts),
		"last_error": lastError,
	}
	if err := r.DB.Model(&Recipient{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		r.Logger.Error("Error marking recipient failed", zap.Error(err), zap.Int("id", id))
		return domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return nil
}

// AdvanceStatus moves a recipient forward along the delivery progression.
// The caller decides whether the move is forward progress; this just persists it.
func (r *RecipientRepository) AdvanceStatus(id int, status domainCampaign.RecipientStatus, lastError string) error {
	updates := map[string]interface{}{
		"status": string(status),
	}
	if lastError != "" {
		updates["last_error"] = lastError
	}
	if err := r.DB.Model(&Recipient{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		r.Logger.Error("Error advancing recipient status", zap.Error(err), zap.Int("id", id), zap.String("status", string(status)))
		return domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return nil
}

// CancelPending marks every still-pending recipient of a campaign as
// cancelled and returns how many rows were affected
func (r *RecipientRepository) CancelPending(campaignID int) (int64, error) {
	tx := r.DB.Model(&Recipient{}).
		Where("campaign_id = ? AND status = ?", campaignID, string(domainCampaign.RecipientPending)).
		Update("status", string(domainCampaign.RecipientCancelled))
	if tx.Error != nil {
		r.Logger.Error("Error cancelling pending recipients", zap.Error(tx.Error), zap.Int("campaignID", campaignID))
		return 0, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return tx.RowsAffected, nil
}

func (r *RecipientRepository) CountByStatus(campaignID int) (map[domainCampaign.RecipientStatus]int, error) {
	type row struct {
		Status string
		Count  int
	}
	var rows []row
	if err := r.DB.Model(&Recipient{}).
		Select("status, count(*) as count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&rows).Error; err != nil {
		r.Logger.Error("Error counting recipients by status", zap.Error(err), zap.Int("campaignID", campaignID))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	out := make(map[domainCampaign.RecipientStatus]int, len(rows))
	for _, rw := range rows {
		out[domainCampaign.RecipientStatus(rw.Status)] = rw.Count
	}
	return out, nil
}

func recipientArrayToDomainMapper(models []Recipient) *[]domainCampaign.Recipient {
	out := make([]domainCampaign.Recipient, 0, len(models))
	for i := range models {
		out = append(out, *models[i].toDomainMapper())
	}
	return &out
}
