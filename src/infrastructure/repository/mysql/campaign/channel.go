package campaign

import (
	"time"

	domainChannel "go-campaign-api/src/domain/channel"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Channel is the database model for messaging channels
type Channel struct {
	ID            int       `gorm:"primaryKey"`
	TenantID      int       `gorm:"column:tenant_id;index"`
	Name          string    `gorm:"column:name"`
	Class         string    `gorm:"column:class"`
	PerMinute     int       `gorm:"column:per_minute;default:0"`
	PerHour       int       `gorm:"column:per_hour;default:0"`
	PerDay        int       `gorm:"column:per_day;default:0"`
	MinIntervalMs int64     `gorm:"column:min_interval_ms;default:0"`
	HourlyCeiling int       `gorm:"column:hourly_ceiling;default:0"`
	Status        bool      `gorm:"column:status;default:true"`
	CreatedAt     time.Time `gorm:"autoCreateTime:mili"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:mili"`
}

func (Channel) TableName() string {
	return "channels"
}

func (m *Channel) toDomainMapper() *domainChannel.Channel {
	return &domainChannel.Channel{
		ID:       m.ID,
		TenantID: m.TenantID,
		Name:     m.Name,
		Class:    domainChannel.Class(m.Class),
		RateProfile: domainChannel.RateProfile{
			PerMinute:     m.PerMinute,
			PerHour:       m.PerHour,
			PerDay:        m.PerDay,
			MinInterval:   time.Duration(m.MinIntervalMs) * time.Millisecond,
			HourlyCeiling: m.HourlyCeiling,
		},
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func channelFromDomainMapper(d *domainChannel.Channel) *Channel {
	return &Channel{
		ID:            d.ID,
		TenantID:      d.TenantID,
		Name:          d.Name,
		Class:         string(d.Class),
		PerMinute:     d.RateProfile.PerMinute,
		PerHour:       d.RateProfile.PerHour,
		PerDay:        d.RateProfile.PerDay,
		MinIntervalMs: d.RateProfile.MinInterval.Milliseconds(),
		HourlyCeiling: d.RateProfile.HourlyCeiling,
		Status:        d.Status,
	}
}

// ChannelRepositoryInterface defines the interface for channel repository operations
type ChannelRepositoryInterface interface {
	Create(channelDomain *domainChannel.Channel) (*domainChannel.Channel, error)
	GetByID(id int) (*domainChannel.Channel, error)
	GetByTenant(tenantID int) (*[]domainChannel.Channel, error)
}

type ChannelRepository struct {
	DB     *gorm.DB
	Logger *logger.Logger
}

func NewChannelRepository(db *gorm.DB, loggerInstance *logger.Logger) ChannelRepositoryInterface {
	return &ChannelRepository{DB: db, Logger: loggerInstance}
}

func (r *ChannelRepository) Create(channelDomain *domainChannel.Channel) (*domainChannel.Channel, error) {
	model := channelFromDomainMapper(channelDomain)
	if err := r.DB.Create(model).Error; err != nil {
		r.Logger.Error("Error creating channel", zap.Error(err), zap.Int("tenantID", channelDomain.TenantID))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	r.Logger.Info("Created channel", zap.Int("id", model.ID), zap.String("class", model.Class))
	return model.toDomainMapper(), nil
}

func (r *ChannelRepository) GetByID(id int) (*domainChannel.Channel, error) {
	var model Channel
	if err := r.DB.Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			r.Logger.Warn("Channel not found", zap.Int("id", id))
			return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
		}
		r.Logger.Error("Error getting channel by ID", zap.Error(err), zap.Int("id", id))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	return model.toDomainMapper(), nil
}

func (r *ChannelRepository) GetByTenant(tenantID int) (*[]domainChannel.Channel, error) {
	var models []Channel
	if err := r.DB.Where("tenant_id = ?", tenantID).Find(&models).Error; err != nil {
		r.Logger.Error("Error getting tenant channels", zap.Error(err), zap.Int("tenantID", tenantID))
		return nil, domainErrors.NewAppErrorWithType(domainErrors.RepositoryError)
	}
	out := make([]domainChannel.Channel, 0, len(models))
	for i := range models {
		out = append(out, *models[i].toDomainMapper())
	}
	return &out, nil
}
