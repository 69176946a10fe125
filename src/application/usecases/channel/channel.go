package channel

import (
	"errors"
	"time"

	domainChannel "go-campaign-api/src/domain/channel"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"
	campaignRepo "go-campaign-api/src/infrastructure/repository/mysql/campaign"

	"go.uber.org/zap"
)

// CreateChannelRequest represents a request to register a sending channel
type CreateChannelRequest struct {
	TenantID      int
	Name          string
	Class         string
	PerMinute     int
	PerHour       int
	PerDay        int
	MinIntervalMS int
	HourlyCeiling int
}

// IChannelUseCase defines the interface for channel use cases
type IChannelUseCase interface {
	Create(request *CreateChannelRequest) (*domainChannel.Channel, error)
	GetByID(tenantID int, channelID int) (*domainChannel.Channel, error)
	GetByTenant(tenantID int) (*[]domainChannel.Channel, error)
}

// ChannelUseCase implements the IChannelUseCase interface
type ChannelUseCase struct {
	channelRepository campaignRepo.ChannelRepositoryInterface
	Logger            *logger.Logger
}

// NewChannelUseCase creates a new ChannelUseCase
func NewChannelUseCase(channelRepository campaignRepo.ChannelRepositoryInterface, loggerInstance *logger.Logger) IChannelUseCase {
	return &ChannelUseCase{channelRepository: channelRepository, Logger: loggerInstance}
}

// Create registers a channel with its rate profile. Official channels need
// the windowed quotas, unofficial ones the spacing knobs.
func (c *ChannelUseCase) Create(request *CreateChannelRequest) (*domainChannel.Channel, error) {
	class := domainChannel.Class(request.Class)
	switch class {
	case domainChannel.ClassOfficial:
		if request.PerMinute <= 0 || request.PerHour <= 0 || request.PerDay <= 0 {
			return nil, domainErrors.NewAppError(
				errors.New("official channels need per-minute, per-hour and per-day quotas"),
				domainErrors.ValidationError)
		}
	case domainChannel.ClassUnofficial:
		if request.MinIntervalMS <= 0 || request.HourlyCeiling <= 0 {
			return nil, domainErrors.NewAppError(
				errors.New("unofficial channels need a minimum interval and an hourly ceiling"),
				domainErrors.ValidationError)
		}
	default:
		return nil, domainErrors.NewAppErrorWithType(domainErrors.ValidationError)
	}

	channel := &domainChannel.Channel{
		TenantID: request.TenantID,
		Name:     request.Name,
		Class:    class,
		RateProfile: domainChannel.RateProfile{
			PerMinute:     request.PerMinute,
			PerHour:       request.PerHour,
			PerDay:        request.PerDay,
			MinInterval:   time.Duration(request.MinIntervalMS) * time.Millisecond,
			HourlyCeiling: request.HourlyCeiling,
		},
	}
	created, err := c.channelRepository.Create(channel)
	if err != nil {
		c.Logger.Error("Error creating channel", zap.Error(err), zap.Int("tenantID", request.TenantID))
		return nil, err
	}
	return created, nil
}

// GetByID returns one channel, scoped to the requesting tenant
func (c *ChannelUseCase) GetByID(tenantID int, channelID int) (*domainChannel.Channel, error) {
	channel, err := c.channelRepository.GetByID(channelID)
	if err != nil {
		return nil, err
	}
	if channel.TenantID != tenantID {
		return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
	}
	return channel, nil
}

// GetByTenant lists the channels of a tenant
func (c *ChannelUseCase) GetByTenant(tenantID int) (*[]domainChannel.Channel, error) {
	return c.channelRepository.GetByTenant(tenantID)
}
