package channel

import (
	"errors"
	"net/http"
	"time"

	channelUseCase "go-campaign-api/src/application/usecases/channel"
	domainChannel "go-campaign-api/src/domain/channel"
	"go-campaign-api/src/domain/common"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"
	"go-campaign-api/src/infrastructure/rest/controllers"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type IChannelController interface {
	Create(ctx *gin.Context)
	GetByID(ctx *gin.Context)
	List(ctx *gin.Context)
}

type ChannelController struct {
	commonService  common.CommonService
	channelUseCase channelUseCase.IChannelUseCase
	Logger         *logger.Logger
}

func NewChannelController(
	commonService common.CommonService,
	useCase channelUseCase.IChannelUseCase,
	loggerInstance *logger.Logger,
) IChannelController {
	return &ChannelController{
		commonService:  commonService,
		channelUseCase: useCase,
		Logger:         loggerInstance,
	}
}

func (c *ChannelController) Create(ctx *gin.Context) {
	var request CreateChannelRequest
	if err := controllers.BindJSON(ctx, &request); err != nil {
		c.Logger.Error("Error binding JSON for channel create", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			c.commonService.AppendValidationErrors(ctx, ve, request)
			return
		}
		_ = ctx.Error(domainErrors.NewAppError(err, domainErrors.ValidationError))
		return
	}

	created, err := c.channelUseCase.Create(&channelUseCase.CreateChannelRequest{
		TenantID:      controllers.ExtractTenantID(ctx),
		Name:          request.Name,
		Class:         request.Class,
		PerMinute:     request.PerMinute,
		PerHour:       request.PerHour,
		PerDay:        request.PerDay,
		MinIntervalMS: request.MinIntervalMS,
		HourlyCeiling: request.HourlyCeiling,
	})
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusCreated, toChannelResponse(created))
}

func (c *ChannelController) GetByID(ctx *gin.Context) {
	var request ChannelIDRequest
	if err := ctx.ShouldBindUri(&request); err != nil {
		_ = ctx.Error(domainErrors.NewAppError(err, domainErrors.ValidationError))
		return
	}

	channel, err := c.channelUseCase.GetByID(controllers.ExtractTenantID(ctx), request.ID)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, toChannelResponse(channel))
}

func (c *ChannelController) List(ctx *gin.Context) {
	channels, err := c.channelUseCase.GetByTenant(controllers.ExtractTenantID(ctx))
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	responses := make([]ChannelResponse, 0, len(*channels))
	for i := range *channels {
		responses = append(responses, *toChannelResponse(&(*channels)[i]))
	}
	ctx.JSON(http.StatusOK, responses)
}

func toChannelResponse(channel *domainChannel.Channel) *ChannelResponse {
	return &ChannelResponse{
		ID:            channel.ID,
		TenantID:      channel.TenantID,
		Name:          channel.Name,
		Class:         string(channel.Class),
		PerMinute:     channel.RateProfile.PerMinute,
		PerHour:       channel.RateProfile.PerHour,
		PerDay:        channel.RateProfile.PerDay,
		MinIntervalMS: int(channel.RateProfile.MinInterval / time.Millisecond),
		HourlyCeiling: channel.RateProfile.HourlyCeiling,
	}
}
