package campaign

import (
	"errors"
	"net/http"

	campaignUseCase "go-campaign-api/src/application/usecases/campaign"
	domainCampaign "go-campaign-api/src/domain/campaign"
	"go-campaign-api/src/domain/common"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"
	"go-campaign-api/src/infrastructure/rest/controllers"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ICampaignController interface {
	Create(ctx *gin.Context)
	GetByID(ctx *gin.Context)
	List(ctx *gin.Context)
	Start(ctx *gin.Context)
	Pause(ctx *gin.Context)
	Resume(ctx *gin.Context)
	Cancel(ctx *gin.Context)
	Stats(ctx *gin.Context)
	Recipients(ctx *gin.Context)
}

type CampaignController struct {
	commonService   common.CommonService
	campaignUseCase campaignUseCase.ICampaignUseCase
	Logger          *logger.Logger
}

func NewCampaignController(
	commonService common.CommonService,
	useCase campaignUseCase.ICampaignUseCase,
	loggerInstance *logger.Logger,
) ICampaignController {
	return &CampaignController{
		commonService:   commonService,
		campaignUseCase: useCase,
		Logger:          loggerInstance,
	}
}

func (c *CampaignController) Create(ctx *gin.Context) {
	var request CreateCampaignRequest
	if err := controllers.BindJSON(ctx, &request); err != nil {
		c.Logger.Error("Error binding JSON for campaign create", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			c.commonService.AppendValidationErrors(ctx, ve, request)
			return
		}
		_ = ctx.Error(domainErrors.NewAppError(err, domainErrors.ValidationError))
		return
	}

	created, err := c.campaignUseCase.Create(&campaignUseCase.CreateCampaignRequest{
		TenantID:    controllers.ExtractTenantID(ctx),
		ChannelID:   request.ChannelID,
		Name:        request.Name,
		TemplateRef: request.TemplateRef,
		Variables:   request.Variables,
	})
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusCreated, toCampaignResponse(created))
}

func (c *CampaignController) GetByID(ctx *gin.Context) {
	var request CampaignIDRequest
	if err := ctx.ShouldBindUri(&request); err != nil {
		_ = ctx.Error(domainErrors.NewAppError(err, domainErrors.ValidationError))
		return
	}

	campaign, err := c.campaignUseCase.GetByID(controllers.ExtractTenantID(ctx), request.ID)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, toCampaignResponse(campaign))
}

func (c *CampaignController) List(ctx *gin.Context) {
	campaigns, err := c.campaignUseCase.GetByTenant(controllers.ExtractTenantID(ctx))
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	responses := make([]CampaignResponse, 0, len(*campaigns))
	for i := range *campaigns {
		responses = append(responses, *toCampaignResponse(&(*campaigns)[i]))
	}
	ctx.JSON(http.StatusOK, responses)
}

// Start accepts the run and returns immediately; dispatch happens in the
// background and progress is observed through the stats endpoint
func (c *CampaignController) Start(ctx *gin.Context) {
	var request CampaignIDRequest
	if err := ctx.ShouldBindUri(&request); err != nil {
		_ = ctx.Error(domainErrors.NewAppError(err, domainErrors.ValidationError))
		return
	}

	if err := c.campaignUseCase.Start(controllers.ExtractTenantID(ctx), request.ID); err != nil {
		_ = ctx.Error(err)
		return
	}
	c.Logger.Info("Campaign start accepted", zap.Int("campaignID", request.ID))
	ctx.JSON(http.StatusAccepted, gin.H{"id": request.ID, "state": string(domainCampaign.StateRunning)})
}

func (c *CampaignController) Pause(ctx *gin.Context) {
	var request CampaignIDRequest
	if err := ctx.ShouldBindUri(&request); err != nil {
		_ = ctx.Error(domainErrors.NewAppError(err, domainErrors.ValidationError))
		return
	}

	if err := c.campaignUseCase.Pause(ctx.Request.Context(), controllers.ExtractTenantID(ctx), request.ID); err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"id": request.ID, "state": string(domainCampaign.StatePaused)})
}

func (c *CampaignController) Resume(ctx *gin.Context) {
	var request CampaignIDRequest
	if err := ctx.ShouldBindUri(&request); err != nil {
		_ = ctx.Error(domainErrors.NewAppError(err, domainErrors.ValidationError))
		return
	}

	if err := c.campaignUseCase.Resume(controllers.ExtractTenantID(ctx), request.ID); err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"id": request.ID, "state": string(domainCampaign.StateRunning)})
}

func (c *CampaignController) Cancel(ctx *gin.Context) {
	var request CampaignIDRequest
	if err := ctx.ShouldBindUri(&request); err != nil {
		_ = ctx.Error(domainErrors.NewAppError(err, domainErrors.ValidationError))
		return
	}

	if err := c.campaignUseCase.Cancel(ctx.Request.Context(), controllers.ExtractTenantID(ctx), request.ID); err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"id": request.ID, "state": string(domainCampaign.StateCancelled)})
}

func (c *CampaignController) Stats(ctx *gin.Context) {
	var request CampaignIDRequest
	if err := ctx.ShouldBindUri(&request); err != nil {
		_ = ctx.Error(domainErrors.NewAppError(err, domainErrors.ValidationError))
		return
	}

	stats, err := c.campaignUseCase.GetStats(controllers.ExtractTenantID(ctx), request.ID)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, CampaignStatsResponse{
		CampaignID:      stats.CampaignID,
		State:           string(stats.State),
		PauseReason:     string(stats.PauseReason),
		TotalRecipients: stats.TotalRecipients,
		Queued:          stats.Queued,
		Sent:            stats.Sent,
		Delivered:       stats.Delivered,
		Read:            stats.Read,
		Failed:          stats.Failed,
		Cancelled:       stats.Cancelled,
		DeliveryRate:    stats.DeliveryRate,
		ReadRate:        stats.ReadRate,
		StartedAt:       stats.StartedAt,
		CompletedAt:     stats.CompletedAt,
	})
}

func (c *CampaignController) Recipients(ctx *gin.Context) {
	var request CampaignIDRequest
	if err := ctx.ShouldBindUri(&request); err != nil {
		_ = ctx.Error(domainErrors.NewAppError(err, domainErrors.ValidationError))
		return
	}

	recipients, err := c.campaignUseCase.GetRecipients(controllers.ExtractTenantID(ctx), request.ID)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	responses := make([]RecipientResponse, 0, len(*recipients))
	for _, r := range *recipients {
		responses = append(responses, RecipientResponse{
			ID:                r.ID,
			ContactID:         r.ContactID,
			Address:           r.Address,
			Status:            string(r.Status),
			ProviderMessageID: r.ProviderMessageID,
			LastError:         r.LastError,
			AttemptCount:      len(r.Attempts),
		})
	}
	ctx.JSON(http.StatusOK, responses)
}

func toCampaignResponse(campaign *domainCampaign.Campaign) *CampaignResponse {
	return &CampaignResponse{
		ID:              campaign.ID,
		TenantID:        campaign.TenantID,
		ChannelID:       campaign.ChannelID,
		Name:            campaign.Name,
		TemplateRef:     campaign.TemplateRef,
		State:           string(campaign.State),
		PauseReason:     string(campaign.PauseReason),
		TotalRecipients: campaign.TotalRecipients,
		CreatedAt:       campaign.CreatedAt,
		StartedAt:       campaign.StartedAt,
		CompletedAt:     campaign.CompletedAt,
	}
}
