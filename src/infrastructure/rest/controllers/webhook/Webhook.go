package webhook

import (
	"errors"
	"net/http"

	statusUseCase "go-campaign-api/src/application/usecases/status"
	"go-campaign-api/src/domain/common"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"
	"go-campaign-api/src/infrastructure/rest/controllers"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type IWebhookController interface {
	StatusCallback(ctx *gin.Context)
}

type WebhookController struct {
	commonService common.CommonService
	statusUseCase statusUseCase.IStatusUseCase
	Logger        *logger.Logger
}

func NewWebhookController(
	commonService common.CommonService,
	useCase statusUseCase.IStatusUseCase,
	loggerInstance *logger.Logger,
) IWebhookController {
	return &WebhookController{
		commonService: commonService,
		statusUseCase: useCase,
		Logger:        loggerInstance,
	}
}

// StatusCallback ingests one delivery receipt. Receipts arriving before the
// matching dispatch record are accepted and applied once the record shows up,
// so the provider never has to retry for ordering reasons.
func (c *WebhookController) StatusCallback(ctx *gin.Context) {
	var request StatusCallbackRequest
	if err := controllers.BindJSON(ctx, &request); err != nil {
		c.Logger.Error("Error binding JSON for status callback", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			c.commonService.AppendValidationErrors(ctx, ve, request)
			return
		}
		_ = ctx.Error(domainErrors.NewAppError(err, domainErrors.ValidationError))
		return
	}

	err := c.statusUseCase.ProcessStatusEvent(&statusUseCase.StatusEventRequest{
		ProviderMessageID: request.MessageID,
		Status:            request.Status,
		Timestamp:         request.Timestamp,
	})
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, StatusCallbackResponse{Accepted: true})
}
