package di

import (
	"context"
	"sync"

	"go-campaign-api/src/domain/common"
	"go-campaign-api/src/infrastructure/alerting"
	"go-campaign-api/src/infrastructure/dispatch"
	"go-campaign-api/src/infrastructure/helper"
	"go-campaign-api/src/infrastructure/utils"

	campaignUseCase "go-campaign-api/src/application/usecases/campaign"
	channelUseCase "go-campaign-api/src/application/usecases/channel"
	statusUseCase "go-campaign-api/src/application/usecases/status"
	logger "go-campaign-api/src/infrastructure/logger"
	"go-campaign-api/src/infrastructure/repository/audience"
	"go-campaign-api/src/infrastructure/repository/mysql"
	campaignRepo "go-campaign-api/src/infrastructure/repository/mysql/campaign"
	providerClient "go-campaign-api/src/infrastructure/repository/provider-client"
	campaignController "go-campaign-api/src/infrastructure/rest/controllers/campaign"
	channelController "go-campaign-api/src/infrastructure/rest/controllers/channel"
	webhookController "go-campaign-api/src/infrastructure/rest/controllers/webhook"
	"go-campaign-api/src/infrastructure/template"

	"gorm.io/gorm"
)

// ApplicationContext holds all application dependencies and services
type ApplicationContext struct {
	DB                  *gorm.DB
	Logger              *logger.Logger
	CampaignController  campaignController.ICampaignController
	ChannelController   channelController.IChannelController
	WebhookController   webhookController.IWebhookController
	CommonService       common.CommonService
	CampaignRepository  campaignRepo.CampaignRepositoryInterface
	RecipientRepository campaignRepo.RecipientRepositoryInterface
	ChannelRepository   campaignRepo.ChannelRepositoryInterface
	Orchestrator        *dispatch.Orchestrator
	StatusTracker       *dispatch.StatusTracker
	CampaignUseCase     campaignUseCase.ICampaignUseCase
	ChannelUseCase      channelUseCase.IChannelUseCase
	StatusUseCase       statusUseCase.IStatusUseCase

	stopSweeper context.CancelFunc
}

var (
	loggerInstance *logger.Logger
	loggerOnce     sync.Once
)

func GetLogger() *logger.Logger {
	loggerOnce.Do(func() {
		loggerInstance, _ = logger.NewLogger()
	})
	return loggerInstance
}

// SetupDependencies creates a new application context with all dependencies
func SetupDependencies(loggerInstance *logger.Logger) (*ApplicationContext, error) {
	db, err := mysql.InitDB(loggerInstance)
	if err != nil {
		return nil, err
	}

	validator := helper.NewValidator(loggerInstance)
	commonService := common.NewCommonService(validator)

	campaignRepository := campaignRepo.NewCampaignRepository(db, loggerInstance)
	recipientRepository := campaignRepo.NewRecipientRepository(db, loggerInstance)
	channelRepository := campaignRepo.NewChannelRepository(db, loggerInstance)

	alertingConfig, err := alerting.LoadConfig(utils.GetEnv("ALERTING_CONFIG_PATH", ""))
	if err != nil {
		return nil, err
	}
	notifier := alerting.NewNotifier(alertingConfig, loggerInstance)

	clock := dispatch.NewRealClock()
	dispatchConfig := dispatch.LoadConfig()
	limiter := dispatch.NewRateLimiter(clock)

	client := providerClient.NewClient(loggerInstance)
	renderer := template.NewRenderer(loggerInstance)
	resolver := audience.NewResolver(loggerInstance)

	tracker := dispatch.NewStatusTracker(
		recipientRepository,
		campaignRepository,
		clock,
		dispatchConfig.StatusHoldWindow,
		loggerInstance,
	)
	worker := dispatch.NewBatchWorker(
		recipientRepository,
		campaignRepository,
		limiter,
		client,
		renderer,
		tracker,
		clock,
		dispatchConfig,
		loggerInstance,
	)
	orchestrator := dispatch.NewOrchestrator(
		campaignRepository,
		recipientRepository,
		channelRepository,
		resolver,
		worker,
		clock,
		dispatchConfig,
		notifier,
		loggerInstance,
	)

	// The sweeper expires held status events that never matched a dispatch
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	go tracker.Run(sweeperCtx)

	campaignUC := campaignUseCase.NewCampaignUseCase(
		campaignRepository,
		recipientRepository,
		channelRepository,
		orchestrator,
		loggerInstance,
	)
	channelUC := channelUseCase.NewChannelUseCase(channelRepository, loggerInstance)
	statusUC := statusUseCase.NewStatusUseCase(tracker, loggerInstance)

	return &ApplicationContext{
		DB:                  db,
		Logger:              loggerInstance,
		CampaignController:  campaignController.NewCampaignController(commonService, campaignUC, loggerInstance),
		ChannelController:   channelController.NewChannelController(commonService, channelUC, loggerInstance),
		WebhookController:   webhookController.NewWebhookController(commonService, statusUC, loggerInstance),
		CommonService:       commonService,
		CampaignRepository:  campaignRepository,
		RecipientRepository: recipientRepository,
		ChannelRepository:   channelRepository,
		Orchestrator:        orchestrator,
		StatusTracker:       tracker,
		CampaignUseCase:     campaignUC,
		ChannelUseCase:      channelUC,
		StatusUseCase:       statusUC,
		stopSweeper:         stopSweeper,
	}, nil
}

// Shutdown stops the background workers owned by the context
func (appContext *ApplicationContext) Shutdown() {
	if appContext.stopSweeper != nil {
		appContext.stopSweeper()
	}
}

// NewTestApplicationContext creates an application context for testing with mocked dependencies
func NewTestApplicationContext(
	mockCampaignUseCase campaignUseCase.ICampaignUseCase,
	mockChannelUseCase channelUseCase.IChannelUseCase,
	mockStatusUseCase statusUseCase.IStatusUseCase,
	loggerInstance *logger.Logger,
) *ApplicationContext {
	validator := helper.NewValidator(loggerInstance)
	commonService := common.NewCommonService(validator)

	return &ApplicationContext{
		Logger:             loggerInstance,
		CampaignController: campaignController.NewCampaignController(commonService, mockCampaignUseCase, loggerInstance),
		ChannelController:  channelController.NewChannelController(commonService, mockChannelUseCase, loggerInstance),
		WebhookController:  webhookController.NewWebhookController(commonService, mockStatusUseCase, loggerInstance),
		CommonService:      commonService,
		CampaignUseCase:    mockCampaignUseCase,
		ChannelUseCase:     mockChannelUseCase,
		StatusUseCase:      mockStatusUseCase,
	}
}
