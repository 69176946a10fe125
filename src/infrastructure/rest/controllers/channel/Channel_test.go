package channel

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	channelUseCase "go-campaign-api/src/application/usecases/channel"
	domainChannel "go-campaign-api/src/domain/channel"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

// MockChannelUseCase implements channelUseCase.IChannelUseCase for testing
type MockChannelUseCase struct {
	createFn      func(*channelUseCase.CreateChannelRequest) (*domainChannel.Channel, error)
	getByIDFn     func(int, int) (*domainChannel.Channel, error)
	getByTenantFn func(int) (*[]domainChannel.Channel, error)
}

func (m *MockChannelUseCase) Create(req *channelUseCase.CreateChannelRequest) (*domainChannel.Channel, error) {
	if m.createFn != nil {
		return m.createFn(req)
	}
	return nil, nil
}
func (m *MockChannelUseCase) GetByID(tenantID int, channelID int) (*domainChannel.Channel, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(tenantID, channelID)
	}
	return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
}
func (m *MockChannelUseCase) GetByTenant(tenantID int) (*[]domainChannel.Channel, error) {
	if m.getByTenantFn != nil {
		return m.getByTenantFn(tenantID)
	}
	return &[]domainChannel.Channel{}, nil
}

// MockCommonService mocks the common service for testing
type MockCommonService struct {
	appendValidationErrorsFunc func(*gin.Context, validator.ValidationErrors, interface{})
}

func (m *MockCommonService) AppendValidationErrors(ctx *gin.Context, ve validator.ValidationErrors, intr interface{}) {
	if m.appendValidationErrorsFunc != nil {
		m.appendValidationErrorsFunc(ctx, ve, intr)
	}
}

func setupLogger(t *testing.T) *logger.Logger {
	loggerInstance, err := logger.NewLogger()
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return loggerInstance
}

func testContext(w *httptest.ResponseRecorder, tenantID int, req *http.Request) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("tenantID", tenantID)
	return c
}

func TestChannelController_Create_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockUseCase := &MockChannelUseCase{
		createFn: func(req *channelUseCase.CreateChannelRequest) (*domainChannel.Channel, error) {
			assert.Equal(t, 7, req.TenantID)
			assert.Equal(t, "unofficial", req.Class)
			return &domainChannel.Channel{
				ID:       11,
				TenantID: req.TenantID,
				Name:     req.Name,
				Class:    domainChannel.Class(req.Class),
				RateProfile: domainChannel.RateProfile{
					MinInterval:   time.Duration(req.MinIntervalMS) * time.Millisecond,
					HourlyCeiling: req.HourlyCeiling,
				},
			}, nil
		},
	}

	controller := NewChannelController(&MockCommonService{}, mockUseCase, setupLogger(t))

	requestBody, _ := json.Marshal(CreateChannelRequest{
		Name:          "side account",
		Class:         "unofficial",
		MinIntervalMS: 5000,
		HourlyCeiling: 100,
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/channels", bytes.NewBuffer(requestBody))
	req.Header.Set("Content-Type", "application/json")

	controller.Create(testContext(w, 7, req))

	assert.Equal(t, http.StatusCreated, w.Code)

	var response ChannelResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	assert.Equal(t, 11, response.ID)
	assert.Equal(t, 5000, response.MinIntervalMS)
	assert.Equal(t, 100, response.HourlyCeiling)
}

func TestChannelController_Create_InvalidClass(t *testing.T) {
	gin.SetMode(gin.TestMode)

	validationCalled := false
	mockCommonService := &MockCommonService{
		appendValidationErrorsFunc: func(ctx *gin.Context, ve validator.ValidationErrors, intr interface{}) {
			validationCalled = true
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": "invalid"})
		},
	}

	controller := NewChannelController(mockCommonService, &MockChannelUseCase{}, setupLogger(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/channels", bytes.NewBufferString(`{"name":"main","class":"sms"}`))
	req.Header.Set("Content-Type", "application/json")

	controller.Create(testContext(w, 7, req))

	assert.True(t, validationCalled)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChannelController_GetByID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockUseCase := &MockChannelUseCase{
		getByIDFn: func(tenantID, channelID int) (*domainChannel.Channel, error) {
			assert.Equal(t, 7, tenantID)
			return &domainChannel.Channel{
				ID:       channelID,
				TenantID: tenantID,
				Name:     "main",
				Class:    domainChannel.ClassOfficial,
				RateProfile: domainChannel.RateProfile{
					PerMinute: 60, PerHour: 1000, PerDay: 10000,
				},
			}, nil
		},
	}

	controller := NewChannelController(&MockCommonService{}, mockUseCase, setupLogger(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/channels/11", nil)
	c := testContext(w, 7, req)
	c.Params = gin.Params{{Key: "id", Value: "11"}}

	controller.GetByID(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response ChannelResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	assert.Equal(t, 11, response.ID)
	assert.Equal(t, "official", response.Class)
	assert.Equal(t, 60, response.PerMinute)
}

func TestChannelController_List(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockUseCase := &MockChannelUseCase{
		getByTenantFn: func(tenantID int) (*[]domainChannel.Channel, error) {
			channels := []domainChannel.Channel{
				{ID: 1, TenantID: tenantID, Name: "main", Class: domainChannel.ClassOfficial},
				{ID: 2, TenantID: tenantID, Name: "side", Class: domainChannel.ClassUnofficial},
			}
			return &channels, nil
		},
	}

	controller := NewChannelController(&MockCommonService{}, mockUseCase, setupLogger(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/channels", nil)

	controller.List(testContext(w, 7, req))

	assert.Equal(t, http.StatusOK, w.Code)

	var responses []ChannelResponse
	if err := json.Unmarshal(w.Body.Bytes(), &responses); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	assert.Len(t, responses, 2)
}
