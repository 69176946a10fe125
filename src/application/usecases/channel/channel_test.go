package channel

import (
	"errors"
	"testing"
	"time"

	domainChannel "go-campaign-api/src/domain/channel"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"
)

type mockChannelRepository struct {
	createFn      func(*domainChannel.Channel) (*domainChannel.Channel, error)
	getByIDFn     func(int) (*domainChannel.Channel, error)
	getByTenantFn func(int) (*[]domainChannel.Channel, error)
}

func (m *mockChannelRepository) Create(c *domainChannel.Channel) (*domainChannel.Channel, error) {
	if m.createFn != nil {
		return m.createFn(c)
	}
	c.ID = 1
	return c, nil
}

func (m *mockChannelRepository) GetByID(id int) (*domainChannel.Channel, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return nil, domainErrors.NewAppErrorWithType(domainErrors.NotFound)
}

func (m *mockChannelRepository) GetByTenant(tenantID int) (*[]domainChannel.Channel, error) {
	if m.getByTenantFn != nil {
		return m.getByTenantFn(tenantID)
	}
	return &[]domainChannel.Channel{}, nil
}

func setupLogger(t *testing.T) *logger.Logger {
	loggerInstance, err := logger.NewLogger()
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return loggerInstance
}

func TestChannelUseCase_Create(t *testing.T) {
	tests := []struct {
		name    string
		request CreateChannelRequest
		wantErr bool
	}{
		{
			name: "official channel with full quotas",
			request: CreateChannelRequest{
				TenantID: 3, Name: "main", Class: "official",
				PerMinute: 60, PerHour: 1000, PerDay: 10000,
			},
			wantErr: false,
		},
		{
			name: "official channel missing a quota",
			request: CreateChannelRequest{
				TenantID: 3, Name: "main", Class: "official",
				PerMinute: 60, PerHour: 1000,
			},
			wantErr: true,
		},
		{
			name: "unofficial channel with spacing knobs",
			request: CreateChannelRequest{
				TenantID: 3, Name: "side", Class: "unofficial",
				MinIntervalMS: 5000, HourlyCeiling: 100,
			},
			wantErr: false,
		},
		{
			name: "unofficial channel without a minimum interval",
			request: CreateChannelRequest{
				TenantID: 3, Name: "side", Class: "unofficial",
				HourlyCeiling: 100,
			},
			wantErr: true,
		},
		{
			name: "unknown channel class",
			request: CreateChannelRequest{
				TenantID: 3, Name: "main", Class: "sms",
				PerMinute: 60, PerHour: 1000, PerDay: 10000,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		uc := NewChannelUseCase(&mockChannelRepository{}, setupLogger(t))

		created, err := uc.Create(&tt.request)
		if (err != nil) != tt.wantErr {
			t.Fatalf("[%s] got err = %v, wantErr = %v", tt.name, err, tt.wantErr)
		}
		if tt.wantErr {
			var appErr *domainErrors.AppError
			if !errors.As(err, &appErr) || appErr.Type != domainErrors.ValidationError {
				t.Errorf("[%s] got %v, want a validation error", tt.name, err)
			}
			continue
		}
		if created.TenantID != tt.request.TenantID || string(created.Class) != tt.request.Class {
			t.Errorf("[%s] got %+v, want the request mapped onto the channel", tt.name, created)
		}
	}
}

func TestChannelUseCase_CreateConvertsMinInterval(t *testing.T) {
	uc := NewChannelUseCase(&mockChannelRepository{}, setupLogger(t))

	created, err := uc.Create(&CreateChannelRequest{
		TenantID: 3, Name: "side", Class: "unofficial",
		MinIntervalMS: 5000, HourlyCeiling: 100,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.RateProfile.MinInterval != 5*time.Second {
		t.Fatalf("got min interval %v, want 5s", created.RateProfile.MinInterval)
	}
	if created.RateProfile.HourlyCeiling != 100 {
		t.Fatalf("got hourly ceiling %d, want 100", created.RateProfile.HourlyCeiling)
	}
}

func TestChannelUseCase_GetByIDTenantScoping(t *testing.T) {
	repo := &mockChannelRepository{
		getByIDFn: func(id int) (*domainChannel.Channel, error) {
			return &domainChannel.Channel{ID: id, TenantID: 3, Name: "main", Class: domainChannel.ClassOfficial}, nil
		},
	}
	uc := NewChannelUseCase(repo, setupLogger(t))

	if _, err := uc.GetByID(3, 7); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}

	_, err := uc.GetByID(99, 7)
	var appErr *domainErrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != domainErrors.NotFound {
		t.Fatalf("got %v, want another tenant's channel hidden behind not found", err)
	}
}
