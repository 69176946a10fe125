package campaign

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	domainCampaign "go-campaign-api/src/domain/campaign"
	domainErrors "go-campaign-api/src/domain/errors"
	logger "go-campaign-api/src/infrastructure/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm: %v", err)
	}
	return db, mock
}

func setupTestLogger(t *testing.T) *logger.Logger {
	loggerInstance, err := logger.NewLogger()
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return loggerInstance
}

func TestCampaignRepositoryGetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCampaignRepository(db, setupTestLogger(t))

	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "channel_id", "name", "template_ref", "state",
		"generation", "total_recipients", "sent", "delivered", "read_count", "failed",
	}).AddRow(5, 3, 7, "promo", "promo-v1", "running", 2, 250, 40, 30, 10, 2)

	mock.ExpectQuery("SELECT (.+) FROM `campaigns` WHERE id = ").
		WillReturnRows(rows)

	camp, err := repo.GetByID(5)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if camp.ID != 5 || camp.TenantID != 3 || camp.State != domainCampaign.StateRunning || camp.Generation != 2 {
		t.Fatalf("got %+v, want the stored campaign mapped to the domain", camp)
	}
	if camp.Counters.Sent != 40 || camp.Counters.Delivered != 30 || camp.Counters.Read != 10 || camp.Counters.Failed != 2 {
		t.Fatalf("got counters %+v, want them mapped from the row", camp.Counters)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCampaignRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCampaignRepository(db, setupTestLogger(t))

	mock.ExpectQuery("SELECT (.+) FROM `campaigns` WHERE id = ").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(99)
	var appErr *domainErrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != domainErrors.NotFound {
		t.Fatalf("got %v, want a not found error", err)
	}
}

func TestCampaignRepositoryUpdateState(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCampaignRepository(db, setupTestLogger(t))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `campaigns` SET (.+) WHERE id = ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.UpdateState(5, domainCampaign.StatePaused, domainCampaign.PauseReasonOperator); err != nil {
		t.Fatalf("UpdateState failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCampaignRepositoryUpdateStateNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCampaignRepository(db, setupTestLogger(t))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `campaigns` SET (.+) WHERE id = ").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateState(99, domainCampaign.StateCancelled, "")
	var appErr *domainErrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != domainErrors.NotFound {
		t.Fatalf("got %v, want a not found error for zero affected rows", err)
	}
}

func TestCampaignRepositoryFinalizeRunGenerationGuard(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCampaignRepository(db, setupTestLogger(t))

	guard := "UPDATE `campaigns` SET (.+) WHERE id = \\? AND generation = \\?"

	// stale generation: the guard matches no row, which must not be an error
	mock.ExpectBegin()
	mock.ExpectExec(guard).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	applied, err := repo.FinalizeRun(5, 1, domainCampaign.StateCompleted, "", nil)
	if err != nil {
		t.Fatalf("stale FinalizeRun errored: %v", err)
	}
	if applied {
		t.Fatal("stale finalize reported as applied")
	}

	// current generation
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(guard).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err = repo.FinalizeRun(5, 2, domainCampaign.StateCompleted, "", &now)
	if err != nil {
		t.Fatalf("FinalizeRun failed: %v", err)
	}
	if !applied {
		t.Fatal("current-generation finalize reported as skipped")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCampaignRepositoryIncrementCounters(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCampaignRepository(db, setupTestLogger(t))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("`delivered`=delivered + ?") + ",(.*)" + regexp.QuoteMeta("`sent`=sent + ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.IncrementCounters(5, domainCampaign.CounterDelta{Sent: 1, Delivered: 1})
	if err != nil {
		t.Fatalf("IncrementCounters failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCampaignRepositoryIncrementCountersSkipsZeroDelta(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCampaignRepository(db, setupTestLogger(t))

	if err := repo.IncrementCounters(5, domainCampaign.CounterDelta{}); err != nil {
		t.Fatalf("zero delta errored: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("zero delta touched the database: %v", err)
	}
}
