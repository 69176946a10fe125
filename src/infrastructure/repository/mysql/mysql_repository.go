package mysql

import (
	"fmt"
	"os"
	"strings"

	logger "go-campaign-api/src/infrastructure/logger"
	campaignRepo "go-campaign-api/src/infrastructure/repository/mysql/campaign"
	"go-campaign-api/src/infrastructure/utils"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// loadDatabaseConfig loads database configuration from environment variables.
// Returns error if any required environment variable is missing.
func loadDatabaseConfig() (DatabaseConfig, error) {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	var missingVars []string
	if host == "" {
		missingVars = append(missingVars, "DB_HOST")
	}
	if port == "" {
		missingVars = append(missingVars, "DB_PORT")
	}
	if user == "" {
		missingVars = append(missingVars, "DB_USER")
	}
	if password == "" {
		missingVars = append(missingVars, "DB_PASSWORD")
	}
	if dbName == "" {
		missingVars = append(missingVars, "DB_NAME")
	}

	if len(missingVars) > 0 {
		return DatabaseConfig{}, fmt.Errorf("missing required database environment variables: %s", strings.Join(missingVars, ", "))
	}

	return DatabaseConfig{
		Driver:   utils.GetEnv("DB_DRIVER", "mysql"),
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  utils.GetEnv("DB_SSLMODE", "disable"),
	}, nil
}

// InitDB opens the database connection and migrates the campaign tables
func InitDB(loggerInstance *logger.Logger) (*gorm.DB, error) {
	config, err := loadDatabaseConfig()
	if err != nil {
		loggerInstance.Error("Database configuration error", zap.Error(err))
		return nil, err
	}

	var dialector gorm.Dialector
	switch config.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)
		dialector = postgres.Open(dsn)
	default:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			config.User, config.Password, config.Host, config.Port, config.DBName)
		dialector = mysql.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		loggerInstance.Error("Error connecting to database", zap.Error(err), zap.String("driver", config.Driver))
		return nil, err
	}

	if err := db.AutoMigrate(
		&campaignRepo.Campaign{},
		&campaignRepo.Recipient{},
		&campaignRepo.Channel{},
	); err != nil {
		loggerInstance.Error("Error migrating database", zap.Error(err))
		return nil, err
	}

	loggerInstance.Info("Database initialized", zap.String("driver", config.Driver), zap.String("database", config.DBName))
	return db, nil
}
