package database

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/Marketfox/app/models"
	"github.com/ManuelReschke/Marketfox/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// GetDB returns the shared connection opened by SetupDatabase.
func GetDB() *gorm.DB {
	return DB
}

// DSN builds the MySQL data source name from DB_* variables. Times are read
// and written as UTC so stored timestamps compare correctly across hosts.
func DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		env.GetEnv("DB_USER", "marketfox"),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", "marketfox"),
	)
}

// SetupDatabase connects with retries and, unless DB_AUTO_MIGRATE=false,
// migrates every model. Schema changes in production go through cmd/migrate.
func SetupDatabase() {
	var err error
	level := logger.Warn
	if env.GetEnvBool("DB_DEBUG", false) {
		level = logger.Info
	}

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       DSN(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{
			Logger:  logger.Default.LogMode(level),
			NowFunc: func() time.Time { return time.Now().UTC() },
		})
		if err == nil {
			if sqlDB, dbErr := DB.DB(); dbErr == nil {
				sqlDB.SetMaxOpenConns(env.GetEnvInt("DB_MAX_OPEN_CONNS", 25))
				sqlDB.SetMaxIdleConns(env.GetEnvInt("DB_MAX_IDLE_CONNS", 5))
				sqlDB.SetConnMaxLifetime(env.GetEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute))
			}
			if env.GetEnvBool("DB_AUTO_MIGRATE", true) {
				if err = DB.AutoMigrate(models.All()...); err != nil {
					panic(fmt.Errorf("auto migrate: %w", err))
				}
			}
			log.Info("[Database] Connected")
			return
		}

		log.Warnf("[Database] Failed to connect (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	panic(err)
}
