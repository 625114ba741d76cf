// Package testdb opens throwaway gorm databases for package tests.
package testdb

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/Marketfox/app/models"
)

// New returns an in-memory SQLite database with every Marketfox table
// migrated. A single connection keeps the memory database alive and
// serialises writers the way row locks would on MySQL.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_time_format=sqlite"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateUser inserts a user with the given contact data.
func CreateUser(t testing.TB, db *gorm.DB, u models.User) *models.User {
	t.Helper()
	if u.Name == "" {
		u.Name = "Test User"
	}
	if u.Role == "" {
		u.Role = models.ROLE_CLIENT
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &u
}
