// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"finance_portfolio/internal/config"
	"finance_portfolio/internal/db"
	"finance_portfolio/internal/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Password is the plain text password of every user made by NewUser
const Password = "correct-horse-42"

// NewDB opens a migrated SQLite database that lives as long as the test
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	logrus.SetLevel(logrus.WarnLevel)

	cfg := &config.Config{DBDriver: config.DriverSQLite, DBName: filepath.Join(t.TempDir(), "test.db"), IsProd: true}
	gdb, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	gdb.Logger = gdb.Logger.LogMode(gormlogger.Silent)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

// NewUser stores a user with a default profile
func NewUser(t testing.TB, gdb *gorm.DB, username string) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := domain.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: "Test",
		LastName:  "User",
		Password:  string(hash),
		Role:      domain.RoleUser,
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	profile := domain.NewProfile(user.ID)
	if err := gdb.Create(&profile).Error; err != nil {
		t.Fatalf("create profile for %s: %v", username, err)
	}
	return user
}
