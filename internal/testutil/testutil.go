// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/led-platform-api/internal/auth"
	"github.com/noah-isme/led-platform-api/internal/database"
	"github.com/noah-isme/led-platform-api/internal/models"
)

var dbCounter atomic.Int64

// NewDB opens an isolated in-memory SQLite database with the full schema.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:led_test_%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// Logger discards everything.
func Logger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// CreateUser inserts an active user with the given role and password "password123".
func CreateUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()

	auth.BcryptCost = bcrypt.MinCost
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     role,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// CreateScholar inserts a scholar profile for user.
func CreateScholar(t *testing.T, db *gorm.DB, userID uint, advisorID *uint) models.Scholar {
	t.Helper()

	scholar := models.Scholar{
		UserID:        userID,
		Program:       "Informatique",
		StudentNumber: fmt.Sprintf("LED-%d", userID),
		AdmissionYear: 2023,
		AdvisorID:     advisorID,
		Status:        models.ScholarStatusActive,
	}
	require.NoError(t, db.Create(&scholar).Error)
	return scholar
}
