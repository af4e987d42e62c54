// Package testutil provides helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/coachmybody/server/models"
)

// NewDB opens a private in-memory SQLite database with every model migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedExercises inserts one catalog entry per name and returns them in order.
func SeedExercises(t *testing.T, db *gorm.DB, names ...string) []models.Exercise {
	t.Helper()
	out := make([]models.Exercise, 0, len(names))
	for _, name := range names {
		e := models.Exercise{Name: name, Category: "test"}
		if err := db.Create(&e).Error; err != nil {
			t.Fatalf("seed exercise %s: %v", name, err)
		}
		out = append(out, e)
	}
	return out
}

// CreateUser inserts a user with the given social id.
func CreateUser(t *testing.T, db *gorm.DB, socialID string) models.User {
	t.Helper()
	u := models.User{SocialID: socialID, SocialType: "test", Nickname: socialID}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", socialID, err)
	}
	return u
}
