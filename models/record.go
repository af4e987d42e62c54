package models

import (
	"time"

	"github.com/google/uuid"
)

// Record is a logged workout session.
type Record struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	UserID          uuid.UUID        `gorm:"type:char(36);not null;index" json:"user_id"`
	RoutineID       *uint            `gorm:"index" json:"routine_id,omitempty"`
	PerformedAt     time.Time        `gorm:"not null;index" json:"performed_at"`
	DurationSeconds int              `json:"duration_seconds"`
	Exercises       []RecordExercise `json:"exercises"`
	CreatedAt       time.Time        `json:"created_at"`
}

// RecordExercise is the quantity performed for one exercise inside a record.
type RecordExercise struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	RecordID   uint    `gorm:"not null;index" json:"record_id"`
	ExerciseID uint    `gorm:"not null;index" json:"exercise_id"`
	Count      int     `json:"count"`
	Sets       int     `json:"sets"`
	Weight     float64 `json:"weight"`
}
