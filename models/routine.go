package models

import (
	"time"

	"github.com/google/uuid"
)

// Routine is a named, ordered collection of exercises owned by one user.
type Routine struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID         `gorm:"type:char(36);not null;index" json:"user_id"`
	Title     string            `gorm:"size:100;not null" json:"title"`
	Exercises []RoutineExercise `json:"exercises,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// IsOwnedBy reports whether userID owns the routine.
func (r *Routine) IsOwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}

// RoutineExercise is one entry of a routine. Position is unique within the routine.
type RoutineExercise struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	RoutineID  uint     `gorm:"not null;uniqueIndex:idx_routine_position" json:"routine_id"`
	ExerciseID uint     `gorm:"not null;index" json:"exercise_id"`
	Position   int      `gorm:"not null;uniqueIndex:idx_routine_position" json:"position"`
	Count      int      `gorm:"not null;default:1" json:"count"`
	Sets       int      `gorm:"not null;default:1" json:"sets"`
	Exercise   Exercise `json:"exercise"`
}

// RoutineBookmark marks a routine as a favorite of a user.
type RoutineBookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_bookmark_user_routine" json:"user_id"`
	RoutineID uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_routine;index" json:"routine_id"`
	CreatedAt time.Time `json:"created_at"`
}
