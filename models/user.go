package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a member identified by the social account they signed up with.
type User struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	SocialID     string    `gorm:"size:128;not null;uniqueIndex" json:"social_id"`
	SocialType   string    `gorm:"size:32" json:"social_type"`
	Email        string    `gorm:"size:255" json:"email"`
	Nickname     string    `gorm:"size:64" json:"nickname"`
	ProfileImage string    `gorm:"size:512" json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns a random identifier when none was provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
