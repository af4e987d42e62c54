package models

import (
	"time"

	"github.com/google/uuid"
)

// UserAuth holds the single active token pair of a user.
type UserAuth struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:char(36);not null;uniqueIndex" json:"user_id"`
	AccessToken  string    `gorm:"size:512;not null;uniqueIndex" json:"-"`
	RefreshToken string    `gorm:"size:128;not null;uniqueIndex" json:"-"`
	ExpiredAt    time.Time `gorm:"not null" json:"expired_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUserAuth returns an empty auth record bound to userID. Call Refresh before saving it.
func NewUserAuth(userID uuid.UUID) *UserAuth {
	return &UserAuth{UserID: userID}
}

// Refresh replaces both tokens and moves the expiry forward.
func (a *UserAuth) Refresh(accessToken, refreshToken string, expiredAt time.Time) {
	a.AccessToken = accessToken
	a.RefreshToken = refreshToken
	a.ExpiredAt = expiredAt
}

// IsExpired reports whether now is at or after the stored expiry.
func (a *UserAuth) IsExpired(now time.Time) bool {
	return !now.Before(a.ExpiredAt)
}
