package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coachmybody/server/models"
)

// UserAuthRepository persists the token pair of each user.
type UserAuthRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserAuth, error)
	FindByAccessToken(ctx context.Context, token string) (*models.UserAuth, error)
	FindByRefreshToken(ctx context.Context, token string) (*models.UserAuth, error)
	// Save inserts auth or, when a row for the same user exists, overwrites its tokens.
	Save(ctx context.Context, auth *models.UserAuth) error
}

type userAuthRepository struct {
	db *gorm.DB
}

func (r *userAuthRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserAuth, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *userAuthRepository) FindByAccessToken(ctx context.Context, token string) (*models.UserAuth, error) {
	return r.findOne(ctx, "access_token = ?", token)
}

func (r *userAuthRepository) FindByRefreshToken(ctx context.Context, token string) (*models.UserAuth, error) {
	return r.findOne(ctx, "refresh_token = ?", token)
}

func (r *userAuthRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.UserAuth, error) {
	var auth models.UserAuth
	if err := r.db.WithContext(ctx).Where(query, arg).First(&auth).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auth, nil
}

func (r *userAuthRepository) Save(ctx context.Context, auth *models.UserAuth) error {
	if auth.ID != 0 {
		return r.db.WithContext(ctx).Save(auth).Error
	}
	// Two first logins racing for the same user: the later writer wins.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"access_token":  auth.AccessToken,
			"refresh_token": auth.RefreshToken,
			"expired_at":    auth.ExpiredAt,
			"updated_at":    time.Now(),
		}),
	}).Create(auth).Error
}
