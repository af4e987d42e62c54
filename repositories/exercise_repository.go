package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/coachmybody/server/models"
)

// ExerciseRepository reads the exercise catalog.
type ExerciseRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Exercise, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Exercise, error)
	FindAll(ctx context.Context, category string) ([]models.Exercise, error)
}

type exerciseRepository struct {
	db *gorm.DB
}

func (r *exerciseRepository) FindByID(ctx context.Context, id uint) (*models.Exercise, error) {
	var exercise models.Exercise
	if err := r.db.WithContext(ctx).First(&exercise, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &exercise, nil
}

func (r *exerciseRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Exercise, error) {
	var exercises []models.Exercise
	if len(ids) == 0 {
		return exercises, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&exercises).Error
	return exercises, err
}

func (r *exerciseRepository) FindAll(ctx context.Context, category string) ([]models.Exercise, error) {
	var exercises []models.Exercise
	q := r.db.WithContext(ctx).Order("id ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	err := q.Find(&exercises).Error
	return exercises, err
}
