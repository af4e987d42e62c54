package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/coachmybody/server/models"
)

// RoutineExerciseRepository persists the entries of routines.
type RoutineExerciseRepository interface {
	CreateBatch(ctx context.Context, items []models.RoutineExercise) error
	FindByID(ctx context.Context, id uint) (*models.RoutineExercise, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.RoutineExercise, error)
	CountByRoutineID(ctx context.Context, routineID uint) (int64, error)
	// MaxPosition returns the highest position used in the routine, 0 when empty.
	MaxPosition(ctx context.Context, routineID uint) (int, error)
	UpdatePosition(ctx context.Context, id uint, position int) error
	UpdateQuantities(ctx context.Context, id uint, count, sets int) error
	DeleteByIDs(ctx context.Context, ids []uint) error
	DeleteByRoutineIDs(ctx context.Context, routineIDs []uint) error
}

type routineExerciseRepository struct {
	db *gorm.DB
}

func (r *routineExerciseRepository) CreateBatch(ctx context.Context, items []models.RoutineExercise) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Exercise").Create(&items).Error
}

func (r *routineExerciseRepository) FindByID(ctx context.Context, id uint) (*models.RoutineExercise, error) {
	var item models.RoutineExercise
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *routineExerciseRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.RoutineExercise, error) {
	var items []models.RoutineExercise
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *routineExerciseRepository) CountByRoutineID(ctx context.Context, routineID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RoutineExercise{}).Where("routine_id = ?", routineID).Count(&n).Error
	return n, err
}

func (r *routineExerciseRepository) MaxPosition(ctx context.Context, routineID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&models.RoutineExercise{}).
		Where("routine_id = ?", routineID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	return max, err
}

func (r *routineExerciseRepository) UpdatePosition(ctx context.Context, id uint, position int) error {
	return r.db.WithContext(ctx).Model(&models.RoutineExercise{}).Where("id = ?", id).Update("position", position).Error
}

func (r *routineExerciseRepository) UpdateQuantities(ctx context.Context, id uint, count, sets int) error {
	return r.db.WithContext(ctx).Model(&models.RoutineExercise{}).Where("id = ?", id).
		Updates(map[string]interface{}{"count": count, "sets": sets}).Error
}

func (r *routineExerciseRepository) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.RoutineExercise{}).Error
}

func (r *routineExerciseRepository) DeleteByRoutineIDs(ctx context.Context, routineIDs []uint) error {
	if len(routineIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("routine_id IN ?", routineIDs).Delete(&models.RoutineExercise{}).Error
}
