package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coachmybody/server/models"
)

// RoutineRepository persists routines.
type RoutineRepository interface {
	Create(ctx context.Context, routine *models.Routine) error
	FindByID(ctx context.Context, id uint) (*models.Routine, error)
	// FindDetailByID loads the routine with its exercises in display order.
	FindDetailByID(ctx context.Context, id uint) (*models.Routine, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Routine, error)
	// FindByOwner lists the routines of userID by ascending id. With hasExercise set,
	// routines without any exercise are skipped.
	FindByOwner(ctx context.Context, userID uuid.UUID, hasExercise bool) ([]models.Routine, error)
	UpdateTitle(ctx context.Context, id uint, title string) error
	DeleteByIDs(ctx context.Context, ids []uint) error
}

type routineRepository struct {
	db *gorm.DB
}

func (r *routineRepository) Create(ctx context.Context, routine *models.Routine) error {
	return r.db.WithContext(ctx).Create(routine).Error
}

func (r *routineRepository) FindByID(ctx context.Context, id uint) (*models.Routine, error) {
	var routine models.Routine
	if err := r.db.WithContext(ctx).First(&routine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &routine, nil
}

func (r *routineRepository) FindDetailByID(ctx context.Context, id uint) (*models.Routine, error) {
	var routine models.Routine
	err := r.db.WithContext(ctx).
		Preload("Exercises", orderedExercises).
		Preload("Exercises.Exercise").
		First(&routine, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &routine, nil
}

func (r *routineRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Routine, error) {
	var routines []models.Routine
	if len(ids) == 0 {
		return routines, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&routines).Error
	return routines, err
}

func (r *routineRepository) FindByOwner(ctx context.Context, userID uuid.UUID, hasExercise bool) ([]models.Routine, error) {
	var routines []models.Routine
	q := r.db.WithContext(ctx).
		Preload("Exercises", orderedExercises).
		Where("user_id = ?", userID).
		Order("id ASC")
	if hasExercise {
		q = q.Where("EXISTS (SELECT 1 FROM routine_exercises re WHERE re.routine_id = routines.id)")
	}
	err := q.Find(&routines).Error
	return routines, err
}

func (r *routineRepository) UpdateTitle(ctx context.Context, id uint, title string) error {
	return r.db.WithContext(ctx).Model(&models.Routine{}).Where("id = ?", id).Update("title", title).Error
}

func (r *routineRepository) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Routine{}).Error
}

func orderedExercises(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
