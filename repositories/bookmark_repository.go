package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coachmybody/server/models"
)

// BookmarkRepository persists the user ↔ routine bookmark relation.
type BookmarkRepository interface {
	Find(ctx context.Context, userID uuid.UUID, routineID uint) (*models.RoutineBookmark, error)
	Create(ctx context.Context, bookmark *models.RoutineBookmark) error
	Delete(ctx context.Context, id uint) error
	DeleteByUserAndRoutineIDs(ctx context.Context, userID uuid.UUID, routineIDs []uint) error
	DeleteByRoutineIDs(ctx context.Context, routineIDs []uint) error
	// BookmarkedAmong returns which of routineIDs userID has bookmarked.
	BookmarkedAmong(ctx context.Context, userID uuid.UUID, routineIDs []uint) (map[uint]bool, error)
	// FindBookmarkedRoutines pages through the routines bookmarked by userID, most recent bookmark first.
	FindBookmarkedRoutines(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Routine, int64, error)
}

type bookmarkRepository struct {
	db *gorm.DB
}

func (r *bookmarkRepository) Find(ctx context.Context, userID uuid.UUID, routineID uint) (*models.RoutineBookmark, error) {
	var bookmark models.RoutineBookmark
	err := r.db.WithContext(ctx).Where("user_id = ? AND routine_id = ?", userID, routineID).First(&bookmark).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bookmark, nil
}

func (r *bookmarkRepository) Create(ctx context.Context, bookmark *models.RoutineBookmark) error {
	return translateCreate(r.db.WithContext(ctx).Create(bookmark).Error)
}

func (r *bookmarkRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.RoutineBookmark{}, id).Error
}

func (r *bookmarkRepository) DeleteByUserAndRoutineIDs(ctx context.Context, userID uuid.UUID, routineIDs []uint) error {
	if len(routineIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND routine_id IN ?", userID, routineIDs).
		Delete(&models.RoutineBookmark{}).Error
}

func (r *bookmarkRepository) DeleteByRoutineIDs(ctx context.Context, routineIDs []uint) error {
	if len(routineIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("routine_id IN ?", routineIDs).Delete(&models.RoutineBookmark{}).Error
}

func (r *bookmarkRepository) BookmarkedAmong(ctx context.Context, userID uuid.UUID, routineIDs []uint) (map[uint]bool, error) {
	marked := make(map[uint]bool, len(routineIDs))
	if len(routineIDs) == 0 {
		return marked, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.RoutineBookmark{}).
		Where("user_id = ? AND routine_id IN ?", userID, routineIDs).
		Pluck("routine_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		marked[id] = true
	}
	return marked, nil
}

func (r *bookmarkRepository) FindBookmarkedRoutines(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Routine, int64, error) {
	var (
		routines []models.Routine
		total    int64
	)
	base := r.db.WithContext(ctx).Model(&models.Routine{}).
		Joins("JOIN routine_bookmarks rb ON rb.routine_id = routines.id").
		Where("rb.user_id = ?", userID).
		Session(&gorm.Session{})
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := base.
		Preload("Exercises", orderedExercises).
		Order("rb.created_at DESC").Order("routines.id DESC").
		Offset(offset).Limit(limit).
		Find(&routines).Error
	if err != nil {
		return nil, 0, err
	}
	return routines, total, nil
}
