package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coachmybody/server/models"
)

// RecordRepository persists workout records together with their exercises.
type RecordRepository interface {
	Create(ctx context.Context, record *models.Record) error
	FindByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Record, int64, error)
}

type recordRepository struct {
	db *gorm.DB
}

func (r *recordRepository) Create(ctx context.Context, record *models.Record) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *recordRepository) FindByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Record, int64, error) {
	var (
		records []models.Record
		total   int64
	)
	q := r.db.WithContext(ctx).Model(&models.Record{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Exercises").
		Order("performed_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
