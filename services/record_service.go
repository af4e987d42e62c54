package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coachmybody/server/events"
	"github.com/coachmybody/server/models"
	"github.com/coachmybody/server/repositories"
	"github.com/coachmybody/server/utils"
)

// RecordExerciseInput is the quantity performed for one exercise.
type RecordExerciseInput struct {
	ExerciseID uint    `json:"exercise_id" binding:"required"`
	Count      int     `json:"count" binding:"required,min=1"`
	Sets       int     `json:"sets" binding:"omitempty,min=1"`
	Weight     float64 `json:"weight" binding:"omitempty,min=0"`
}

// CreateRecordRequest logs one workout session.
type CreateRecordRequest struct {
	RoutineID       *uint                 `json:"routine_id"`
	PerformedAt     *time.Time            `json:"performed_at"`
	DurationSeconds int                   `json:"duration_seconds" binding:"omitempty,min=0"`
	Exercises       []RecordExerciseInput `json:"exercises" binding:"required,min=1,dive"`
}

// RecordService stores workout records and announces them on the event bus.
type RecordService struct {
	store repositories.Store
	opts  options

	pending sync.WaitGroup
}

func NewRecordService(store repositories.Store, opts ...Option) *RecordService {
	return &RecordService{store: store, opts: buildOptions(opts)}
}

// Create stores a record for owner. Unknown exercises or routines make the
// request invalid. The event is published in the background after the record
// is committed; a failed or slow publish never affects the call.
func (s *RecordService) Create(ctx context.Context, owner uuid.UUID, req CreateRecordRequest) (*models.Record, error) {
	if len(req.Exercises) == 0 {
		return nil, fmt.Errorf("record without exercises: %w", ErrInvalidRequest)
	}
	performedAt := s.opts.now()
	if req.PerformedAt != nil {
		performedAt = *req.PerformedAt
	}
	record := &models.Record{
		UserID:          owner,
		RoutineID:       req.RoutineID,
		PerformedAt:     performedAt,
		DurationSeconds: req.DurationSeconds,
		Exercises:       make([]models.RecordExercise, 0, len(req.Exercises)),
	}
	exerciseIDs := make([]uint, 0, len(req.Exercises))
	for _, in := range req.Exercises {
		sets := in.Sets
		if sets == 0 {
			sets = 1
		}
		record.Exercises = append(record.Exercises, models.RecordExercise{
			ExerciseID: in.ExerciseID,
			Count:      in.Count,
			Sets:       sets,
			Weight:     in.Weight,
		})
		exerciseIDs = append(exerciseIDs, in.ExerciseID)
	}

	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		distinct := utils.Unique(exerciseIDs)
		found, err := tx.Exercises().FindByIDs(ctx, distinct)
		if err != nil {
			return err
		}
		if len(found) != len(distinct) {
			return fmt.Errorf("record names an unknown exercise: %w", ErrInvalidRequest)
		}
		if req.RoutineID != nil {
			routine, err := tx.Routines().FindByID(ctx, *req.RoutineID)
			if err != nil {
				return err
			}
			if routine == nil {
				return fmt.Errorf("routine %d does not exist: %w", *req.RoutineID, ErrInvalidRequest)
			}
		}
		return tx.Records().Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	recordsCreatedCounter.Inc()

	evt := s.createdEvent(record, exerciseIDs)
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.publishTimeout)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		s.publish(pubCtx, evt)
	}()
	return record, nil
}

// Wait blocks until every background publish has finished.
func (s *RecordService) Wait() {
	s.pending.Wait()
}

// FindMyRecords pages through the records of owner, newest first.
func (s *RecordService) FindMyRecords(ctx context.Context, owner uuid.UUID, page, pageSize int) (*Page[models.Record], error) {
	page, pageSize, offset := normalizePage(page, pageSize)
	records, total, err := s.store.Records().FindByUser(ctx, owner, offset, pageSize)
	if err != nil {
		return nil, err
	}
	return &Page[models.Record]{Items: records, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *RecordService) createdEvent(record *models.Record, exerciseIDs []uint) events.Event {
	return events.NewEvent(events.TypeRecordCreated, record.UserID.String(), events.RecordCreated{
		RecordID:        record.ID,
		UserID:          record.UserID.String(),
		RoutineID:       record.RoutineID,
		PerformedAt:     record.PerformedAt,
		DurationSeconds: record.DurationSeconds,
		ExerciseIDs:     exerciseIDs,
	}, s.opts.now())
}

func (s *RecordService) publish(ctx context.Context, evt events.Event) {
	if err := s.opts.publisher.Publish(ctx, s.opts.topic, evt); err != nil {
		eventPublishFailedCounter.WithLabelValues(evt.Type).Inc()
		s.opts.logger.Warn("publish record event failed",
			zap.String("event_id", evt.ID),
			zap.Error(err))
	}
}
