package services

import (
	"context"
	"fmt"

	"github.com/coachmybody/server/models"
	"github.com/coachmybody/server/repositories"
)

// ExerciseService reads the exercise catalog.
type ExerciseService struct {
	store repositories.Store
}

func NewExerciseService(store repositories.Store) *ExerciseService {
	return &ExerciseService{store: store}
}

// List returns the catalog, optionally restricted to one category.
func (s *ExerciseService) List(ctx context.Context, category string) ([]models.Exercise, error) {
	return s.store.Exercises().FindAll(ctx, category)
}

func (s *ExerciseService) Get(ctx context.Context, id uint) (*models.Exercise, error) {
	exercise, err := s.store.Exercises().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exercise == nil {
		return nil, fmt.Errorf("exercise %d: %w", id, ErrNotFoundEntity)
	}
	return exercise, nil
}
