// Package repositories exposes typed data access for every entity of the service.
// Each lookup returns (nil, nil) when nothing matches; callers decide whether that is an error.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrDuplicate reports an insert rejected by a unique index. It needs a
// connection opened with gorm.Config.TranslateError.
var ErrDuplicate = errors.New("duplicate key")

// translateCreate tags unique violations with ErrDuplicate.
func translateCreate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// Store groups the repositories that share one database handle.
type Store interface {
	Users() UserRepository
	UserAuths() UserAuthRepository
	Exercises() ExerciseRepository
	Routines() RoutineRepository
	RoutineExercises() RoutineExerciseRepository
	Bookmarks() BookmarkRepository
	Records() RecordRepository

	// WithTx runs fn inside one transaction. The transaction is committed when fn
	// returns nil and rolled back on any error or panic.
	WithTx(ctx context.Context, fn func(Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository {
	return &userRepository{db: s.db}
}

func (s *gormStore) UserAuths() UserAuthRepository {
	return &userAuthRepository{db: s.db}
}

func (s *gormStore) Exercises() ExerciseRepository {
	return &exerciseRepository{db: s.db}
}

func (s *gormStore) Routines() RoutineRepository {
	return &routineRepository{db: s.db}
}

func (s *gormStore) RoutineExercises() RoutineExerciseRepository {
	return &routineExerciseRepository{db: s.db}
}

func (s *gormStore) Bookmarks() BookmarkRepository {
	return &bookmarkRepository{db: s.db}
}

func (s *gormStore) Records() RecordRepository {
	return &recordRepository{db: s.db}
}

func (s *gormStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
