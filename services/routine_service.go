package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coachmybody/server/models"
	"github.com/coachmybody/server/repositories"
	"github.com/coachmybody/server/utils"
)

const (
	routineDetailKeyPrefix = "routine:detail:"
	maxTitleLength         = 100
)

// RoutineSummary is one row of a routine listing.
type RoutineSummary struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	ExerciseCount int       `json:"exercise_count"`
	IsBookmarked  bool      `json:"is_bookmarked"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RoutineExerciseView is one entry of a routine detail, in display order.
type RoutineExerciseView struct {
	ID         uint   `json:"id"`
	ExerciseID uint   `json:"exercise_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Position   int    `json:"position"`
	Count      int    `json:"count"`
	Sets       int    `json:"sets"`
}

// RoutineDetail is a routine with its ordered exercises, seen by one requester.
type RoutineDetail struct {
	ID           uint                  `json:"id"`
	Title        string                `json:"title"`
	OwnerID      uuid.UUID             `json:"owner_id"`
	IsMine       bool                  `json:"is_mine"`
	IsBookmarked bool                  `json:"is_bookmarked"`
	Exercises    []RoutineExerciseView `json:"exercises"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// UpdateRoutineExerciseRequest changes the quantities of one entry. Nil fields are kept.
type UpdateRoutineExerciseRequest struct {
	Count *int `json:"count" binding:"omitempty,min=1"`
	Sets  *int `json:"sets" binding:"omitempty,min=1"`
}

// RoutineService owns routines, their exercise lists and bookmarks.
type RoutineService struct {
	store repositories.Store
	opts  options
}

func NewRoutineService(store repositories.Store, opts ...Option) *RoutineService {
	return &RoutineService{store: store, opts: buildOptions(opts)}
}

// Create stores an empty routine owned by owner.
func (s *RoutineService) Create(ctx context.Context, owner uuid.UUID, title string) (*models.Routine, error) {
	clean, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}
	routine := &models.Routine{UserID: owner, Title: clean}
	if err := s.store.Routines().Create(ctx, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

// FindMyRoutines lists the routines of owner. With hasExercise set, empty routines are left out.
func (s *RoutineService) FindMyRoutines(ctx context.Context, owner uuid.UUID, hasExercise bool) ([]RoutineSummary, error) {
	routines, err := s.store.Routines().FindByOwner(ctx, owner, hasExercise)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, owner, routines)
}

// FindBookmarkRoutines pages through the routines requester has bookmarked.
func (s *RoutineService) FindBookmarkRoutines(ctx context.Context, requester uuid.UUID, page, pageSize int) (*Page[RoutineSummary], error) {
	page, pageSize, offset := normalizePage(page, pageSize)
	routines, total, err := s.store.Bookmarks().FindBookmarkedRoutines(ctx, requester, offset, pageSize)
	if err != nil {
		return nil, err
	}
	items := make([]RoutineSummary, 0, len(routines))
	for _, r := range routines {
		sum := toSummary(r)
		sum.IsBookmarked = true
		items = append(items, sum)
	}
	return &Page[RoutineSummary]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// FindRoutineByID returns the routine with its exercises in position order.
func (s *RoutineService) FindRoutineByID(ctx context.Context, id uint, requester uuid.UUID) (*RoutineDetail, error) {
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	marked, err := s.store.Bookmarks().Find(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	detail.IsMine = detail.OwnerID == requester
	detail.IsBookmarked = marked != nil
	return detail, nil
}

// loadDetail reads the requester independent part of a detail, through the cache.
func (s *RoutineService) loadDetail(ctx context.Context, id uint) (*RoutineDetail, error) {
	key := routineDetailKey(id)
	var cached RoutineDetail
	if s.opts.cache.GetJSON(ctx, key, &cached) {
		routineCacheCounter.WithLabelValues("hit").Inc()
		return &cached, nil
	}
	routineCacheCounter.WithLabelValues("miss").Inc()

	routine, err := s.store.Routines().FindDetailByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if routine == nil {
		return nil, fmt.Errorf("routine %d: %w", id, ErrNotFoundEntity)
	}
	detail := &RoutineDetail{
		ID:        routine.ID,
		Title:     routine.Title,
		OwnerID:   routine.UserID,
		Exercises: make([]RoutineExerciseView, 0, len(routine.Exercises)),
		CreatedAt: routine.CreatedAt,
		UpdatedAt: routine.UpdatedAt,
	}
	for _, re := range routine.Exercises {
		detail.Exercises = append(detail.Exercises, RoutineExerciseView{
			ID:         re.ID,
			ExerciseID: re.ExerciseID,
			Name:       re.Exercise.Name,
			Category:   re.Exercise.Category,
			Position:   re.Position,
			Count:      re.Count,
			Sets:       re.Sets,
		})
	}
	s.opts.cache.SetJSON(ctx, key, detail, s.opts.cacheTTL)
	return detail, nil
}

// DeleteByIDs removes the routines of owner together with their exercises and
// bookmarks. Nothing is deleted when any id is unknown or owned by someone else.
func (s *RoutineService) DeleteByIDs(ctx context.Context, owner uuid.UUID, ids []uint) error {
	ids = utils.Unique(ids)
	if len(ids) == 0 {
		return fmt.Errorf("no routine ids: %w", ErrInvalidRequest)
	}
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		routines, err := tx.Routines().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(routines) != len(ids) {
			return fmt.Errorf("routines %v: %w", missingIDs(ids, routineIDs(routines)), ErrNotFoundEntity)
		}
		for _, r := range routines {
			if !r.IsOwnedBy(owner) {
				return fmt.Errorf("routine %d: %w", r.ID, ErrInaccessibleEntity)
			}
		}
		if err := tx.RoutineExercises().DeleteByRoutineIDs(ctx, ids); err != nil {
			return err
		}
		if err := tx.Bookmarks().DeleteByRoutineIDs(ctx, ids); err != nil {
			return err
		}
		return tx.Routines().DeleteByIDs(ctx, ids)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, ids...)
	return nil
}

// AddExercises appends exercises to the routine after its last position.
// The same exercise may appear more than once.
func (s *RoutineService) AddExercises(ctx context.Context, routineID uint, exerciseIDs []uint) error {
	if len(exerciseIDs) == 0 {
		return fmt.Errorf("no exercise ids: %w", ErrInvalidRequest)
	}
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		routine, err := tx.Routines().FindByID(ctx, routineID)
		if err != nil {
			return err
		}
		if routine == nil {
			return fmt.Errorf("routine %d: %w", routineID, ErrNotFoundEntity)
		}
		distinct := utils.Unique(exerciseIDs)
		found, err := tx.Exercises().FindByIDs(ctx, distinct)
		if err != nil {
			return err
		}
		if len(found) != len(distinct) {
			known := make([]uint, 0, len(found))
			for _, e := range found {
				known = append(known, e.ID)
			}
			return fmt.Errorf("exercises %v: %w", missingIDs(distinct, known), ErrNotFoundEntity)
		}
		last, err := tx.RoutineExercises().MaxPosition(ctx, routineID)
		if err != nil {
			return err
		}
		items := make([]models.RoutineExercise, 0, len(exerciseIDs))
		for i, exerciseID := range exerciseIDs {
			items = append(items, models.RoutineExercise{
				RoutineID:  routineID,
				ExerciseID: exerciseID,
				Position:   last + i + 1,
				Count:      1,
				Sets:       1,
			})
		}
		return tx.RoutineExercises().CreateBatch(ctx, items)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, routineID)
	return nil
}

// UpdateTitle replaces the title of the routine.
func (s *RoutineService) UpdateTitle(ctx context.Context, routineID uint, title string) error {
	clean, err := cleanTitle(title)
	if err != nil {
		return err
	}
	routine, err := s.store.Routines().FindByID(ctx, routineID)
	if err != nil {
		return err
	}
	if routine == nil {
		return fmt.Errorf("routine %d: %w", routineID, ErrNotFoundEntity)
	}
	if err := s.store.Routines().UpdateTitle(ctx, routineID, clean); err != nil {
		return err
	}
	s.invalidate(ctx, routineID)
	return nil
}

// DeleteExercises removes routine entries. Remaining positions are not renumbered.
func (s *RoutineService) DeleteExercises(ctx context.Context, routineExerciseIDs []uint) error {
	ids := utils.Unique(routineExerciseIDs)
	if len(ids) == 0 {
		return fmt.Errorf("no routine exercise ids: %w", ErrInvalidRequest)
	}
	var touched []uint
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		entries, err := tx.RoutineExercises().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(entries) != len(ids) {
			return fmt.Errorf("routine exercises %v do not exist: %w", missingIDs(ids, entryIDs(entries)), ErrInvalidRequest)
		}
		touched = parentRoutineIDs(entries)
		return tx.RoutineExercises().DeleteByIDs(ctx, ids)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, touched...)
	return nil
}

// UpdateRoutineExerciseOrder assigns positions 1..N in the given order. The list
// must name every entry of exactly one routine, each once.
func (s *RoutineService) UpdateRoutineExerciseOrder(ctx context.Context, orderedIDs []uint) error {
	if len(orderedIDs) == 0 {
		return fmt.Errorf("empty order: %w", ErrInvalidRequest)
	}
	if utils.HasDuplicates(orderedIDs) {
		return fmt.Errorf("order lists an entry twice: %w", ErrInvalidRequest)
	}
	var routineID uint
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		entries, err := tx.RoutineExercises().FindByIDs(ctx, orderedIDs)
		if err != nil {
			return err
		}
		if len(entries) != len(orderedIDs) {
			return fmt.Errorf("routine exercises %v do not exist: %w", missingIDs(orderedIDs, entryIDs(entries)), ErrInvalidRequest)
		}
		parents := parentRoutineIDs(entries)
		if len(parents) != 1 {
			return fmt.Errorf("order spans routines %v: %w", parents, ErrInvalidRequest)
		}
		routineID = parents[0]
		total, err := tx.RoutineExercises().CountByRoutineID(ctx, routineID)
		if err != nil {
			return err
		}
		if total != int64(len(orderedIDs)) {
			return fmt.Errorf("order names %d of %d entries of routine %d: %w", len(orderedIDs), total, routineID, ErrInvalidRequest)
		}
		// Park every entry on a negative position first so the unique
		// (routine, position) index holds between the two passes.
		for i, id := range orderedIDs {
			if err := tx.RoutineExercises().UpdatePosition(ctx, id, -(i + 1)); err != nil {
				return err
			}
		}
		for i, id := range orderedIDs {
			if err := tx.RoutineExercises().UpdatePosition(ctx, id, i+1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, routineID)
	return nil
}

// UpdateRoutineExercise changes the count or sets of one entry.
func (s *RoutineService) UpdateRoutineExercise(ctx context.Context, id uint, req UpdateRoutineExerciseRequest) error {
	if req.Count == nil && req.Sets == nil {
		return fmt.Errorf("nothing to update: %w", ErrInvalidRequest)
	}
	if (req.Count != nil && *req.Count < 1) || (req.Sets != nil && *req.Sets < 1) {
		return fmt.Errorf("count and sets must be positive: %w", ErrInvalidRequest)
	}
	entry, err := s.store.RoutineExercises().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("routine exercise %d: %w", id, ErrNotFoundEntity)
	}
	count, sets := entry.Count, entry.Sets
	if req.Count != nil {
		count = *req.Count
	}
	if req.Sets != nil {
		sets = *req.Sets
	}
	if err := s.store.RoutineExercises().UpdateQuantities(ctx, id, count, sets); err != nil {
		return err
	}
	s.invalidate(ctx, entry.RoutineID)
	return nil
}

// Bookmark toggles the bookmark of requester on the routine and returns the new state.
func (s *RoutineService) Bookmark(ctx context.Context, routineID uint, requester uuid.UUID) (bool, error) {
	var bookmarked bool
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		routine, err := tx.Routines().FindByID(ctx, routineID)
		if err != nil {
			return err
		}
		if routine == nil {
			return fmt.Errorf("routine %d: %w", routineID, ErrNotFoundEntity)
		}
		existing, err := tx.Bookmarks().Find(ctx, requester, routineID)
		if err != nil {
			return err
		}
		if existing != nil {
			bookmarked = false
			return tx.Bookmarks().Delete(ctx, existing.ID)
		}
		bookmarked = true
		return tx.Bookmarks().Create(ctx, &models.RoutineBookmark{UserID: requester, RoutineID: routineID})
	})
	if errors.Is(err, repositories.ErrDuplicate) {
		// a concurrent toggle inserted the same bookmark first
		return true, nil
	}
	if err != nil {
		return false, err
	}
	s.opts.logger.Debug("bookmark toggled",
		zap.Uint("routine_id", routineID),
		zap.String("user_id", requester.String()),
		zap.Bool("bookmarked", bookmarked))
	return bookmarked, nil
}

// DeleteBookmark removes the bookmarks of requester on the given routines.
// Routines that were not bookmarked are skipped; unknown routines fail the call.
func (s *RoutineService) DeleteBookmark(ctx context.Context, requester uuid.UUID, targets []uint) error {
	ids := utils.Unique(targets)
	if len(ids) == 0 {
		return fmt.Errorf("no routine ids: %w", ErrInvalidRequest)
	}
	return s.store.WithTx(ctx, func(tx repositories.Store) error {
		routines, err := tx.Routines().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(routines) != len(ids) {
			return fmt.Errorf("routines %v: %w", missingIDs(ids, routineIDs(routines)), ErrNotFoundEntity)
		}
		return tx.Bookmarks().DeleteByUserAndRoutineIDs(ctx, requester, ids)
	})
}

func (s *RoutineService) summaries(ctx context.Context, requester uuid.UUID, routines []models.Routine) ([]RoutineSummary, error) {
	marked, err := s.store.Bookmarks().BookmarkedAmong(ctx, requester, routineIDs(routines))
	if err != nil {
		return nil, err
	}
	out := make([]RoutineSummary, 0, len(routines))
	for _, r := range routines {
		sum := toSummary(r)
		sum.IsBookmarked = marked[r.ID]
		out = append(out, sum)
	}
	return out, nil
}

func (s *RoutineService) invalidate(ctx context.Context, ids ...uint) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, routineDetailKey(id))
	}
	s.opts.cache.Delete(ctx, keys...)
}

func routineDetailKey(id uint) string {
	return routineDetailKeyPrefix + strconv.FormatUint(uint64(id), 10)
}

func toSummary(r models.Routine) RoutineSummary {
	return RoutineSummary{
		ID:            r.ID,
		Title:         r.Title,
		ExerciseCount: len(r.Exercises),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func cleanTitle(title string) (string, error) {
	clean := utils.SanitizeText(title)
	if clean == "" {
		return "", fmt.Errorf("title is empty: %w", ErrInvalidRequest)
	}
	if len([]rune(clean)) > maxTitleLength {
		return "", fmt.Errorf("title longer than %d characters: %w", maxTitleLength, ErrInvalidRequest)
	}
	return clean, nil
}

func routineIDs(routines []models.Routine) []uint {
	ids := make([]uint, 0, len(routines))
	for _, r := range routines {
		ids = append(ids, r.ID)
	}
	return ids
}

func entryIDs(entries []models.RoutineExercise) []uint {
	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func parentRoutineIDs(entries []models.RoutineExercise) []uint {
	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.RoutineID)
	}
	return utils.Unique(ids)
}

// missingIDs returns the members of want that are not in have.
func missingIDs(want, have []uint) []uint {
	seen := make(map[uint]struct{}, len(have))
	for _, id := range have {
		seen[id] = struct{}{}
	}
	var missing []uint
	for _, id := range want {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
