package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachmybody/server/events"
	"github.com/coachmybody/server/models"
	"github.com/coachmybody/server/testutil"
)

func TestRecordService_CreatePublishesEvent(t *testing.T) {
	ctx := context.Background()
	db, store := newStore(t)
	user := testutil.CreateUser(t, db, "athlete")
	ex := testutil.SeedExercises(t, db, "row", "pull up")
	pub := &recordingPublisher{}
	now := time.Date(2026, 6, 1, 7, 30, 0, 0, time.UTC)
	svc := NewRecordService(store, WithPublisher(pub, "records"), WithClock(func() time.Time { return now }))

	record, err := svc.Create(ctx, user.ID, CreateRecordRequest{
		DurationSeconds: 1800,
		Exercises: []RecordExerciseInput{
			{ExerciseID: ex[0].ID, Count: 10, Sets: 3, Weight: 40},
			{ExerciseID: ex[1].ID, Count: 8},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, record.ID)
	assert.True(t, record.PerformedAt.Equal(now))
	assert.Equal(t, 1, record.Exercises[1].Sets, "sets default to one")

	var stored int64
	require.NoError(t, db.Model(&models.RecordExercise{}).Where("record_id = ?", record.ID).Count(&stored).Error)
	assert.EqualValues(t, 2, stored)

	svc.Wait()
	require.Len(t, pub.events, 1)
	assert.Equal(t, "records", pub.topics[0])
	assert.Equal(t, events.TypeRecordCreated, pub.events[0].Type)
	assert.Equal(t, user.ID.String(), pub.events[0].Key)
	payload := pub.events[0].Payload.(events.RecordCreated)
	assert.Equal(t, record.ID, payload.RecordID)
	assert.Equal(t, []uint{ex[0].ID, ex[1].ID}, payload.ExerciseIDs)
}

func TestRecordService_CreateSurvivesPublishFailure(t *testing.T) {
	ctx := context.Background()
	db, store := newStore(t)
	user := testutil.CreateUser(t, db, "athlete")
	ex := testutil.SeedExercises(t, db, "row")
	svc := NewRecordService(store, WithPublisher(&recordingPublisher{fail: true}, "records"))

	_, err := svc.Create(ctx, user.ID, CreateRecordRequest{Exercises: []RecordExerciseInput{{ExerciseID: ex[0].ID, Count: 1}}})
	assert.NoError(t, err)
	svc.Wait()
}

func TestRecordService_CreateDoesNotWaitForStalledBroker(t *testing.T) {
	db, store := newStore(t)
	user := testutil.CreateUser(t, db, "athlete")
	ex := testutil.SeedExercises(t, db, "row")
	pub := &stallingPublisher{started: make(chan struct{}), done: make(chan error, 1)}
	svc := NewRecordService(store, WithPublisher(pub, "records"), WithPublishTimeout(50*time.Millisecond))

	reqCtx, cancelReq := context.WithCancel(context.Background())
	_, err := svc.Create(reqCtx, user.ID, CreateRecordRequest{Exercises: []RecordExerciseInput{{ExerciseID: ex[0].ID, Count: 1}}})
	require.NoError(t, err)
	// the request is over; the publish keeps its own deadline
	cancelReq()

	select {
	case <-pub.started:
	case <-time.After(time.Second):
		t.Fatal("event was never published")
	}
	select {
	case <-pub.done:
		t.Fatal("publish finished before its deadline")
	default:
	}

	svc.Wait()
	assert.ErrorIs(t, <-pub.done, context.DeadlineExceeded)
}

func TestRecordService_CreateRejectsUnknownReferences(t *testing.T) {
	ctx := context.Background()
	db, store := newStore(t)
	user := testutil.CreateUser(t, db, "athlete")
	ex := testutil.SeedExercises(t, db, "row")
	svc := NewRecordService(store)

	_, err := svc.Create(ctx, user.ID, CreateRecordRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Create(ctx, user.ID, CreateRecordRequest{Exercises: []RecordExerciseInput{{ExerciseID: 9999, Count: 1}}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	missing := uint(4242)
	_, err = svc.Create(ctx, user.ID, CreateRecordRequest{
		RoutineID: &missing,
		Exercises: []RecordExerciseInput{{ExerciseID: ex[0].ID, Count: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	var n int64
	require.NoError(t, db.Model(&models.Record{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRecordService_FindMyRecordsNewestFirst(t *testing.T) {
	ctx := context.Background()
	db, store := newStore(t)
	user := testutil.CreateUser(t, db, "athlete")
	ex := testutil.SeedExercises(t, db, "row")
	svc := NewRecordService(store)

	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		_, err := svc.Create(ctx, user.ID, CreateRecordRequest{
			PerformedAt: &at,
			Exercises:   []RecordExerciseInput{{ExerciseID: ex[0].ID, Count: i + 1}},
		})
		require.NoError(t, err)
	}

	page, err := svc.FindMyRecords(ctx, user.ID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Items[0].Exercises[0].Count)
	assert.Equal(t, 2, page.Items[1].Exercises[0].Count)

	last, err := svc.FindMyRecords(ctx, user.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Equal(t, 1, last.Items[0].Exercises[0].Count)
}

func TestExerciseService(t *testing.T) {
	ctx := context.Background()
	db, store := newStore(t)
	ex := testutil.SeedExercises(t, db, "row")
	require.NoError(t, db.Create(&models.Exercise{Name: "plank", Category: "core"}).Error)
	svc := NewExerciseService(store)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	core, err := svc.List(ctx, "core")
	require.NoError(t, err)
	require.Len(t, core, 1)
	assert.Equal(t, "plank", core[0].Name)

	got, err := svc.Get(ctx, ex[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "row", got.Name)

	_, err = svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFoundEntity)
}

func TestNormalizePage(t *testing.T) {
	page, size, offset := normalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, defaultPageSize, size)
	assert.Equal(t, 0, offset)

	page, size, offset = normalizePage(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, maxPageSize, size)
	assert.Equal(t, 2*maxPageSize, offset)
}
