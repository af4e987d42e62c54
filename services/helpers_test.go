package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coachmybody/server/events"
	"github.com/coachmybody/server/models"
	"github.com/coachmybody/server/repositories"
	"github.com/coachmybody/server/testutil"
	"github.com/coachmybody/server/utils"
)

var testSecret = []byte("test-secret")

func newStore(t *testing.T) (*gorm.DB, repositories.Store) {
	t.Helper()
	db := testutil.NewDB(t)
	return db, repositories.NewStore(db)
}

// memoryCache is an in-process utils.Cache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, out interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

func (c *memoryCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = b
	c.mu.Unlock()
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
		c.deletes = append(c.deletes, k)
	}
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

var _ utils.Cache = (*memoryCache)(nil)

// recordingPublisher keeps every event it is given.
type recordingPublisher struct {
	mu     sync.Mutex
	fail   bool
	topics []string
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// stallingPublisher blocks every publish until its context ends, like a
// broker that accepts connections but never acknowledges.
type stallingPublisher struct {
	started chan struct{}
	done    chan error
}

func (p *stallingPublisher) Publish(ctx context.Context, _ string, _ events.Event) error {
	close(p.started)
	<-ctx.Done()
	p.done <- ctx.Err()
	return ctx.Err()
}

func (p *stallingPublisher) Close() error { return nil }

// staleStore misses existing users and bookmarks on lookup, so the service
// takes the insert path a concurrent request would take on a real database.
type staleStore struct {
	repositories.Store
}

func (s staleStore) Users() repositories.UserRepository {
	return staleUsers{s.Store.Users()}
}

func (s staleStore) Bookmarks() repositories.BookmarkRepository {
	return staleBookmarks{s.Store.Bookmarks()}
}

func (s staleStore) WithTx(ctx context.Context, fn func(repositories.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repositories.Store) error {
		return fn(staleStore{tx})
	})
}

type staleUsers struct {
	repositories.UserRepository
}

func (staleUsers) FindBySocialID(context.Context, string) (*models.User, error) {
	return nil, nil
}

type staleBookmarks struct {
	repositories.BookmarkRepository
}

func (staleBookmarks) Find(context.Context, uuid.UUID, uint) (*models.RoutineBookmark, error) {
	return nil, nil
}
