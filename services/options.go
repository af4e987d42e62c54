package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/coachmybody/server/events"
	"github.com/coachmybody/server/utils"
)

const (
	defaultTokenTTL = 24 * time.Hour
	defaultCacheTTL = 10 * time.Minute
	// bounds one event publish, which runs after the request has returned
	defaultPublishTimeout = 5 * time.Second
)

type options struct {
	now       func() time.Time
	tokenTTL  time.Duration
	logger    *zap.Logger
	cache     utils.Cache
	cacheTTL  time.Duration
	publisher events.Publisher
	topic     string

	publishTimeout time.Duration
}

// Option configures a service.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithTokenTTL sets how long an access token stays valid.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.tokenTTL = ttl
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCache enables read-through caching of routine details.
func WithCache(cache utils.Cache, ttl time.Duration) Option {
	return func(o *options) {
		if cache != nil {
			o.cache = cache
		}
		if ttl > 0 {
			o.cacheTTL = ttl
		}
	}
}

// WithPublisher sends domain events to topic through p.
func WithPublisher(p events.Publisher, topic string) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
		o.topic = topic
	}
}

// WithPublishTimeout limits how long a single event publish may take.
func WithPublishTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.publishTimeout = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:       time.Now,
		tokenTTL:  defaultTokenTTL,
		logger:    zap.NewNop(),
		cache:     utils.NopCache{},
		cacheTTL:  defaultCacheTTL,
		publisher: events.NopPublisher{},

		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
