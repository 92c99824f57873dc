package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// FailoverStore serves from the primary store and falls back to the
// secondary when the primary errors. The primary is retried after a
// cooldown.
type FailoverStore struct {
	primary   Store
	fallback  Store
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

const recoveryInterval = time.Minute

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *FailoverStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.usePrimary() {
		val, err := s.primary.Get(ctx, key)
		if err == nil {
			s.markUp()
			return val, nil
		}
		s.markDown(err)
	}
	return s.fallback.Get(ctx, key)
}

func (s *FailoverStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.usePrimary() {
		err := s.primary.Set(ctx, key, value, ttl)
		if err == nil {
			s.markUp()
			return nil
		}
		s.markDown(err)
	}
	return s.fallback.Set(ctx, key, value, ttl)
}

func (s *FailoverStore) Incr(ctx context.Context, key string) (int64, error) {
	if s.usePrimary() {
		n, err := s.primary.Incr(ctx, key)
		if err == nil {
			s.markUp()
			return n, nil
		}
		s.markDown(err)
	}
	return s.fallback.Incr(ctx, key)
}

func (s *FailoverStore) usePrimary() bool {
	if !s.isDown.Load() {
		return true
	}
	// Retry the primary once the cooldown has passed.
	last := time.Unix(0, s.lastCheck.Load())
	return time.Since(last) > recoveryInterval
}

func (s *FailoverStore) markUp() {
	s.isDown.Store(false)
}

func (s *FailoverStore) markDown(err error) {
	if !s.isDown.Load() {
		s.logger.Error().Err(err).Msg("Primary cache store failed, falling back to memory")
	}
	s.isDown.Store(true)
	s.lastCheck.Store(time.Now().UnixNano())
}
