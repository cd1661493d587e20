package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/utils"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/clause"
)

// Scope is a string key-value space holding session state.
type Scope interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Expirer is implemented by scopes that can drop a value at a deadline.
// Sweep removes the values whose deadline has passed by now.
type Expirer interface {
	SetUntil(ctx context.Context, key, value string, deadline time.Time) error
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type memoryEntry struct {
	value    string
	deadline time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.deadline.IsZero() && !now.Before(e.deadline)
}

// MemoryScope keeps values in process memory. It backs tab-scoped state,
// which does not survive a restart.
type MemoryScope struct {
	mu     sync.RWMutex
	values map[string]memoryEntry
}

func NewMemoryScope() *MemoryScope {
	return &MemoryScope{values: make(map[string]memoryEntry)}
}

func (m *MemoryScope) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.values[key]
	if !ok || e.expired(time.Now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryScope) Set(ctx context.Context, key, value string) error {
	return m.SetUntil(ctx, key, value, time.Time{})
}

func (m *MemoryScope) SetUntil(_ context.Context, key, value string, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = memoryEntry{value: value, deadline: deadline}
	return nil
}

func (m *MemoryScope) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryScope) Sweep(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, e := range m.values {
		if e.expired(now) {
			delete(m.values, key)
			removed++
		}
	}
	return removed, nil
}

// StoreScope persists values in the local store's local_entries table.
type StoreScope struct {
	store *db.Gateway
}

func NewStoreScope(store *db.Gateway) *StoreScope {
	return &StoreScope{store: store}
}

func (s *StoreScope) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, nil
	}
	conn, err := s.store.Open(ctx)
	if err != nil {
		return "", false, err
	}
	var entries []domain.LocalEntry
	err = conn.WithContext(ctx).
		Where(&domain.LocalEntry{Key: key}).
		Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC()).
		Limit(1).
		Find(&entries).Error
	if err != nil {
		return "", false, fmt.Errorf("reading local entry %q: %w", key, err)
	}
	if len(entries) == 0 {
		return "", false, nil
	}
	return entries[0].Value, true, nil
}

func (s *StoreScope) Set(ctx context.Context, key, value string) error {
	return s.SetUntil(ctx, key, value, time.Time{})
}

func (s *StoreScope) SetUntil(ctx context.Context, key, value string, deadline time.Time) error {
	conn, err := s.store.Open(ctx)
	if err != nil {
		return err
	}
	entry := domain.LocalEntry{Key: key, Value: value}
	if !deadline.IsZero() {
		at := deadline.UTC()
		entry.ExpiresAt = &at
	}
	err = conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("writing local entry %q: %w", key, err)
	}
	return nil
}

func (s *StoreScope) Delete(ctx context.Context, key string) error {
	conn, err := s.store.Open(ctx)
	if err != nil {
		return err
	}
	if err := conn.WithContext(ctx).Delete(&domain.LocalEntry{Key: key}).Error; err != nil {
		return fmt.Errorf("deleting local entry %q: %w", key, err)
	}
	return nil
}

func (s *StoreScope) Sweep(ctx context.Context, now time.Time) (int, error) {
	conn, err := s.store.Open(ctx)
	if err != nil {
		return 0, err
	}
	res := conn.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now.UTC()).
		Delete(&domain.LocalEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("sweeping local entries: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// RedisScope persists values in Redis. Deadlines become key TTLs, so Redis
// drops expired values itself.
type RedisScope struct {
	rdb utils.RedisCmdable
}

func NewRedisScope(rdb utils.RedisCmdable) *RedisScope {
	return &RedisScope{rdb: rdb}
}

func (r *RedisScope) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return val, true, nil
}

func (r *RedisScope) Set(ctx context.Context, key, value string) error {
	return r.SetUntil(ctx, key, value, time.Time{})
}

func (r *RedisScope) SetUntil(ctx context.Context, key, value string, deadline time.Time) error {
	var ttl time.Duration
	if !deadline.IsZero() {
		ttl = time.Until(deadline)
		if ttl <= 0 {
			return r.Delete(ctx, key)
		}
	}
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *RedisScope) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Sweep is a no-op: Redis expires keys on its own.
func (r *RedisScope) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// prefixed confines a scope to keys under prefix. Writes carry deadline
// when the scope supports expiry.
type prefixed struct {
	scope    Scope
	prefix   string
	deadline time.Time
}

func (p prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.scope.Get(ctx, p.prefix+key)
}

func (p prefixed) Set(ctx context.Context, key, value string) error {
	if e, ok := p.scope.(Expirer); ok && !p.deadline.IsZero() {
		return e.SetUntil(ctx, p.prefix+key, value, p.deadline)
	}
	return p.scope.Set(ctx, p.prefix+key, value)
}

func (p prefixed) Delete(ctx context.Context, key string) error {
	return p.scope.Delete(ctx, p.prefix+key)
}
