package site

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Scheme is a color-scheme choice.
type Scheme string

const (
	// Automatic follows the browser's preference.
	Automatic Scheme = "light dark"
	Light     Scheme = "light"
	Dark      Scheme = "dark"
)

// ErrUnknownScheme is returned for values other than the three schemes.
var ErrUnknownScheme = errors.New("unknown color scheme")

// ParseScheme validates s. The empty string means Automatic.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case "", Automatic:
		return Automatic, nil
	case Light, Dark:
		return Scheme(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScheme, s)
}

// Preferences stores each visitor's forced scheme. A visitor without an
// entry uses Automatic.
type Preferences interface {
	Get(ctx context.Context, visitor string) (Scheme, error)
	// Set stores a forced scheme. Setting Automatic forgets the visitor.
	Set(ctx context.Context, visitor string, s Scheme) error
	Close() error
}

// MemoryPreferences keeps preferences in process memory.
type MemoryPreferences struct {
	mu      sync.RWMutex
	schemes map[string]Scheme
}

// NewMemoryPreferences returns an empty in-memory store.
func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{schemes: make(map[string]Scheme)}
}

func (m *MemoryPreferences) Get(_ context.Context, visitor string) (Scheme, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.schemes[visitor]; ok {
		return s, nil
	}
	return Automatic, nil
}

func (m *MemoryPreferences) Set(_ context.Context, visitor string, s Scheme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == Automatic {
		delete(m.schemes, visitor)
		return nil
	}
	m.schemes[visitor] = s
	return nil
}

func (m *MemoryPreferences) Close() error { return nil }

// RedisPreferences keeps preferences in Redis under <prefix>:scheme:<visitor>.
type RedisPreferences struct {
	rdb       redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisPreferences wraps rdb. A zero ttl keeps entries forever.
func NewRedisPreferences(rdb redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisPreferences {
	if keyPrefix == "" {
		keyPrefix = "portfolio"
	}
	return &RedisPreferences{rdb: rdb, keyPrefix: keyPrefix, ttl: ttl}
}

func (r *RedisPreferences) key(visitor string) string {
	return r.keyPrefix + ":scheme:" + visitor
}

func (r *RedisPreferences) Get(ctx context.Context, visitor string) (Scheme, error) {
	v, err := r.rdb.Get(ctx, r.key(visitor)).Result()
	if err == redis.Nil {
		return Automatic, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading scheme: %w", err)
	}
	s, err := ParseScheme(v)
	if err != nil {
		return Automatic, nil
	}
	return s, nil
}

func (r *RedisPreferences) Set(ctx context.Context, visitor string, s Scheme) error {
	if s == Automatic {
		if err := r.rdb.Del(ctx, r.key(visitor)).Err(); err != nil {
			return fmt.Errorf("clearing scheme: %w", err)
		}
		return nil
	}
	if err := r.rdb.Set(ctx, r.key(visitor), string(s), r.ttl).Err(); err != nil {
		return fmt.Errorf("saving scheme: %w", err)
	}
	return nil
}

func (r *RedisPreferences) Close() error {
	return r.rdb.Close()
}
