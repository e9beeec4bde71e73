package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CodeRecord is a pending sign-in code
type CodeRecord struct {
	Hash     string
	Attempts int
}

// Store keeps sign-in codes, resend cooldowns and refresh tokens
type Store interface {
	// AcquireCooldown returns false if a code was requested for id within ttl.
	AcquireCooldown(ctx context.Context, id Identifier, ttl time.Duration) (bool, error)
	SaveCode(ctx context.Context, id Identifier, hash string, ttl time.Duration) error
	// GetCode returns nil when no live code exists.
	GetCode(ctx context.Context, id Identifier) (*CodeRecord, error)
	// IncrementAttempts returns the attempt count including this one, or 0
	// when no live code exists.
	IncrementAttempts(ctx context.Context, id Identifier) (int, error)
	DeleteCode(ctx context.Context, id Identifier) error

	SaveRefresh(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error
	GetRefresh(ctx context.Context, tokenHash string) (uuid.UUID, error)
	DeleteRefresh(ctx context.Context, tokenHash string) error
}

func codeKey(id Identifier) string     { return "auth:code:" + id.Value }
func cooldownKey(id Identifier) string { return "auth:cooldown:" + id.Value }
func refreshKey(hash string) string    { return "refresh:" + hash }

// redisStore implements Store on Redis
type redisStore struct {
	client *redis.Client
	locker *redislock.Client
}

// NewRedisStore creates a Redis-backed Store
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client, locker: redislock.New(client)}
}

// AcquireCooldown takes a lock that is never released, so it expires after ttl
func (s *redisStore) AcquireCooldown(ctx context.Context, id Identifier, ttl time.Duration) (bool, error) {
	_, err := s.locker.Obtain(ctx, cooldownKey(id), ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("obtain cooldown: %w", err)
	}
	return true, nil
}

func (s *redisStore) SaveCode(ctx context.Context, id Identifier, hash string, ttl time.Duration) error {
	key := codeKey(id)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "hash", hash, "attempts", 0)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save code: %w", err)
	}
	return nil
}

func (s *redisStore) GetCode(ctx context.Context, id Identifier) (*CodeRecord, error) {
	vals, err := s.client.HGetAll(ctx, codeKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get code: %w", err)
	}
	if vals["hash"] == "" {
		return nil, nil
	}
	attempts, _ := strconv.Atoi(vals["attempts"])
	return &CodeRecord{Hash: vals["hash"], Attempts: attempts}, nil
}

// incrementIfExists keeps HINCRBY from recreating an expired code without a TTL
var incrementIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`)

func (s *redisStore) IncrementAttempts(ctx context.Context, id Identifier) (int, error) {
	n, err := incrementIfExists.Run(ctx, s.client, []string{codeKey(id)}).Int()
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	return int(n), nil
}

func (s *redisStore) DeleteCode(ctx context.Context, id Identifier) error {
	return s.client.Del(ctx, codeKey(id)).Err()
}

func (s *redisStore) SaveRefresh(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error {
	return s.client.Set(ctx, refreshKey(tokenHash), userID.String(), ttl).Err()
}

func (s *redisStore) GetRefresh(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, refreshKey(tokenHash)).Result()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

func (s *redisStore) DeleteRefresh(ctx context.Context, tokenHash string) error {
	return s.client.Del(ctx, refreshKey(tokenHash)).Err()
}

// memoryStore implements Store in process memory, for development without Redis.
// State is lost on restart and not shared between instances.
type memoryStore struct {
	mu        sync.Mutex
	now       func() time.Time
	codes     map[string]memoryCode
	cooldowns map[string]time.Time
	refresh   map[string]memoryRefresh
}

type memoryCode struct {
	record    CodeRecord
	expiresAt time.Time
}

type memoryRefresh struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// NewMemoryStore creates an in-process Store
func NewMemoryStore() Store {
	return newMemoryStore(time.Now)
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{
		now:       now,
		codes:     make(map[string]memoryCode),
		cooldowns: make(map[string]time.Time),
		refresh:   make(map[string]memoryRefresh),
	}
}

func (s *memoryStore) AcquireCooldown(ctx context.Context, id Identifier, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until, ok := s.cooldowns[id.Value]; ok && s.now().Before(until) {
		return false, nil
	}
	s.cooldowns[id.Value] = s.now().Add(ttl)
	return true, nil
}

func (s *memoryStore) SaveCode(ctx context.Context, id Identifier, hash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[id.Value] = memoryCode{record: CodeRecord{Hash: hash}, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryStore) GetCode(ctx context.Context, id Identifier) (*CodeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[id.Value]
	if !ok || !s.now().Before(c.expiresAt) {
		delete(s.codes, id.Value)
		return nil, nil
	}
	rec := c.record
	return &rec, nil
}

func (s *memoryStore) IncrementAttempts(ctx context.Context, id Identifier) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[id.Value]
	if !ok || !s.now().Before(c.expiresAt) {
		delete(s.codes, id.Value)
		return 0, nil
	}
	c.record.Attempts++
	s.codes[id.Value] = c
	return c.record.Attempts, nil
}

func (s *memoryStore) DeleteCode(ctx context.Context, id Identifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, id.Value)
	return nil
}

func (s *memoryStore) SaveRefresh(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[tokenHash] = memoryRefresh{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryStore) GetRefresh(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.refresh[tokenHash]
	if !ok || !s.now().Before(r.expiresAt) {
		delete(s.refresh, tokenHash)
		return uuid.Nil, ErrInvalidRefreshToken
	}
	return r.userID, nil
}

func (s *memoryStore) DeleteRefresh(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, tokenHash)
	return nil
}
