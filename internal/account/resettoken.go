package account

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ResetTokens issues single-use password-reset tokens.
type ResetTokens interface {
	// Issue stores a fresh token for userID that lapses after ttl.
	Issue(ctx context.Context, userID int64, ttl time.Duration) (string, error)
	// Consume returns the owner of token and invalidates it. ok is false
	// for unknown, expired or already used tokens.
	Consume(ctx context.Context, token string) (userID int64, ok bool, err error)
}

const resetKeyPrefix = "attendance:reset:"

// RedisResetTokens keeps tokens in Redis with a TTL and consumes them with
// GETDEL, so two concurrent resets cannot both succeed.
type RedisResetTokens struct {
	client *redis.Client
}

func NewRedisResetTokens(client *redis.Client) *RedisResetTokens {
	return &RedisResetTokens{client: client}
}

func (t *RedisResetTokens) Issue(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := t.client.Set(ctx, resetKeyPrefix+token, strconv.FormatInt(userID, 10), ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (t *RedisResetTokens) Consume(ctx context.Context, token string) (int64, bool, error) {
	val, err := t.client.GetDel(ctx, resetKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}

// MemoryResetTokens is the in-process store used with the memory queue
// backend and in tests.
type MemoryResetTokens struct {
	mu     sync.Mutex
	tokens map[string]memToken
	now    func() time.Time
}

type memToken struct {
	userID  int64
	expires time.Time
}

func NewMemoryResetTokens() *MemoryResetTokens {
	return &MemoryResetTokens{tokens: make(map[string]memToken), now: time.Now}
}

func (t *MemoryResetTokens) Issue(_ context.Context, userID int64, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens[token] = memToken{userID: userID, expires: t.now().Add(ttl)}
	return token, nil
}

func (t *MemoryResetTokens) Consume(_ context.Context, token string) (int64, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tok, ok := t.tokens[token]
	if !ok {
		return 0, false, nil
	}
	delete(t.tokens, token)
	if !t.now().Before(tok.expires) {
		return 0, false, nil
	}
	return tok.userID, true, nil
}
