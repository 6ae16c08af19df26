package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jjudge-oj/usersapi/internal/logging"
	"github.com/jjudge-oj/usersapi/types"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "users:"

// Users is the repository contract the cache decorates.
type Users interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByPasswordHash(ctx context.Context, hash string) (types.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (types.User, error)
	Update(ctx context.Context, id int, name, email string) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	Delete(ctx context.Context, id int) error
}

// RedisClient is the subset of the go-redis client the cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedUserRepository serves GetByID from Redis and drops the entry on
// every write to that user. Cache errors never fail a request.
type CachedUserRepository struct {
	Users
	client RedisClient
	ttl    time.Duration
	log    logging.Logger
}

func NewCachedUserRepository(next Users, client RedisClient, ttl time.Duration, log logging.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		Users:  next,
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// cachedUser mirrors types.User including the hash, which types.User hides from JSON.
type cachedUser struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func cacheKey(id int) string {
	return cacheKeyPrefix + strconv.Itoa(id)
}

func (r *CachedUserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	key := cacheKey(id)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedUser
		if err := json.Unmarshal(raw, &cached); err == nil {
			return types.User(cached), nil
		}
		r.log.Warn(ctx, "discarding malformed cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		r.log.Warn(ctx, "cache read failed", "key", key, "error", err)
	}

	user, err := r.Users.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	if data, err := json.Marshal(cachedUser(user)); err == nil {
		if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
			r.log.Warn(ctx, "cache write failed", "key", key, "error", err)
		}
	}
	return user, nil
}

func (r *CachedUserRepository) Update(ctx context.Context, id int, name, email string) error {
	err := r.Users.Update(ctx, id, name, email)
	r.invalidate(ctx, id)
	return err
}

func (r *CachedUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	err := r.Users.UpdatePassword(ctx, id, passwordHash)
	r.invalidate(ctx, id)
	return err
}

func (r *CachedUserRepository) Delete(ctx context.Context, id int) error {
	err := r.Users.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id int) {
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		r.log.Warn(ctx, "cache invalidation failed", "user_id", id, "error", err)
	}
}
