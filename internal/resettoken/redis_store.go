package resettoken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/tax-task-tracker/internal/models"
)

// expiredGrace keeps a token around past its expiry so that a late
// verification reports "expired" instead of "invalid".
const expiredGrace = time.Hour

// RedisStore keeps each token under its own key and indexes the tokens of a
// user in a set so they can be revoked together.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "reset-token:"}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + "user:" + userID
}

func (s *RedisStore) Save(ctx context.Context, token *models.PasswordResetToken) error {
	payload, err := json.Marshal(redisRecord{
		UserID:    token.UserID,
		Email:     token.Email,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: token.CreatedAt,
	})
	if err != nil {
		return err
	}
	ttl := time.Until(token.ExpiresAt) + expiredGrace
	if ttl <= 0 {
		ttl = time.Second
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(token.Token), payload, ttl)
		pipe.SAdd(ctx, s.userKey(token.UserID), token.Token)
		pipe.Expire(ctx, s.userKey(token.UserID), ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Get(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	return s.decode(token, raw, err)
}

// Consume relies on GETDEL, which Redis executes atomically.
func (s *RedisStore) Consume(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	raw, err := s.client.GetDel(ctx, s.key(token)).Bytes()
	return s.decode(token, raw, err)
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

// DeleteByUser removes the tokens listed in the user's index. Members that
// were already consumed or evicted are skipped by DEL.
func (s *RedisStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	members, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(members))
	for _, m := range members {
		keys = append(keys, s.key(m))
	}
	indexed := make([]interface{}, 0, len(members))
	for _, m := range members {
		indexed = append(indexed, m)
	}

	var removed *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, keys...)
		pipe.SRem(ctx, s.userKey(userID), indexed...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed.Val(), nil
}

// PurgeExpired is a no-op; Redis evicts keys by TTL.
func (s *RedisStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type redisRecord struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *RedisStore) decode(token string, raw []byte, err error) (*models.PasswordResetToken, error) {
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode reset token: %w", err)
	}
	return &models.PasswordResetToken{
		Token:     token,
		UserID:    rec.UserID,
		Email:     rec.Email,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}, nil
}
