package verificationcodes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// retention keeps an expired code readable for a while so a late attempt is
// reported as expired rather than invalid.
const retention = time.Hour

// deleteIfMatch removes the key only while it still holds the given code.
var deleteIfMatch = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then return 0 end
local rec = cjson.decode(v)
if rec.code ~= ARGV[1] then return 0 end
return redis.call("DEL", KEYS[1])
`)

type redisRecord struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisRepository keeps one JSON value per (purpose, email) key.
type RedisRepository struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisRepository(client redis.Cmdable) *RedisRepository {
	return &RedisRepository{client: client, now: time.Now}
}

func key(email string, purpose models.VerificationPurpose) string {
	return fmt.Sprintf("otp:%s:%s", purpose, email)
}

func (r *RedisRepository) Upsert(ctx context.Context, code *models.VerificationCode) error {
	now := r.now()
	code.CreatedAt = now

	data, err := json.Marshal(redisRecord{Code: code.Code, ExpiresAt: code.ExpiresAt, CreatedAt: now})
	if err != nil {
		return err
	}

	ttl := code.ExpiresAt.Sub(now) + retention
	if ttl <= 0 {
		ttl = retention
	}
	if err := r.client.Set(ctx, key(code.Email, code.Purpose), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Find(ctx context.Context, email, code string, purpose models.VerificationPurpose) (*models.VerificationCode, error) {
	raw, err := r.client.Get(ctx, key(email, purpose)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode code: %w", err)
	}
	if rec.Code != code {
		return nil, common.ErrorNotFound
	}

	return &models.VerificationCode{
		Email:     email,
		Purpose:   purpose,
		Code:      rec.Code,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func (r *RedisRepository) Delete(ctx context.Context, email, code string, purpose models.VerificationPurpose) error {
	n, err := deleteIfMatch.Run(ctx, r.client, []string{key(email, purpose)}, code).Int()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
