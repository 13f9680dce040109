// Package redisstore shares pending confirmations between processes through
// Redis. The token itself is never written; records are keyed by its salted
// hash.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/adsops/adsops/application/port/outbound"
	"github.com/adsops/adsops/domain/entity"
	domainerr "github.com/adsops/adsops/domain/error"
	"github.com/adsops/adsops/infrastructure/store"
)

// putScript stores a record only if its key is free.
// KEYS[1] key; ARGV[1] record JSON, ARGV[2] expires_at ms, ARGV[3] key TTL ms.
var putScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'record', ARGV[1], 'consumed', '0', 'expires_at_ms', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// consumeScript is the whole check-and-set; Redis runs it without interleaving.
// KEYS[1] key; ARGV[1] now ms.
// Returns {0} not found, {1} consumed, {2} expired, {3, record} granted.
var consumeScript = redis.NewScript(`
local rec = redis.call('HGET', KEYS[1], 'record')
if not rec then
  return {0}
end
if redis.call('HGET', KEYS[1], 'consumed') == '1' then
  return {1}
end
local expiresRaw = redis.call('HGET', KEYS[1], 'expires_at_ms')
local expires = tonumber(expiresRaw)
if expires == nil or tonumber(ARGV[1]) >= expires then
  return {2, expiresRaw or ''}
end
redis.call('HSET', KEYS[1], 'consumed', '1', 'consumed_at_ms', ARGV[1])
return {3, rec}
`)

const (
	consumeNotFound int64 = iota
	consumeAlreadyConsumed
	consumeExpired
	consumeGranted
)

// Config configuration untuk Redis confirmation store
type Config struct {
	KeyPrefix string
	Salt      string
	Retention time.Duration
}

// ConfirmationStore implements outbound.ConfirmationStore on Redis hashes
type ConfirmationStore struct {
	client    *redis.Client
	prefix    string
	salt      string
	retention time.Duration
	logger    *logrus.Logger
}

var _ outbound.ConfirmationStore = (*ConfirmationStore)(nil)

func NewConfirmationStore(client *redis.Client, config Config, logger *logrus.Logger) *ConfirmationStore {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "adsops:confirm:"
	}
	if config.Retention <= 0 {
		config.Retention = store.DefaultRetention
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ConfirmationStore{
		client:    client,
		prefix:    config.KeyPrefix,
		salt:      config.Salt,
		retention: config.Retention,
		logger:    logger,
	}
}

// NewClient parses a redis:// URL and verifies the connection
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (s *ConfirmationStore) key(token string) string {
	return s.prefix + store.HashToken(token, s.salt)
}

func (s *ConfirmationStore) GenerateToken() (string, error) {
	return store.GenerateToken()
}

func (s *ConfirmationStore) Put(ctx context.Context, pc *entity.PendingConfirmation) error {
	if pc == nil || pc.Token == "" {
		return domainerr.NewStoreError("put", nil)
	}

	payload, err := json.Marshal(pc)
	if err != nil {
		return domainerr.NewStoreError("encode confirmation", err)
	}

	ttl := time.Until(pc.ExpiresAt) + s.retention
	if ttl <= 0 {
		ttl = s.retention
	}

	stored, err := putScript.Run(ctx, s.client, []string{s.key(pc.Token)},
		string(payload), pc.ExpiresAt.UnixMilli(), ttl.Milliseconds()).Int64()
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to store confirmation")
		return domainerr.NewStoreError("put", err)
	}
	if stored == 0 {
		return domainerr.NewAppError(domainerr.ErrCodeStore, domainerr.ErrStore.Message, "token already stored", nil)
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"confirmation_id": pc.ID,
		"operation":       pc.DryRun.OperationName,
		"expires_at":      pc.ExpiresAt,
	}).Debug("Confirmation stored")
	return nil
}

func (s *ConfirmationStore) Consume(ctx context.Context, token string, now time.Time) (*entity.PendingConfirmation, error) {
	if token == "" {
		return nil, domainerr.NewTokenNotFoundError()
	}

	raw, err := consumeScript.Run(ctx, s.client, []string{s.key(token)}, now.UnixMilli()).Slice()
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to consume confirmation")
		return nil, domainerr.NewStoreError("consume", err)
	}
	if len(raw) == 0 {
		return nil, domainerr.NewStoreError("consume", fmt.Errorf("empty script reply"))
	}

	status, ok := raw[0].(int64)
	if !ok {
		return nil, domainerr.NewStoreError("consume", fmt.Errorf("unexpected script status %T", raw[0]))
	}

	switch status {
	case consumeNotFound:
		return nil, domainerr.NewTokenNotFoundError()
	case consumeAlreadyConsumed:
		return nil, domainerr.NewTokenAlreadyConsumedError()
	case consumeExpired:
		expiredAt := ""
		if len(raw) > 1 {
			if ms, err := strconv.ParseInt(fmt.Sprint(raw[1]), 10, 64); err == nil {
				expiredAt = time.UnixMilli(ms).UTC().Format(time.RFC3339)
			}
		}
		return nil, domainerr.NewTokenExpiredError(expiredAt)
	case consumeGranted:
	default:
		return nil, domainerr.NewStoreError("consume", fmt.Errorf("unknown script status %d", status))
	}

	if len(raw) < 2 {
		return nil, domainerr.NewStoreError("consume", fmt.Errorf("granted without record"))
	}
	payload, ok := raw[1].(string)
	if !ok {
		return nil, domainerr.NewStoreError("consume", fmt.Errorf("unexpected record type %T", raw[1]))
	}

	var pc entity.PendingConfirmation
	if err := json.Unmarshal([]byte(payload), &pc); err != nil {
		// The token is already burned; the caller must start over.
		return nil, domainerr.NewStoreError("decode confirmation", err)
	}
	pc.Token = token
	pc.MarkConsumed(now)
	return &pc, nil
}

// Purge is a no-op: Redis expires keys after TTL plus retention.
func (s *ConfirmationStore) Purge(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
