// Package repository implements signing-key persistence on the shared
// replicated key-value store.
package repository

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gocloud.dev/secrets"

	"github.com/dr0pmead/rplus-server-sub000/internal/clock"
	apperrors "github.com/dr0pmead/rplus-server-sub000/internal/errors"
	keysDomain "github.com/dr0pmead/rplus-server-sub000/internal/keys/domain"
)

const (
	// keyRecordPrefix prefixes each encrypted KeyMaterial record, keyed by key id.
	keyRecordPrefix = "signing_keys:record:"
	// keyIndexKey is the set of known key ids.
	keyIndexKey = "signing_keys:index"
	// activePointerKey holds the id of the key that signs new tokens.
	activePointerKey = "signing_keys:active"
)

// RedisKeyStore persists signing keys in Redis so every service instance sees
// the same key set. Records are encrypted with the keeper before storage and
// carry a TTL equal to their remaining validity; the known-keys index is
// reconciled lazily on reads.
type RedisKeyStore struct {
	client redis.UniversalClient
	keeper *secrets.Keeper
	clock  clock.Clock
	logger *slog.Logger
}

// NewRedisKeyStore creates a Redis-backed signing key store.
func NewRedisKeyStore(
	client redis.UniversalClient,
	keeper *secrets.Keeper,
	clk clock.Clock,
	logger *slog.Logger,
) *RedisKeyStore {
	return &RedisKeyStore{
		client: client,
		keeper: keeper,
		clock:  clk,
		logger: logger,
	}
}

// SaveActiveKey persists the key record with a TTL equal to its remaining
// validity, adds its id to the known-keys index, and promotes it to active.
// The write is an idempotent upsert: saving the same material twice is harmless,
// which is what makes redundant rotation across instances safe.
func (s *RedisKeyStore) SaveActiveKey(ctx context.Context, material *keysDomain.KeyMaterial) error {
	ttl := material.RemainingValidity(s.clock.Now())
	if ttl <= 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "signing key is already expired")
	}

	payload, err := json.Marshal(material)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal signing key")
	}

	ciphertext, err := s.keeper.Encrypt(ctx, payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to encrypt signing key")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyRecordPrefix+material.KeyID, ciphertext, ttl)
	pipe.SAdd(ctx, keyIndexKey, material.KeyID)
	pipe.Set(ctx, activePointerKey, material.KeyID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(err, "failed to save signing key")
	}

	return nil
}

// GetActiveKey resolves the active pointer to its key record.
// Returns nil without error when no active key exists (including a dangling
// pointer whose record has expired out of the store).
func (s *RedisKeyStore) GetActiveKey(ctx context.Context) (*keysDomain.KeyMaterial, error) {
	keyID, err := s.client.Get(ctx, activePointerKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "failed to read active key pointer")
	}

	material, err := s.getKey(ctx, keyID)
	if err != nil {
		if apperrors.Is(err, keysDomain.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return material, nil
}

// GetAllKeys returns every non-expired known key. As a side effect it
// reconciles the index: ids whose record is missing or expired are removed.
// A key that fails to decrypt is logged and excluded, never fatal to the read.
func (s *RedisKeyStore) GetAllKeys(ctx context.Context) ([]*keysDomain.KeyMaterial, error) {
	keyIDs, err := s.client.SMembers(ctx, keyIndexKey).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read known keys index")
	}

	now := s.clock.Now()
	materials := make([]*keysDomain.KeyMaterial, 0, len(keyIDs))

	for _, keyID := range keyIDs {
		material, err := s.getKey(ctx, keyID)
		switch {
		case apperrors.Is(err, keysDomain.ErrKeyNotFound):
			// Record expired out of the store; drop the stale index entry.
			s.removeFromIndex(ctx, keyID)
			continue
		case apperrors.Is(err, keysDomain.ErrKeyDecryption):
			s.logger.Warn("signing key is unusable, excluding from key set",
				slog.String("key_id", keyID),
				slog.Any("error", err),
			)
			continue
		case err != nil:
			return nil, err
		}

		if material.IsExpired(now) {
			s.deleteKey(ctx, keyID)
			continue
		}

		materials = append(materials, material)
	}

	return materials, nil
}

// CleanupExpiredKeys removes expired key records and their index entries.
// Redis TTLs already expire the records themselves; this keeps the index tidy.
func (s *RedisKeyStore) CleanupExpiredKeys(ctx context.Context) error {
	keyIDs, err := s.client.SMembers(ctx, keyIndexKey).Result()
	if err != nil {
		return apperrors.Wrap(err, "failed to read known keys index")
	}

	now := s.clock.Now()

	for _, keyID := range keyIDs {
		material, err := s.getKey(ctx, keyID)
		switch {
		case apperrors.Is(err, keysDomain.ErrKeyNotFound):
			s.removeFromIndex(ctx, keyID)
			continue
		case err != nil:
			// Undecryptable records still expire via their TTL.
			continue
		}

		if material.IsExpired(now) {
			s.deleteKey(ctx, keyID)
		}
	}

	return nil
}

// getKey fetches and decrypts one key record.
func (s *RedisKeyStore) getKey(ctx context.Context, keyID string) (*keysDomain.KeyMaterial, error) {
	ciphertext, err := s.client.Get(ctx, keyRecordPrefix+keyID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, keysDomain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to read signing key record")
	}

	payload, err := s.keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, apperrors.Wrap(keysDomain.ErrKeyDecryption, err.Error())
	}

	var material keysDomain.KeyMaterial
	if err := json.Unmarshal(payload, &material); err != nil {
		return nil, apperrors.Wrap(keysDomain.ErrKeyDecryption, err.Error())
	}

	return &material, nil
}

// removeFromIndex drops a key id from the known-keys index, best effort.
func (s *RedisKeyStore) removeFromIndex(ctx context.Context, keyID string) {
	if err := s.client.SRem(ctx, keyIndexKey, keyID).Err(); err != nil {
		s.logger.Warn("failed to reconcile known keys index",
			slog.String("key_id", keyID),
			slog.Any("error", err),
		)
	}
}

// deleteKey removes a key record and its index entry, best effort.
func (s *RedisKeyStore) deleteKey(ctx context.Context, keyID string) {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keyRecordPrefix+keyID)
	pipe.SRem(ctx, keyIndexKey, keyID)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("failed to delete expired signing key",
			slog.String("key_id", keyID),
			slog.Any("error", err),
		)
	}
}
