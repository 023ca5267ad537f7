package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	redisclient "github.com/ordinalsplus/indexer-go/internal/infra/redis"
	"github.com/ordinalsplus/indexer-go/internal/infra/storage"
)

// Store implements storage.CoordinationStore and storage.ResourceStore on a
// shared Redis.
type Store struct {
	rdb *redis.Client
}

// New creates a Redis-backed store and migrates any legacy claim records.
func New(ctx context.Context, client *redisclient.Client) (*Store, error) {
	s := &Store{rdb: client.RDB()}
	if err := s.MigrateClaimSchema(ctx); err != nil {
		return nil, fmt.Errorf("claim schema migration: %w", err)
	}
	return s, nil
}

// claimScript finds the first range of the requested size after the cursor
// that overlaps no live claim and writes it, all server-side so concurrent
// claimants never interleave. Expired claims are treated as free and dropped.
var claimScript = redis.NewScript(`
local cursor = tonumber(redis.call('GET', KEYS[1]) or '0')
local size = tonumber(ARGV[1])
local worker = ARGV[2]
local ttl = tonumber(ARGV[3])
local probes = tonumber(ARGV[4])
local now = tonumber(ARGV[5])

local claims = {}
local raw = redis.call('HGETALL', KEYS[2])
for i = 1, #raw, 2 do
  local ok, c = pcall(cjson.decode, raw[i+1])
  if ok then
    if c.claimed_at_unix + c.ttl_seconds <= now then
      redis.call('HDEL', KEYS[2], raw[i])
    else
      claims[#claims+1] = c
    end
  end
end

local start = cursor + 1
for probe = 1, probes do
  local finish = start + size - 1
  local conflict = nil
  for _, c in ipairs(claims) do
    if c.start <= finish and start <= c['end'] then
      if conflict == nil or c['end'] > conflict then conflict = c['end'] end
    end
  end
  if conflict == nil then
    local claim = cjson.encode({
      start = start, ['end'] = finish, worker_id = worker,
      claimed_at_unix = now, ttl_seconds = ttl,
    })
    redis.call('HSET', KEYS[2], worker, claim)
    return claim
  end
  start = conflict + 1
end
return false
`)

// claimRecord is the wire form kept in the claims hash. Timestamps are unix
// seconds so the acquisition script can compare them.
type claimRecord struct {
	Start         int64  `json:"start"`
	End           int64  `json:"end"`
	WorkerID      string `json:"worker_id"`
	ClaimedAtUnix int64  `json:"claimed_at_unix"`
	TTLSeconds    int64  `json:"ttl_seconds"`
}

func (r claimRecord) toDomain() domain.BatchClaim {
	return domain.BatchClaim{
		Start:     r.Start,
		End:       r.End,
		WorkerID:  r.WorkerID,
		ClaimedAt: time.Unix(r.ClaimedAtUnix, 0).UTC(),
		TTL:       r.TTLSeconds,
	}
}

// GetCursor returns the global high-water-mark.
func (s *Store) GetCursor(ctx context.Context) (int64, error) {
	val, err := s.rdb.Get(ctx, keyCursor).Result()
	if err == redis.Nil {
		return 0, storage.ErrCursorNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get cursor: %w", err)
	}
	return strconv.ParseInt(val, 10, 64)
}

// AdvanceCursor sets the cursor to value only if it moves forward. Uses an
// optimistic WATCH loop; the claim script stays the only server-side script.
func (s *Store) AdvanceCursor(ctx context.Context, value int64) (int64, error) {
	var result int64
	for attempt := 0; attempt < 5; attempt++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			current := int64(0)
			val, err := tx.Get(ctx, keyCursor).Result()
			if err != nil && err != redis.Nil {
				return err
			}
			if err == nil {
				current, err = strconv.ParseInt(val, 10, 64)
				if err != nil {
					return err
				}
			}
			if value <= current {
				result = current
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, keyCursor, strconv.FormatInt(value, 10), 0)
				return nil
			})
			result = value
			return err
		}, keyCursor)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("advance cursor: %w", err)
		}
		return result, nil
	}
	return 0, fmt.Errorf("advance cursor: retries exhausted")
}

// ResetCursor unconditionally overwrites the cursor.
func (s *Store) ResetCursor(ctx context.Context, value int64) error {
	if err := s.rdb.Set(ctx, keyCursor, strconv.FormatInt(value, 10), 0).Err(); err != nil {
		return fmt.Errorf("reset cursor: %w", err)
	}
	return nil
}

// AcquireClaim runs the server-side acquisition script.
func (s *Store) AcquireClaim(ctx context.Context, size int64, workerID string, ttl time.Duration, maxProbes int) (*domain.BatchClaim, error) {
	res, err := claimScript.Run(ctx, s.rdb,
		[]string{keyCursor, keyClaims},
		size, workerID, int64(ttl.Seconds()), maxProbes, time.Now().Unix(),
	).Result()
	if err == redis.Nil {
		return nil, storage.ErrNoRangeAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("claim script: %w", err)
	}

	raw, ok := res.(string)
	if !ok {
		return nil, storage.ErrNoRangeAvailable
	}
	var rec claimRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode claim: %w", err)
	}
	claim := rec.toDomain()
	return &claim, nil
}

// ListClaims enumerates all live claims.
func (s *Store) ListClaims(ctx context.Context) ([]domain.BatchClaim, error) {
	raw, err := s.rdb.HGetAll(ctx, keyClaims).Result()
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}

	claims := make([]domain.BatchClaim, 0, len(raw))
	for _, v := range raw {
		var rec claimRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			continue // skip undecodable record, purge will reap it
		}
		claims = append(claims, rec.toDomain())
	}
	return claims, nil
}

// ReleaseClaim deletes the claim held by workerID.
func (s *Store) ReleaseClaim(ctx context.Context, workerID string) error {
	if err := s.rdb.HDel(ctx, keyClaims, workerID).Err(); err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}

// ClearClaims deletes every live claim.
func (s *Store) ClearClaims(ctx context.Context) error {
	if err := s.rdb.Del(ctx, keyClaims).Err(); err != nil {
		return fmt.Errorf("clear claims: %w", err)
	}
	return nil
}

// PurgeClaimsOlderThan removes claims created before now-age.
func (s *Store) PurgeClaimsOlderThan(ctx context.Context, age time.Duration) (int, error) {
	raw, err := s.rdb.HGetAll(ctx, keyClaims).Result()
	if err != nil {
		return 0, fmt.Errorf("purge claims: %w", err)
	}

	cutoff := time.Now().Add(-age).Unix()
	purged := 0
	for field, v := range raw {
		var rec claimRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil || rec.ClaimedAtUnix < cutoff {
			if err := s.rdb.HDel(ctx, keyClaims, field).Err(); err != nil {
				return purged, fmt.Errorf("purge claim %s: %w", field, err)
			}
			purged++
		}
	}
	return purged, nil
}

// MigrateClaimSchema folds legacy per-worker claim keys into the claims hash.
// Old records carried camelCase fields; both shapes decode here.
func (s *Store) MigrateClaimSchema(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, legacyClaimPattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan legacy claims: %w", err)
		}

		for _, key := range keys {
			val, err := s.rdb.Get(ctx, key).Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return fmt.Errorf("read legacy claim %s: %w", key, err)
			}

			var legacy struct {
				Start     int64  `json:"startBlock"`
				End       int64  `json:"endBlock"`
				WorkerID  string `json:"workerId"`
				ClaimedAt int64  `json:"claimedAt"`
				TTL       int64  `json:"ttl"`
			}
			if err := json.Unmarshal([]byte(val), &legacy); err != nil || legacy.WorkerID == "" {
				// Not a claim we understand; drop it rather than block startup.
				s.rdb.Del(ctx, key)
				continue
			}

			rec := claimRecord{
				Start:         legacy.Start,
				End:           legacy.End,
				WorkerID:      legacy.WorkerID,
				ClaimedAtUnix: legacy.ClaimedAt,
				TTLSeconds:    legacy.TTL,
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encode migrated claim: %w", err)
			}
			pipe := s.rdb.TxPipeline()
			pipe.HSetNX(ctx, keyClaims, legacy.WorkerID, data)
			pipe.Del(ctx, key)
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("migrate claim %s: %w", key, err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
