package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/infra/storage"
)

// StoreOrdinals writes a classified resource. SADD on the dedup set is the
// atomic gate: only the caller that first adds the inscription ID performs the
// grouped index/detail/counter writes.
func (s *Store) StoreOrdinals(ctx context.Context, res *domain.OrdinalsResource) (bool, error) {
	added, err := s.rdb.SAdd(ctx, keySeen, res.InscriptionID).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	if added == 0 {
		return false, nil
	}

	data, err := json.Marshal(res)
	if err != nil {
		return false, fmt.Errorf("encode resource: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, keyOrdinalsIdx, res.ResourceID)
	pipe.Set(ctx, keyResourcePrefix+res.InscriptionID, data, 0)
	pipe.Incr(ctx, keyStatOrdinals)
	pipe.HIncrBy(ctx, keyStatSubtypes, string(res.OrdinalsType), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("store ordinals resource: %w", err)
	}
	return true, nil
}

// StoreNonOrdinals writes a non-DID resource behind the same dedup gate.
func (s *Store) StoreNonOrdinals(ctx context.Context, res *domain.NonOrdinalsResource) (bool, error) {
	added, err := s.rdb.SAdd(ctx, keySeen, res.InscriptionID).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	if added == 0 {
		return false, nil
	}

	data, err := json.Marshal(res)
	if err != nil {
		return false, fmt.Errorf("encode resource: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, keyNonOrdinalsIdx, res.ResourceID)
	pipe.Set(ctx, keyResourcePrefix+res.InscriptionID, data, 0)
	pipe.Incr(ctx, keyStatNonOrdinals)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("store non-ordinals resource: %w", err)
	}
	return true, nil
}

// StoreError appends a failure record and bumps the error counter. The index
// is capped so the sample cannot grow unbounded.
func (s *Store) StoreError(ctx context.Context, e *domain.InscriptionError) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode error record: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, keyErrorsIndex, data)
	pipe.LTrim(ctx, keyErrorsIndex, 0, maxErrorIndex-1)
	pipe.Incr(ctx, keyStatErrors)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store inscription error: %w", err)
	}
	return nil
}

// Stats returns aggregate counters plus cursor and live claim count.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{OrdinalsBySubtype: make(map[string]int64)}

	vals, err := s.rdb.MGet(ctx, keyStatOrdinals, keyStatNonOrdinals, keyStatErrors, keyCursor).Result()
	if err != nil {
		return nil, fmt.Errorf("read counters: %w", err)
	}
	targets := []*int64{&stats.OrdinalsTotal, &stats.NonOrdinalsTotal, &stats.ErrorsTotal, &stats.Cursor}
	for i, v := range vals {
		if v == nil {
			continue
		}
		n, err := strconv.ParseInt(v.(string), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse counter: %w", err)
		}
		*targets[i] = n
	}

	subtypes, err := s.rdb.HGetAll(ctx, keyStatSubtypes).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read subtype counters: %w", err)
	}
	for k, v := range subtypes {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		stats.OrdinalsBySubtype[k] = n
	}

	claims, err := s.rdb.HLen(ctx, keyClaims).Result()
	if err != nil {
		return nil, fmt.Errorf("count claims: %w", err)
	}
	stats.ActiveClaims = int(claims)
	return stats, nil
}

// RecentErrors returns up to limit of the newest error records.
func (s *Store) RecentErrors(ctx context.Context, limit int) ([]domain.InscriptionError, error) {
	if limit <= 0 || limit > maxErrorIndex {
		limit = maxErrorIndex
	}
	raw, err := s.rdb.LRange(ctx, keyErrorsIndex, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read error index: %w", err)
	}

	out := make([]domain.InscriptionError, 0, len(raw))
	for _, v := range raw {
		var e domain.InscriptionError
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

var _ storage.CoordinationStore = (*Store)(nil)
var _ storage.ResourceStore = (*Store)(nil)
