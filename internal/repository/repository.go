// Package repository persists classification outcomes with idempotent writes
// and running statistics.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/infra/storage"
	"github.com/ordinalsplus/indexer-go/internal/metrics"
)

// Repository wraps the resource store with validation, timestamps and
// instrumentation. Dedup itself is the store's atomic responsibility.
type Repository struct {
	store storage.ResourceStore
	log   *slog.Logger
}

// New creates a repository.
func New(store storage.ResourceStore, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.Default()
	}
	return &Repository{store: store, log: log.With("component", "repository")}
}

// StoreOrdinalsResource writes a classified resource once per inscription ID.
func (r *Repository) StoreOrdinalsResource(ctx context.Context, res *domain.OrdinalsResource) error {
	if res.InscriptionID == "" || res.ResourceID == "" {
		return fmt.Errorf("ordinals resource missing identity: %+v", res)
	}
	if res.IndexedAt.IsZero() {
		res.IndexedAt = time.Now().UTC()
	}

	stored, err := r.store.StoreOrdinals(ctx, res)
	if err != nil {
		return fmt.Errorf("store ordinals resource %s: %w", res.InscriptionID, err)
	}
	if !stored {
		r.log.Debug("Duplicate ordinals resource skipped", "inscription", res.InscriptionID)
		return nil
	}
	metrics.InscriptionsProcessed.WithLabelValues("ordinals").Inc()
	r.log.Info("Stored ordinals resource",
		"resource", res.ResourceID, "type", res.OrdinalsType, "number", res.InscriptionNumber)
	return nil
}

// StoreNonOrdinalsResource records an inscription without DID-linked data.
func (r *Repository) StoreNonOrdinalsResource(ctx context.Context, res *domain.NonOrdinalsResource) error {
	if res.InscriptionID == "" {
		return fmt.Errorf("non-ordinals resource missing inscription ID")
	}
	if res.IndexedAt.IsZero() {
		res.IndexedAt = time.Now().UTC()
	}

	stored, err := r.store.StoreNonOrdinals(ctx, res)
	if err != nil {
		return fmt.Errorf("store non-ordinals resource %s: %w", res.InscriptionID, err)
	}
	if stored {
		metrics.InscriptionsProcessed.WithLabelValues("non-ordinals").Inc()
	}
	return nil
}

// StoreInscriptionError appends a structured failure record.
func (r *Repository) StoreInscriptionError(ctx context.Context, e *domain.InscriptionError) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := r.store.StoreError(ctx, e); err != nil {
		return fmt.Errorf("store inscription error %s: %w", e.InscriptionID, err)
	}
	metrics.InscriptionsProcessed.WithLabelValues("error").Inc()
	return nil
}

// GetStats returns aggregate counts for observability. Never feeds control
// flow.
func (r *Repository) GetStats(ctx context.Context) (*domain.Stats, error) {
	return r.store.Stats(ctx)
}

// ErrorCategory is a coarse bucket for the admin error sample.
type ErrorCategory string

const (
	CategoryPermission ErrorCategory = "permission"
	CategoryNetwork    ErrorCategory = "network"
	CategoryNotFound   ErrorCategory = "not-found"
	CategoryOther      ErrorCategory = "other"
)

// CategorizedError pairs a stored error with its heuristic bucket.
type CategorizedError struct {
	domain.InscriptionError
	Category ErrorCategory `json:"category"`
}

// RecentErrors returns a capped, categorized sample of recent failures.
func (r *Repository) RecentErrors(ctx context.Context, limit int) ([]CategorizedError, error) {
	errs, err := r.store.RecentErrors(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]CategorizedError, len(errs))
	for i, e := range errs {
		out[i] = CategorizedError{InscriptionError: e, Category: categorize(e.Error)}
	}
	return out, nil
}

func categorize(msg string) ErrorCategory {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "403") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "forbidden") || strings.Contains(lower, "permission"):
		return CategoryPermission
	case strings.Contains(lower, "404") || strings.Contains(lower, "not found"):
		return CategoryNotFound
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "connection") ||
		strings.Contains(lower, "network") || strings.Contains(lower, "eof"):
		return CategoryNetwork
	default:
		return CategoryOther
	}
}
