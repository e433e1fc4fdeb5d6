package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"staymap/internal/domain"
)

type IngestionService struct {
	catalog domain.CatalogClient
	repo    domain.HotelRepository
	cache   domain.Cache
}

func NewIngestionService(c domain.CatalogClient, r domain.HotelRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{catalog: c, repo: r, cache: cache}
}

type IngestStats struct {
	Pages    int   `json:"pages"`
	Upserted int64 `json:"upserted"`
	Failed   int64 `json:"failed"`
}

// IngestListing normalizes one raw listing and stores it.
func (s *IngestionService) IngestListing(ctx context.Context, raw map[string]any) (string, error) {
	h := mapListing(raw)
	if err := s.repo.UpsertHotel(ctx, h); err != nil {
		return h.ID, fmt.Errorf("upsert hotel %s: %w", h.ID, err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, fmt.Sprintf("hotel:%s", h.ID))
	}
	return h.ID, nil
}

// Run pages through the catalog until it reports no more listings and
// ingests each page with at most workers concurrent upserts. A single
// listing failure is counted and logged; a page failure stops the run.
func (s *IngestionService) Run(ctx context.Context, workers int) (IngestStats, error) {
	if workers < 1 {
		workers = 1
	}
	var (
		stats    IngestStats
		upserted atomic.Int64
		failed   atomic.Int64
		wg       sync.WaitGroup
	)
	sem := semaphore.NewWeighted(int64(workers))

	var runErr error
	for page := 1; ; page++ {
		items, more, err := s.catalog.ListListings(ctx, page)
		if err != nil {
			if missing(err) {
				// Catalog ran out of pages without saying so.
				log.Info().Int("page", page).Msg("catalog page missing; stopping")
				break
			}
			runErr = fmt.Errorf("list page %d: %w", page, err)
			break
		}
		stats.Pages++

		for _, raw := range items {
			if err := sem.Acquire(ctx, 1); err != nil {
				runErr = err
				break
			}
			wg.Add(1)
			go func(raw map[string]any) {
				defer wg.Done()
				defer sem.Release(1)
				id, err := s.IngestListing(ctx, raw)
				if err != nil {
					failed.Add(1)
					log.Error().Err(err).Str("hotel_id", id).Msg("ingest failed")
					return
				}
				upserted.Add(1)
			}(raw)
		}
		if runErr != nil || !more {
			break
		}
	}
	wg.Wait()

	stats.Upserted, stats.Failed = upserted.Load(), failed.Load()
	if stats.Upserted > 0 {
		s.InvalidateCandidates(ctx)
	}
	return stats, runErr
}

// InvalidateCandidates drops the shared candidate collection so API
// instances refetch it from the repository.
func (s *IngestionService) InvalidateCandidates(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, candidatesKey); err != nil {
		log.Warn().Err(err).Msg("candidate cache invalidation failed")
	}
}

// missing reports whether err means the resource does not exist. Auth
// failures are not treated as missing: a bad key must fail the run.
func missing(err error) bool {
	if errors.Is(err, domain.ErrNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
