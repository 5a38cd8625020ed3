// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smartystudio/lockersync/internal/domain/model"
	"github.com/smartystudio/lockersync/internal/domain/port/driven"
)

// refreshRequest represents a manual sync trigger.
type refreshRequest struct {
	countryCode string
	done        chan refreshResult
}

type refreshResult struct {
	result model.SyncResult
	err    error
}

// SyncService orchestrates the fetch-normalize-replace cycle that mirrors the
// courier's locker directory into local storage. It is driven by a weekly
// schedule, by blocking manual triggers, and by a one-time seed when the
// directory is empty.
type SyncService struct {
	client      driven.CourierClient
	store       driven.LockerStore
	countryCode string
	schedule    Schedule
	refreshCh   chan refreshRequest

	// syncMu serializes sync runs so a manual trigger can never interleave
	// its directory replacement with a scheduled run.
	syncMu sync.Mutex
}

// NewSyncService creates a SyncService with all required dependencies.
// countryCode is the default country synced by scheduled and seed runs.
func NewSyncService(
	client driven.CourierClient,
	store driven.LockerStore,
	countryCode string,
	schedule Schedule,
) *SyncService {
	return &SyncService{
		client:      client,
		store:       store,
		countryCode: countryCode,
		schedule:    schedule,
		refreshCh:   make(chan refreshRequest),
	}
}

// Start runs the sync loop. It seeds the directory once if it is empty, then
// syncs at each weekly schedule slot, and serves manual trigger requests in
// between. Start blocks until the context is canceled.
func (s *SyncService) Start(ctx context.Context) {
	count, err := s.store.Count(ctx)
	if err != nil {
		slog.Error("directory count failed", "error", err)
	} else if count == 0 {
		slog.Info("empty locker directory, running seed sync", "country", s.countryCode)
		if _, err := s.Sync(ctx, s.countryCode); err != nil {
			slog.Error("seed sync failed", "country", s.countryCode, "error", err)
		}
	}

	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		slog.Info("next scheduled sync", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("sync service stopped")
			return
		case <-timer.C:
			if _, err := s.Sync(ctx, s.countryCode); err != nil {
				slog.Error("scheduled sync failed", "country", s.countryCode, "error", err)
			}
		case req := <-s.refreshCh:
			timer.Stop()
			result, err := s.Sync(ctx, req.countryCode)
			req.done <- refreshResult{result: result, err: err}
		}
	}
}

// TriggerSync runs a manual sync through the service loop, bypassing the
// schedule. It blocks until the sync completes or the context is canceled.
// An empty countryCode falls back to the configured default.
func (s *SyncService) TriggerSync(ctx context.Context, countryCode string) (model.SyncResult, error) {
	done := make(chan refreshResult, 1)
	req := refreshRequest{countryCode: countryCode, done: done}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return model.SyncResult{}, ctx.Err()
	}

	select {
	case res := <-done:
		return res.result, res.err
	case <-ctx.Done():
		return model.SyncResult{}, ctx.Err()
	}
}

// Sync performs one full fetch-normalize-replace cycle for the given country.
// Pages are fetched sequentially in increasing order until the
// provider-declared total. Any fetch error aborts the run with no change to
// the persisted directory; the previous directory stays authoritative. A
// first page with zero records is treated the same way: the provider's
// emptiness cannot be told apart from a provider fault, so nothing is
// replaced and the run reports zero records.
func (s *SyncService) Sync(ctx context.Context, countryCode string) (model.SyncResult, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	if countryCode == "" {
		countryCode = s.countryCode
	}

	startedAt := time.Now().UTC()
	result := model.SyncResult{CountryCode: countryCode, StartedAt: startedAt}

	var working []model.Locker
	totalPages := 1

	for page := 1; page <= totalPages; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		lockers, pages, err := s.client.FetchLockers(ctx, countryCode, page)
		if err != nil {
			return result, fmt.Errorf("fetch lockers page %d: %w", page, err)
		}

		if page == 1 {
			totalPages = pages
			if len(lockers) == 0 {
				slog.Warn("provider returned no lockers, keeping existing directory",
					"country", countryCode,
				)
				result.Duration = time.Since(startedAt)
				return result, nil
			}
		}

		// One run carries one coherent timestamp across all its records.
		for i := range lockers {
			lockers[i].UpdatedAt = startedAt
		}

		working = append(working, lockers...)
	}

	if err := s.store.ReplaceAll(ctx, working); err != nil {
		return result, fmt.Errorf("replace locker directory: %w", err)
	}

	result.Count = len(working)
	result.Duration = time.Since(startedAt)

	slog.Info("locker directory synced",
		"country", countryCode,
		"lockers", result.Count,
		"pages", totalPages,
		"duration", result.Duration.Round(time.Millisecond),
	)

	return result, nil
}
