package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pokedex/internal/client/pokeapi"
	"pokedex/internal/models"
	"pokedex/internal/repository"
)

// syncScope keys the bulk fetch cursor in sync_state.
const syncScope = "pokemon"

// FetchService imports upstream pages in bulk: list a page, fetch detail
// per entry, upsert the survivors and the resume cursor in one transaction
// per page.
type FetchService struct {
	Store  repository.PokemonRepository
	API    UpstreamClient
	Logger *zap.Logger
}

type FetchOptions struct {
	Limit    int
	Offset   int
	MaxPages int
	// Resume ignores a zero Offset and continues from the stored cursor.
	Resume bool
}

type FetchResult struct {
	Success    bool   `json:"success"`
	Count      int    `json:"count"`
	Failed     int    `json:"failed"`
	Pages      int    `json:"pages"`
	NextOffset int    `json:"next_offset"`
	Message    string `json:"message"`
}

type fetchStats struct {
	Listed   int `json:"listed"`
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// FetchAndStore runs one bulk import of up to MaxPages listing pages. A
// listing failure stops the run with Success=false; per-entry detail
// failures are skipped and only reduce Count. The returned error is
// reserved for store failures.
func (f *FetchService) FetchAndStore(ctx context.Context, opts FetchOptions) (FetchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	offset := opts.Offset
	if opts.Resume && offset == 0 {
		offset = f.resumeOffset(ctx)
	}

	result := FetchResult{Success: true, NextOffset: offset}
	for page := 0; page < maxPages; page++ {
		entries, err := f.API.ListPage(ctx, limit, offset)
		if err != nil {
			f.logWarn("upstream listing failed", zap.Int("offset", offset), zap.Error(err))
			f.writeSyncError(ctx, err)
			result.Success = false
			result.Message = "upstream listing failed"
			return result, nil
		}
		if len(entries) == 0 {
			break
		}

		imported, failed, err := f.importPage(ctx, entries, offset+len(entries))
		if err != nil {
			return FetchResult{}, err
		}
		offset += len(entries)
		result.Count += imported
		result.Failed += failed
		result.Pages++
		result.NextOffset = offset

		// A short page means the upstream listing is exhausted.
		if len(entries) < limit {
			break
		}
	}

	result.Message = fmt.Sprintf("imported %d pokemon across %d pages (%d failed)",
		result.Count, result.Pages, result.Failed)
	return result, nil
}

// importPage fetches detail for each listed entry and commits the page:
// batch upsert plus the advanced cursor in one transaction.
func (f *FetchService) importPage(ctx context.Context, entries []pokeapi.PageEntry, nextOffset int) (int, int, error) {
	records := make([]models.Pokemon, 0, len(entries))
	failed := 0
	now := time.Now().UTC()
	for _, entry := range entries {
		detail, err := f.API.FindByName(ctx, entry.Name)
		if err != nil || detail == nil {
			if err != nil {
				f.logWarn("detail fetch failed", zap.String("name", entry.Name), zap.Error(err))
			}
			failed++
			continue
		}
		records = append(records, *recordFromUpstream(*detail, now))
	}

	stats, _ := json.Marshal(fetchStats{Listed: len(entries), Imported: len(records), Failed: failed})
	cursor := strconv.Itoa(nextOffset)
	state := &models.SyncState{
		Scope:         syncScope,
		Cursor:        &cursor,
		LastSuccessAt: &now,
		LastAttemptAt: &now,
		StatsJSON:     datatypes.JSON(stats),
	}
	err := f.Store.InTx(ctx, func(tx *gorm.DB) error {
		if err := f.Store.UpsertPokemonsTx(ctx, tx, records); err != nil {
			return err
		}
		return f.Store.SaveSyncStateTx(ctx, tx, state)
	})
	if err != nil {
		return 0, 0, err
	}
	return len(records), failed, nil
}

// resumeOffset reads the stored cursor; anything missing or malformed
// restarts from the beginning.
func (f *FetchService) resumeOffset(ctx context.Context) int {
	state, err := f.Store.GetSyncState(ctx, syncScope)
	if err != nil {
		f.logWarn("sync state read failed", zap.Error(err))
		return 0
	}
	if state == nil || state.Cursor == nil {
		return 0
	}
	offset, err := strconv.Atoi(*state.Cursor)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// writeSyncError records a failed attempt without touching the cursor, so
// the next resume retries the same page.
func (f *FetchService) writeSyncError(ctx context.Context, cause error) {
	now := time.Now().UTC()
	msg := cause.Error()
	prev, err := f.Store.GetSyncState(ctx, syncScope)
	if err != nil {
		return
	}
	state := &models.SyncState{
		Scope:         syncScope,
		LastAttemptAt: &now,
		LastError:     &msg,
	}
	if prev != nil {
		state.Cursor = prev.Cursor
		state.LastSuccessAt = prev.LastSuccessAt
		state.StatsJSON = prev.StatsJSON
	}
	saveErr := f.Store.InTx(ctx, func(tx *gorm.DB) error {
		return f.Store.SaveSyncStateTx(ctx, tx, state)
	})
	if saveErr != nil {
		f.logWarn("sync state save failed", zap.Error(saveErr))
	}
}

func (f *FetchService) logWarn(msg string, fields ...zap.Field) {
	if f.Logger != nil {
		f.Logger.Warn(msg, fields...)
	}
}
