// Package sync holds the trigger-level policy deciding when a domain-object
// change is mapped, validated and pushed to CLCA, and what happens on failure.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/event"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/game"
	"github.com/nuforge/ttg-clca-bridge/internal/mapping"
	"github.com/nuforge/ttg-clca-bridge/pkg/clcaclient"
)

var ErrNotFound = errors.New("record not found")

// Ingestor is the slice of the CLCA client the orchestrator needs.
type Ingestor interface {
	IngestContent(ctx context.Context, doc *content.Doc) (*clcaclient.IngestResult, error)
}

// FailureQueue is the slice of the retry queue the orchestrator needs:
// enqueue retryable failures, record terminal ones.
type FailureQueue interface {
	Enqueue(ctx context.Context, doc *content.Doc, sendErr error, sourceID string, attempt int)
	RecordTerminal(ctx context.Context, doc *content.Doc, sendErr error, sourceID, reason string)
}

type Config struct {
	// ResyncDelay is the fixed pause between items during a bulk resync.
	// Courtesy rate limiting for CLCA, not a correctness requirement.
	ResyncDelay time.Duration
	// ResyncBatchLimit bounds how many records of each type one resync reads.
	ResyncBatchLimit int
}

func (c Config) withDefaults() Config {
	if c.ResyncDelay <= 0 {
		c.ResyncDelay = 250 * time.Millisecond
	}
	if c.ResyncBatchLimit <= 0 {
		c.ResyncBatchLimit = 500
	}
	return c
}

// ResyncSummary aggregates a bulk resync run.
type ResyncSummary struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type Orchestrator struct {
	events event.Repository
	games  game.Repository
	mapper *mapping.Mapper
	ingest Ingestor
	queue  FailureQueue
	cfg    Config
	logger *zap.Logger
}

func NewOrchestrator(
	events event.Repository,
	games game.Repository,
	mapper *mapping.Mapper,
	ingest Ingestor,
	queue FailureQueue,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		events: events,
		games:  games,
		mapper: mapper,
		ingest: ingest,
		queue:  queue,
		cfg:    cfg.withDefaults(),
		logger: logger.Named("sync"),
	}
}

// SyncEvent maps, validates and sends one event. Validation failures surface
// to the caller and are never queued; the source data has to be fixed first.
// Send failures are queued (retryable) or recorded as terminal, and still
// surfaced so the caller knows the direct send did not land.
func (o *Orchestrator) SyncEvent(ctx context.Context, id int64) (*clcaclient.IngestResult, error) {
	ev, err := o.events.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load event %d: %w", id, err)
	}
	if ev == nil {
		return nil, ErrNotFound
	}
	return o.deliver(ctx, o.mapper.EventDoc(ev), func(status event.SyncStatus) {
		if err := o.events.UpdateSyncStatus(ctx, id, status); err != nil {
			o.logger.Warn("sync_flag_update_failed", zap.Error(err), zap.Int64("event_id", id))
		}
	})
}

// SyncGame maps, validates and sends one catalog game.
func (o *Orchestrator) SyncGame(ctx context.Context, id int64) (*clcaclient.IngestResult, error) {
	g, err := o.games.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load game %d: %w", id, err)
	}
	if g == nil {
		return nil, ErrNotFound
	}
	return o.deliver(ctx, o.mapper.GameDoc(g), func(status event.SyncStatus) {
		if err := o.games.UpdateSyncStatus(ctx, id, status); err != nil {
			o.logger.Warn("sync_flag_update_failed", zap.Error(err), zap.Int64("game_id", id))
		}
	})
}

// ArchiveEvent signals that the event should no longer be visible at CLCA.
// The remote archives it, retaining provenance, rather than hard-deleting.
func (o *Orchestrator) ArchiveEvent(ctx context.Context, id int64) (*clcaclient.IngestResult, error) {
	ev, err := o.events.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load event %d: %w", id, err)
	}
	if ev == nil {
		return nil, ErrNotFound
	}
	doc := o.mapper.EventDoc(ev)
	doc.Status = content.StatusDeleted
	return o.deliver(ctx, doc, nil)
}

// ArchiveGame signals that the game should no longer be visible at CLCA.
func (o *Orchestrator) ArchiveGame(ctx context.Context, id int64) (*clcaclient.IngestResult, error) {
	g, err := o.games.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load game %d: %w", id, err)
	}
	if g == nil {
		return nil, ErrNotFound
	}
	doc := o.mapper.GameDoc(g)
	doc.Status = content.StatusDeleted
	return o.deliver(ctx, doc, nil)
}

func (o *Orchestrator) deliver(ctx context.Context, doc *content.Doc, markSync func(event.SyncStatus)) (*clcaclient.IngestResult, error) {
	if err := content.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate %s: %w", doc.OriginalID, err)
	}

	result, err := o.ingest.IngestContent(ctx, doc)
	if err != nil {
		o.handleSendFailure(ctx, doc, err)
		if markSync != nil {
			markSync(event.SyncFailed)
		}
		return nil, err
	}

	if markSync != nil {
		markSync(event.SyncSynced)
	}
	o.logger.Info("content_synced",
		zap.String("doc_id", doc.ID),
		zap.String("result", result.Status),
	)
	return result, nil
}

func (o *Orchestrator) handleSendFailure(ctx context.Context, doc *content.Doc, sendErr error) {
	var ingestErr *clcaclient.IngestError
	if errors.As(sendErr, &ingestErr) && !ingestErr.Retryable() {
		reason := "non-retryable send failure"
		if ingestErr.AuthFailure() {
			reason = "auth failure"
		}
		o.queue.RecordTerminal(ctx, doc, sendErr, doc.OriginalID, reason)
		return
	}
	o.queue.Enqueue(ctx, doc, sendErr, doc.OriginalID, 1)
}

// ResyncAll pushes every currently-relevant event and game, pausing between
// items. Re-running it is always safe: CLCA de-duplicates on
// (ownerSystem, originalId) and only applies strictly newer updatedAt values.
func (o *Orchestrator) ResyncAll(ctx context.Context) (*ResyncSummary, error) {
	summary := &ResyncSummary{}

	events, err := o.events.ListSyncable(ctx, o.cfg.ResyncBatchLimit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	for _, ev := range events {
		if !ev.Visible() {
			summary.Skipped++
			continue
		}
		if _, err := o.SyncEvent(ctx, ev.ID); err != nil {
			summary.Failed++
		} else {
			summary.Success++
		}
		if err := o.pause(ctx); err != nil {
			return summary, err
		}
	}

	games, err := o.games.ListSyncable(ctx, o.cfg.ResyncBatchLimit)
	if err != nil {
		return summary, fmt.Errorf("list games: %w", err)
	}
	for _, g := range games {
		if g.Status == event.StatusDraft {
			summary.Skipped++
			continue
		}
		if _, err := o.SyncGame(ctx, g.ID); err != nil {
			summary.Failed++
		} else {
			summary.Success++
		}
		if err := o.pause(ctx); err != nil {
			return summary, err
		}
	}

	o.logger.Info("resync_completed",
		zap.Int("success", summary.Success),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (o *Orchestrator) pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.cfg.ResyncDelay):
		return nil
	}
}
