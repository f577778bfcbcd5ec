package dlq

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
	"github.com/nuforge/ttg-clca-bridge/pkg/clcaclient"
)

// Sender is the slice of the ingest client the processor needs.
type Sender interface {
	IngestContent(ctx context.Context, doc *content.Doc) (*clcaclient.IngestResult, error)
}

type Config struct {
	MaxRetries   int
	BatchSize    int
	PollInterval time.Duration
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Minute
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = DefaultBaseBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	return c
}

// Summary is what a ProcessOnce pass reports back to its scheduler. The
// scheduler is never put into an error state by downstream failures;
// individual problems are logged, not re-thrown.
type Summary struct {
	Eligible  int `json:"eligible"`
	Succeeded int `json:"succeeded"`
	Retried   int `json:"retried"`
	Exhausted int `json:"exhausted"`
	Terminal  int `json:"terminal"`
}

// Processor owns mutation and deletion of retry-queue entries. The
// orchestrator owns creation (via Enqueue); nothing else writes these records.
type Processor struct {
	store  Store
	sender Sender
	logger *zap.Logger
	cfg    Config
	now    func() time.Time
}

func NewProcessor(store Store, sender Sender, cfg Config, logger *zap.Logger) *Processor {
	return &Processor{
		store:  store,
		sender: sender,
		logger: logger.Named("dlq.processor"),
		cfg:    cfg.withDefaults(),
		now:    time.Now,
	}
}

// Enqueue records a failed delivery for later retry. It never surfaces an
// error to the calling request path: losing a queue write must not crash the
// send that already failed. The loss is logged and counted instead, which
// makes the delivery guarantee at-least-once-but-not-guaranteed.
func (p *Processor) Enqueue(ctx context.Context, doc *content.Doc, sendErr error, sourceID string, attempt int) {
	if attempt < 1 {
		attempt = 1
	}
	now := p.now().UTC()

	entry := &Entry{
		ID:    ulid.Make().String(),
		Doc:   doc,
		Error: snapshotOf(sendErr),
		Context: EntryContext{
			SourceID:   sourceID,
			Attempt:    attempt,
			MaxRetries: p.cfg.MaxRetries,
		},
		CreatedAt:     now,
		RetryAfter:    now.Add(p.nextDelay(attempt, sendErr)),
		LastAttemptAt: now,
	}

	if err := p.store.Add(ctx, entry); err != nil {
		writeFailures.Inc()
		p.logger.Error("dlq_write_failed",
			zap.Error(err),
			zap.String("source_id", sourceID),
			zap.String("entry_id", entry.ID),
		)
		return
	}

	p.logger.Info("dlq_entry_added",
		zap.String("entry_id", entry.ID),
		zap.String("source_id", sourceID),
		zap.Int("attempt", attempt),
		zap.Time("retry_after", entry.RetryAfter),
	)
}

// RecordTerminal writes a permanent-failure record directly, bypassing the
// pending queue. Used for failures that retrying cannot fix, auth errors
// chief among them; burning retry budget on those only delays the operator
// finding out.
func (p *Processor) RecordTerminal(ctx context.Context, doc *content.Doc, sendErr error, sourceID, reason string) {
	now := p.now().UTC()
	failed := &FailedEntry{
		ID:    ulid.Make().String(),
		Doc:   doc,
		Error: snapshotOf(sendErr),
		Context: EntryContext{
			SourceID:   sourceID,
			Attempt:    1,
			MaxRetries: p.cfg.MaxRetries,
		},
		FailedAt:      now,
		FailureReason: reason,
		CreatedAt:     now,
	}

	if err := p.store.MoveToFailed(ctx, failed); err != nil {
		writeFailures.Inc()
		p.logger.Error("dlq_terminal_write_failed",
			zap.Error(err),
			zap.String("source_id", sourceID),
			zap.String("reason", reason),
		)
	}
}

// Run drives ProcessOnce on a ticker until the context is cancelled. The
// design assumes one scheduler; overlapping invocations could double-process
// an entry.
func (p *Processor) Run(ctx context.Context) {
	p.ProcessOnce(ctx)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce handles one bounded batch of due entries, oldest-eligible first
// to bound worst-case staleness. Each entry takes exactly one path: delete on
// success, update in place on a retryable failure, or a single terminal move
// to the failed store.
func (p *Processor) ProcessOnce(ctx context.Context) Summary {
	var summary Summary
	now := p.now().UTC()

	entries, err := p.store.ListDue(ctx, now, p.cfg.BatchSize)
	if err != nil {
		p.logger.Error("dlq_list_due_failed", zap.Error(err))
		return summary
	}
	summary.Eligible = len(entries)

	for _, entry := range entries {
		p.processEntry(ctx, entry, &summary)
	}

	if stats, err := p.store.Stats(ctx, p.now().UTC()); err == nil {
		pendingDepth.Set(float64(stats.Pending))
	}

	return summary
}

func (p *Processor) processEntry(ctx context.Context, entry *Entry, summary *Summary) {
	if entry.Context.Attempt >= entry.Context.MaxRetries {
		p.moveToFailed(ctx, entry, "retry budget exhausted")
		summary.Exhausted++
		retryOutcomes.WithLabelValues("exhausted").Inc()
		return
	}

	_, err := p.sender.IngestContent(ctx, entry.Doc)
	if err == nil {
		if err := p.store.Delete(ctx, entry.ID); err != nil {
			p.logger.Error("dlq_delete_failed", zap.Error(err), zap.String("entry_id", entry.ID))
			return
		}
		summary.Succeeded++
		retryOutcomes.WithLabelValues("succeeded").Inc()
		p.logger.Info("dlq_retry_succeeded",
			zap.String("entry_id", entry.ID),
			zap.String("source_id", entry.Context.SourceID),
			zap.Int("attempt", entry.Context.Attempt),
		)
		return
	}

	var ingestErr *clcaclient.IngestError
	if errors.As(err, &ingestErr) && !ingestErr.Retryable() {
		p.moveToFailed(ctx, entry, "non-retryable failure: "+ingestErr.Message)
		summary.Terminal++
		retryOutcomes.WithLabelValues("terminal").Inc()
		return
	}

	now := p.now().UTC()
	entry.Context.Attempt++
	entry.Error = snapshotOf(err)
	entry.LastAttemptAt = now
	entry.RetryAfter = now.Add(p.nextDelay(entry.Context.Attempt, err))

	if err := p.store.Update(ctx, entry); err != nil {
		writeFailures.Inc()
		p.logger.Error("dlq_update_failed", zap.Error(err), zap.String("entry_id", entry.ID))
		return
	}
	summary.Retried++
	retryOutcomes.WithLabelValues("retried").Inc()
	p.logger.Warn("dlq_retry_failed",
		zap.String("entry_id", entry.ID),
		zap.String("source_id", entry.Context.SourceID),
		zap.Int("attempt", entry.Context.Attempt),
		zap.Time("retry_after", entry.RetryAfter),
	)
}

// moveToFailed demotes an entry to the permanent store. Best-effort: if the
// demotion itself fails it is logged, not re-queued.
func (p *Processor) moveToFailed(ctx context.Context, entry *Entry, reason string) {
	failed := &FailedEntry{
		ID:            ulid.Make().String(),
		Doc:           entry.Doc,
		Error:         entry.Error,
		Context:       entry.Context,
		FailedAt:      p.now().UTC(),
		FailureReason: reason,
		OriginalDLQID: entry.ID,
		CreatedAt:     entry.CreatedAt,
	}

	if err := p.store.MoveToFailed(ctx, failed); err != nil {
		p.logger.Error("dlq_move_to_failed_failed",
			zap.Error(err),
			zap.String("entry_id", entry.ID),
			zap.String("source_id", entry.Context.SourceID),
		)
		return
	}

	p.logger.Warn("dlq_entry_moved_to_failed",
		zap.String("entry_id", entry.ID),
		zap.String("source_id", entry.Context.SourceID),
		zap.String("reason", reason),
		zap.Int("attempt", entry.Context.Attempt),
	)
}

// nextDelay computes the backoff, honoring a Retry-After hint from the remote
// as a minimum.
func (p *Processor) nextDelay(attempt int, sendErr error) time.Duration {
	delay := Backoff(attempt, p.cfg.BaseBackoff, p.cfg.MaxBackoff)

	var ingestErr *clcaclient.IngestError
	if errors.As(sendErr, &ingestErr) && ingestErr.RetryAfter > delay {
		return ingestErr.RetryAfter
	}
	return delay
}

// Stats exposes read-only queue introspection for the admin API.
func (p *Processor) Stats(ctx context.Context) (*Stats, error) {
	return p.store.Stats(ctx, p.now().UTC())
}

// Items lists pending entries for the admin API.
func (p *Processor) Items(ctx context.Context, limit int) ([]*Entry, error) {
	return p.store.Items(ctx, limit)
}

// FailedItems lists permanent failures for the admin API.
func (p *Processor) FailedItems(ctx context.Context, limit int) ([]*FailedEntry, error) {
	return p.store.FailedItems(ctx, limit)
}

// Clear bulk-deletes pending entries. Recovery scenarios only.
func (p *Processor) Clear(ctx context.Context) (int64, error) {
	return p.store.Clear(ctx)
}

func snapshotOf(err error) ErrorSnapshot {
	if err == nil {
		return ErrorSnapshot{}
	}

	var ingestErr *clcaclient.IngestError
	if errors.As(err, &ingestErr) {
		return ErrorSnapshot{
			Message:    ingestErr.Message,
			StatusCode: ingestErr.StatusCode,
			RequestID:  ingestErr.RemoteRequestID,
		}
	}
	return ErrorSnapshot{Message: err.Error()}
}
