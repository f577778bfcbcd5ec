package dlq_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nuforge/ttg-clca-bridge/internal/dlq"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
	"github.com/nuforge/ttg-clca-bridge/pkg/clcaclient"
	"github.com/nuforge/ttg-clca-bridge/pkg/testhelper"
)

func testDoc(id string) *content.Doc {
	return &content.Doc{
		ID:          id,
		Title:       "Friday Game Night",
		OwnerSystem: content.OwnerSystem,
		OriginalID:  "event:42",
	}
}

func newTestProcessor(store dlq.Store, sender dlq.Sender) *dlq.Processor {
	return dlq.NewProcessor(store, sender, dlq.Config{
		MaxRetries:  5,
		BatchSize:   10,
		BaseBackoff: time.Minute,
		MaxBackoff:  16 * time.Minute,
	}, zap.NewNop())
}

func pendingEntry(id string, attempt, maxRetries int, retryAfter time.Time) *dlq.Entry {
	return &dlq.Entry{
		ID:  id,
		Doc: testDoc("ttg:event:42"),
		Context: dlq.EntryContext{
			SourceID:   "event:42",
			Attempt:    attempt,
			MaxRetries: maxRetries,
		},
		CreatedAt:  retryAfter.Add(-time.Hour),
		RetryAfter: retryAfter,
	}
}

func TestProcessor_Enqueue(t *testing.T) {
	store := testhelper.NewMemStore()
	p := newTestProcessor(store, &testhelper.MockIngestor{})

	sendErr := &clcaclient.IngestError{StatusCode: 503, Message: "upstream sad", RemoteRequestID: "req-9"}
	p.Enqueue(context.Background(), testDoc("ttg:event:42"), sendErr, "event:42", 1)

	require.Len(t, store.Entries, 1)
	for _, entry := range store.Entries {
		assert.Equal(t, "event:42", entry.Context.SourceID)
		assert.Equal(t, 1, entry.Context.Attempt)
		assert.Equal(t, 5, entry.Context.MaxRetries)
		assert.Equal(t, 503, entry.Error.StatusCode)
		assert.Equal(t, "upstream sad", entry.Error.Message)
		assert.Equal(t, "req-9", entry.Error.RequestID)
		assert.True(t, entry.RetryAfter.After(time.Now().Add(50*time.Second)))
	}
}

func TestProcessor_Enqueue_StoreFailureSwallowed(t *testing.T) {
	store := testhelper.NewMemStore()
	store.ShouldFail = true
	p := newTestProcessor(store, &testhelper.MockIngestor{})

	p.Enqueue(context.Background(), testDoc("ttg:event:42"), fmt.Errorf("send failed"), "event:42", 1)

	assert.Empty(t, store.Entries)
	assert.Empty(t, store.Failed)
}

func TestProcessor_Enqueue_RetryAfterHintIsFloor(t *testing.T) {
	store := testhelper.NewMemStore()
	p := newTestProcessor(store, &testhelper.MockIngestor{})

	sendErr := &clcaclient.IngestError{
		StatusCode: http.StatusTooManyRequests,
		Message:    "slow down",
		RetryAfter: 45 * time.Minute,
	}
	p.Enqueue(context.Background(), testDoc("ttg:event:42"), sendErr, "event:42", 1)

	require.Len(t, store.Entries, 1)
	for _, entry := range store.Entries {
		assert.True(t, entry.RetryAfter.After(time.Now().Add(44*time.Minute)))
	}
}

func TestProcessor_RecordTerminal(t *testing.T) {
	store := testhelper.NewMemStore()
	p := newTestProcessor(store, &testhelper.MockIngestor{})

	sendErr := &clcaclient.IngestError{StatusCode: 401, Message: "bad credentials"}
	p.RecordTerminal(context.Background(), testDoc("ttg:event:42"), sendErr, "event:42", "auth failure")

	assert.Empty(t, store.Entries)
	require.Len(t, store.Failed, 1)
	for _, failed := range store.Failed {
		assert.Equal(t, "auth failure", failed.FailureReason)
		assert.Equal(t, 401, failed.Error.StatusCode)
		assert.Empty(t, failed.OriginalDLQID)
	}
}

func TestProcessor_ProcessOnce_EmptyQueue(t *testing.T) {
	p := newTestProcessor(testhelper.NewMemStore(), &testhelper.MockIngestor{})

	summary := p.ProcessOnce(context.Background())

	assert.Equal(t, dlq.Summary{}, summary)
}

func TestProcessor_ProcessOnce_NotDueEntryUntouched(t *testing.T) {
	store := testhelper.NewMemStore()
	sender := &testhelper.MockIngestor{}
	p := newTestProcessor(store, sender)

	future := time.Now().Add(10 * time.Minute)
	require.NoError(t, store.Add(context.Background(), pendingEntry("e1", 2, 5, future)))

	summary := p.ProcessOnce(context.Background())

	assert.Equal(t, 0, summary.Eligible)
	assert.Empty(t, sender.Sent)
	require.Len(t, store.Entries, 1)
	assert.Equal(t, 2, store.Entries["e1"].Context.Attempt)
}

func TestProcessor_ProcessOnce_SuccessDeletesEntry(t *testing.T) {
	store := testhelper.NewMemStore()
	sender := &testhelper.MockIngestor{}
	p := newTestProcessor(store, sender)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, store.Add(context.Background(), pendingEntry("e1", 2, 5, past)))

	summary := p.ProcessOnce(context.Background())

	assert.Equal(t, 1, summary.Eligible)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Len(t, sender.Sent, 1)
	assert.Empty(t, store.Entries)
	assert.Empty(t, store.Failed)
}

func TestProcessor_ProcessOnce_RetryableFailureReschedules(t *testing.T) {
	store := testhelper.NewMemStore()
	sender := &testhelper.MockIngestor{
		Err: &clcaclient.IngestError{StatusCode: 503, Message: "still sad"},
	}
	p := newTestProcessor(store, sender)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, store.Add(context.Background(), pendingEntry("e1", 2, 5, past)))

	summary := p.ProcessOnce(context.Background())

	assert.Equal(t, 1, summary.Retried)
	require.Len(t, store.Entries, 1)
	entry := store.Entries["e1"]
	assert.Equal(t, 3, entry.Context.Attempt)
	assert.Equal(t, "still sad", entry.Error.Message)
	assert.True(t, entry.RetryAfter.After(time.Now()))
	assert.Empty(t, store.Failed)
}

func TestProcessor_ProcessOnce_ExhaustedWithoutSend(t *testing.T) {
	store := testhelper.NewMemStore()
	sender := &testhelper.MockIngestor{}
	p := newTestProcessor(store, sender)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, store.Add(context.Background(), pendingEntry("e1", 5, 5, past)))

	summary := p.ProcessOnce(context.Background())

	assert.Equal(t, 1, summary.Exhausted)
	assert.Empty(t, sender.Sent)
	assert.Empty(t, store.Entries)
	require.Len(t, store.Failed, 1)
	for _, failed := range store.Failed {
		assert.Equal(t, "retry budget exhausted", failed.FailureReason)
		assert.Equal(t, "e1", failed.OriginalDLQID)
		assert.Equal(t, 5, failed.Context.Attempt)
	}
}

func TestProcessor_ProcessOnce_NonRetryableMovesToFailed(t *testing.T) {
	store := testhelper.NewMemStore()
	sender := &testhelper.MockIngestor{
		Err: &clcaclient.IngestError{StatusCode: 422, Message: "schema rejected"},
	}
	p := newTestProcessor(store, sender)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, store.Add(context.Background(), pendingEntry("e1", 2, 5, past)))

	summary := p.ProcessOnce(context.Background())

	assert.Equal(t, 1, summary.Terminal)
	assert.Empty(t, store.Entries)
	require.Len(t, store.Failed, 1)
	for _, failed := range store.Failed {
		assert.Contains(t, failed.FailureReason, "non-retryable failure")
		assert.Contains(t, failed.FailureReason, "schema rejected")
	}
}

func TestProcessor_ProcessOnce_BatchSizeBoundsWork(t *testing.T) {
	store := testhelper.NewMemStore()
	sender := &testhelper.MockIngestor{}
	p := dlq.NewProcessor(store, sender, dlq.Config{
		MaxRetries: 5,
		BatchSize:  2,
	}, zap.NewNop())

	past := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("e%d", i)
		require.NoError(t, store.Add(context.Background(), pendingEntry(id, 1, 5, past)))
	}

	summary := p.ProcessOnce(context.Background())

	assert.Equal(t, 2, summary.Eligible)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Len(t, store.Entries, 1)
}

func TestProcessor_StatsAndItems(t *testing.T) {
	store := testhelper.NewMemStore()
	p := newTestProcessor(store, &testhelper.MockIngestor{})
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	require.NoError(t, store.Add(ctx, pendingEntry("e1", 1, 5, past)))
	require.NoError(t, store.Add(ctx, pendingEntry("e2", 1, 5, future)))

	stats, err := p.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(1), stats.Due)
	require.NotNil(t, stats.OldestRetryTime)

	items, err := p.Items(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	removed, err := p.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Empty(t, store.Entries)
}
