package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nuforge/ttg-clca-bridge/internal/config"
	"github.com/nuforge/ttg-clca-bridge/internal/dlq"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/event"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/game"
	"github.com/nuforge/ttg-clca-bridge/internal/mapping"
	syncer "github.com/nuforge/ttg-clca-bridge/internal/sync"
	"github.com/nuforge/ttg-clca-bridge/pkg/clcaclient"
	"github.com/nuforge/ttg-clca-bridge/pkg/testhelper"
)

type mockEventRepository struct {
	events map[int64]*event.Event
}

func (m *mockEventRepository) FindByID(ctx context.Context, id int64) (*event.Event, error) {
	return m.events[id], nil
}

func (m *mockEventRepository) ListSyncable(ctx context.Context, limit int) ([]*event.Event, error) {
	var result []*event.Event
	for _, ev := range m.events {
		result = append(result, ev)
	}
	return result, nil
}

func (m *mockEventRepository) UpdateSyncStatus(ctx context.Context, id int64, status event.SyncStatus) error {
	return nil
}

type mockGameRepository struct {
	games map[int64]*game.Game
}

func (m *mockGameRepository) FindByID(ctx context.Context, id int64) (*game.Game, error) {
	return m.games[id], nil
}

func (m *mockGameRepository) ListSyncable(ctx context.Context, limit int) ([]*game.Game, error) {
	var result []*game.Game
	for _, g := range m.games {
		result = append(result, g)
	}
	return result, nil
}

func (m *mockGameRepository) UpdateSyncStatus(ctx context.Context, id int64, status event.SyncStatus) error {
	return nil
}

type routerFixture struct {
	router *Router
	ingest *testhelper.MockIngestor
	store  *testhelper.MemStore
	events *mockEventRepository
	games  *mockGameRepository
}

func newRouterFixture(adminToken string) *routerFixture {
	f := &routerFixture{
		ingest: &testhelper.MockIngestor{},
		store:  testhelper.NewMemStore(),
		events: &mockEventRepository{events: make(map[int64]*event.Event)},
		games:  &mockGameRepository{games: make(map[int64]*game.Game)},
	}

	logger := zap.NewNop()
	processor := dlq.NewProcessor(f.store, f.ingest, dlq.Config{MaxRetries: 5, BatchSize: 10}, logger)
	orchestrator := syncer.NewOrchestrator(
		f.events,
		f.games,
		mapping.New("https://club.example.org", logger),
		f.ingest,
		processor,
		syncer.Config{ResyncDelay: time.Millisecond},
		logger,
	)

	cfg := &config.Config{Port: "0", AdminAPIToken: adminToken}
	f.router = NewRouter(cfg, orchestrator, processor, clcaclient.New(clcaclient.Config{}, &testhelper.FakeSigner{}), logger)
	return f
}

func (f *routerFixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.engine.ServeHTTP(w, req)
	return w
}

func syncableEvent(id int64) *event.Event {
	return &event.Event{
		ID:        id,
		Title:     "Friday Game Night",
		Status:    event.StatusUpcoming,
		Date:      "2025-03-10",
		StartTime: "18:00",
		EndTime:   "21:00",
		Location:  "Community Hall",
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture("")
	w := f.do("GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SyncEvent_Success(t *testing.T) {
	f := newRouterFixture("")
	f.events.events[42] = syncableEvent(42)

	w := f.do("POST", "/api/sync/events/42", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var result clcaclient.IngestResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "created", result.Status)
}

func TestRouter_SyncEvent_InvalidID(t *testing.T) {
	f := newRouterFixture("")
	w := f.do("POST", "/api/sync/events/not-a-number", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_SyncEvent_NotFound(t *testing.T) {
	f := newRouterFixture("")
	w := f.do("POST", "/api/sync/events/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SyncEvent_ValidationFailure(t *testing.T) {
	f := newRouterFixture("")
	ev := syncableEvent(42)
	ev.Title = ""
	f.events.events[42] = ev

	w := f.do("POST", "/api/sync/events/42", "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, f.store.Entries)
}

func TestRouter_SyncEvent_SendFailureQueued(t *testing.T) {
	f := newRouterFixture("")
	f.events.events[42] = syncableEvent(42)
	f.ingest.Err = &clcaclient.IngestError{StatusCode: 503, Message: "down"}

	w := f.do("POST", "/api/sync/events/42", "")

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "queued")
	assert.Len(t, f.store.Entries, 1)
}

func TestRouter_ArchiveEvent(t *testing.T) {
	f := newRouterFixture("")
	f.events.events[42] = syncableEvent(42)

	w := f.do("DELETE", "/api/sync/events/42", "")

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.ingest.Sent, 1)
	assert.Equal(t, "deleted", string(f.ingest.Sent[0].Status))
}

func TestRouter_Admin_RequiresToken(t *testing.T) {
	f := newRouterFixture("secret-token")

	assert.Equal(t, http.StatusUnauthorized, f.do("GET", "/admin/dlq/stats", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do("GET", "/admin/dlq/stats", "wrong").Code)
	assert.Equal(t, http.StatusOK, f.do("GET", "/admin/dlq/stats", "secret-token").Code)
}

func TestRouter_Admin_DisabledWithoutToken(t *testing.T) {
	f := newRouterFixture("")
	assert.Equal(t, http.StatusForbidden, f.do("GET", "/admin/dlq/stats", "anything").Code)
}

func TestRouter_Admin_ProcessDLQ(t *testing.T) {
	f := newRouterFixture("secret-token")
	require.NoError(t, f.store.Add(context.Background(), &dlq.Entry{
		ID: "e1",
		Doc: &content.Doc{
			ID:          "ttg:event:42",
			Title:       "Friday Game Night",
			OwnerSystem: content.OwnerSystem,
			OriginalID:  "event:42",
		},
		Context:    dlq.EntryContext{SourceID: "event:42", Attempt: 1, MaxRetries: 5},
		RetryAfter: time.Now().Add(-time.Minute),
	}))

	w := f.do("POST", "/admin/dlq/process", "secret-token")

	assert.Equal(t, http.StatusOK, w.Code)

	var summary dlq.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Succeeded)
	assert.Empty(t, f.store.Entries)
}

func TestRouter_Admin_Resync(t *testing.T) {
	f := newRouterFixture("secret-token")
	f.events.events[1] = syncableEvent(1)

	w := f.do("POST", "/admin/resync", "secret-token")

	assert.Equal(t, http.StatusOK, w.Code)

	var summary syncer.ResyncSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Success)
}

func TestRouter_Admin_ClearDLQ(t *testing.T) {
	f := newRouterFixture("secret-token")
	require.NoError(t, f.store.Add(context.Background(), &dlq.Entry{
		ID:         "e1",
		Context:    dlq.EntryContext{SourceID: "event:42", Attempt: 1, MaxRetries: 5},
		RetryAfter: time.Now().Add(time.Hour),
	}))

	w := f.do("DELETE", "/admin/dlq", "secret-token")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"removed":1`)
	assert.Empty(t, f.store.Entries)
}
