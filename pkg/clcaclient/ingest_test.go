package clcaclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
)

type stubSigner struct {
	token string
	err   error
	jtis  []string
}

func (s *stubSigner) SignedToken(requestID string) (string, error) {
	s.jtis = append(s.jtis, requestID)
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func testClient(baseURL string, signer TokenSigner) *Client {
	return New(Config{
		BaseURL:   baseURL,
		ClientID:  "ttg-clca-bridge",
		Timeout:   5 * time.Second,
		RateLimit: 6000,
		RateBurst: 100,
	}, signer)
}

func ingestDoc() *content.Doc {
	return &content.Doc{
		ID:          "ttg:event:42",
		Title:       "Friday Game Night",
		OwnerSystem: content.OwnerSystem,
		OriginalID:  "event:42",
	}
}

func TestClient_IngestContent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/ingest/content", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "ttg-clca-bridge", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var doc content.Doc
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		assert.Equal(t, "ttg:event:42", doc.ID)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(IngestResult{
			Status:          "created",
			ID:              doc.ID,
			IngestRequestID: "remote-1",
		})
	}))
	defer server.Close()

	signer := &stubSigner{token: "test-token"}
	client := testClient(server.URL, signer)

	result, err := client.IngestContent(context.Background(), ingestDoc())

	require.NoError(t, err)
	assert.Equal(t, "created", result.Status)
	assert.Equal(t, "ttg:event:42", result.ID)
	assert.Equal(t, "remote-1", result.IngestRequestID)
	require.Len(t, signer.jtis, 1)
	assert.NotEmpty(t, signer.jtis[0])
}

func TestClient_IngestContent_ServerErrorParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"error":     "unavailable",
			"message":   "ingestion paused for maintenance",
			"requestId": "remote-err-7",
		})
	}))
	defer server.Close()

	client := testClient(server.URL, &stubSigner{token: "test-token"})

	_, err := client.IngestContent(context.Background(), ingestDoc())

	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, http.StatusServiceUnavailable, ingestErr.StatusCode)
	assert.Equal(t, "ingestion paused for maintenance", ingestErr.Message)
	assert.Equal(t, "remote-err-7", ingestErr.RemoteRequestID)
	assert.Equal(t, 120*time.Second, ingestErr.RetryAfter)
	assert.True(t, ingestErr.Retryable())
}

func TestClient_IngestContent_ValidationRejectionNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":"invalid","message":"ownerSystem mismatch"}`)
	}))
	defer server.Close()

	client := testClient(server.URL, &stubSigner{token: "test-token"})

	_, err := client.IngestContent(context.Background(), ingestDoc())

	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, http.StatusUnprocessableEntity, ingestErr.StatusCode)
	assert.False(t, ingestErr.Retryable())
}

func TestClient_IngestContent_TimeoutMapsTo408(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(Config{
		BaseURL:   server.URL,
		ClientID:  "ttg-clca-bridge",
		Timeout:   50 * time.Millisecond,
		RateLimit: 6000,
		RateBurst: 100,
	}, &stubSigner{token: "test-token"})

	_, err := client.IngestContent(context.Background(), ingestDoc())

	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, http.StatusRequestTimeout, ingestErr.StatusCode)
	assert.True(t, ingestErr.Retryable())
}

func TestClient_IngestContent_ConnectionRefusedRetryable(t *testing.T) {
	client := testClient("http://127.0.0.1:1", &stubSigner{token: "test-token"})

	_, err := client.IngestContent(context.Background(), ingestDoc())

	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, 0, ingestErr.StatusCode)
	assert.True(t, ingestErr.Retryable())
}

func TestClient_IngestContent_SignerFailure(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := testClient(server.URL, &stubSigner{err: errors.New("no secret configured")})

	_, err := client.IngestContent(context.Background(), ingestDoc())

	require.Error(t, err)
	assert.False(t, called)
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/health", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(server.URL, &stubSigner{token: "test-token"})

	assert.NoError(t, client.Health(context.Background()))
}

func TestClient_Health_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream down")
	}))
	defer server.Close()

	client := testClient(server.URL, &stubSigner{token: "test-token"})

	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-5"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("garbage"))

	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	got := parseRetryAfter(future)
	assert.Greater(t, got, 80*time.Second)
	assert.LessOrEqual(t, got, 90*time.Second)
}
