package clcaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
)

// IngestResult reports how CLCA resolved the delivery. The remote system, not
// this client, decides created vs updated vs noop by comparing the
// (ownerSystem, originalId) idempotency key and the updatedAt clock.
type IngestResult struct {
	Status          string `json:"status"` // created | updated | noop
	ID              string `json:"id"`
	IngestRequestID string `json:"ingestRequestId,omitempty"`
}

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// IngestContent delivers one validated ContentDoc. Failures come back as
// *IngestError; classification (retryable or not) is the caller's to act on.
func (c *Client) IngestContent(ctx context.Context, doc *content.Doc) (*IngestResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &IngestError{Message: "rate limiter interrupted", Err: err}
	}

	var result *IngestResult
	err := c.breaker.Execute(func() error {
		r, err := c.postContent(ctx, doc)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &IngestError{Message: "circuit breaker open", Err: err}
		}
		return nil, err
	}
	return result, nil
}

func (c *Client) postContent(ctx context.Context, doc *content.Doc) (*IngestResult, error) {
	requestID := uuid.NewString()

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, &IngestError{Message: fmt.Sprintf("encode content doc: %v", err), RequestID: requestID, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/ingest/content", bytes.NewReader(body))
	if err != nil {
		return nil, &IngestError{Message: fmt.Sprintf("build request: %v", err), RequestID: requestID, Err: err}
	}
	if err := c.authorize(req, requestID); err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// A timeout is a distinct retryable failure from a plain network
		// error, mapped onto the 408 status it is equivalent to.
		if isTimeout(err) {
			return nil, &IngestError{
				StatusCode: http.StatusRequestTimeout,
				Message:    "request timed out",
				RequestID:  requestID,
				Err:        err,
			}
		}
		return nil, &IngestError{Message: fmt.Sprintf("request failed: %v", err), RequestID: requestID, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &IngestError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("read response body: %v", err),
			RequestID:  requestID,
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newIngestError(resp, raw, requestID)
	}

	var result IngestResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &IngestError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("decode ingest response: %v", err),
			RequestID:  requestID,
			Err:        err,
		}
	}
	return &result, nil
}

func (c *Client) authorize(req *http.Request, requestID string) error {
	token, err := c.signer.SignedToken(requestID)
	if err != nil {
		return &IngestError{Message: fmt.Sprintf("sign token: %v", err), RequestID: requestID, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.cfg.ClientID)
	req.Header.Set("X-Request-ID", requestID)
	return nil
}

func newIngestError(resp *http.Response, raw []byte, requestID string) *IngestError {
	ingestErr := &IngestError{
		StatusCode: resp.StatusCode,
		Message:    resp.Status,
		RequestID:  requestID,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			ingestErr.Message = body.Message
		} else if body.Error != "" {
			ingestErr.Message = body.Error
		}
		ingestErr.RemoteRequestID = body.RequestID
	} else if len(raw) > 0 {
		ingestErr.Message = fmt.Sprintf("%s: %s", resp.Status, string(raw))
	}

	return ingestErr
}

// parseRetryAfter handles both delay-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
