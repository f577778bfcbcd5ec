// Package clcaclient delivers ContentDocs to the CLCA ingestion endpoint and
// classifies the outcome. It never retries internally; retry policy belongs
// entirely to the dead-letter queue, which keeps this client stateless.
package clcaclient

import (
	"net/http"
)

type Client struct {
	cfg     Config
	http    *http.Client
	signer  TokenSigner
	limiter *RateLimiter
	breaker CircuitBreaker
}

func NewFromEnv() *Client {
	cfg := LoadFromEnv()
	return New(cfg, NewHMACSigner(cfg.SigningSecret, cfg.Issuer, cfg.Audience, cfg.TokenTTL))
}

func New(cfg Config, signer TokenSigner) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		signer:  signer,
		limiter: NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		breaker: NewCircuitBreaker(cfg),
	}
}
