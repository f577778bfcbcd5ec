package clcaclient

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BaseURL  string
	ClientID string

	Issuer        string
	Audience      string
	SigningSecret string
	TokenTTL      time.Duration

	Timeout time.Duration

	RateLimit int
	RateBurst int

	CircuitBreakerEnabled bool
	CBFailureThreshold    int
	CBRecoveryTime        time.Duration
	CBMinRequests         int
	CBSamplingDuration    time.Duration
	CBHalfOpenMaxSuccess  int
}

func LoadFromEnv() Config {
	return Config{
		BaseURL:  os.Getenv("CLCA_BASE_URL"),
		ClientID: getStr("CLCA_CLIENT_ID", "ttg-clca-bridge"),

		Issuer:        getStr("CLCA_TOKEN_ISSUER", "ttg"),
		Audience:      getStr("CLCA_TOKEN_AUDIENCE", "clca"),
		SigningSecret: os.Getenv("CLCA_SIGNING_SECRET"),
		TokenTTL:      time.Second * time.Duration(getInt("CLCA_TOKEN_TTL_SECONDS", 300)),

		Timeout: time.Second * time.Duration(getInt("CLCA_CLIENT_TIMEOUT", 15)),

		RateLimit: getInt("CLCA_CLIENT_RATE_LIMIT", 60),
		RateBurst: getInt("CLCA_CLIENT_RATE_BURST", 2),

		CircuitBreakerEnabled: getBool("CLCA_CLIENT_ENABLE_CIRCUIT_BREAKER", true),
		CBFailureThreshold:    getInt("CLCA_CLIENT_CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
		CBRecoveryTime:        time.Second * time.Duration(getInt("CLCA_CLIENT_CIRCUIT_BREAKER_RECOVERY_TIME", 60)),
		CBMinRequests:         getInt("CLCA_CLIENT_CIRCUIT_BREAKER_MIN_REQUESTS", 10),
		CBSamplingDuration:    time.Second * time.Duration(getInt("CLCA_CLIENT_CIRCUIT_BREAKER_SAMPLING_DURATION", 60)),
		CBHalfOpenMaxSuccess:  getInt("CLCA_CLIENT_CIRCUIT_BREAKER_HALF_OPEN_MAX_SUCCESS", 3),
	}
}

func getStr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		return v == "true"
	}
	return def
}
