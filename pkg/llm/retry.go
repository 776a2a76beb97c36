package llm

import (
	"math"
	"net/http"
	"strconv"
	"time"
)

// RetryStrategy picks how aggressively a failed upstream call is retried,
// classified three ways by response status.
type RetryStrategy int

const (
	// NoRetry applies to 4xx errors other than 429: the request itself is
	// malformed or unauthorized and retrying will not help.
	NoRetry RetryStrategy = iota
	// SmartRetry applies to 429: back off using whatever the provider's
	// rate-limit headers say, falling back to exponential backoff.
	SmartRetry
	// ConservativeRetry applies to 5xx: the provider is unhealthy: retry
	// with exponential backoff (no jitter), fewer attempts.
	ConservativeRetry
)

// classifyRetry picks a RetryStrategy for an HTTP status code.
func classifyRetry(status int) RetryStrategy {
	switch {
	case status == http.StatusTooManyRequests:
		return SmartRetry
	case status >= 500:
		return ConservativeRetry
	default:
		return NoRetry
	}
}

// RateLimit captures what a provider's rate-limit headers say about when to
// retry. Zero value means "nothing useful was present."
type RateLimit struct {
	RetryAfter time.Duration
	HasRetryAfter bool
}

// parseOpenAIRateLimitHeaders reads OpenAI-style rate-limit headers
// (Retry-After, in seconds).
func parseOpenAIRateLimitHeaders(h http.Header) RateLimit {
	return parseRetryAfterHeader(h)
}

func parseRetryAfterHeader(h http.Header) RateLimit {
	v := h.Get("Retry-After")
	if v == "" {
		return RateLimit{}
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return RateLimit{}
	}
	return RateLimit{RetryAfter: time.Duration(secs) * time.Second, HasRetryAfter: true}
}

// backoffDelay computes the delay before attempt number `attempt` (1-based),
// honoring a rate-limit hint when present and otherwise using exponential
// backoff with a fixed base, capped at 30s.
func backoffDelay(strategy RetryStrategy, attempt int, base time.Duration, rl RateLimit) time.Duration {
	if strategy == SmartRetry && rl.HasRetryAfter {
		return rl.RetryAfter
	}
	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	const cap = 30 * time.Second
	if delay > cap {
		delay = cap
	}
	return delay
}

// maxAttemptsFor returns how many attempts (including the first) a strategy
// allows, given the caller's configured ceiling.
func maxAttemptsFor(strategy RetryStrategy, configured int) int {
	switch strategy {
	case NoRetry:
		return 1
	case ConservativeRetry:
		if configured > 2 {
			return 2
		}
		return configured
	default:
		if configured < 1 {
			return 1
		}
		return configured
	}
}
