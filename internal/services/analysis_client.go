package services

import (
	"context"
	"errors"
	"fmt"

	"alfredoptarigan/career-hub/internal/apperrors"
	"alfredoptarigan/career-hub/internal/logger"
	"alfredoptarigan/career-hub/internal/metrics"
)

// FallbackPolicy decides which backend failures move on to the next backend.
type FallbackPolicy string

const (
	// FallbackAnyError advances on every failure except when the failing
	// backend is the last one.
	FallbackAnyError FallbackPolicy = "any-error"
	// FallbackRateLimitOnly advances only on rate limiting and fails fast otherwise.
	FallbackRateLimitOnly FallbackPolicy = "rate-limit-only"
)

var errNoBackends = errors.New("no analysis backends configured")

func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch FallbackPolicy(s) {
	case FallbackAnyError, "":
		return FallbackAnyError, nil
	case FallbackRateLimitOnly:
		return FallbackRateLimitOnly, nil
	}
	return "", fmt.Errorf("unknown fallback policy %q", s)
}

// AnalysisClient submits prompts to an ordered list of backends, trying each
// at most once.
type AnalysisClient struct {
	backends []Backend
	policy   FallbackPolicy
	log      logger.Logger
	metrics  *metrics.Metrics
}

func NewAnalysisClient(backends []Backend, policy FallbackPolicy, log logger.Logger, m *metrics.Metrics) *AnalysisClient {
	return &AnalysisClient{
		backends: backends,
		policy:   policy,
		log:      log,
		metrics:  m,
	}
}

// Submit returns the first successful completion. When every backend has been
// tried, or the policy stops early, it returns an AnalysisError wrapping the
// last failure.
func (c *AnalysisClient) Submit(ctx context.Context, prompt string) (string, error) {
	if len(c.backends) == 0 {
		return "", apperrors.NewAnalysisError(errNoBackends)
	}

	var lastErr error
	for i, backend := range c.backends {
		if err := ctx.Err(); err != nil {
			return "", apperrors.NewAnalysisError(fmt.Errorf("analysis cancelled before %s: %w", backend.Name(), err))
		}

		log := c.log.With(map[string]interface{}{
			"backend": backend.Name(),
			"attempt": i + 1,
		})
		log.Debug("submitting prompt", map[string]interface{}{"prompt_chars": len(prompt)})

		text, err := backend.Generate(ctx, prompt)
		if err == nil {
			c.metrics.ObserveBackend(backend.Name(), "success")
			return text, nil
		}

		lastErr = err
		isLast := i == len(c.backends)-1

		if IsRateLimited(err) {
			c.metrics.ObserveBackend(backend.Name(), "rate_limited")
			log.Warn("backend rate limited, trying next backend", map[string]interface{}{"last": isLast})
			continue
		}

		c.metrics.ObserveBackend(backend.Name(), "error")
		log.WithError(err).Warn("backend call failed", map[string]interface{}{"last": isLast})

		if c.policy == FallbackRateLimitOnly {
			return "", apperrors.NewAnalysisError(err)
		}
	}

	return "", apperrors.NewAnalysisError(lastErr)
}
