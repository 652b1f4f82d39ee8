package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"alfredoptarigan/career-hub/internal/apperrors"
	"alfredoptarigan/career-hub/internal/logger"
	"alfredoptarigan/career-hub/internal/metrics"
)

type fakeBackend struct {
	name  string
	text  string
	err   error
	calls int
	log   *[]string
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.log != nil {
		*f.log = append(*f.log, f.name)
	}
	return f.text, f.err
}

func rateLimited(name string) error {
	return fmt.Errorf("%s: %w", name, ErrRateLimited)
}

func TestAnalysisClient_Submit(t *testing.T) {
	tests := []struct {
		name          string
		policy        FallbackPolicy
		backends      func(order *[]string) []Backend
		expectText    string
		expectErr     bool
		expectOrder   []string
		expectCauseIs string
	}{
		{
			name:   "first backend succeeds",
			policy: FallbackAnyError,
			backends: func(order *[]string) []Backend {
				return []Backend{
					&fakeBackend{name: "flash", text: `{"matchScore":80}`, log: order},
					&fakeBackend{name: "pro", text: "unused", log: order},
				}
			},
			expectText:  `{"matchScore":80}`,
			expectOrder: []string{"flash"},
		},
		{
			name:   "rate limit falls through to second backend",
			policy: FallbackRateLimitOnly,
			backends: func(order *[]string) []Backend {
				return []Backend{
					&fakeBackend{name: "flash", err: rateLimited("flash"), log: order},
					&fakeBackend{name: "pro", text: "ok", log: order},
				}
			},
			expectText:  "ok",
			expectOrder: []string{"flash", "pro"},
		},
		{
			name:   "all backends rate limited",
			policy: FallbackAnyError,
			backends: func(order *[]string) []Backend {
				return []Backend{
					&fakeBackend{name: "flash", err: rateLimited("flash"), log: order},
					&fakeBackend{name: "pro", err: rateLimited("pro"), log: order},
				}
			},
			expectErr:     true,
			expectOrder:   []string{"flash", "pro"},
			expectCauseIs: "pro",
		},
		{
			name:   "non rate limit error falls through under any-error policy",
			policy: FallbackAnyError,
			backends: func(order *[]string) []Backend {
				return []Backend{
					&fakeBackend{name: "flash", err: errors.New("internal"), log: order},
					&fakeBackend{name: "pro", text: "ok", log: order},
				}
			},
			expectText:  "ok",
			expectOrder: []string{"flash", "pro"},
		},
		{
			name:   "non rate limit error stops under rate-limit-only policy",
			policy: FallbackRateLimitOnly,
			backends: func(order *[]string) []Backend {
				return []Backend{
					&fakeBackend{name: "flash", err: errors.New("invalid argument"), log: order},
					&fakeBackend{name: "pro", text: "ok", log: order},
				}
			},
			expectErr:     true,
			expectOrder:   []string{"flash"},
			expectCauseIs: "invalid argument",
		},
		{
			name:   "last backend error surfaces",
			policy: FallbackAnyError,
			backends: func(order *[]string) []Backend {
				return []Backend{
					&fakeBackend{name: "flash", err: rateLimited("flash"), log: order},
					&fakeBackend{name: "pro", err: errors.New("server unavailable"), log: order},
				}
			},
			expectErr:     true,
			expectOrder:   []string{"flash", "pro"},
			expectCauseIs: "server unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var order []string
			client := NewAnalysisClient(tt.backends(&order), tt.policy, logger.NewTestLogger(t), nil)

			text, err := client.Submit(context.Background(), "prompt")

			assert.Equal(t, tt.expectOrder, order)
			if tt.expectErr {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.KindAnalysis))
				assert.Contains(t, err.Error(), tt.expectCauseIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectText, text)
		})
	}
}

func TestAnalysisClient_EachBackendTriedOnce(t *testing.T) {
	backends := []*fakeBackend{
		{name: "a", err: rateLimited("a")},
		{name: "b", err: errors.New("boom")},
		{name: "c", err: rateLimited("c")},
	}
	client := NewAnalysisClient([]Backend{backends[0], backends[1], backends[2]}, FallbackAnyError, logger.NewNoOpLogger(), nil)

	_, err := client.Submit(context.Background(), "prompt")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	for _, b := range backends {
		assert.Equal(t, 1, b.calls, b.name)
	}
}

func TestAnalysisClient_NoBackends(t *testing.T) {
	client := NewAnalysisClient(nil, FallbackAnyError, logger.NewNoOpLogger(), nil)

	_, err := client.Submit(context.Background(), "prompt")

	assert.True(t, apperrors.Is(err, apperrors.KindAnalysis))
	assert.ErrorIs(t, err, errNoBackends)
}

func TestAnalysisClient_CancelledContext(t *testing.T) {
	backend := &fakeBackend{name: "flash", text: "ok"}
	client := NewAnalysisClient([]Backend{backend}, FallbackAnyError, logger.NewNoOpLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Submit(ctx, "prompt")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, backend.calls)
}

func TestAnalysisClient_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	client := NewAnalysisClient([]Backend{
		&fakeBackend{name: "flash", err: rateLimited("flash")},
		&fakeBackend{name: "pro", text: "ok"},
	}, FallbackAnyError, logger.NewNoOpLogger(), m)

	_, err := client.Submit(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendAttempts.WithLabelValues("flash", "rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendAttempts.WithLabelValues("pro", "success")))
}

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		limited bool
	}{
		{"http 429", genai.APIError{Code: 429, Status: "Too Many Requests"}, true},
		{"resource exhausted", genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}, true},
		{"wrapped 429", fmt.Errorf("call: %w", genai.APIError{Code: 429}), true},
		{"server error", genai.APIError{Code: 500, Status: "INTERNAL"}, false},
		{"transport error", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyGeminiError("gemini-2.5-flash", tt.err)
			assert.Equal(t, tt.limited, IsRateLimited(err))
			assert.Contains(t, err.Error(), "gemini-2.5-flash")
		})
	}
}

func TestParseFallbackPolicy(t *testing.T) {
	p, err := ParseFallbackPolicy("rate-limit-only")
	require.NoError(t, err)
	assert.Equal(t, FallbackRateLimitOnly, p)

	p, err = ParseFallbackPolicy("")
	require.NoError(t, err)
	assert.Equal(t, FallbackAnyError, p)

	_, err = ParseFallbackPolicy("never")
	assert.Error(t, err)
}
