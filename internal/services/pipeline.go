package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"alfredoptarigan/career-hub/internal/apperrors"
	"alfredoptarigan/career-hub/internal/logger"
	"alfredoptarigan/career-hub/internal/metrics"
	"alfredoptarigan/career-hub/internal/models"
)

// Submitter sends a prompt to the analysis backends.
type Submitter interface {
	Submit(ctx context.Context, prompt string) (string, error)
}

type AnalysisPipeline struct {
	extractor  TextExtractor
	gate       QualityGate
	prompts    *PromptBuilder
	client     Submitter
	normalizer *ResponseNormalizer
	log        logger.Logger
	metrics    *metrics.Metrics
}

func NewAnalysisPipeline(
	extractor TextExtractor,
	gate QualityGate,
	prompts *PromptBuilder,
	client Submitter,
	normalizer *ResponseNormalizer,
	log logger.Logger,
	m *metrics.Metrics,
) *AnalysisPipeline {
	return &AnalysisPipeline{
		extractor:  extractor,
		gate:       gate,
		prompts:    prompts,
		client:     client,
		normalizer: normalizer,
		log:        log,
		metrics:    m,
	}
}

// Analyze runs one artifact through extraction, the quality gate, the
// analysis backends and normalization. The staged artifact is removed on
// every exit path.
func (p *AnalysisPipeline) Analyze(ctx context.Context, artifact *models.UploadedArtifact, jobDescription string, variant models.Variant) (result *models.AnalysisResult, err error) {
	started := time.Now()

	scope := NewCleanupScope(p.log, p.metrics)
	scope.Track(artifact.Path)
	defer scope.Release()

	log := p.log.With(map[string]interface{}{
		"variant":    string(variant),
		"media_type": artifact.MediaType,
		"size":       artifact.Size,
	})

	defer func() {
		outcome := "success"
		if err != nil {
			outcome = strings.ToLower(string(apperrors.KindOf(err)))
			log.WithError(err).Warn("analysis failed", map[string]interface{}{
				"duration_ms": time.Since(started).Milliseconds(),
			})
		} else {
			log.Info("analysis completed", map[string]interface{}{
				"duration_ms": time.Since(started).Milliseconds(),
				"match_score": result.MatchScore,
			})
		}
		p.metrics.ObservePipeline(string(variant), outcome, started)
	}()

	if strings.TrimSpace(jobDescription) == "" {
		return nil, apperrors.NewValidationError("Job description is required")
	}

	text := p.extractText(ctx, artifact, variant, log)
	if !p.gate.IsMeaningful(text) {
		return nil, apperrors.NewQualityGateFailure(variant.Label(), utf8.RuneCountInString(text), p.gate.MinLength)
	}

	prompt := p.prompts.BuildAnalysisPrompt(models.AnalysisRequest{
		Text:           text,
		JobDescription: jobDescription,
		Variant:        variant,
	})

	raw, err := p.client.Submit(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return p.normalizer.Normalize(raw, variant)
}

// extractText runs the primary strategy and, when its output fails the gate,
// optical recognition once.
func (p *AnalysisPipeline) extractText(ctx context.Context, artifact *models.UploadedArtifact, variant models.Variant, log logger.Logger) string {
	primary := p.extractor.Primary(ctx, artifact, variant)
	if p.gate.IsMeaningful(primary.Text) || primary.Strategy == StrategyOCR {
		return primary.Text
	}

	log.Info("insufficient text extracted, falling back to optical recognition", map[string]interface{}{
		"strategy": primary.Strategy,
		"chars":    utf8.RuneCountInString(primary.Text),
	})

	return p.extractor.Fallback(ctx, artifact, variant).Text
}

// Chat answers the latest message of a career coaching conversation.
func (p *AnalysisPipeline) Chat(ctx context.Context, history []models.ChatMessage) (string, error) {
	if len(history) == 0 {
		return "", apperrors.NewValidationError("Chat history is required")
	}

	reply, err := p.client.Submit(ctx, p.prompts.BuildChatPrompt(history))
	if err != nil {
		p.log.WithError(err).Warn("chat failed", map[string]interface{}{"messages": len(history)})
		return "", err
	}

	return strings.TrimSpace(reply), nil
}
