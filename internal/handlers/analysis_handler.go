package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/career-hub/internal/apperrors"
	"alfredoptarigan/career-hub/internal/logger"
	"alfredoptarigan/career-hub/internal/models"
	"alfredoptarigan/career-hub/internal/repositories"
	"alfredoptarigan/career-hub/internal/services"
)

// Analyzer runs a staged artifact through the analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, artifact *models.UploadedArtifact, jobDescription string, variant models.Variant) (*models.AnalysisResult, error)
}

type AnalysisHandler struct {
	analyzer       Analyzer
	storageService services.StorageService
	analysisRepo   repositories.AnalysisRepository
	maxFileSize    int64
	log            logger.Logger
}

func NewAnalysisHandler(
	analyzer Analyzer,
	storageService services.StorageService,
	analysisRepo repositories.AnalysisRepository,
	maxFileSize int64,
	log logger.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer:       analyzer,
		storageService: storageService,
		analysisRepo:   analysisRepo,
		maxFileSize:    maxFileSize,
		log:            log,
	}
}

// HandleCheckResume handles POST /check-resume
func (h *AnalysisHandler) HandleCheckResume(c *fiber.Ctx) error {
	return h.handleAnalyze(c, models.VariantResume, "resume")
}

// HandleLinkedInAnalyze handles POST /linkedin-analyze
func (h *AnalysisHandler) HandleLinkedInAnalyze(c *fiber.Ctx) error {
	return h.handleAnalyze(c, models.VariantLinkedInProfile, "linkedinPdf")
}

func (h *AnalysisHandler) handleAnalyze(c *fiber.Ctx, variant models.Variant, field string) error {
	file, err := c.FormFile(field)
	if err != nil {
		return apperrors.NewValidationError("No file uploaded")
	}

	if file.Size > h.maxFileSize {
		return apperrors.NewValidationError(fmt.Sprintf("File too large. Max size: %d bytes", h.maxFileSize))
	}

	if !variant.AllowsMediaType(services.ParseMediaType(file.Header.Get("Content-Type"))) {
		return apperrors.NewValidationError(unsupportedMediaTypeMessage(variant))
	}

	jobDescription := strings.TrimSpace(c.FormValue("jobDescription"))
	if jobDescription == "" {
		return apperrors.NewValidationError("Job description is required")
	}

	artifact, err := h.storageService.Stage(file, variant)
	if err != nil {
		return apperrors.New(apperrors.KindInternal, "Failed to save uploaded file", err)
	}

	ctx := c.UserContext()
	result, err := h.analyzer.Analyze(ctx, artifact, jobDescription, variant)
	if err != nil {
		return err
	}

	record := models.Analysis{
		ID:             uuid.New(),
		UserID:         currentUser(c),
		Variant:        variant,
		JobDescription: jobDescription,
		Result:         *result,
		CreatedAt:      time.Now(),
	}

	// The analysis is still returned when history cannot be written.
	if err := h.analysisRepo.Create(ctx, &record); err != nil {
		h.log.WithError(err).Error("failed to save analysis", map[string]interface{}{
			"user_id": record.UserID,
			"variant": string(variant),
		})
	}

	return c.JSON(result)
}

func unsupportedMediaTypeMessage(variant models.Variant) string {
	if variant == models.VariantLinkedInProfile {
		return "Only PDF files are allowed for LinkedIn profile analysis"
	}
	return "Only PDF, DOCX, JPG and PNG files are allowed"
}
