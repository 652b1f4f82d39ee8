package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/career-hub/internal/apperrors"
	"alfredoptarigan/career-hub/internal/models"
	"alfredoptarigan/career-hub/internal/repositories"
)

type HistoryHandler struct {
	analysisRepo repositories.AnalysisRepository
	limit        int
}

func NewHistoryHandler(analysisRepo repositories.AnalysisRepository, limit int) *HistoryHandler {
	if limit < 1 {
		limit = 10
	}
	return &HistoryHandler{
		analysisRepo: analysisRepo,
		limit:        limit,
	}
}

// HandleResumeAnalyses handles GET /resume-analyses
func (h *HistoryHandler) HandleResumeAnalyses(c *fiber.Ctx) error {
	return h.handleHistory(c, models.VariantResume)
}

// HandleLinkedInAnalyses handles GET /linkedin-analyses
func (h *HistoryHandler) HandleLinkedInAnalyses(c *fiber.Ctx) error {
	return h.handleHistory(c, models.VariantLinkedInProfile)
}

func (h *HistoryHandler) handleHistory(c *fiber.Ctx, variant models.Variant) error {
	analyses, err := h.analysisRepo.FindRecentByUser(c.UserContext(), currentUser(c), variant, h.limit)
	if err != nil {
		return apperrors.New(apperrors.KindInternal, "Failed to fetch analyses", err)
	}

	response := models.AnalysisHistoryResponse{
		Variant:  variant,
		Analyses: make([]models.AnalysisHistoryItem, 0, len(analyses)),
	}
	for _, a := range analyses {
		response.Analyses = append(response.Analyses, models.NewAnalysisHistoryItem(a))
	}

	return c.JSON(response)
}
