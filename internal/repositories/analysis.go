package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"alfredoptarigan/career-hub/internal/models"
)

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *models.Analysis) error
	FindRecentByUser(ctx context.Context, userID string, variant models.Variant, limit int) ([]models.Analysis, error)
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	if err := r.db.WithContext(ctx).Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

// FindRecentByUser returns the newest analyses first.
func (r *analysisRepository) FindRecentByUser(ctx context.Context, userID string, variant models.Variant, limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND variant = ?", userID, variant).
		Order("created_at DESC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find analyses: %w", err)
	}

	return analyses, nil
}
