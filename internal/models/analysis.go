package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisRequest is the input handed to the prompt builder.
type AnalysisRequest struct {
	Text           string
	JobDescription string
	Variant        Variant
}

// AnalysisResult is the normalized analysis. Every field is always populated;
// ProfileCompleteness is set only for the linkedin-profile variant.
type AnalysisResult struct {
	MatchScore            int      `json:"matchScore"`
	Strengths             []string `json:"strengths"`
	Gaps                  []string `json:"gaps"`
	Improvements          []string `json:"improvements"`
	OptimizedSection      string   `json:"optimizedSection"`
	BeforeAfterComparison string   `json:"beforeAfterComparison"`
	KeywordMatchScore     int      `json:"keywordMatchScore"`
	ProfileCompleteness   *int     `json:"profileCompleteness,omitempty"`
}

type Analysis struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID         string         `gorm:"type:text;not null;index:idx_analyses_user_variant" json:"userId"`
	Variant        Variant        `gorm:"type:text;not null;index:idx_analyses_user_variant" json:"variant"`
	JobDescription string         `gorm:"type:text" json:"jobDescription"`
	Result         AnalysisResult `gorm:"type:jsonb;serializer:json" json:"analysis"`
	CreatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
}

func (Analysis) TableName() string {
	return "analyses"
}
