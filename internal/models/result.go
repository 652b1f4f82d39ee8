package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details,omitempty"`
}

type AnalysisHistoryItem struct {
	ID             string         `json:"id"`
	JobDescription string         `json:"jobDescription"`
	Analysis       AnalysisResult `json:"analysis"`
	CreatedAt      time.Time      `json:"createdAt"`
}

type AnalysisHistoryResponse struct {
	Variant  Variant               `json:"variant"`
	Analyses []AnalysisHistoryItem `json:"analyses"`
}

func NewAnalysisHistoryItem(a Analysis) AnalysisHistoryItem {
	return AnalysisHistoryItem{
		ID:             a.ID.String(),
		JobDescription: a.JobDescription,
		Analysis:       a.Result,
		CreatedAt:      a.CreatedAt,
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	History []ChatMessage `json:"history"`
}

type ChatResponse struct {
	Response string `json:"response"`
}
