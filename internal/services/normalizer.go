package services

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"alfredoptarigan/career-hub/internal/apperrors"
	"alfredoptarigan/career-hub/internal/models"
)

var (
	codeFencePattern = regexp.MustCompile("(?i)```(?:json)?[ \t]*\r?\n?")
	blankLinePattern = regexp.MustCompile(`\n\s*\n`)

	errNotJSONObject = errors.New("response is not a JSON object")
)

// ParsedResponse is either a decoded JSON object or a malformed payload.
type ParsedResponse struct {
	Raw    string
	fields map[string]any
	err    error
}

func (p ParsedResponse) Valid() bool {
	return p.err == nil
}

func (p ParsedResponse) Err() error {
	return p.err
}

type ResponseNormalizer struct{}

func NewResponseNormalizer() *ResponseNormalizer {
	return &ResponseNormalizer{}
}

// CleanResponse strips code fences and backticks, collapses blank lines and
// trims. Text around a single top-level object is dropped.
func CleanResponse(raw string) string {
	cleaned := codeFencePattern.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, "`", "")
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")
	cleaned = blankLinePattern.ReplaceAllString(cleaned, "\n")
	return extractObject(strings.TrimSpace(cleaned))
}

// extractObject cuts text down to its outermost {...} span. Top-level arrays
// are left alone so they still fail as non-objects.
func extractObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return text
	}
	if arr := strings.Index(text, "["); arr != -1 && arr < start {
		return text
	}
	return text[start : end+1]
}

func (n *ResponseNormalizer) Parse(raw string) ParsedResponse {
	cleaned := CleanResponse(raw)

	var decoded any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return ParsedResponse{Raw: raw, err: err}
	}

	fields, ok := decoded.(map[string]any)
	if !ok {
		return ParsedResponse{Raw: raw, err: errNotJSONObject}
	}

	return ParsedResponse{Raw: raw, fields: fields}
}

// Normalize turns raw backend output into a fully populated AnalysisResult.
func (n *ResponseNormalizer) Normalize(raw string, variant models.Variant) (*models.AnalysisResult, error) {
	parsed := n.Parse(raw)
	if !parsed.Valid() {
		return nil, apperrors.NewMalformedResponseError(raw, parsed.Err())
	}

	f := parsed.fields
	result := &models.AnalysisResult{
		MatchScore:            coerceScore(f["matchScore"]),
		Strengths:             coerceStringList(f["strengths"]),
		Gaps:                  coerceStringList(f["gaps"]),
		Improvements:          coerceStringList(f["improvements"]),
		OptimizedSection:      coerceString(f["optimizedSection"]),
		BeforeAfterComparison: coerceString(f["beforeAfterComparison"]),
		KeywordMatchScore:     coerceScore(f["keywordMatchScore"]),
	}

	if variant == models.VariantLinkedInProfile {
		completeness := coerceScore(f["profileCompleteness"])
		result.ProfileCompleteness = &completeness
	}

	return result, nil
}

// coerceScore yields an integer in [0, 100]; unusable values become 0.
func coerceScore(v any) int {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if t {
			f = 1
		}
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(f))))
}

func coerceStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, stringify(item))
	}
	return out
}

func coerceString(v any) string {
	switch v.(type) {
	case string, float64, bool:
		return stringify(v)
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
