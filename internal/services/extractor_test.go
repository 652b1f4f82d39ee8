package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"alfredoptarigan/career-hub/internal/logger"
	"alfredoptarigan/career-hub/internal/models"
)

type fakeRecognizer struct {
	result OCRResult
	err    error
	calls  int
	last   models.Variant
}

func (f *fakeRecognizer) Recognize(ctx context.Context, path, mediaType string, variant models.Variant) (OCRResult, error) {
	f.calls++
	f.last = variant
	return f.result, f.err
}

func TestTextExtractor_PrimaryPDF(t *testing.T) {
	ocr := &fakeRecognizer{}
	extractor := NewTextExtractor(ocr, logger.NewTestLogger(t), nil)

	artifact := &models.UploadedArtifact{
		Content:   buildPDF(t, "Senior Go Engineer", "Built payment systems"),
		MediaType: models.MediaTypePDF,
	}

	result := extractor.Primary(context.Background(), artifact, models.VariantResume)

	require.NoError(t, result.Err)
	assert.Equal(t, StrategyPDF, result.Strategy)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, "Senior Go Engineer\nBuilt payment systems", result.Text)
	assert.Equal(t, 0, ocr.calls)
}

func TestTextExtractor_MalformedPDFIsEmpty(t *testing.T) {
	extractor := NewTextExtractor(&fakeRecognizer{}, logger.NewNoOpLogger(), nil)

	tests := []struct {
		name    string
		content []byte
	}{
		{"garbage", []byte("this is definitely not a pdf document at all")},
		{"empty", nil},
		{"header only", []byte("%PDF-1.4\n" + string(make([]byte, 200)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractor.Primary(context.Background(), &models.UploadedArtifact{
				Content:   tt.content,
				MediaType: models.MediaTypePDF,
			}, models.VariantResume)

			assert.True(t, result.Empty())
			assert.Error(t, result.Err)
			assert.Equal(t, StrategyPDF, result.Strategy)
		})
	}
}

func TestTextExtractor_PrimaryDOCX(t *testing.T) {
	extractor := NewTextExtractor(&fakeRecognizer{}, logger.NewNoOpLogger(), nil)

	body := `<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">Go </w:t></w:r><w:r><w:t>&amp; Postgres</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Skills</w:t><w:tab/><w:t>Kafka</w:t><w:br/><w:t>Redis</w:t></w:r></w:p>`

	result := extractor.Primary(context.Background(), &models.UploadedArtifact{
		Content:   buildDOCX(t, body),
		MediaType: models.MediaTypeDOCX,
	}, models.VariantResume)

	require.NoError(t, result.Err)
	assert.Equal(t, StrategyDOCX, result.Strategy)
	assert.Equal(t, "Jane Doe\nGo & Postgres\nSkills\tKafka\nRedis", result.Text)
}

func TestTextExtractor_MalformedDOCXIsEmpty(t *testing.T) {
	extractor := NewTextExtractor(&fakeRecognizer{}, logger.NewNoOpLogger(), nil)

	result := extractor.Primary(context.Background(), &models.UploadedArtifact{
		Content:   []byte("PK not really a zip"),
		MediaType: models.MediaTypeDOCX,
	}, models.VariantResume)

	assert.True(t, result.Empty())
	assert.Error(t, result.Err)
}

func TestTextExtractor_ImageGoesToOCR(t *testing.T) {
	ocr := &fakeRecognizer{result: OCRResult{Text: "scanned resume text", Pages: 1}}
	extractor := NewTextExtractor(ocr, logger.NewNoOpLogger(), nil)

	result := extractor.Primary(context.Background(), &models.UploadedArtifact{
		MediaType: models.MediaTypeJPEG,
		Path:      "/uploads/resume.jpg",
	}, models.VariantResume)

	require.NoError(t, result.Err)
	assert.Equal(t, StrategyOCR, result.Strategy)
	assert.Equal(t, "scanned resume text", result.Text)
	assert.Equal(t, 1, ocr.calls)
}

func TestTextExtractor_Fallback(t *testing.T) {
	t.Run("uses variant profile", func(t *testing.T) {
		ocr := &fakeRecognizer{result: OCRResult{Text: "ocr text", Pages: 2}}
		extractor := NewTextExtractor(ocr, logger.NewNoOpLogger(), nil)

		result := extractor.Fallback(context.Background(), &models.UploadedArtifact{
			MediaType: models.MediaTypePDF,
			Path:      "/uploads/profile.pdf",
		}, models.VariantLinkedInProfile)

		assert.Equal(t, "ocr text", result.Text)
		assert.Equal(t, models.VariantLinkedInProfile, ocr.last)
	})

	t.Run("ocr failure is empty, not raised", func(t *testing.T) {
		ocr := &fakeRecognizer{err: errors.New("tesseract missing")}
		extractor := NewTextExtractor(ocr, logger.NewNoOpLogger(), nil)

		result := extractor.Fallback(context.Background(), &models.UploadedArtifact{
			MediaType: models.MediaTypePDF,
			Path:      "/uploads/profile.pdf",
		}, models.VariantResume)

		assert.True(t, result.Empty())
		assert.EqualError(t, result.Err, "tesseract missing")
	})

	t.Run("no staged file", func(t *testing.T) {
		ocr := &fakeRecognizer{}
		extractor := NewTextExtractor(ocr, logger.NewNoOpLogger(), nil)

		result := extractor.Fallback(context.Background(), &models.UploadedArtifact{MediaType: models.MediaTypePDF}, models.VariantResume)

		assert.ErrorIs(t, result.Err, errNoStagedFile)
		assert.Equal(t, 0, ocr.calls)
	})
}

func TestTextExtractor_FailureIsLoggedAsExtractionFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	extractor := NewTextExtractor(&fakeRecognizer{}, logger.NewZapAdapter(zap.New(core)), nil)

	result := extractor.Primary(context.Background(), &models.UploadedArtifact{
		Content:   []byte("not a pdf"),
		MediaType: models.MediaTypePDF,
	}, models.VariantResume)
	require.Error(t, result.Err)

	entries := logs.FilterMessage("text extraction failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, StrategyPDF, fields["strategy"])
	assert.Contains(t, fields["error"], "EXTRACTION_FAILURE")
	assert.Contains(t, fields["error"], "text extraction failed (pdf)")
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims", "  hello  ", "hello"},
		{"collapses blank lines", "a\n\n\nb", "a\nb"},
		{"collapses whitespace-only lines", "a\n   \n\t\nb", "a\nb"},
		{"windows line endings", "a\r\n\r\nb", "a\nb"},
		{"empty", "   \n  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeText(tt.input))
		})
	}
}
