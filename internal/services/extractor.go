package services

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"alfredoptarigan/career-hub/internal/apperrors"
	"alfredoptarigan/career-hub/internal/logger"
	"alfredoptarigan/career-hub/internal/metrics"
	"alfredoptarigan/career-hub/internal/models"
)

const (
	StrategyPDF  = "pdf"
	StrategyDOCX = "docx"
	StrategyOCR  = "ocr"
)

var errNoStagedFile = errors.New("artifact has no staged file for optical recognition")

// Extraction is the outcome of one extraction strategy. An empty Text means
// nothing usable was found; Err explains why when something went wrong.
type Extraction struct {
	Text     string
	Strategy string
	Pages    int
	Warnings []string
	Err      error
}

func (e Extraction) Empty() bool {
	return e.Text == ""
}

// TextExtractor turns an uploaded artifact into plain text.
type TextExtractor interface {
	Primary(ctx context.Context, artifact *models.UploadedArtifact, variant models.Variant) Extraction
	Fallback(ctx context.Context, artifact *models.UploadedArtifact, variant models.Variant) Extraction
}

// Recognizer is the optical recognition dependency of the extractor.
type Recognizer interface {
	Recognize(ctx context.Context, path, mediaType string, variant models.Variant) (OCRResult, error)
}

type documentExtractor struct {
	ocr     Recognizer
	log     logger.Logger
	metrics *metrics.Metrics
}

func NewTextExtractor(ocr Recognizer, log logger.Logger, m *metrics.Metrics) TextExtractor {
	return &documentExtractor{ocr: ocr, log: log, metrics: m}
}

// Primary picks the strategy from the media type. Images go straight to
// optical recognition.
func (e *documentExtractor) Primary(ctx context.Context, artifact *models.UploadedArtifact, variant models.Variant) Extraction {
	var result Extraction
	switch {
	case artifact.MediaType == models.MediaTypePDF:
		result = e.extractPDF(artifact.Content)
	case artifact.MediaType == models.MediaTypeDOCX:
		result = e.extractDOCX(artifact.Content)
	case models.IsImageMediaType(artifact.MediaType):
		result = e.extractOCR(ctx, artifact, variant)
	default:
		result = Extraction{Err: fmt.Errorf("%w: %s", ErrOCRUnsupported, artifact.MediaType)}
	}

	e.record(result, artifact)
	return result
}

func (e *documentExtractor) Fallback(ctx context.Context, artifact *models.UploadedArtifact, variant models.Variant) Extraction {
	result := e.extractOCR(ctx, artifact, variant)
	e.record(result, artifact)
	return result
}

func (e *documentExtractor) record(result Extraction, artifact *models.UploadedArtifact) {
	outcome := "success"
	switch {
	case result.Err != nil:
		outcome = "error"
	case result.Empty():
		outcome = "empty"
	}
	e.metrics.ObserveExtraction(result.Strategy, outcome)

	fields := map[string]interface{}{
		"strategy":   result.Strategy,
		"media_type": artifact.MediaType,
		"chars":      len([]rune(result.Text)),
		"pages":      result.Pages,
	}
	if len(result.Warnings) > 0 {
		fields["warnings"] = result.Warnings
	}
	if result.Err != nil {
		e.log.WithError(apperrors.NewExtractionFailure(result.Strategy, result.Err)).Warn("text extraction failed", fields)
		return
	}
	e.log.Debug("text extracted", fields)
}

func (e *documentExtractor) extractOCR(ctx context.Context, artifact *models.UploadedArtifact, variant models.Variant) Extraction {
	if artifact.Path == "" {
		return Extraction{Strategy: StrategyOCR, Err: errNoStagedFile}
	}

	res, err := e.ocr.Recognize(ctx, artifact.Path, artifact.MediaType, variant)
	if err != nil {
		return Extraction{Strategy: StrategyOCR, Pages: res.Pages, Warnings: res.Warnings, Err: err}
	}
	return Extraction{Text: res.Text, Strategy: StrategyOCR, Pages: res.Pages, Warnings: res.Warnings}
}

// extractPDF reads the embedded text layer, one page per line group.
func (e *documentExtractor) extractPDF(content []byte) (result Extraction) {
	result.Strategy = StrategyPDF
	defer func() {
		if r := recover(); r != nil {
			result = Extraction{Strategy: StrategyPDF, Err: fmt.Errorf("pdf parser panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		result.Err = fmt.Errorf("failed to open PDF: %w", err)
		return result
	}

	totalPage := reader.NumPage()
	pages := make([]string, 0, totalPage)
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("page %d: %v", pageIndex, err))
			continue
		}
		pages = append(pages, text)
	}

	result.Pages = totalPage
	result.Text = NormalizeText(strings.Join(pages, "\n"))
	return result
}

func (e *documentExtractor) extractDOCX(content []byte) Extraction {
	result := Extraction{Strategy: StrategyDOCX, Pages: 1}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		result.Err = fmt.Errorf("failed to open DOCX: %w", err)
		return result
	}
	defer doc.Close()

	text, err := wordprocessingText(doc.Editable().GetContent())
	if err != nil {
		result.Err = fmt.Errorf("failed to read DOCX body: %w", err)
		return result
	}

	result.Text = NormalizeText(text)
	return result
}

// wordprocessingText reduces WordprocessingML to text: one line per
// paragraph, tabs and breaks preserved.
func wordprocessingText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return b.String(), nil
}

// NormalizeText collapses blank or whitespace-only lines and trims the result.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	return blankLinePattern.ReplaceAllString(text, "\n")
}
