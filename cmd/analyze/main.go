// Package main implements a CLI that runs a local resume or LinkedIn export
// through the analysis pipeline and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"alfredoptarigan/career-hub/internal/config"
	"alfredoptarigan/career-hub/internal/logger"
	"alfredoptarigan/career-hub/internal/models"
	"alfredoptarigan/career-hub/internal/services"
)

var rootCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a resume or LinkedIn profile export against a job description",
	Long:  "Extracts text from a local PDF, DOCX or image, falls back to OCR when needed, and prints the normalized analysis as JSON.",
	RunE:  runAnalyze,
}

var (
	analyzeFile       string
	analyzeJobFile    string
	analyzeJob        string
	analyzeVariant    string
	analyzeOutputFile string
	analyzeTextOnly   bool
	analyzeModels     []string
)

func init() {
	rootCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Path to the document to analyze (required)")
	rootCmd.Flags().StringVarP(&analyzeJobFile, "job-file", "j", "", "Path to a text file holding the job description")
	rootCmd.Flags().StringVar(&analyzeJob, "job", "", "Job description text (overrides --job-file)")
	rootCmd.Flags().StringVarP(&analyzeVariant, "variant", "v", string(models.VariantResume), "Analysis variant: resume or linkedin-profile")
	rootCmd.Flags().StringVarP(&analyzeOutputFile, "out", "o", "", "Write the JSON result to this file instead of stdout")
	rootCmd.Flags().BoolVar(&analyzeTextOnly, "text-only", false, "Only print the extracted text, do not call the analysis backends")
	rootCmd.Flags().StringSliceVar(&analyzeModels, "models", nil, "Ordered Gemini model ids (overrides GEMINI_MODELS)")

	if err := rootCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	variant, err := models.ParseVariant(analyzeVariant)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(analyzeFile)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	mediaType := models.MediaTypeFromFilename(analyzeFile)
	if !variant.AllowsMediaType(mediaType) {
		return fmt.Errorf("%s files are not supported for %s analysis", filepath.Ext(analyzeFile), variant.Label())
	}

	cfg := config.Load()
	if len(analyzeModels) > 0 {
		cfg.Gemini.Models = analyzeModels
	}

	log := logger.NewStructured(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// The pipeline removes the staged copy, never the caller's file.
	stageDir, err := os.MkdirTemp(cfg.OCR.ScratchDir, "analyze-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stageDir)

	stagedPath := filepath.Join(stageDir, "document"+filepath.Ext(analyzeFile))
	if err := os.WriteFile(stagedPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to stage document: %w", err)
	}

	artifact := &models.UploadedArtifact{
		Content:   content,
		MediaType: mediaType,
		Size:      int64(len(content)),
		Filename:  filepath.Base(analyzeFile),
		Path:      stagedPath,
	}

	ocrEngine := services.NewOCREngine(services.OCRConfig{
		Rasterizer:  cfg.OCR.RasterizerPath,
		Tesseract:   cfg.OCR.TesseractPath,
		ScratchDir:  cfg.OCR.ScratchDir,
		DPI:         cfg.OCR.DPI,
		OEM:         cfg.OCR.OEM,
		Concurrency: cfg.OCR.Concurrency,
	}, services.NewExecRunner(log), log, nil)
	extractor := services.NewTextExtractor(ocrEngine, log, nil)

	if analyzeTextOnly {
		return printExtractedText(ctx, extractor, services.NewQualityGate(cfg.Analysis.MinTextLength), artifact, variant)
	}

	jobDescription, err := loadJobDescription()
	if err != nil {
		return err
	}

	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	policy, err := services.ParseFallbackPolicy(cfg.Analysis.FallbackPolicy)
	if err != nil {
		return err
	}

	client, err := services.NewGeminiClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return err
	}

	backends := services.NewGeminiBackends(client, cfg.Gemini.Models, services.GeminiOptions{
		Temperature:     cfg.Gemini.Temperature,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	})

	pipeline := services.NewAnalysisPipeline(
		extractor,
		services.NewQualityGate(cfg.Analysis.MinTextLength),
		services.NewPromptBuilder(cfg.Analysis.MaxInputChars),
		services.NewAnalysisClient(backends, policy, log, nil),
		services.NewResponseNormalizer(),
		log,
		nil,
	)

	result, err := pipeline.Analyze(ctx, artifact, jobDescription, variant)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if analyzeOutputFile != "" {
		if err := os.WriteFile(analyzeOutputFile, encoded, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}

	fmt.Println(string(encoded))
	return nil
}

func loadJobDescription() (string, error) {
	if analyzeJob != "" {
		return analyzeJob, nil
	}
	if analyzeJobFile == "" {
		return "", fmt.Errorf("either --job or --job-file is required")
	}

	content, err := os.ReadFile(analyzeJobFile)
	if err != nil {
		return "", fmt.Errorf("failed to read job description file: %w", err)
	}
	return string(content), nil
}

func printExtractedText(ctx context.Context, extractor services.TextExtractor, gate services.QualityGate, artifact *models.UploadedArtifact, variant models.Variant) error {
	extraction := extractor.Primary(ctx, artifact, variant)
	if !gate.IsMeaningful(extraction.Text) && extraction.Strategy != services.StrategyOCR {
		extraction = extractor.Fallback(ctx, artifact, variant)
	}

	fmt.Fprintf(os.Stderr, "strategy=%s pages=%d meaningful=%t\n", extraction.Strategy, extraction.Pages, gate.IsMeaningful(extraction.Text))
	fmt.Println(extraction.Text)
	return nil
}
