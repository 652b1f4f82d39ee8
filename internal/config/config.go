package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Gemini   GeminiConfig
	Storage  StorageConfig
	OCR      OCRConfig
	Analysis AnalysisConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type GeminiConfig struct {
	APIKey          string
	Models          []string
	Temperature     float32
	MaxOutputTokens int32
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type OCRConfig struct {
	RasterizerPath string
	TesseractPath  string
	ScratchDir     string
	DPI            int
	OEM            int
	Concurrency    int
}

type AnalysisConfig struct {
	MinTextLength  int
	MaxInputChars  int
	FallbackPolicy string
	HistoryLimit   int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and defaults.")
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3000"),
			Env:          getEnv("ENV", "development"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "30s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "120s"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "career_hub"),
		},
		Gemini: GeminiConfig{
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			Models:          getEnvAsList("GEMINI_MODELS", "gemini-2.5-flash,gemini-2.5-pro"),
			Temperature:     getEnvAsFloat32("GEMINI_TEMPERATURE", 0.2),
			MaxOutputTokens: int32(getEnvAsInt("GEMINI_MAX_OUTPUT_TOKENS", 8192)),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 2*1024*1024),
		},
		OCR: OCRConfig{
			RasterizerPath: getEnv("OCR_RASTERIZER_PATH", "pdftoppm"),
			TesseractPath:  getEnv("OCR_TESSERACT_PATH", "tesseract"),
			ScratchDir:     getEnv("OCR_SCRATCH_DIR", os.TempDir()),
			DPI:            getEnvAsInt("OCR_DPI", 300),
			OEM:            getEnvAsInt("OCR_OEM", 3),
			Concurrency:    getEnvAsInt("OCR_CONCURRENCY", 4),
		},
		Analysis: AnalysisConfig{
			MinTextLength:  getEnvAsInt("QUALITY_MIN_TEXT_LENGTH", 50),
			MaxInputChars:  getEnvAsInt("ANALYSIS_MAX_INPUT_CHARS", 0),
			FallbackPolicy: getEnv("ANALYSIS_FALLBACK_POLICY", "any-error"),
			HistoryLimit:   getEnvAsInt("ANALYSIS_HISTORY_LIMIT", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

// Validate reports configuration the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Gemini.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if len(c.Gemini.Models) == 0 {
		errs = append(errs, errors.New("GEMINI_MODELS must list at least one model"))
	}
	if c.Storage.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Storage.MaxFileSize))
	}
	if c.Analysis.MinTextLength < 1 {
		errs = append(errs, fmt.Errorf("QUALITY_MIN_TEXT_LENGTH must be at least 1, got %d", c.Analysis.MinTextLength))
	}
	if c.OCR.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("OCR_CONCURRENCY must be at least 1, got %d", c.OCR.Concurrency))
	}
	switch c.Analysis.FallbackPolicy {
	case "any-error", "rate-limit-only":
	default:
		errs = append(errs, fmt.Errorf("unknown ANALYSIS_FALLBACK_POLICY %q", c.Analysis.FallbackPolicy))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string, defaultValue string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, defaultValue), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
