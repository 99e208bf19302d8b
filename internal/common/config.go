package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Model    ModelConfig
	OCR      OCRConfig
	Imaging  ImagingConfig
	Pipeline PipelineConfig
}

// ModelConfig holds inference-related configuration.
type ModelConfig struct {
	ServerURL    string
	Name         string
	VocabPath    string
	MaxSeqLength int
	Timeout      time.Duration
	Threshold    float64 // inclusive confidence threshold for entities
	Serialize    bool    // serialize classify calls through one consumer
}

// OCRConfig holds OCR engine configuration.
type OCRConfig struct {
	Language    string
	TessdataDir string
}

// ImagingConfig holds decoding and rasterization configuration.
type ImagingConfig struct {
	Pdftoppm     string // binary name or absolute path; if empty -> "pdftoppm"
	Pdfinfo      string // binary name or absolute path; if empty -> "pdfinfo"
	DPI          int    // rasterization DPI for PDF pages, default 200
	MaxDimension int    // downscale rasters whose longest side exceeds this
}

// PipelineConfig holds orchestration configuration.
type PipelineConfig struct {
	Workers   int // batch concurrency limit
	MaxGapX   int // pixel gap starting a new entity; 0 disables
	MaxGapY   int
	KeepOther bool
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Model: ModelConfig{
			ServerURL:    getEnv("MODEL_SERVER_URL", "http://localhost:9090"),
			Name:         getEnv("MODEL_NAME", "layoutlmv3-funsd-v1"),
			VocabPath:    getEnv("MODEL_VOCAB_PATH", "./models/vocab.txt"),
			MaxSeqLength: getEnvAsInt("MODEL_MAX_SEQ_LENGTH", 512),
			Timeout:      getEnvAsDuration("MODEL_TIMEOUT", 30*time.Second),
			Threshold:    getEnvAsFloat64("CONFIDENCE_THRESHOLD", 0.5),
			Serialize:    getEnvAsBool("MODEL_SERIALIZE", false),
		},
		OCR: OCRConfig{
			Language:    getEnv("OCR_LANGUAGE", "eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
		},
		Imaging: ImagingConfig{
			Pdftoppm:     getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Pdfinfo:      getEnv("PDFINFO_BIN", "pdfinfo"),
			DPI:          getEnvAsInt("PDF_DPI", 200),
			MaxDimension: getEnvAsInt("MAX_IMAGE_DIMENSION", 2000),
		},
		Pipeline: PipelineConfig{
			Workers:   getEnvAsInt("PIPELINE_WORKERS", 4),
			MaxGapX:   getEnvAsInt("ENTITY_MAX_GAP_X", 0),
			MaxGapY:   getEnvAsInt("ENTITY_MAX_GAP_Y", 0),
			KeepOther: getEnvAsBool("KEEP_OTHER_ENTITIES", false),
		},
	}
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Model.ServerURL == "" {
		return NewAppError("CONFIG_ERROR", "MODEL_SERVER_URL is required", ErrInvalidInput)
	}
	if c.Model.MaxSeqLength <= 0 {
		return NewAppError("CONFIG_ERROR", "MODEL_MAX_SEQ_LENGTH must be positive", ErrInvalidInput)
	}
	if c.Model.Threshold < 0 || c.Model.Threshold > 1 {
		return NewAppError("CONFIG_ERROR", "CONFIDENCE_THRESHOLD must be in [0,1]", ErrInvalidInput)
	}
	if c.Pipeline.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
