package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// IdentityPolicy controls what happens when a prediction request arrives
// without a usable user id.
type IdentityPolicy string

const (
	// IdentityReject refuses the request with an unauthorized error.
	IdentityReject IdentityPolicy = "reject"
	// IdentityDefaultAnonymous stores the prediction under "anonymous".
	IdentityDefaultAnonymous IdentityPolicy = "default_anonymous"
)

// Normalization names the preprocessing convention the loaded weights were
// trained with. It is part of the model's contract, not a free-standing knob.
type Normalization string

const (
	NormalizationRescale01 Normalization = "rescale_0_1"
	NormalizationNetwork   Normalization = "network_specific"
)

// Labels is the ordered label set the classifier was trained on. Index
// position is the contract between the model output and everything
// downstream.
var Labels = []string{"cataract", "diabetic_retinopathy", "glaucoma", "normal"}

type Config struct {
	Port string

	ModelPath     string
	FallbackPaths []string
	ModelType     string

	SupabaseURL string
	SupabaseKey string

	ImageSize   int
	Temperature float64

	MaxSnapshotDim  int
	SnapshotQuality int

	OnMissingIdentity IdentityPolicy
	Normalization     Normalization
}

func Load() (*Config, error) {
	// Load .env if present; a missing file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		ModelPath:   getEnv("MODEL_PATH", "models/fundus.onnx"),
		ModelType:   getEnv("MODEL_TYPE", "EfficientNetB3"),
		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
	}

	cfg.FallbackPaths = splitPaths(getEnv("MODEL_FALLBACK_PATHS",
		"models/model.onnx,models/fundus_weights.onnx"))

	var err error
	if cfg.ImageSize, err = getEnvInt("IMG_SIZE", 224); err != nil {
		return nil, err
	}
	if cfg.Temperature, err = getEnvFloat("TEMPERATURE", 1.5); err != nil {
		return nil, err
	}
	if cfg.Temperature <= 0 {
		return nil, fmt.Errorf("TEMPERATURE must be positive, got %g", cfg.Temperature)
	}
	if cfg.MaxSnapshotDim, err = getEnvInt("MAX_SNAPSHOT_DIM", 1024); err != nil {
		return nil, err
	}
	if cfg.SnapshotQuality, err = getEnvInt("SNAPSHOT_JPEG_QUALITY", 85); err != nil {
		return nil, err
	}

	switch p := IdentityPolicy(getEnv("ON_MISSING_IDENTITY", string(IdentityReject))); p {
	case IdentityReject, IdentityDefaultAnonymous:
		cfg.OnMissingIdentity = p
	default:
		return nil, fmt.Errorf("ON_MISSING_IDENTITY must be %q or %q, got %q",
			IdentityReject, IdentityDefaultAnonymous, p)
	}

	switch n := Normalization(getEnv("NORMALIZATION", string(NormalizationNetwork))); n {
	case NormalizationRescale01, NormalizationNetwork:
		cfg.Normalization = n
	default:
		return nil, fmt.Errorf("NORMALIZATION must be %q or %q, got %q",
			NormalizationRescale01, NormalizationNetwork, n)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
