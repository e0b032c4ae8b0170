package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 224, cfg.ImageSize)
	require.Equal(t, 1.5, cfg.Temperature)
	require.Equal(t, 1024, cfg.MaxSnapshotDim)
	require.Equal(t, 85, cfg.SnapshotQuality)
	require.Equal(t, IdentityReject, cfg.OnMissingIdentity)
	require.Equal(t, NormalizationNetwork, cfg.Normalization)
	require.Equal(t, "EfficientNetB3", cfg.ModelType)
	require.NotEmpty(t, cfg.FallbackPaths)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("IMG_SIZE", "300")
	t.Setenv("TEMPERATURE", "2.0")
	t.Setenv("ON_MISSING_IDENTITY", "default_anonymous")
	t.Setenv("NORMALIZATION", "rescale_0_1")
	t.Setenv("MODEL_FALLBACK_PATHS", "a.onnx, b.onnx ,")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, 300, cfg.ImageSize)
	require.Equal(t, 2.0, cfg.Temperature)
	require.Equal(t, IdentityDefaultAnonymous, cfg.OnMissingIdentity)
	require.Equal(t, NormalizationRescale01, cfg.Normalization)
	require.Equal(t, []string{"a.onnx", "b.onnx"}, cfg.FallbackPaths)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("TEMPERATURE", "0")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("TEMPERATURE", "1.5")
	t.Setenv("ON_MISSING_IDENTITY", "maybe")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("ON_MISSING_IDENTITY", "reject")
	t.Setenv("NORMALIZATION", "whatever")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("NORMALIZATION", "rescale_0_1")
	t.Setenv("IMG_SIZE", "not-a-number")
	_, err = Load()
	require.Error(t, err)
}
