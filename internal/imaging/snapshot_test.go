package imaging

import (
	"bytes"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeSnapshotKeepsSmallImages(t *testing.T) {
	data, err := EncodeSnapshot(uniformImage(200, 100, color.White), 1024, 85)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 200, cfg.Width)
	require.Equal(t, 100, cfg.Height)
}

func TestEncodeSnapshotDownscalesWide(t *testing.T) {
	data, err := EncodeSnapshot(uniformImage(2000, 1000, color.White), 1024, 85)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 1024, cfg.Width)
	require.Equal(t, 512, cfg.Height)
}

func TestEncodeSnapshotDownscalesTall(t *testing.T) {
	data, err := EncodeSnapshot(uniformImage(500, 2000, color.White), 1024, 85)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 1024, cfg.Height)
	require.Equal(t, 256, cfg.Width)
}
