package calibrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var labels = []string{"cataract", "diabetic_retinopathy", "glaucoma", "normal"}

func TestCalibrateSumsToOne(t *testing.T) {
	res, err := Calibrate([]float64{0.7, 0.1, 0.1, 0.1}, labels, 1.5)
	require.NoError(t, err)

	sum := 0.0
	for _, p := range res.Probabilities {
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-6)
}

func TestCalibrateConfidenceIsMax(t *testing.T) {
	res, err := Calibrate([]float64{0.2, 0.5, 0.25, 0.05}, labels, 1.5)
	require.NoError(t, err)

	max := 0.0
	for _, p := range res.Probabilities {
		if p > max {
			max = p
		}
	}
	require.Equal(t, max, res.Confidence)
	require.Equal(t, "diabetic_retinopathy", res.TopPrediction)
	require.Equal(t, res.Probabilities[res.TopPrediction], res.Confidence)
}

func TestCalibrateIdentityAtTemperatureOne(t *testing.T) {
	raw := []float64{0.7, 0.1, 0.1, 0.1}
	res, err := Calibrate(raw, labels, 1.0)
	require.NoError(t, err)

	for i, label := range labels {
		require.InDelta(t, raw[i], res.Probabilities[label], 1e-9)
	}
}

func TestCalibrateSmoothsPeak(t *testing.T) {
	raw := []float64{0.7, 0.1, 0.1, 0.1}
	res, err := Calibrate(raw, labels, 1.5)
	require.NoError(t, err)

	// Smoothed but still dominant.
	require.Less(t, res.Confidence, 0.7)
	require.Greater(t, res.Confidence, 0.1)
	require.Equal(t, "cataract", res.TopPrediction)

	sum := 0.0
	for _, p := range res.Probabilities {
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-6)
}

func TestCalibrateZeroComponentStaysZero(t *testing.T) {
	res, err := Calibrate([]float64{0.0, 0.6, 0.3, 0.1}, labels, 2.0)
	require.NoError(t, err)
	require.Zero(t, res.Probabilities["cataract"])
}

func TestCalibrateRenormalizesSkewedInput(t *testing.T) {
	// Defensive case: raw vector that does not sum to 1.
	res, err := Calibrate([]float64{1.4, 0.2, 0.2, 0.2}, labels, 1.5)
	require.NoError(t, err)

	sum := 0.0
	for _, p := range res.Probabilities {
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-6)
	require.Equal(t, "cataract", res.TopPrediction)
}

func TestCalibrateTieBreaksOnFirstLabel(t *testing.T) {
	res, err := Calibrate([]float64{0.1, 0.4, 0.4, 0.1}, labels, 1.5)
	require.NoError(t, err)
	require.Equal(t, "diabetic_retinopathy", res.TopPrediction)
}

func TestCalibrateRejectsBadInput(t *testing.T) {
	_, err := Calibrate([]float64{0.5, 0.5, 0.0, 0.0}, labels, 0)
	require.Error(t, err)

	_, err = Calibrate([]float64{0.5, 0.5}, labels, 1.5)
	require.Error(t, err)

	_, err = Calibrate([]float64{-0.1, 0.6, 0.3, 0.2}, labels, 1.5)
	require.Error(t, err)

	_, err = Calibrate([]float64{0, 0, 0, 0}, labels, 1.5)
	require.Error(t, err)
}
