// Package calibrate applies temperature scaling to the classifier's raw
// softmax output. Raising each probability to 1/T and renormalizing flattens
// an over-confident distribution (T > 1) without changing its arg-max.
package calibrate

import (
	"fmt"
	"math"
)

// Result is the calibrated probability distribution with its derived top
// label. Confidence always equals the maximum calibrated probability.
type Result struct {
	Probabilities map[string]float64
	TopPrediction string
	Confidence    float64
}

// Calibrate rescales raw with the given temperature and pairs each component
// with its label. Zero components stay zero; if raw does not sum to 1 the
// renormalization still yields a valid distribution. Ties on the maximum are
// broken by the first occurrence in label order.
func Calibrate(raw []float64, labels []string, temperature float64) (Result, error) {
	if temperature <= 0 {
		return Result{}, fmt.Errorf("temperature must be positive, got %g", temperature)
	}
	if len(raw) != len(labels) {
		return Result{}, fmt.Errorf("got %d probabilities for %d labels", len(raw), len(labels))
	}

	scaled := make([]float64, len(raw))
	sum := 0.0
	for i, p := range raw {
		if p < 0 {
			return Result{}, fmt.Errorf("negative probability %g for %q", p, labels[i])
		}
		scaled[i] = math.Pow(p, 1/temperature)
		sum += scaled[i]
	}
	if sum == 0 {
		return Result{}, fmt.Errorf("all probabilities are zero")
	}

	topIdx := 0
	probs := make(map[string]float64, len(labels))
	for i := range scaled {
		scaled[i] /= sum
		probs[labels[i]] = scaled[i]
		if scaled[i] > scaled[topIdx] {
			topIdx = i
		}
	}

	return Result{
		Probabilities: probs,
		TopPrediction: labels[topIdx],
		Confidence:    scaled[topIdx],
	}, nil
}
