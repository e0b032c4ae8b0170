// Package pipeline runs the prediction flow for one uploaded image:
// ingest → preprocess → infer → calibrate → persist.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ophthalmoscan/fundus-api/internal/calibrate"
	"github.com/ophthalmoscan/fundus-api/internal/config"
	"github.com/ophthalmoscan/fundus-api/internal/imaging"
)

// ErrUnauthorized is returned when the request has no usable user id and the
// identity policy is reject.
var ErrUnauthorized = errors.New("a valid user id is required")

// Classifier is the inference surface the pipeline needs; satisfied by
// *classifier.Classifier and by test substitutes.
type Classifier interface {
	Infer(input []float32) ([]float64, error)
	Labels() []string
}

// Store persists one prediction record per request.
type Store interface {
	Enabled() bool
	Save(ctx context.Context, result calibrate.Result, snapshot []byte, userID, filename string) (id, savedAt string, err error)
}

// Prediction is the response payload for one classified image. PredictionID
// and SavedAt stay null when persistence did not happen.
type Prediction struct {
	Predictions   map[string]float64 `json:"predictions"`
	TopPrediction string             `json:"top_prediction"`
	Confidence    float64            `json:"confidence"`
	PredictionID  *string            `json:"prediction_id"`
	SavedAt       *string            `json:"saved_at"`
}

type Pipeline struct {
	pre   imaging.Preprocessor
	clf   Classifier
	store Store
	cfg   *config.Config
	log   *zap.SugaredLogger
}

func New(cfg *config.Config, clf Classifier, store Store, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		pre:   imaging.Preprocessor{Size: cfg.ImageSize, Norm: cfg.Normalization},
		clf:   clf,
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// Predict classifies one uploaded image for the given user. Identity is
// resolved before any model work so rejected requests never pay for
// inference. A store failure downgrades the response instead of failing it.
func (p *Pipeline) Predict(ctx context.Context, data []byte, filename, userID string) (*Prediction, error) {
	userID, err := p.resolveIdentity(userID)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Ingest(data, filename)
	if err != nil {
		return nil, err
	}

	raw, err := p.clf.Infer(p.pre.Preprocess(img))
	if err != nil {
		return nil, err
	}

	result, err := calibrate.Calibrate(raw, p.clf.Labels(), p.cfg.Temperature)
	if err != nil {
		return nil, err
	}

	pred := &Prediction{
		Predictions:   result.Probabilities,
		TopPrediction: result.TopPrediction,
		Confidence:    result.Confidence,
	}

	if p.store == nil || !p.store.Enabled() {
		p.log.Warnw("store not configured, prediction not persisted",
			"user_id", userID, "diagnosis", result.TopPrediction)
		return pred, nil
	}

	snapshot, err := imaging.EncodeSnapshot(img, p.cfg.MaxSnapshotDim, p.cfg.SnapshotQuality)
	if err != nil {
		// The record is still worth saving without the image.
		p.log.Errorw("failed to encode image snapshot", "filename", filename, "error", err)
		snapshot = nil
	}

	id, savedAt, err := p.store.Save(ctx, result, snapshot, userID, filename)
	if err != nil {
		p.log.Errorw("failed to persist prediction",
			"user_id", userID, "diagnosis", result.TopPrediction, "error", err)
		return pred, nil
	}

	pred.PredictionID = &id
	pred.SavedAt = &savedAt
	return pred, nil
}

func (p *Pipeline) resolveIdentity(userID string) (string, error) {
	if userID != "" && !strings.EqualFold(userID, "anonymous") {
		return userID, nil
	}
	if p.cfg.OnMissingIdentity == config.IdentityDefaultAnonymous {
		return "anonymous", nil
	}
	return "", ErrUnauthorized
}
