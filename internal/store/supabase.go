// Package store persists prediction records to Supabase through its
// PostgREST API. Every save is attempted exactly once; failures are reported
// to the caller so the pipeline can degrade instead of losing the prediction.
package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ophthalmoscan/fundus-api/internal/calibrate"
)

// ErrPersistence marks any failure to reach the store or get the row
// accepted. Callers downgrade it; it never masks a valid prediction.
var ErrPersistence = errors.New("persistence failed")

// Client talks to a single Supabase project with a service-role key.
type Client struct {
	baseURL   string
	key       string
	modelType string
	http      *http.Client
	log       *zap.SugaredLogger
}

func New(baseURL, serviceKey, modelType string, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		key:       serviceKey,
		modelType: modelType,
		http:      &http.Client{},
		log:       log,
	}
}

// Enabled reports whether both the project URL and the key are configured.
func (c *Client) Enabled() bool {
	return c.baseURL != "" && c.key != ""
}

type record struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id"`
	CreatedAt     string   `json:"created_at"`
	ScanType      string   `json:"scan_type"`
	ScanDate      string   `json:"scan_date"`
	Diagnosis     string   `json:"diagnosis"`
	Confidence    float64  `json:"confidence"`
	DiagnosisDate string   `json:"diagnosis_date"`
	AIGenerated   bool     `json:"ai_generated"`
	Verified      bool     `json:"verified"`
	Metadata      metadata `json:"metadata"`
	ImageURL      string   `json:"image_url,omitempty"`
}

type metadata struct {
	ClassProbabilities map[string]float64 `json:"class_probabilities"`
	ProcessingInfo     string             `json:"processing_info"`
	OriginalFilename   string             `json:"original_filename"`
}

// Save inserts one prediction row, assigning a fresh id and UTC timestamp at
// submission time. The snapshot, when present, is embedded as a JPEG data
// URI. Exactly one POST is made; there is no retry.
func (c *Client) Save(ctx context.Context, result calibrate.Result, snapshot []byte, userID, filename string) (string, string, error) {
	if !c.Enabled() {
		return "", "", fmt.Errorf("%w: store not configured", ErrPersistence)
	}

	id := uuid.NewString()
	savedAt := time.Now().UTC().Format(time.RFC3339)

	rec := record{
		ID:            id,
		UserID:        userID,
		CreatedAt:     savedAt,
		ScanType:      "fundus",
		ScanDate:      savedAt,
		Diagnosis:     result.TopPrediction,
		Confidence:    result.Confidence,
		DiagnosisDate: savedAt,
		AIGenerated:   true,
		Verified:      false,
		Metadata: metadata{
			ClassProbabilities: result.Probabilities,
			ProcessingInfo:     c.modelType + " model analysis",
			OriginalFilename:   filename,
		},
	}
	if len(snapshot) > 0 {
		rec.ImageURL = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(snapshot)
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/rest/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", "", fmt.Errorf("%w: store returned %d: %s",
			ErrPersistence, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	c.log.Infow("prediction saved", "prediction_id", id, "user_id", userID, "diagnosis", result.TopPrediction)
	return id, savedAt, nil
}
