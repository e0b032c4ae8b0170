package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/ophthalmoscan/fundus-api/internal/classifier"
	"github.com/ophthalmoscan/fundus-api/internal/config"
	"github.com/ophthalmoscan/fundus-api/internal/handlers"
	"github.com/ophthalmoscan/fundus-api/internal/pipeline"
	"github.com/ophthalmoscan/fundus-api/internal/store"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalw("failed to load config", "error", err)
	}

	// A missing or broken model must not keep the process down; the health
	// endpoint reports the degraded state instead.
	var clf *classifier.Classifier
	weightsPath, err := classifier.ResolveWeights(cfg.ModelPath, cfg.FallbackPaths)
	if err != nil {
		sugar.Errorw("model weights not found, serving degraded", "error", err)
		clf = classifier.NewUnavailable(config.Labels, err)
	} else {
		sugar.Infow("loading model", "path", weightsPath, "model_type", cfg.ModelType)
		clf, err = classifier.New(weightsPath, config.Labels, cfg.ImageSize)
		if err != nil {
			sugar.Errorw("failed to load model, serving degraded", "path", weightsPath, "error", err)
			clf = classifier.NewUnavailable(config.Labels, err)
		}
	}
	defer clf.Close()

	st := store.New(cfg.SupabaseURL, cfg.SupabaseKey, cfg.ModelType, sugar)
	if !st.Enabled() {
		sugar.Warnw("supabase not configured, predictions will not be persisted")
	}

	pipe := pipeline.New(cfg, clf, st, sugar)
	handler := handlers.NewHandler(pipe, clf, cfg.ModelType, sugar)

	http.HandleFunc("/", enableCORS(handler.Health))
	http.HandleFunc("/health", enableCORS(handler.Health))
	http.HandleFunc("/predict", enableCORS(handler.Predict))

	sugar.Infow("server starting",
		"port", cfg.Port,
		"model_loaded", clf.Ready(),
		"store_enabled", st.Enabled(),
		"labels", config.Labels,
	)

	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		sugar.Fatalw("server failed", "error", err)
	}
}
