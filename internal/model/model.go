package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/davidleathers/fraud-scoring-backend/internal/feature"
)

// Info is the model metadata surfaced on the model-info endpoint and
// stamped onto every score.
type Info struct {
	Version      string    `json:"model_version"`
	Type         string    `json:"model_type"`
	TrainedAt    time.Time `json:"trained_at"`
	FeatureCount int       `json:"features_count"`
}

// Predictor produces a fraud probability from an ordered feature
// vector. Implementations must be safe for concurrent use.
type Predictor interface {
	Predict(vector []float64) (float64, error)
	Info() Info
}

// artifact is the on-disk model format: a calibrated linear scorer
// exported from the training pipeline, with the feature order it was
// fitted against.
type artifact struct {
	Version   string    `json:"model_version"`
	Type      string    `json:"model_type"`
	TrainedAt time.Time `json:"trained_at"`
	Features  []string  `json:"features"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// Model is a Predictor backed by a loaded artifact. Immutable after
// Load, so concurrent Predict calls need no locking.
type Model struct {
	info      Info
	weights   []float64
	intercept float64
}

// Load reads and validates a model artifact. The artifact's feature
// order must match the catalog exactly; a drifted artifact is refused
// at startup rather than silently mis-scoring.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}

	if a.Version == "" {
		return nil, fmt.Errorf("model artifact missing version")
	}
	if len(a.Features) != feature.Count {
		return nil, fmt.Errorf("model artifact has %d features, want %d", len(a.Features), feature.Count)
	}
	if len(a.Weights) != feature.Count {
		return nil, fmt.Errorf("model artifact has %d weights, want %d", len(a.Weights), feature.Count)
	}
	for i, name := range feature.Names() {
		if a.Features[i] != name {
			return nil, fmt.Errorf("model artifact feature order drift at %d: artifact %q, catalog %q", i, a.Features[i], name)
		}
	}

	return &Model{
		info: Info{
			Version:      a.Version,
			Type:         a.Type,
			TrainedAt:    a.TrainedAt,
			FeatureCount: feature.Count,
		},
		weights:   a.Weights,
		intercept: a.Intercept,
	}, nil
}

// Predict returns the fraud probability for an ordered vector.
func (m *Model) Predict(vector []float64) (float64, error) {
	if len(vector) != len(m.weights) {
		return 0, fmt.Errorf("vector has %d features, want %d", len(vector), len(m.weights))
	}

	z := m.intercept
	for i, w := range m.weights {
		z += w * vector[i]
	}

	score := sigmoid(z)
	// Guard against NaN from pathological inputs; the caller treats
	// the vector as untrusted on the pre-computed-features path.
	if math.IsNaN(score) {
		return 0, fmt.Errorf("prediction produced NaN")
	}
	return clamp01(score), nil
}

// Info returns the loaded model's metadata.
func (m *Model) Info() Info {
	return m.info
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
