package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
	"github.com/davidleathers/fraud-scoring-backend/internal/feature"
	"github.com/davidleathers/fraud-scoring-backend/internal/infrastructure/config"
	"github.com/davidleathers/fraud-scoring-backend/internal/model"
	"github.com/davidleathers/fraud-scoring-backend/internal/service/scoring"
)

type fixedPredictor struct {
	score float64
}

func (p *fixedPredictor) Predict(vector []float64) (float64, error) { return p.score, nil }

func (p *fixedPredictor) Info() model.Info {
	return model.Info{Version: "2.3.1", Type: "xgboost", FeatureCount: feature.Count}
}

type noopCollector struct{}

func (noopCollector) Collect(ctx context.Context, txn *transaction.Transaction) feature.RawSignals {
	return feature.RawSignals{}
}

func (noopCollector) RecordTransaction(ctx context.Context, txn *transaction.Transaction, loc *transaction.Location) {
}

func newTestServer(t *testing.T, predictor model.Predictor, mutate func(*config.Config)) *Server {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}

	computer := feature.NewComputer(feature.NewLists(
		cfg.Lists.HighRiskCountries,
		cfg.Lists.FreeEmailDomains,
		cfg.Lists.DisposableEmailDomains,
		cfg.Lists.HighRiskIndustries,
		cfg.Lists.MediumRiskIndustries,
		cfg.Lists.Holidays,
		cfg.Scoring.HighValueThreshold,
	))

	svc, err := scoring.NewService(noopCollector{}, computer, predictor, nil,
		scoring.DefaultThresholds(), cfg.Scoring.BatchWorkers, nil, nil)
	require.NoError(t, err)

	health := NewHealthService(cfg.Version, func() bool {
		_, ok := svc.ModelInfo()
		return ok
	})

	return NewServer(cfg, Dependencies{Scoring: svc, Health: health})
}

func postJSON(t *testing.T, srv *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func getPath(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()

	var envelope errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error
}

func TestHandleScore_Features(t *testing.T) {
	srv := newTestServer(t, &fixedPredictor{score: 0.87345678}, nil)

	rec := postJSON(t, srv, "/api/v1/fraud/score", map[string]interface{}{
		"payment_id": "pi_123",
		"features": map[string]float64{
			"transaction_count_1h": 12,
		},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result scoring.ScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "pi_123", result.PaymentID)
	assert.Equal(t, 0.8735, result.FraudScore)
	assert.Equal(t, scoring.RiskHigh, result.RiskLevel)
	assert.Equal(t, scoring.DecisionReview, result.Decision)
	assert.Equal(t, "2.3.1", result.ModelVersion)
	assert.NotEmpty(t, result.Reasons)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandleScore_RawTransaction(t *testing.T) {
	srv := newTestServer(t, &fixedPredictor{score: 0.12}, nil)

	rec := postJSON(t, srv, "/api/v1/fraud/score", map[string]interface{}{
		"payment_id":  "pi_raw",
		"customer_id": "cus_456",
		"merchant_id": "acct_789",
		"amount":      5000,
		"currency":    "USD",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result scoring.ScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "pi_raw", result.PaymentID)
	assert.Equal(t, scoring.DecisionApprove, result.Decision)
}

func TestHandleScore_Validation(t *testing.T) {
	srv := newTestServer(t, &fixedPredictor{score: 0.5}, nil)

	t.Run("missing payment_id", func(t *testing.T) {
		rec := postJSON(t, srv, "/api/v1/fraud/score", map[string]interface{}{
			"features": map[string]float64{"transaction_count_1h": 1},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_PAYLOAD", decodeError(t, rec).Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/fraud/score", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_JSON", decodeError(t, rec).Code)
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/fraud/score", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad currency", func(t *testing.T) {
		rec := postJSON(t, srv, "/api/v1/fraud/score", map[string]interface{}{
			"payment_id":  "pi_1",
			"customer_id": "cus_1",
			"merchant_id": "acct_1",
			"amount":      100,
			"currency":    "ZZZ",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "INVALID_PAYLOAD", body.Code)
		assert.Contains(t, body.Details, "currency")
	})
}

func TestHandleBatch(t *testing.T) {
	srv := newTestServer(t, &fixedPredictor{score: 0.2}, nil)

	t.Run("mixed outcomes preserve order", func(t *testing.T) {
		rec := postJSON(t, srv, "/api/v1/fraud/batch", map[string]interface{}{
			"transactions": []map[string]interface{}{
				{"payment_id": "pi_1", "features": map[string]float64{"transaction_count_1h": 1}},
				{"payment_id": "pi_bad", "amount": -5, "currency": "USD", "customer_id": "c", "merchant_id": "m"},
				{"payment_id": "pi_3", "features": map[string]float64{"transaction_count_1h": 3}},
			},
		})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Results []json.RawMessage `json:"results"`
			Total   int               `json:"total_processed"`
			Latency float64           `json:"latency_ms"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Results, 3)
		assert.Equal(t, 3, resp.Total)

		var first scoring.ScoreResult
		require.NoError(t, json.Unmarshal(resp.Results[0], &first))
		assert.Equal(t, "pi_1", first.PaymentID)

		var failed struct {
			PaymentID string    `json:"payment_id"`
			Error     ErrorBody `json:"error"`
		}
		require.NoError(t, json.Unmarshal(resp.Results[1], &failed))
		assert.Equal(t, "pi_bad", failed.PaymentID)
		assert.NotEmpty(t, failed.Error.Code)

		var third scoring.ScoreResult
		require.NoError(t, json.Unmarshal(resp.Results[2], &third))
		assert.Equal(t, "pi_3", third.PaymentID)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		rec := postJSON(t, srv, "/api/v1/fraud/batch", map[string]interface{}{
			"transactions": []map[string]interface{}{},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "NO_TRANSACTIONS", decodeError(t, rec).Code)
	})

	t.Run("oversized batch rejected", func(t *testing.T) {
		small := newTestServer(t, &fixedPredictor{score: 0.2}, func(cfg *config.Config) {
			cfg.Scoring.MaxBatchSize = 2
		})

		txns := make([]map[string]interface{}, 3)
		for i := range txns {
			txns[i] = map[string]interface{}{
				"payment_id": fmt.Sprintf("pi_%d", i),
				"features":   map[string]float64{"transaction_count_1h": 1},
			}
		}

		rec := postJSON(t, small, "/api/v1/fraud/batch", map[string]interface{}{"transactions": txns})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "BATCH_TOO_LARGE", body.Code)
		assert.EqualValues(t, 2, body.Details["max_batch_size"])
	})
}

func TestHandleModelInfo(t *testing.T) {
	t.Run("model loaded", func(t *testing.T) {
		srv := newTestServer(t, &fixedPredictor{}, nil)

		rec := getPath(t, srv, "/api/v1/model/info")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ModelInfoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "2.3.1", resp.ModelVersion)
		assert.Equal(t, "xgboost", resp.ModelType)
		assert.Equal(t, feature.Count, resp.FeaturesCount)
		assert.Equal(t, 0.95, resp.Thresholds["decline"])
		assert.Equal(t, 0.70, resp.Thresholds["review"])
		assert.Equal(t, 0.40, resp.Thresholds["monitor"])
	})

	t.Run("model missing", func(t *testing.T) {
		srv := newTestServer(t, nil, nil)

		rec := getPath(t, srv, "/api/v1/model/info")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "MODEL_UNAVAILABLE", decodeError(t, rec).Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("ready with model", func(t *testing.T) {
		srv := newTestServer(t, &fixedPredictor{}, nil)

		rec := getPath(t, srv, "/health")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.True(t, resp.ModelLoaded)
	})

	t.Run("not ready without model", func(t *testing.T) {
		srv := newTestServer(t, nil, nil)

		rec := getPath(t, srv, "/health")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "unhealthy", resp.Status)
		assert.False(t, resp.ModelLoaded)
	})

	t.Run("liveness always up", func(t *testing.T) {
		srv := newTestServer(t, nil, nil)

		rec := getPath(t, srv, "/healthz")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("failing dependency flips readiness", func(t *testing.T) {
		srv := newTestServer(t, &fixedPredictor{}, nil)
		srv.health.RegisterChecker(CheckerFunc{
			CheckName: "database",
			Fn:        func(ctx context.Context) error { return fmt.Errorf("connection refused") },
		})

		rec := getPath(t, srv, "/health")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, HealthStatusFail, resp.Checks["database"].Status)
	})
}
