package rest

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/errors"
	"github.com/davidleathers/fraud-scoring-backend/internal/service/scoring"
)

// Handler serves the fraud scoring API.
type Handler struct {
	scoring      *scoring.Service
	validate     *validator.Validate
	logger       *slog.Logger
	maxBatchSize int
}

// NewHandler creates the API handler.
func NewHandler(svc *scoring.Service, maxBatchSize int, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBatchSize <= 0 {
		maxBatchSize = 500
	}
	return &Handler{
		scoring:      svc,
		validate:     newValidator(),
		logger:       logger,
		maxBatchSize: maxBatchSize,
	}
}

// handleScore scores a single transaction.
func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, r, h.logger, validationError(err))
		return
	}

	result, err := h.scoreOne(r, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) scoreOne(r *http.Request, req *ScoreRequest) (*scoring.ScoreResult, error) {
	if len(req.Features) > 0 {
		return h.scoring.ScoreFeatures(r.Context(), req.PaymentID, req.Features)
	}

	txn, err := req.toTransaction()
	if err != nil {
		return nil, err
	}
	return h.scoring.Score(r.Context(), txn)
}

// BatchResponse is the body of POST /api/v1/fraud/batch.
type BatchResponse struct {
	Results        []BatchEntry `json:"results"`
	TotalProcessed int          `json:"total_processed"`
	LatencyMS      float64      `json:"latency_ms"`
}

// BatchEntry is one batch result: either a score result or a per-item
// error carrying the submitted payment ID.
type BatchEntry struct {
	Result    *scoring.ScoreResult
	PaymentID string
	Err       error
}

func (e BatchEntry) MarshalJSON() ([]byte, error) {
	if e.Err == nil {
		return json.Marshal(e.Result)
	}

	body := ErrorBody{Code: "INTERNAL_ERROR", Message: "An internal error occurred"}
	var appErr *errors.AppError
	if stderrors.As(e.Err, &appErr) {
		body.Code = appErr.Code
		body.Message = appErr.Message
		body.Details = appErr.Details
	}

	return json.Marshal(struct {
		PaymentID string    `json:"payment_id,omitempty"`
		Error     ErrorBody `json:"error"`
	}{PaymentID: e.PaymentID, Error: body})
}

// handleBatch scores a batch of transactions.
func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req BatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if len(req.Transactions) == 0 {
		writeError(w, r, h.logger,
			errors.NewInvalidInputError("NO_TRANSACTIONS", "no transactions provided"))
		return
	}
	if len(req.Transactions) > h.maxBatchSize {
		writeError(w, r, h.logger,
			errors.NewInvalidInputError("BATCH_TOO_LARGE", "batch exceeds maximum size").
				WithDetails(map[string]interface{}{
					"max_batch_size": h.maxBatchSize,
					"submitted":      len(req.Transactions),
				}))
		return
	}

	entries := make([]BatchEntry, len(req.Transactions))

	// Items that fail conversion get their error slot directly; the
	// rest go through the worker pool.
	inputs := make([]scoring.BatchInput, 0, len(req.Transactions))
	positions := make([]int, 0, len(req.Transactions))
	for i := range req.Transactions {
		tr := &req.Transactions[i]
		input, err := tr.toBatchInput()
		if err != nil {
			entries[i] = BatchEntry{PaymentID: tr.PaymentID, Err: err}
			continue
		}
		inputs = append(inputs, input)
		positions = append(positions, i)
	}

	for j, res := range h.scoring.ScoreBatch(r.Context(), inputs) {
		i := positions[j]
		if res.Err != nil {
			entries[i] = BatchEntry{PaymentID: req.Transactions[i].PaymentID, Err: res.Err}
			continue
		}
		entries[i] = BatchEntry{Result: res.Result}
	}

	writeJSON(w, http.StatusOK, BatchResponse{
		Results:        entries,
		TotalProcessed: len(entries),
		LatencyMS:      math.Round(float64(time.Since(start).Microseconds())/10) / 100,
	})
}

// ModelInfoResponse is the body of GET /api/v1/model/info.
type ModelInfoResponse struct {
	ModelVersion  string             `json:"model_version"`
	ModelType     string             `json:"model_type"`
	TrainedAt     time.Time          `json:"trained_at"`
	FeaturesCount int                `json:"features_count"`
	Thresholds    map[string]float64 `json:"thresholds"`
}

// handleModelInfo reports the loaded model's metadata.
func (h *Handler) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	info, ok := h.scoring.ModelInfo()
	if !ok {
		writeError(w, r, h.logger, errors.ErrModelNotLoaded)
		return
	}

	th := h.scoring.Thresholds()
	writeJSON(w, http.StatusOK, ModelInfoResponse{
		ModelVersion:  info.Version,
		ModelType:     info.Type,
		TrainedAt:     info.TrainedAt,
		FeaturesCount: info.FeatureCount,
		Thresholds: map[string]float64{
			"monitor": th.Monitor,
			"review":  th.Review,
			"decline": th.Decline,
		},
	})
}
