package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/scry-batch/internal/api/shared"
	"github.com/phrazzld/scry-batch/internal/platform/logger"
	"github.com/phrazzld/scry-batch/internal/service"
)

// BatchHandler handles batch-related HTTP requests
type BatchHandler struct {
	batchService service.BatchService
	logger       *slog.Logger
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(batchService service.BatchService, logger *slog.Logger) *BatchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchHandler{
		batchService: batchService,
		logger:       logger.With("component", "batch_handler"),
	}
}

// Routes registers the batch endpoints on r. Callers mount r behind the
// auth middleware.
func (h *BatchHandler) Routes(r chi.Router) {
	r.Post("/batches", h.CreateBatch)
	r.Get("/batches/{id}", h.GetBatch)
}

// CreateBatch handles POST /api/batches requests. The batch runs
// synchronously and the full report is returned.
func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateBatchRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	report, err := h.batchService.RunBatch(r.Context(), service.BatchRequest{
		UserID:   userID,
		Items:    req.workItems(),
		Options:  req.Options.toOptions(),
		MaxItems: req.MaxItems,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to process batch")
		return
	}

	log.Info("batch request completed",
		"batch_id", report.BatchID,
		"status", report.Status,
		"items", report.TotalItems)

	shared.RespondWithJSON(w, r, http.StatusOK, NewBatchResponse(report))
}

// GetBatch handles GET /api/batches/{id} requests.
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	batchID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	report, err := h.batchService.GetBatch(r.Context(), userID, batchID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load batch")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewBatchResponse(report))
}
