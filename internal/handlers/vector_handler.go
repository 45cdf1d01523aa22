package handlers

import (
	"errors"
	"log"
	"net/http"

	"pdfchat/internal/repositories"
)

// VectorHandler exposes maintenance operations on the vector index
type VectorHandler struct {
	vectors repositories.VectorRepository
	backend string
	logger  *log.Logger
}

// NewVectorHandler creates a vector maintenance handler
func NewVectorHandler(vectors repositories.VectorRepository, backend string, logger *log.Logger) *VectorHandler {
	return &VectorHandler{
		vectors: vectors,
		backend: backend,
		logger:  logger,
	}
}

// Stats returns the record count of the index
// @Summary Vector index stats
// @Tags vector
// @Produce json
// @Success 200 {object} SuccessResponse{data=repositories.IndexStats}
// @Failure 503 {object} ErrorResponse
// @Router /api/vector/stats [get]
func (h *VectorHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.vectors.Stats(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	sendSuccess(w, h.logger, http.StatusOK, stats)
}

// Clear removes every record from the index
// @Summary Clear the vector index
// @Description Removes all indexed chunks across all documents
// @Tags vector
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/vector/clear [post]
func (h *VectorHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.vectors.Clear(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Printf("Vector index cleared via API")
	sendJSON(w, h.logger, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "vector index cleared",
	})
}

// Health reports server and vector backend status
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthStatus
// @Router /health [get]
func (h *VectorHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:        "ok",
		VectorBackend: h.backend,
		VectorStatus:  "ok",
	}

	if err := h.vectors.Ping(r.Context()); err != nil {
		status.VectorStatus = "unavailable"
	}

	sendJSON(w, h.logger, http.StatusOK, status)
}

func (h *VectorHandler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, repositories.ErrBackendUnavailable) {
		sendError(w, h.logger, http.StatusServiceUnavailable, err.Error())
		return
	}
	h.logger.Printf("Vector operation failed: %v", err)
	sendError(w, h.logger, http.StatusInternalServerError, err.Error())
}
