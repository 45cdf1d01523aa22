package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the error envelope returned by every handler
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// SuccessResponse wraps handler payloads
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// HealthStatus reports server and vector backend health
type HealthStatus struct {
	Status        string `json:"status"`
	VectorBackend string `json:"vector_backend"`
	VectorStatus  string `json:"vector_status"`
}

func sendJSON(w http.ResponseWriter, logger *log.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Printf("Failed to encode JSON: %v", err)
	}
}

func sendError(w http.ResponseWriter, logger *log.Logger, status int, message string) {
	sendJSON(w, logger, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Status:  status,
	})
}

func sendSuccess(w http.ResponseWriter, logger *log.Logger, status int, data interface{}) {
	sendJSON(w, logger, status, SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// HomeHandler serves the API landing response
// @Summary API info
// @Description Returns basic service information
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"service": "pdfchat",
		"docs":    "/swagger/index.html",
	})
}
