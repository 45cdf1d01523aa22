package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"pdfchat/internal/handlers"
)

// Handlers bundles everything the router needs
type Handlers struct {
	PDF    *handlers.PDFHandler
	Chat   *handlers.ChatHandler
	Vector *handlers.VectorHandler
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(router *mux.Router, h *Handlers) {
	router.HandleFunc("/", handlers.HomeHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", h.Vector.Health).Methods(http.MethodGet)

	// Document lifecycle
	pdf := router.PathPrefix("/api/pdf").Subrouter()
	pdf.HandleFunc("/upload", h.PDF.Upload).Methods(http.MethodPost)
	pdf.HandleFunc("", h.PDF.List).Methods(http.MethodGet)
	pdf.HandleFunc("/{id}", h.PDF.Get).Methods(http.MethodGet)
	pdf.HandleFunc("/{id}/file", h.PDF.GetFile).Methods(http.MethodGet)
	pdf.HandleFunc("/{id}", h.PDF.Delete).Methods(http.MethodDelete)

	// Chat sessions and messages
	chat := router.PathPrefix("/api/chat").Subrouter()
	chat.HandleFunc("/session", h.Chat.CreateSession).Methods(http.MethodPost)
	chat.HandleFunc("/session/{sessionId}", h.Chat.DeleteSession).Methods(http.MethodDelete)
	chat.HandleFunc("/message", h.Chat.SendMessage).Methods(http.MethodPost)
	chat.HandleFunc("/history/{sessionId}", h.Chat.GetHistory).Methods(http.MethodGet)
	chat.HandleFunc("/history/{sessionId}", h.Chat.ClearHistory).Methods(http.MethodDelete)
	chat.HandleFunc("/sessions", h.Chat.ListSessions).Methods(http.MethodGet)

	// Vector index maintenance
	vector := router.PathPrefix("/api/vector").Subrouter()
	vector.HandleFunc("/stats", h.Vector.Stats).Methods(http.MethodGet)
	vector.HandleFunc("/clear", h.Vector.Clear).Methods(http.MethodPost)
}
