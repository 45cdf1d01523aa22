package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"pdfchat/internal/models"
	"pdfchat/internal/services"
)

// ChatHandler handles chat session and message requests
type ChatHandler struct {
	chatService *services.ChatService
	logger      *log.Logger
}

// NewChatHandler creates a chat handler
func NewChatHandler(chatService *services.ChatService, logger *log.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// CreateSession opens a chat session bound to a document
// @Summary Create a chat session
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.CreateSessionRequest true "Session request"
// @Success 201 {object} SuccessResponse{data=models.ChatSession}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/chat/session [post]
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		sendError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.chatService.CreateSession(req.DocumentID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	sendSuccess(w, h.logger, http.StatusCreated, session)
}

// SendMessage runs one retrieval-augmented exchange
// @Summary Send a chat message
// @Description Ask a question about the session's document; the answer cites pages as [Page N]
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.SendMessageRequest true "Message request"
// @Success 200 {object} SuccessResponse{data=models.ChatMessage}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/chat/message [post]
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		sendError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.chatService.SendMessage(r.Context(), req.SessionID, req.DocumentID, req.Message)
	if err != nil {
		h.respondError(w, err)
		return
	}

	sendSuccess(w, h.logger, http.StatusOK, reply)
}

// GetHistory returns a session's messages
// @Summary Get chat history
// @Tags chat
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=[]models.ChatMessage}
// @Failure 404 {object} ErrorResponse
// @Router /api/chat/history/{sessionId} [get]
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	history, err := h.chatService.GetHistory(sessionID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	sendSuccess(w, h.logger, http.StatusOK, history)
}

// ClearHistory empties a session's messages
// @Summary Clear chat history
// @Tags chat
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/chat/history/{sessionId} [delete]
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if err := h.chatService.ClearHistory(sessionID); err != nil {
		h.respondError(w, err)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "history cleared",
	})
}

// DeleteSession removes a session; unknown ids succeed
// @Summary Delete a chat session
// @Tags chat
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} SuccessResponse
// @Router /api/chat/session/{sessionId} [delete]
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	h.chatService.DeleteSession(sessionID)
	sendJSON(w, h.logger, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "session deleted",
	})
}

// ListSessions returns sessions bound to a document
// @Summary List sessions for a document
// @Tags chat
// @Produce json
// @Param documentId query string true "Document ID"
// @Success 200 {object} SuccessResponse{data=[]models.ChatSession}
// @Failure 400 {object} ErrorResponse
// @Router /api/chat/sessions [get]
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	documentID := r.URL.Query().Get("documentId")
	if documentID == "" {
		sendError(w, h.logger, http.StatusBadRequest, "Query parameter 'documentId' is required")
		return
	}

	sendSuccess(w, h.logger, http.StatusOK, h.chatService.GetSessionsByDocument(documentID))
}

func (h *ChatHandler) respondError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	switch {
	case models.IsNotFound(err):
		sendError(w, h.logger, http.StatusNotFound, err.Error())
	case errors.As(err, &validationErr):
		sendError(w, h.logger, http.StatusBadRequest, err.Error())
	default:
		h.logger.Printf("Chat operation failed: %v", err)
		sendError(w, h.logger, http.StatusInternalServerError, err.Error())
	}
}
