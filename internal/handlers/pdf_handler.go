package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"pdfchat/internal/models"
	"pdfchat/internal/services"
)

// PDFHandler handles document upload and lifecycle requests
type PDFHandler struct {
	documentService *services.DocumentService
	maxFileSize     int64
	logger          *log.Logger
}

// NewPDFHandler creates a PDF handler
func NewPDFHandler(documentService *services.DocumentService, maxFileSize int64, logger *log.Logger) *PDFHandler {
	return &PDFHandler{
		documentService: documentService,
		maxFileSize:     maxFileSize,
		logger:          logger,
	}
}

// Upload ingests a PDF and indexes it for chat
// @Summary Upload a PDF
// @Description Upload a PDF document; it is extracted, chunked, embedded and indexed before the response returns
// @Tags pdf
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Param sessionId query string false "Session to associate the upload with"
// @Success 201 {object} SuccessResponse{data=models.DocumentMetadata}
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/pdf/upload [post]
func (h *PDFHandler) Upload(w http.ResponseWriter, r *http.Request) {
	h.logger.Printf("Upload request from %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		sendError(w, h.logger, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("upload exceeds %d bytes or is not valid multipart", h.maxFileSize))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		sendError(w, h.logger, http.StatusBadRequest, "Form field 'file' is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		sendError(w, h.logger, http.StatusBadRequest, "Only PDF files are accepted")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		sendError(w, h.logger, http.StatusBadRequest, "Failed to read upload")
		return
	}
	if len(content) == 0 {
		sendError(w, h.logger, http.StatusBadRequest, "Uploaded file is empty")
		return
	}

	sessionID := r.URL.Query().Get("sessionId")

	doc, err := h.documentService.ProcessUpload(r.Context(), header.Filename, content, sessionID)
	if err != nil {
		h.logger.Printf("Upload processing failed: %v", err)
		sendError(w, h.logger, http.StatusInternalServerError, err.Error())
		return
	}

	sendSuccess(w, h.logger, http.StatusCreated, doc)
}

// Get returns document metadata
// @Summary Get document metadata
// @Tags pdf
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} SuccessResponse{data=models.DocumentMetadata}
// @Failure 404 {object} ErrorResponse
// @Router /api/pdf/{id} [get]
func (h *PDFHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	doc, err := h.documentService.GetMetadata(id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	sendSuccess(w, h.logger, http.StatusOK, doc)
}

// GetFile streams the stored PDF back to the client
// @Summary Download original PDF
// @Tags pdf
// @Produce application/pdf
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /api/pdf/{id}/file [get]
func (h *PDFHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	doc, content, err := h.documentService.GetFile(id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.OriginalName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		h.logger.Printf("Failed to stream file %s: %v", id, err)
	}
}

// List returns all documents, optionally scoped to a session
// @Summary List documents
// @Tags pdf
// @Produce json
// @Param sessionId query string false "Only documents uploaded under this session"
// @Success 200 {object} SuccessResponse{data=[]models.DocumentMetadata}
// @Router /api/pdf [get]
func (h *PDFHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")

	var docs []*models.DocumentMetadata
	if sessionID != "" {
		docs = h.documentService.ListDocumentsBySession(sessionID)
	} else {
		docs = h.documentService.ListDocuments()
	}

	sendSuccess(w, h.logger, http.StatusOK, docs)
}

// Delete removes a document, its file and its vectors
// @Summary Delete a document
// @Tags pdf
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/pdf/{id} [delete]
func (h *PDFHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.documentService.DeleteDocument(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "document deleted",
	})
}

func (h *PDFHandler) respondError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	switch {
	case models.IsNotFound(err):
		sendError(w, h.logger, http.StatusNotFound, err.Error())
	case errors.As(err, &validationErr):
		sendError(w, h.logger, http.StatusBadRequest, err.Error())
	default:
		h.logger.Printf("Document operation failed: %v", err)
		sendError(w, h.logger, http.StatusInternalServerError, err.Error())
	}
}
