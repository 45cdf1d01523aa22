package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdfchat/internal/models"
	"pdfchat/internal/repositories"
)

// historyWindow is how many trailing messages ride along as conversation
// history in each completion request
const historyWindow = 6

const systemPromptTemplate = `You are a helpful AI assistant that answers questions based on the provided PDF document context.

IMPORTANT INSTRUCTIONS:
1. Answer questions ONLY based on the provided context
2. If the answer is not in the context, say "I cannot find that information in the document"
3. Provide specific page references when answering, using the format [Page X]
4. Be concise but comprehensive
5. If you reference information, cite the page number

Context from document:
%s`

// ChatService orchestrates retrieval-augmented conversations over indexed
// documents
type ChatService struct {
	sessions  *repositories.SessionStore
	documents *repositories.DocumentRegistry
	vectors   repositories.VectorRepository
	llm       CompletionProvider
	topK      int
	logger    *log.Logger
}

// NewChatService creates a chat service
func NewChatService(
	sessions *repositories.SessionStore,
	documents *repositories.DocumentRegistry,
	vectors repositories.VectorRepository,
	llm CompletionProvider,
	topK int,
	logger *log.Logger,
) *ChatService {
	return &ChatService{
		sessions:  sessions,
		documents: documents,
		vectors:   vectors,
		llm:       llm,
		topK:      topK,
		logger:    logger,
	}
}

// CreateSession opens a chat session bound to a registered document
func (s *ChatService) CreateSession(documentID string) (*models.ChatSession, error) {
	if _, err := s.documents.Get(documentID); err != nil {
		return nil, err
	}
	return s.sessions.Create(documentID), nil
}

// GetSession returns a session with its full message history
func (s *ChatService) GetSession(sessionID string) (*models.ChatSession, error) {
	return s.sessions.Get(sessionID)
}

// GetHistory returns a session's messages
func (s *ChatService) GetHistory(sessionID string) ([]models.ChatMessage, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Messages, nil
}

// ClearHistory empties a session's messages
func (s *ChatService) ClearHistory(sessionID string) error {
	return s.sessions.ClearHistory(sessionID)
}

// DeleteSession removes a session; unknown ids are a no-op
func (s *ChatService) DeleteSession(sessionID string) {
	s.sessions.Delete(sessionID)
}

// GetSessionsByDocument lists sessions bound to a document
func (s *ChatService) GetSessionsByDocument(documentID string) []*models.ChatSession {
	return s.sessions.ListByDocument(documentID)
}

// SendMessage runs one retrieval-augmented exchange. An unknown session id
// opens a fresh session bound to the document; the reply carries the real
// session id. The user message and the assistant reply are appended
// together only after the whole pipeline succeeds, so a failed exchange
// leaves no trace in the history.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, documentID, text string) (*models.ChatMessage, error) {
	if _, err := s.documents.Get(documentID); err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(sessionID)
	if models.IsNotFound(err) {
		// Sessions open lazily on first message; the explicit create
		// endpoint is optional.
		session = s.sessions.Create(documentID)
		sessionID = session.ID
		s.logger.Printf("[ChatService] Created session %s on first message", sessionID)
	} else if err != nil {
		return nil, err
	}
	if session.DocumentID != documentID {
		return nil, &models.ValidationError{
			Field:   "document_id",
			Message: fmt.Sprintf("session %s is bound to a different document", sessionID),
		}
	}

	filter := map[string]interface{}{repositories.MetaDocumentID: documentID}
	results, err := s.vectors.Search(ctx, text, s.topK, filter)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	s.logger.Printf("[ChatService] Retrieved %d chunks for session %s", len(results), sessionID)

	history, err := s.sessions.History(sessionID, historyWindow)
	if err != nil {
		return nil, err
	}

	messages := make([]models.HistoryEntry, 0, len(history)+2)
	messages = append(messages, models.HistoryEntry{
		Role:    models.RoleSystem,
		Content: fmt.Sprintf(systemPromptTemplate, buildContext(results)),
	})
	messages = append(messages, history...)
	messages = append(messages, models.HistoryEntry{
		Role:    models.RoleUser,
		Content: text,
	})

	answer, err := s.llm.ChatCompletion(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	now := time.Now().UTC()
	userMsg := models.ChatMessage{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: now,
		SessionID: sessionID,
	}
	assistantMsg := models.ChatMessage{
		ID:        uuid.New().String(),
		Role:      models.RoleAssistant,
		Content:   answer,
		Citations: ExtractCitations(answer, results),
		Timestamp: now,
		SessionID: sessionID,
	}

	if err := s.sessions.Append(sessionID, userMsg, assistantMsg); err != nil {
		return nil, err
	}

	return &assistantMsg, nil
}

// buildContext formats retrieved chunks for the system prompt, one block
// per chunk in search order
func buildContext(results []*repositories.SearchResult) string {
	if len(results) == 0 {
		return "(no relevant context found)"
	}

	blocks := make([]string, len(results))
	for i, result := range results {
		blocks[i] = fmt.Sprintf("[Page %d]\n%s\n", result.PageNumber(), result.Text)
	}
	return strings.Join(blocks, "\n---\n")
}
