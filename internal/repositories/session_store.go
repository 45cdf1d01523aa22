package repositories

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pdfchat/internal/models"
)

// SessionStore holds chat sessions in memory for the lifetime of the
// process. Sessions are never expired or evicted; restarting the server
// discards them while indexed vectors survive in the backend.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.ChatSession
	logger   *log.Logger
}

// NewSessionStore creates an empty in-memory session store
func NewSessionStore(logger *log.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.ChatSession),
		logger:   logger,
	}
}

// Create opens a new session bound to a document. The binding is fixed
// for the session's lifetime.
func (s *SessionStore) Create(documentID string) *models.ChatSession {
	now := time.Now().UTC()
	session := &models.ChatSession{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Messages:   []models.ChatMessage{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Printf("[SessionStore] Created session %s for document %s", session.ID, documentID)
	return session
}

// Get returns a copy of the session so callers cannot mutate stored
// messages outside Append
func (s *SessionStore) Get(id string) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, models.NewNotFoundError("session", id)
	}
	return copySession(session), nil
}

// Append adds messages to a session in order. The user message and the
// assistant reply of one exchange are appended together so no reader ever
// observes a half-written exchange.
func (s *SessionStore) Append(id string, messages ...models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.NewNotFoundError("session", id)
	}

	session.Messages = append(session.Messages, messages...)
	session.UpdatedAt = time.Now().UTC()
	return nil
}

// History returns the last limit messages as {role, content} pairs for
// the completion provider. limit <= 0 returns the full history.
func (s *SessionStore) History(id string, limit int) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, models.NewNotFoundError("session", id)
	}

	msgs := session.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	history := make([]models.HistoryEntry, len(msgs))
	for i, m := range msgs {
		history[i] = models.HistoryEntry{Role: m.Role, Content: m.Content}
	}
	return history, nil
}

// ClearHistory empties a session's messages but keeps the session and its
// document binding
func (s *SessionStore) ClearHistory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.NewNotFoundError("session", id)
	}

	session.Messages = []models.ChatMessage{}
	session.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// ListByDocument returns copies of every session bound to a document,
// oldest first
func (s *SessionStore) ListByDocument(documentID string) []*models.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []*models.ChatSession
	for _, session := range s.sessions {
		if session.DocumentID == documentID {
			sessions = append(sessions, copySession(session))
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// Count returns the number of live sessions
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func copySession(session *models.ChatSession) *models.ChatSession {
	out := *session
	out.Messages = make([]models.ChatMessage, len(session.Messages))
	copy(out.Messages, session.Messages)
	return &out
}
