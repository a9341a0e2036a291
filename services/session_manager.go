package services

import (
	"context"
	"errors"
	"log"
	"sync"

	"screener/config"
	"screener/models"
	"screener/repository"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound    = errors.New("questionnaire session not found")
	ErrAlreadyLastSection = errors.New("already on the last section")
)

// SessionManager owns the live sessions served over the API. Each session has its own
// mutex so that callers never violate the single-caller contract of QuestionnaireSession.
type SessionManager interface {
	Start(userEmail string) (*models.SessionView, error)
	View(sessionID string) (*models.SessionView, error)
	RecordAnswer(sessionID string, questionID, answer int) (*models.SessionView, error)
	Next(sessionID string) (*models.SessionView, error)
	Previous(sessionID string) (*models.SessionView, error)
	Submit(ctx context.Context, sessionID string) error
	Discard(sessionID string) error
}

type managedSession struct {
	mu        sync.Mutex
	userEmail string
	session   *QuestionnaireSession
}

type sessionManager struct {
	cfg        config.QuestionnaireConfig
	bank       QuestionBank
	store      repository.ResponseRepository
	background Executor
	foreground Executor

	mu       sync.RWMutex
	sessions map[string]*managedSession
}

// NewSessionManager creates a SessionManager. Submissions run on background and
// completion callbacks are delivered on foreground.
func NewSessionManager(cfg config.QuestionnaireConfig, bank QuestionBank, store repository.ResponseRepository, background, foreground Executor) SessionManager {
	return &sessionManager{
		cfg:        cfg,
		bank:       bank,
		store:      store,
		background: background,
		foreground: foreground,
		sessions:   make(map[string]*managedSession),
	}
}

func (m *sessionManager) Start(userEmail string) (*models.SessionView, error) {
	if userEmail == "" {
		return nil, errors.New("user email cannot be empty")
	}
	session, err := NewQuestionnaireSession(SessionOptions{
		Sections:            m.cfg.Sections,
		QuestionsPerSection: m.cfg.QuestionsPerSection,
		QuestionnaireType:   m.cfg.Type,
		Bank:                m.bank,
		Store:               m.store,
		Identity:            StaticIdentity(userEmail),
		Foreground:          m.foreground,
	})
	if err != nil {
		log.Printf("ERROR: [SessionManager] Failed to start session for user '%s': %v", userEmail, err)
		return nil, err
	}

	id := uuid.NewString()
	ms := &managedSession{userEmail: userEmail, session: session}
	m.mu.Lock()
	m.sessions[id] = ms
	m.mu.Unlock()

	log.Printf("INFO: [SessionManager] Started session %s for user '%s'.", id, userEmail)
	return viewOf(id, ms), nil
}

func (m *sessionManager) View(sessionID string) (*models.SessionView, error) {
	return m.with(sessionID, func(*QuestionnaireSession) error { return nil })
}

func (m *sessionManager) RecordAnswer(sessionID string, questionID, answer int) (*models.SessionView, error) {
	return m.with(sessionID, func(s *QuestionnaireSession) error {
		s.RecordAnswer(questionID, answer)
		return nil
	})
}

// Next refuses to move past the last section instead of leaving the session out of range.
func (m *sessionManager) Next(sessionID string) (*models.SessionView, error) {
	return m.with(sessionID, func(s *QuestionnaireSession) error {
		if s.IsLastSection() {
			return ErrAlreadyLastSection
		}
		s.AdvanceSection()
		return nil
	})
}

func (m *sessionManager) Previous(sessionID string) (*models.SessionView, error) {
	return m.with(sessionID, func(s *QuestionnaireSession) error {
		s.RetreatSection()
		return nil
	})
}

// Submit stores the session's answers and waits for the completion callback or ctx.
// A successfully submitted session is removed; after a failure it stays so the caller can retry.
// When ctx ends first the insert may still complete and the session is kept.
func (m *sessionManager) Submit(ctx context.Context, sessionID string) error {
	ms, err := m.get(sessionID)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	done := make(chan error, 1)
	ms.session.Submit(m.background, func(err error) { done <- err })
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	ms.mu.Unlock()

	if err != nil {
		log.Printf("WARN: [SessionManager] Submission of session %s failed: %v", sessionID, err)
		return err
	}
	m.remove(sessionID)
	log.Printf("INFO: [SessionManager] Session %s for user '%s' submitted and closed.", sessionID, ms.userEmail)
	return nil
}

func (m *sessionManager) Discard(sessionID string) error {
	if _, err := m.get(sessionID); err != nil {
		return err
	}
	m.remove(sessionID)
	log.Printf("INFO: [SessionManager] Session %s discarded.", sessionID)
	return nil
}

func (m *sessionManager) with(sessionID string, fn func(*QuestionnaireSession) error) (*models.SessionView, error) {
	ms, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err := fn(ms.session); err != nil {
		return viewOf(sessionID, ms), err
	}
	return viewOf(sessionID, ms), nil
}

func (m *sessionManager) get(sessionID string) (*managedSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ms, nil
}

func (m *sessionManager) remove(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// viewOf snapshots ms. Caller holds ms.mu or owns ms exclusively.
func viewOf(sessionID string, ms *managedSession) *models.SessionView {
	s := ms.session
	title, _ := s.CurrentSectionTitle()
	return &models.SessionView{
		SessionID:       sessionID,
		UserEmail:       ms.userEmail,
		SectionIndex:    s.CurrentSectionIndex(),
		SectionTitle:    title,
		SectionCount:    s.SectionCount(),
		IsLastSection:   s.IsLastSection(),
		SectionComplete: s.IsCurrentSectionComplete(),
		Questions:       s.CurrentQuestions(),
		Answers:         s.Responses(),
	}
}
