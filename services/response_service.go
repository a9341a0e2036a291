package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"screener/config"
	"screener/models"
	"screener/repository"
)

// ResponseService answers reporting queries over stored responses.
type ResponseService interface {
	ListAll() ([]*models.ResponseRecord, error)
	ListForUser(userEmail string) ([]*models.ResponseRecord, error)
	Status(userEmail string) (*models.QuestionnaireProgress, error)
	RecordSingle(userEmail string, questionID, answer int) (*models.ResponseRecord, error)
	DeleteAll() (int64, error)
}

type responseService struct {
	cfg   config.QuestionnaireConfig
	bank  QuestionBank
	store repository.ResponseRepository
	now   func() time.Time
}

// NewResponseService creates a ResponseService for the questionnaire described by cfg.
func NewResponseService(cfg config.QuestionnaireConfig, bank QuestionBank, store repository.ResponseRepository) ResponseService {
	return &responseService{cfg: cfg, bank: bank, store: store, now: time.Now}
}

func (s *responseService) ListAll() ([]*models.ResponseRecord, error) {
	return s.store.FetchAll()
}

func (s *responseService) ListForUser(userEmail string) ([]*models.ResponseRecord, error) {
	if userEmail == "" {
		return nil, errors.New("user email cannot be empty")
	}
	return s.store.FetchByUser(userEmail)
}

// Status compares how many responses of this questionnaire a user has stored with
// the number of questions it has.
func (s *responseService) Status(userEmail string) (*models.QuestionnaireProgress, error) {
	if userEmail == "" {
		return nil, errors.New("user email cannot be empty")
	}
	stored, err := s.store.CountByTypeAndUser(s.cfg.Type, userEmail)
	if err != nil {
		log.Printf("ERROR: [ResponseService] Failed to count responses for user '%s': %v", userEmail, err)
		return nil, err
	}
	expected := len(s.cfg.Sections) * s.cfg.QuestionsPerSection
	return &models.QuestionnaireProgress{
		QuestionnaireType: s.cfg.Type,
		UserEmail:         userEmail,
		Stored:            stored,
		Expected:          expected,
		Status:            statusFor(stored, expected),
	}, nil
}

func statusFor(stored int64, expected int) models.QuestionnaireStatus {
	switch {
	case stored >= int64(expected) && expected > 0:
		return models.QuestionnaireStatusCompleted
	case stored > 0:
		return models.QuestionnaireStatusPartiallyCompleted
	default:
		return models.QuestionnaireStatusNotStarted
	}
}

// RecordSingle stores one answer outside of a session.
func (s *responseService) RecordSingle(userEmail string, questionID, answer int) (*models.ResponseRecord, error) {
	if userEmail == "" {
		return nil, errors.New("user email cannot be empty")
	}
	if questionID < 0 || s.cfg.QuestionsPerSection <= 0 || questionID/s.cfg.QuestionsPerSection >= len(s.cfg.Sections) {
		return nil, fmt.Errorf("question %d: %w", questionID, ErrSectionOutOfRange)
	}
	rec := models.NewResponseRecord(
		s.cfg.Sections[questionID/s.cfg.QuestionsPerSection],
		s.bank.QuestionText(questionID),
		answer,
		s.cfg.Type,
		userEmail,
		s.now(),
	)
	if _, err := s.store.InsertOne(rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return rec, nil
}

func (s *responseService) DeleteAll() (int64, error) {
	n, err := s.store.DeleteAll()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return n, nil
}
