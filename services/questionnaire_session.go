package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"screener/models"
	"screener/repository"
)

var (
	// ErrSectionOutOfRange is returned when a section index falls outside the section list.
	ErrSectionOutOfRange = errors.New("section index out of range")
	// ErrStoreFailure wraps any error the response store reports during submission.
	ErrStoreFailure = errors.New("could not save responses, try again")
)

// SessionOptions configures a QuestionnaireSession.
type SessionOptions struct {
	Sections            []string
	QuestionsPerSection int
	QuestionnaireType   string
	Bank                QuestionBank
	Store               repository.ResponseRepository
	Identity            IdentityProvider
	Foreground          Executor         // Where completion callbacks run
	Now                 func() time.Time // time.Now if nil
}

// QuestionnaireSession tracks one user's walk through the questionnaire sections.
//
// It is not safe for concurrent use. AdvanceSection, RetreatSection and RecordAnswer
// must all be called from a single goroutine (the foreground); concurrent
// RecordAnswer calls can lose updates because the copy-then-replace of the answer map
// is not atomic. Maps returned by Responses are never modified afterwards.
type QuestionnaireSession struct {
	sections            []string
	questionsPerSection int
	questionnaireType   string
	bank                QuestionBank
	store               repository.ResponseRepository
	identity            IdentityProvider
	foreground          Executor
	now                 func() time.Time

	current int
	answers map[int]int
}

// NewQuestionnaireSession starts a session at section 0 with no answers.
func NewQuestionnaireSession(opts SessionOptions) (*QuestionnaireSession, error) {
	if len(opts.Sections) == 0 {
		return nil, errors.New("questionnaire needs at least one section")
	}
	if opts.QuestionsPerSection <= 0 {
		return nil, fmt.Errorf("questions per section must be positive, got %d", opts.QuestionsPerSection)
	}
	if opts.Bank == nil || opts.Store == nil || opts.Identity == nil {
		return nil, errors.New("question bank, response store and identity provider are required")
	}
	if opts.Foreground == nil {
		return nil, errors.New("foreground executor is required")
	}
	s := &QuestionnaireSession{
		sections:            append([]string(nil), opts.Sections...),
		questionsPerSection: opts.QuestionsPerSection,
		questionnaireType:   opts.QuestionnaireType,
		bank:                opts.Bank,
		store:               opts.Store,
		identity:            opts.Identity,
		foreground:          opts.Foreground,
		now:                 opts.Now,
		answers:             map[int]int{},
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *QuestionnaireSession) CurrentSectionIndex() int {
	return s.current
}

// SectionCount is the number of sections, fixed at session start.
func (s *QuestionnaireSession) SectionCount() int {
	return len(s.sections)
}

// CurrentSectionTitle returns the title of the current section, or ErrSectionOutOfRange
// after AdvanceSection has been called on the last section.
func (s *QuestionnaireSession) CurrentSectionTitle() (string, error) {
	return s.sectionTitle(s.current)
}

func (s *QuestionnaireSession) sectionTitle(index int) (string, error) {
	if index < 0 || index >= len(s.sections) {
		return "", fmt.Errorf("%w: index %d, %d sections", ErrSectionOutOfRange, index, len(s.sections))
	}
	return s.sections[index], nil
}

// AdvanceSection moves to the next section without a bounds check.
// Callers consult IsLastSection first.
func (s *QuestionnaireSession) AdvanceSection() {
	s.current++
}

// RetreatSection moves to the previous section; at section 0 it does nothing.
func (s *QuestionnaireSession) RetreatSection() {
	if s.current > 0 {
		s.current--
	}
}

// RecordAnswer sets the answer for questionID, overwriting any earlier one.
// Any integer is accepted.
func (s *QuestionnaireSession) RecordAnswer(questionID, answer int) {
	next := make(map[int]int, len(s.answers)+1)
	for id, a := range s.answers {
		next[id] = a
	}
	next[questionID] = answer
	s.answers = next
}

// Responses returns the current answer map. Later RecordAnswer calls never modify it.
func (s *QuestionnaireSession) Responses() map[int]int {
	return s.answers
}

// CurrentQuestions lists the questions of the current section.
func (s *QuestionnaireSession) CurrentQuestions() []models.Question {
	if s.current < 0 || s.current >= len(s.sections) {
		return nil
	}
	return s.bank.QuestionsForSection(s.current)
}

// IsCurrentSectionComplete reports whether every question of the current section has an answer.
// A section the bank knows no questions for is never complete.
func (s *QuestionnaireSession) IsCurrentSectionComplete() bool {
	questions := s.CurrentQuestions()
	if len(questions) == 0 {
		return false
	}
	answers := s.answers
	for _, q := range questions {
		if _, ok := answers[q.ID]; !ok {
			return false
		}
	}
	return true
}

func (s *QuestionnaireSession) IsLastSection() bool {
	return s.current == len(s.sections)-1
}

// Submit persists a snapshot of the current answers on background and then posts
// onComplete to the foreground executor exactly once. onComplete receives nil on
// success; ErrSectionOutOfRange if an answer's question maps to no section (nothing is
// stored); or an error wrapping ErrStoreFailure if the batch insert failed.
// If background refuses the task, onComplete is called right away with ErrStoreFailure.
// If the foreground has stopped, onComplete runs on the background goroutine instead.
// Session state is left as it is.
func (s *QuestionnaireSession) Submit(background Executor, onComplete func(error)) {
	answers := s.answers
	deliver := func(err error) {
		if onComplete != nil {
			onComplete(err)
		}
	}
	err := background.Execute(func() {
		result := s.persist(answers)
		if err := s.foreground.Execute(func() { deliver(result) }); err != nil {
			log.Printf("ERROR: [QuestionnaireSession] Could not post submission result to foreground (%v); delivering it on the background goroutine.", err)
			deliver(result)
		}
	})
	if err != nil {
		log.Printf("ERROR: [QuestionnaireSession] Background executor refused submission: %v", err)
		deliver(fmt.Errorf("%w: %w", ErrStoreFailure, err))
	}
}

func (s *QuestionnaireSession) persist(answers map[int]int) error {
	records, err := s.BuildRecords(answers)
	if err != nil {
		log.Printf("ERROR: [QuestionnaireSession] Could not build response records: %v", err)
		return err
	}
	if err := s.store.InsertMany(records); err != nil {
		log.Printf("ERROR: [QuestionnaireSession] Batch insert of %d responses failed: %v", len(records), err)
		return fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	log.Printf("INFO: [QuestionnaireSession] Submitted %d responses for questionnaire '%s'.", len(records), s.questionnaireType)
	return nil
}

// BuildRecords turns answers into one ResponseRecord per question, in question id order.
// The section title is sections[questionID / questionsPerSection]; identity and clock are
// resolved once per record.
func (s *QuestionnaireSession) BuildRecords(answers map[int]int) ([]*models.ResponseRecord, error) {
	ids := make([]int, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	records := make([]*models.ResponseRecord, 0, len(ids))
	for _, id := range ids {
		section, err := s.sectionTitle(s.sectionIndexOf(id))
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", id, err)
		}
		records = append(records, models.NewResponseRecord(
			section,
			s.bank.QuestionText(id),
			answers[id],
			s.questionnaireType,
			s.identity.CurrentUserIdentifier(),
			s.now(),
		))
	}
	return records, nil
}

// sectionIndexOf floors so negative ids land outside the section list.
func (s *QuestionnaireSession) sectionIndexOf(questionID int) int {
	if questionID < 0 {
		return -1
	}
	return questionID / s.questionsPerSection
}
