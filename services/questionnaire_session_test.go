package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"screener/config"
	"screener/models"
	"screener/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockResponseRepository is a mock type for the ResponseRepository interface
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) InsertOne(record *models.ResponseRecord) (uint, error) {
	args := m.Called(record)
	return args.Get(0).(uint), args.Error(1)
}

func (m *MockResponseRepository) InsertMany(records []*models.ResponseRecord) error {
	args := m.Called(records)
	return args.Error(0)
}

func (m *MockResponseRepository) FetchAll() ([]*models.ResponseRecord, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ResponseRecord), args.Error(1)
}

func (m *MockResponseRepository) DeleteAll() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResponseRepository) FetchByUser(userEmail string) ([]*models.ResponseRecord, error) {
	args := m.Called(userEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ResponseRecord), args.Error(1)
}

func (m *MockResponseRepository) CountByTypeAndUser(questionnaireType, userEmail string) (int64, error) {
	args := m.Called(questionnaireType, userEmail)
	return args.Get(0).(int64), args.Error(1)
}

const testUser = "patient@example.com"

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func newTestSession(t *testing.T, store repository.ResponseRepository, foreground Executor) *QuestionnaireSession {
	t.Helper()
	if foreground == nil {
		foreground = InlineExecutor{}
	}
	s, err := NewQuestionnaireSession(SessionOptions{
		Sections:            config.DefaultSections,
		QuestionsPerSection: 4,
		QuestionnaireType:   config.DefaultQuestionnaireType,
		Bank:                NewStaticQuestionBank(config.DefaultSections, 4, nil),
		Store:               store,
		Identity:            StaticIdentity(testUser),
		Foreground:          foreground,
		Now:                 func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return s
}

// submitAndWait submits with a goroutine background and a running serial foreground,
// returning every error the callback received.
func submitAndWait(t *testing.T, store repository.ResponseRepository, prepare func(s *QuestionnaireSession)) []error {
	t.Helper()
	foreground := NewSerialExecutor(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go foreground.Run(ctx)

	s := newTestSession(t, store, foreground)
	prepare(s)

	results := make(chan error, 4)
	s.Submit(GoExecutor{}, func(err error) { results <- err })

	var got []error
	select {
	case err := <-results:
		got = append(got, err)
	case <-time.After(2 * time.Second):
		t.Fatal("completion callback was never invoked")
	}
	// A second delivery would show up quickly; make sure there is none.
	select {
	case err := <-results:
		got = append(got, err)
	case <-time.After(50 * time.Millisecond):
	}
	return got
}

func TestNewQuestionnaireSession_Validation(t *testing.T) {
	store := new(MockResponseRepository)
	bank := NewStaticQuestionBank(config.DefaultSections, 4, nil)

	_, err := NewQuestionnaireSession(SessionOptions{QuestionsPerSection: 4, Bank: bank, Store: store, Identity: StaticIdentity(testUser)})
	assert.Error(t, err, "no sections")

	_, err = NewQuestionnaireSession(SessionOptions{Sections: config.DefaultSections, Bank: bank, Store: store, Identity: StaticIdentity(testUser)})
	assert.Error(t, err, "zero questions per section")

	_, err = NewQuestionnaireSession(SessionOptions{Sections: config.DefaultSections, QuestionsPerSection: 4, Bank: bank, Store: store, Foreground: InlineExecutor{}})
	assert.Error(t, err, "missing identity")

	_, err = NewQuestionnaireSession(SessionOptions{Sections: config.DefaultSections, QuestionsPerSection: 4, Bank: bank, Store: store, Identity: StaticIdentity(testUser)})
	assert.Error(t, err, "missing foreground executor")
}

func TestQuestionnaireSession_InitialState(t *testing.T) {
	s := newTestSession(t, new(MockResponseRepository), nil)

	assert.Equal(t, 0, s.CurrentSectionIndex())
	title, err := s.CurrentSectionTitle()
	assert.NoError(t, err)
	assert.Equal(t, "Part A: Mood and Energy", title)
	assert.Empty(t, s.Responses())
	assert.False(t, s.IsCurrentSectionComplete())
	assert.False(t, s.IsLastSection())
}

func TestQuestionnaireSession_RecordAnswer(t *testing.T) {
	t.Run("Last answer per question wins", func(t *testing.T) {
		s := newTestSession(t, new(MockResponseRepository), nil)
		s.RecordAnswer(1, 0)
		s.RecordAnswer(2, 3)
		s.RecordAnswer(1, 2)
		s.RecordAnswer(1, 1)

		assert.Equal(t, map[int]int{1: 1, 2: 3}, s.Responses())
	})

	t.Run("Earlier snapshots are not affected", func(t *testing.T) {
		s := newTestSession(t, new(MockResponseRepository), nil)
		s.RecordAnswer(1, 2)
		before := s.Responses()

		s.RecordAnswer(1, 3)
		s.RecordAnswer(7, 0)

		assert.Equal(t, map[int]int{1: 2}, before)
		assert.Equal(t, map[int]int{1: 3, 7: 0}, s.Responses())
	})

	t.Run("Any integer is accepted", func(t *testing.T) {
		s := newTestSession(t, new(MockResponseRepository), nil)
		s.RecordAnswer(0, -5)
		s.RecordAnswer(3, 1000)

		assert.Equal(t, -5, s.Responses()[0])
		assert.Equal(t, 1000, s.Responses()[3])
	})
}

func TestQuestionnaireSession_RetreatAtFirstSection(t *testing.T) {
	s := newTestSession(t, new(MockResponseRepository), nil)
	for i := 0; i < 5; i++ {
		s.RetreatSection()
		assert.Equal(t, 0, s.CurrentSectionIndex())
	}

	s.AdvanceSection()
	s.AdvanceSection()
	s.RetreatSection()
	assert.Equal(t, 1, s.CurrentSectionIndex())
}

func TestQuestionnaireSession_IsLastSection(t *testing.T) {
	s := newTestSession(t, new(MockResponseRepository), nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, i, s.CurrentSectionIndex())
		assert.False(t, s.IsLastSection(), "section %d", i)
		s.AdvanceSection()
	}
	assert.Equal(t, 5, s.CurrentSectionIndex())
	assert.True(t, s.IsLastSection())

	title, err := s.CurrentSectionTitle()
	assert.NoError(t, err)
	assert.Equal(t, "Part F: Daily Functioning", title)
}

// AdvanceSection is unguarded: moving past the last section is allowed and
// the title lookup then reports the range error.
func TestQuestionnaireSession_AdvancePastLastSection(t *testing.T) {
	s := newTestSession(t, new(MockResponseRepository), nil)
	for i := 0; i < 6; i++ {
		s.AdvanceSection()
	}

	assert.Equal(t, 6, s.CurrentSectionIndex())
	assert.False(t, s.IsLastSection())
	assert.False(t, s.IsCurrentSectionComplete())
	assert.Nil(t, s.CurrentQuestions())

	_, err := s.CurrentSectionTitle()
	assert.ErrorIs(t, err, ErrSectionOutOfRange)

	s.RetreatSection()
	title, err := s.CurrentSectionTitle()
	assert.NoError(t, err)
	assert.Equal(t, "Part F: Daily Functioning", title)
}

func TestQuestionnaireSession_IsCurrentSectionComplete(t *testing.T) {
	s := newTestSession(t, new(MockResponseRepository), nil)

	s.RecordAnswer(0, 1)
	s.RecordAnswer(1, 1)
	s.RecordAnswer(2, 1)
	assert.False(t, s.IsCurrentSectionComplete(), "question 3 unanswered")

	s.RecordAnswer(3, 0)
	assert.True(t, s.IsCurrentSectionComplete())

	// Answers from other sections do not matter.
	s.RecordAnswer(10, 2)
	assert.True(t, s.IsCurrentSectionComplete())

	s.AdvanceSection()
	assert.False(t, s.IsCurrentSectionComplete(), "section 1 has only question 10 answered")
	for id := 4; id < 8; id++ {
		s.RecordAnswer(id, 2)
	}
	assert.True(t, s.IsCurrentSectionComplete())
}

type emptyBank struct{}

func (emptyBank) QuestionsForSection(int) []models.Question { return nil }
func (emptyBank) QuestionText(int) string                   { return "" }

func TestQuestionnaireSession_IsCurrentSectionComplete_NoQuestions(t *testing.T) {
	s, err := NewQuestionnaireSession(SessionOptions{
		Sections:            config.DefaultSections,
		QuestionsPerSection: 4,
		Bank:                emptyBank{},
		Store:               new(MockResponseRepository),
		Identity:            StaticIdentity(testUser),
		Foreground:          InlineExecutor{},
	})
	require.NoError(t, err)
	s.RecordAnswer(0, 1)

	assert.False(t, s.IsCurrentSectionComplete())
}

func TestQuestionnaireSession_BuildRecords(t *testing.T) {
	s := newTestSession(t, new(MockResponseRepository), nil)
	calls := 0
	s.identity = IdentityFunc(func() string {
		calls++
		return testUser
	})

	records, err := s.BuildRecords(map[int]int{19: 0, 5: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, calls, "identity is resolved once per record")

	assert.Equal(t, "Part B: Anxiety and Worry", records[0].Section)
	assert.Equal(t, "2. How often have you been unable to stop or control worrying?", records[0].QuestionText)
	assert.Equal(t, 2, records[0].Answer)
	assert.Equal(t, fixedNow.UnixMilli(), records[0].Timestamp)
	assert.Equal(t, "MENTAL_HEALTH_SCREENER", records[0].QuestionnaireType)
	assert.Equal(t, testUser, records[0].UserEmail)
	assert.Zero(t, records[0].ID)

	assert.Equal(t, "Part E: Physical Symptoms", records[1].Section)
	assert.Equal(t, 0, records[1].Answer)

	_, err = s.BuildRecords(map[int]int{24: 1})
	assert.ErrorIs(t, err, ErrSectionOutOfRange)
	_, err = s.BuildRecords(map[int]int{-1: 1})
	assert.ErrorIs(t, err, ErrSectionOutOfRange)
}

func TestQuestionnaireSession_Submit(t *testing.T) {
	t.Run("Two answers are stored with their sections", func(t *testing.T) {
		store := new(MockResponseRepository)
		store.On("InsertMany", mock.MatchedBy(func(records []*models.ResponseRecord) bool {
			return len(records) == 2 &&
				records[0].Section == "Part B: Anxiety and Worry" && records[0].Answer == 2 &&
				records[1].Section == "Part E: Physical Symptoms" && records[1].Answer == 0
		})).Return(nil).Once()

		errs := submitAndWait(t, store, func(s *QuestionnaireSession) {
			s.RecordAnswer(5, 2)
			s.RecordAnswer(19, 0)
		})

		require.Len(t, errs, 1, "callback fires exactly once")
		assert.NoError(t, errs[0])
		store.AssertExpectations(t)
	})

	t.Run("Store failure reaches the callback", func(t *testing.T) {
		store := new(MockResponseRepository)
		store.On("InsertMany", mock.Anything).Return(errors.New("disk I/O error")).Once()

		errs := submitAndWait(t, store, func(s *QuestionnaireSession) {
			s.RecordAnswer(0, 1)
		})

		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrStoreFailure)
		assert.Contains(t, errs[0].Error(), "disk I/O error")
		store.AssertExpectations(t)
	})

	t.Run("Unmapped question fails before insert", func(t *testing.T) {
		store := new(MockResponseRepository)

		errs := submitAndWait(t, store, func(s *QuestionnaireSession) {
			s.RecordAnswer(3, 1)
			s.RecordAnswer(99, 1)
		})

		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrSectionOutOfRange)
		store.AssertNotCalled(t, "InsertMany", mock.Anything)
	})

	t.Run("Answers recorded after submit are not part of it", func(t *testing.T) {
		store := new(MockResponseRepository)
		store.On("InsertMany", mock.MatchedBy(func(records []*models.ResponseRecord) bool {
			return len(records) == 1
		})).Return(nil).Once()

		s := newTestSession(t, store, InlineExecutor{})
		s.RecordAnswer(0, 1)

		var release = make(chan struct{})
		done := make(chan error, 1)
		s.Submit(executorFunc(func(task func()) error {
			go func() {
				<-release
				task()
			}()
			return nil
		}), func(err error) { done <- err })

		s.RecordAnswer(1, 2)
		close(release)

		assert.NoError(t, <-done)
		assert.Len(t, s.Responses(), 2)
		assert.Equal(t, 0, s.CurrentSectionIndex(), "submit leaves session state alone")
		store.AssertExpectations(t)
	})
}

type executorFunc func(func()) error

func (f executorFunc) Execute(task func()) error { return f(task) }

func TestQuestionnaireSession_SubmitWithUnavailableExecutors(t *testing.T) {
	t.Run("Stopped foreground still gets the result, once", func(t *testing.T) {
		store := repository.NewMemoryResponseRepository()
		foreground := NewSerialExecutor(4)
		foreground.Stop()

		s := newTestSession(t, store, foreground)
		s.RecordAnswer(3, 2)

		results := make(chan error, 2)
		s.Submit(GoExecutor{}, func(err error) { results <- err })

		select {
		case err := <-results:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("completion callback was dropped")
		}
		select {
		case <-results:
			t.Fatal("completion callback delivered twice")
		case <-time.After(50 * time.Millisecond):
		}

		records, err := store.FetchAll()
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("Refused background reports a store failure without inserting", func(t *testing.T) {
		store := new(MockResponseRepository)
		s := newTestSession(t, store, nil)
		s.RecordAnswer(0, 1)

		var got []error
		s.Submit(executorFunc(func(func()) error { return ErrExecutorStopped }), func(err error) { got = append(got, err) })

		require.Len(t, got, 1)
		assert.ErrorIs(t, got[0], ErrStoreFailure)
		assert.ErrorIs(t, got[0], ErrExecutorStopped)
		store.AssertNotCalled(t, "InsertMany", mock.Anything)
	})
}

func TestQuestionnaireSession_SubmitRoundTrip(t *testing.T) {
	store := repository.NewMemoryResponseRepository()

	errs := submitAndWait(t, store, func(s *QuestionnaireSession) {
		for id := 0; id < 24; id++ {
			s.RecordAnswer(id, id%4)
		}
	})
	require.Len(t, errs, 1)
	require.NoError(t, errs[0])

	records, err := store.FetchAll()
	require.NoError(t, err)
	require.Len(t, records, 24)
	for i, rec := range records {
		assert.Equal(t, i%4, rec.Answer)
		assert.Equal(t, config.DefaultSections[i/4], rec.Section)
		assert.Equal(t, "MENTAL_HEALTH_SCREENER", rec.QuestionnaireType)
		assert.Equal(t, testUser, rec.UserEmail)
		assert.NotZero(t, rec.ID)
	}
}
