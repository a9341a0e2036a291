package models

// QuestionnaireStatus summarises how much of a questionnaire a user has stored.
type QuestionnaireStatus string

const (
	QuestionnaireStatusNotStarted         QuestionnaireStatus = "not_started"
	QuestionnaireStatusPartiallyCompleted QuestionnaireStatus = "partially_completed"
	QuestionnaireStatusCompleted          QuestionnaireStatus = "completed"
)

// QuestionnaireProgress is the reporting view returned for a user and questionnaire type.
type QuestionnaireProgress struct {
	QuestionnaireType string              `json:"questionnaire_type"`
	UserEmail         string              `json:"user_email"`
	Stored            int64               `json:"stored"`
	Expected          int                 `json:"expected"`
	Status            QuestionnaireStatus `json:"status"`
}

// SessionView is the snapshot of a live session exposed to the UI layer.
type SessionView struct {
	SessionID       string      `json:"session_id"`
	UserEmail       string      `json:"user_email"`
	SectionIndex    int         `json:"section_index"`
	SectionTitle    string      `json:"section_title"`
	SectionCount    int         `json:"section_count"`
	IsLastSection   bool        `json:"is_last_section"`
	SectionComplete bool        `json:"section_complete"`
	Questions       []Question  `json:"questions"`
	Answers         map[int]int `json:"answers"`
}
