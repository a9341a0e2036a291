package models

import "time"

// ResponseRecord is one persisted answer, written once at submission time and never updated.
type ResponseRecord struct {
	ID                uint   `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Section           string `json:"section" db:"section"`
	QuestionText      string `json:"question_text" db:"question_text"`
	Answer            int    `json:"answer" db:"answer"`
	Timestamp         int64  `json:"timestamp" db:"timestamp" gorm:"index"` // Epoch millis at record creation
	QuestionnaireType string `json:"questionnaire_type" db:"questionnaire_type" gorm:"index:idx_type_user"`
	UserEmail         string `json:"user_email" db:"user_email" gorm:"index:idx_type_user"`
}

// TableName specifies the table name for the ResponseRecord model.
func (ResponseRecord) TableName() string {
	return "questionnaire_responses"
}

// NewResponseRecord builds a record stamped with now. The id is left for the store to assign.
func NewResponseRecord(section, questionText string, answer int, questionnaireType, userEmail string, now time.Time) *ResponseRecord {
	return &ResponseRecord{
		Section:           section,
		QuestionText:      questionText,
		Answer:            answer,
		Timestamp:         now.UnixMilli(),
		QuestionnaireType: questionnaireType,
		UserEmail:         userEmail,
	}
}
