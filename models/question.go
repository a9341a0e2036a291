package models

// Question is a single item of the questionnaire. Identity is ID.
type Question struct {
	ID      int    `json:"id"`
	Text    string `json:"text"`
	Section string `json:"section"`
}
