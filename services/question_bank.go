package services

import (
	"fmt"
	"log"

	"screener/models"
)

// QuestionBank supplies question content and section membership.
// Calls must be cheap: completeness checks run on the caller's goroutine.
type QuestionBank interface {
	QuestionsForSection(sectionIndex int) []models.Question
	QuestionText(questionID int) string
}

// staticQuestionBank serves a fixed question list where question id / questionsPerSection is the section index.
type staticQuestionBank struct {
	sections            []string
	questionsPerSection int
	questions           []models.Question // index == question id
}

// NewStaticQuestionBank builds a bank of len(sections)*questionsPerSection questions.
// texts[i] is the text of question i; missing entries fall back to the default screener wording.
func NewStaticQuestionBank(sections []string, questionsPerSection int, texts []string) QuestionBank {
	if questionsPerSection <= 0 {
		questionsPerSection = 1
	}
	total := len(sections) * questionsPerSection
	defaults := getDefaultScreenerQuestions()

	questions := make([]models.Question, total)
	for id := 0; id < total; id++ {
		text := ""
		switch {
		case id < len(texts) && texts[id] != "":
			text = texts[id]
		case id < len(defaults):
			text = defaults[id]
		default:
			text = fmt.Sprintf("%d. Question %d", id%questionsPerSection+1, id+1)
		}
		questions[id] = models.Question{
			ID:      id,
			Text:    text,
			Section: sections[id/questionsPerSection],
		}
	}
	if len(texts) > total {
		log.Printf("WARN: [QuestionBank] %d question texts configured but only %d questions fit %d sections; extras ignored.", len(texts), total, len(sections))
	}

	return &staticQuestionBank{
		sections:            append([]string(nil), sections...),
		questionsPerSection: questionsPerSection,
		questions:           questions,
	}
}

func (b *staticQuestionBank) QuestionsForSection(sectionIndex int) []models.Question {
	if sectionIndex < 0 || sectionIndex >= len(b.sections) {
		return nil
	}
	start := sectionIndex * b.questionsPerSection
	out := make([]models.Question, b.questionsPerSection)
	copy(out, b.questions[start:start+b.questionsPerSection])
	return out
}

func (b *staticQuestionBank) QuestionText(questionID int) string {
	if questionID < 0 || questionID >= len(b.questions) {
		return ""
	}
	return b.questions[questionID].Text
}

// getDefaultScreenerQuestions is the wording of the six-part screener, four questions per part.
// Answers are Likert codes (0 = not at all ... 3 = nearly every day).
func getDefaultScreenerQuestions() []string {
	return []string{
		// Part A: Mood and Energy
		"1. How often have you felt down, depressed, or hopeless?",
		"2. How often have you had little interest or pleasure in doing things?",
		"3. How often have you felt tired or had little energy?",
		"4. How often have you felt bad about yourself?",
		// Part B: Anxiety and Worry
		"1. How often have you felt nervous, anxious, or on edge?",
		"2. How often have you been unable to stop or control worrying?",
		"3. How often have you had trouble relaxing?",
		"4. How often have you felt afraid as if something awful might happen?",
		// Part C: Sleep Patterns
		"1. How often have you had trouble falling or staying asleep?",
		"2. How often have you slept too much?",
		"3. How often have you woken up feeling unrested?",
		"4. How often has poor sleep affected your day?",
		// Part D: Social Interactions
		"1. How often have you avoided friends or family?",
		"2. How often have you felt lonely or isolated?",
		"3. How often have you felt uncomfortable in social situations?",
		"4. How often have you had conflicts with people close to you?",
		// Part E: Physical Symptoms
		"1. How often have you had headaches or muscle tension?",
		"2. How often have you had changes in appetite?",
		"3. How often have you had a racing heart or shortness of breath?",
		"4. How often have you had stomach aches or digestive problems?",
		// Part F: Daily Functioning
		"1. How often have you had trouble concentrating on things?",
		"2. How often have you struggled to complete daily tasks?",
		"3. How often have your feelings interfered with work or study?",
		"4. How often have you felt unable to cope with daily demands?",
	}
}
