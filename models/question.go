package models

import "time"

// Question categories, ordered by depth within a generated batch.
const (
	CategoryBasic    = "basic"
	CategoryPractice = "practice"
	CategoryAdvanced = "advanced"
	CategoryIndustry = "industry"
)

// CategoryLabel maps a category to its display label.
func CategoryLabel(category string) string {
	switch category {
	case CategoryBasic:
		return "基础入门"
	case CategoryPractice:
		return "实践应用"
	case CategoryAdvanced:
		return "进阶技能"
	case CategoryIndustry:
		return "行业洞察"
	}
	return "基础入门"
}

// Question represents one generated study question within a session
type Question struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Topic    string `json:"topic"`
	Category string `json:"category"`
	Label    string `json:"label"`
	Answer   string `json:"answer,omitempty"`
	Answered bool   `json:"answered"`
	Locked   bool   `json:"locked"`
	Note     string `json:"note,omitempty"`
}

// Session is the ordered question list for one topic plus the id counter.
// Question ids are assigned in strict generation order; the counter is
// the number of ids handed out so far.
type Session struct {
	Topic       string     `json:"topic"`
	Questions   []Question `json:"questions"`
	Counter     int        `json:"counter"`
	LastUpdated time.Time  `json:"last_updated"`
}

// FindQuestion returns the question with the given id, or nil.
func (s *Session) FindQuestion(id int) *Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}

// HistoryEntry is one answered question kept in the bounded Q&A log.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
}

// StartLearningRequest begins (or resumes) a session on a topic.
type StartLearningRequest struct {
	Topic string `json:"topic"`
}

// AnswerRequest asks for an AI answer to one question of a session.
type AnswerRequest struct {
	Topic      string `json:"topic"`
	QuestionID int    `json:"question_id"`
}

// NoteRequest saves a user note on a question.
type NoteRequest struct {
	Topic      string `json:"topic"`
	QuestionID int    `json:"question_id"`
	Note       string `json:"note"`
}
