package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/studyspark/StudySparkApi/models"
)

var numberedLineRe = regexp.MustCompile(`^\d+[.\s]`)
var numberedPrefixRe = regexp.MustCompile(`^\d+[.\s]*`)

// ParseQuestions converts raw model output into question records.
// It first tries the structured JSON shape the prompt asks for, then
// falls back to the numbered-line heuristic. Ids continue from offset;
// expected is the requested batch size, which drives the category
// ratio and caps the result.
func ParseQuestions(raw, topic string, offset, expected int) ([]models.Question, error) {
	if questions, ok := parseJSONQuestions(raw, topic, offset, expected); ok {
		return questions, nil
	}

	questions := parseNumberedLines(raw, topic, offset, expected)
	if len(questions) == 0 {
		return nil, &models.ParseError{Reason: "响应中没有可识别的问题"}
	}
	return questions, nil
}

// parseJSONQuestions accepts a single JSON object with a questions
// array. Any parse failure or an empty array falls through to the
// heuristic.
func parseJSONQuestions(raw, topic string, offset, expected int) ([]models.Question, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var parsed struct {
		Topic     string `json:"topic"`
		Questions []struct {
			ID       int    `json:"id"`
			Category string `json:"category"`
			Question string `json:"question"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, false
	}
	if len(parsed.Questions) == 0 {
		return nil, false
	}

	questions := make([]models.Question, 0, len(parsed.Questions))
	for i, q := range parsed.Questions {
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		id := q.ID
		if id <= offset {
			id = offset + i + 1
		}
		category := q.Category
		switch category {
		case models.CategoryBasic, models.CategoryPractice, models.CategoryAdvanced, models.CategoryIndustry:
		default:
			category = models.CategoryBasic
		}
		questions = append(questions, newQuestion(id, strings.TrimSpace(q.Question), topic, category))
		if len(questions) == expected {
			break
		}
	}
	if len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func parseNumberedLines(raw, topic string, offset, expected int) []models.Question {
	var questions []models.Question
	total := offset + expected

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if !numberedLineRe.MatchString(trimmed) {
			continue
		}
		text := strings.TrimSpace(numberedPrefixRe.ReplaceAllString(trimmed, ""))
		if len([]rune(text)) < 6 {
			continue
		}

		position := offset + len(questions)
		id := position + 1
		questions = append(questions, newQuestion(id, text, topic, CategoryForPosition(position, total)))
		if len(questions) == expected {
			break
		}
	}

	return questions
}

// CategoryForPosition assigns a category by position ratio within the
// expected batch.
func CategoryForPosition(position, total int) string {
	if total <= 0 {
		return models.CategoryBasic
	}
	ratio := float64(position) / float64(total)
	switch {
	case ratio < 0.3:
		return models.CategoryBasic
	case ratio < 0.7:
		return models.CategoryPractice
	case ratio < 0.9:
		return models.CategoryAdvanced
	}
	return models.CategoryIndustry
}

func newQuestion(id int, text, topic, category string) models.Question {
	return models.Question{
		ID:       id,
		Question: text,
		Topic:    topic,
		Category: category,
		Label:    models.CategoryLabel(category),
	}
}
