package handlers

import (
	"net/http"

	"github.com/studyspark/StudySparkApi/db"
	"github.com/studyspark/StudySparkApi/prompts"
)

const recommendLimit = 8

type TopicHandlers struct {
	db *db.DB
}

func NewTopicHandlers(database *db.DB) *TopicHandlers {
	return &TopicHandlers{db: database}
}

// HandleRecommend suggests topics the user has not studied yet.
// Domains the user already studies rank first; studied topics are
// filtered out.
func (h *TopicHandlers) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}

	sessions, err := h.db.GetAllSessions()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "读取会话失败"})
		return
	}

	studied := make(map[string]bool, len(sessions))
	studiedDomains := make(map[string]bool)
	for topic := range sessions {
		studied[topic] = true
		studiedDomains[prompts.ClassifyTopic(topic)] = true
	}

	ordered := make([]string, 0, 5)
	for _, d := range prompts.AllDomains() {
		if studiedDomains[d] {
			ordered = append(ordered, d)
		}
	}
	for _, d := range prompts.AllDomains() {
		if !studiedDomains[d] {
			ordered = append(ordered, d)
		}
	}

	recommendations := make([]map[string]string, 0, recommendLimit)
	for _, domain := range ordered {
		for _, topic := range prompts.TopicsForDomain(domain) {
			if studied[topic] {
				continue
			}
			recommendations = append(recommendations, map[string]string{
				"topic":  topic,
				"domain": domain,
			})
			if len(recommendations) >= recommendLimit {
				writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recommendations})
				return
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recommendations})
}
