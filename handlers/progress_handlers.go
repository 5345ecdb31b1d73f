package handlers

import (
	"net/http"

	"github.com/studyspark/StudySparkApi/db"
	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/progress"
	"github.com/studyspark/StudySparkApi/utils"
)

type ProgressHandlers struct {
	tracker *progress.Tracker
	db      *db.DB
}

func NewProgressHandlers(tracker *progress.Tracker, database *db.DB) *ProgressHandlers {
	return &ProgressHandlers{tracker: tracker, db: database}
}

// topicProgress is the per-topic completion summary on the stats screen.
type topicProgress struct {
	Topic    string `json:"topic"`
	Total    int    `json:"total"`
	Answered int    `json:"answered"`
	Percent  int    `json:"percent"`
}

// HandleStats returns the accumulated counters plus per-topic progress
// derived from the cached sessions.
func (h *ProgressHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}

	sessions, err := h.db.GetAllSessions()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "读取会话失败"})
		return
	}

	topics := make([]topicProgress, 0, len(sessions))
	for topic, session := range sessions {
		answered := 0
		for _, q := range session.Questions {
			if q.Answered {
				answered++
			}
		}
		percent := 0
		if len(session.Questions) > 0 {
			percent = answered * 100 / len(session.Questions)
		}
		topics = append(topics, topicProgress{
			Topic:    topic,
			Total:    len(session.Questions),
			Answered: answered,
			Percent:  percent,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":  h.tracker.Stats(),
		"topics": topics,
	})
}

// HandleAchievements returns the full catalog with unlock state.
func (h *ProgressHandlers) HandleAchievements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": h.tracker.Achievements(),
	})
}

// historyView adds a relative timestamp label for display.
type historyView struct {
	models.HistoryEntry
	TimeLabel string `json:"time_label"`
}

// HandleHistory returns the bounded Q&A log, newest first.
func (h *ProgressHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := h.db.GetHistory()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "读取历史记录失败"})
			return
		}
		views := make([]historyView, 0, len(entries))
		for _, e := range entries {
			views = append(views, historyView{
				HistoryEntry: e,
				TimeLabel:    utils.FormatRelativeTime(e.Timestamp),
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"history": views})
	case http.MethodDelete:
		if err := h.db.ClearHistory(); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "清空历史记录失败"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": true})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
	}
}
