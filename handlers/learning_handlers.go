package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studyspark/StudySparkApi/ai"
	"github.com/studyspark/StudySparkApi/db"
	"github.com/studyspark/StudySparkApi/ledger"
	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/prompts"
	"github.com/studyspark/StudySparkApi/utils"
)

const (
	initialQuestionCount = 15
	moreQuestionCount    = 3
)

// TaskQueue is the slice of the job manager the learning flow needs.
type TaskQueue interface {
	QueueHistoryAppend(entry models.HistoryEntry) error
	QueueQuestionAnswered(topic string) error
	QueueTopicCompleted(topic string) error
}

// LearningHandlers drives question generation and answering. The mutex
// serializes read-modify-write cycles on a topic's session row.
type LearningHandlers struct {
	mu           sync.Mutex
	db           *db.DB
	entitlements *ledger.Ledger
	client       *ai.Client
	queue        TaskQueue
	providerCfg  *ConfigHandlers
}

func NewLearningHandlers(database *db.DB, entitlements *ledger.Ledger, client *ai.Client, queue TaskQueue, providerCfg *ConfigHandlers) *LearningHandlers {
	return &LearningHandlers{
		db:           database,
		entitlements: entitlements,
		client:       client,
		queue:        queue,
		providerCfg:  providerCfg,
	}
}

// HandleStart begins a session on a topic, or resumes the cached one.
func (h *LearningHandlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}

	var req models.StartLearningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "请求格式错误"})
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		writeError(w, &models.ValidationError{Field: "topic", Reason: "请输入学习主题"})
		return
	}

	h.mu.Lock()
	existing, err := h.db.GetSession(topic)
	h.mu.Unlock()
	if err == nil && existing != nil {
		utils.LogAI("resuming cached session for %q (%d questions)", topic, len(existing.Questions))
		h.markLocked(existing)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"session":   existing,
			"resumed":   true,
			"remaining": h.entitlements.Remaining(),
		})
		return
	}

	// Entitlement first: the denial message offers both ways out.
	if !h.entitlements.AuthorizeNewTopic(topic) {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error":   "主题权限不足",
			"message": "请购买主题套餐或配置API密钥",
		})
		return
	}

	cfg := h.providerCfg.Current()
	if !cfg.HasKey() {
		writeError(w, &models.ConfigError{Reason: "请先在设置中配置API密钥"})
		return
	}

	prompt := prompts.BuildQuestionsPrompt(topic, 0, initialQuestionCount, true)
	raw, err := h.client.Execute(r.Context(), prompt, cfg)
	if err != nil {
		utils.LogError("question generation for %q: %v", topic, err)
		writeError(w, err)
		return
	}

	questions, err := ai.ParseQuestions(raw, topic, 0, initialQuestionCount)
	if err != nil {
		writeError(w, err)
		return
	}

	session := &models.Session{
		Topic:       topic,
		Questions:   questions,
		Counter:     len(questions),
		LastUpdated: time.Now(),
	}
	h.markLocked(session)

	h.mu.Lock()
	err = h.db.SaveSession(session)
	h.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "保存会话失败"})
		return
	}

	utils.LogAI("started session for %q with %d questions", topic, len(questions))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":   session,
		"resumed":   false,
		"remaining": h.entitlements.Remaining(),
	})
}

// HandleMore appends an incremental batch to an existing session.
func (h *LearningHandlers) HandleMore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}

	var req models.StartLearningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "请求格式错误"})
		return
	}
	topic := strings.TrimSpace(req.Topic)

	session, err := h.db.GetSession(topic)
	if err != nil || session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "会话不存在，请先开始学习"})
		return
	}

	cfg := h.providerCfg.Current()
	if !cfg.HasKey() {
		writeError(w, &models.ConfigError{Reason: "请先在设置中配置API密钥"})
		return
	}

	prompt := prompts.BuildQuestionsPrompt(topic, session.Counter, moreQuestionCount, false)
	raw, err := h.client.Execute(r.Context(), prompt, cfg)
	if err != nil {
		utils.LogError("incremental generation for %q: %v", topic, err)
		writeError(w, err)
		return
	}

	questions, err := ai.ParseQuestions(raw, topic, session.Counter, moreQuestionCount)
	if err != nil {
		writeError(w, err)
		return
	}

	h.mu.Lock()
	// Re-read under the lock so concurrent batches never reuse ids.
	session, err = h.db.GetSession(topic)
	if err != nil || session == nil {
		h.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "会话不存在，请先开始学习"})
		return
	}
	if session.Counter != questions[0].ID-1 {
		// Another batch landed first; renumber ours after it.
		for i := range questions {
			questions[i].ID = session.Counter + i + 1
		}
	}
	session.Questions = append(session.Questions, questions...)
	session.Counter += len(questions)
	session.LastUpdated = time.Now()
	h.markLocked(session)
	err = h.db.SaveSession(session)
	h.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "保存会话失败"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": questions,
		"counter":   session.Counter,
	})
}

// HandleGetSession returns one cached session, or all of them.
func (h *LearningHandlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		sessions, err := h.db.GetAllSessions()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "读取会话失败"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
		return
	}

	session, err := h.db.GetSession(topic)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "读取会话失败"})
		return
	}
	if session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "会话不存在"})
		return
	}
	h.markLocked(session)
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// HandleAnswer streams an AI answer over server-sent events.
func (h *LearningHandlers) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}

	var req models.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "请求格式错误"})
		return
	}

	session, err := h.db.GetSession(req.Topic)
	if err != nil || session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "会话不存在"})
		return
	}
	question := session.FindQuestion(req.QuestionID)
	if question == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "题目不存在"})
		return
	}

	if !h.entitlements.HasFreeAccess(req.Topic, req.QuestionID) {
		if !h.entitlements.AuthorizeNewTopic(req.Topic) {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error":   "题目已锁定",
				"message": "请购买主题套餐解锁更多题目",
			})
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "当前连接不支持流式输出"})
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Cached answer replays instantly, no AI round-trip.
	if question.Answered && question.Answer != "" {
		h.sendEvent(w, flusher, "done", answerChunk(question.Answer))
		return
	}

	cfg := h.providerCfg.Current()
	if !cfg.HasKey() {
		h.sendEvent(w, flusher, "error", map[string]string{"error": "请先在设置中配置API密钥"})
		return
	}

	prompt := prompts.BuildAnswerPrompt(req.Topic, question.Question)
	final, err := h.client.ExecuteStream(r.Context(), prompt, cfg, func(partial string) {
		h.sendEvent(w, flusher, "chunk", answerChunk(partial))
	})
	if err != nil {
		h.sendEvent(w, flusher, "error", map[string]string{"error": ai.Diagnose(err)})
		return
	}

	h.mu.Lock()
	session, serr := h.db.GetSession(req.Topic)
	if serr == nil && session != nil {
		if q := session.FindQuestion(req.QuestionID); q != nil {
			q.Answer = final
			q.Answered = true
			q.Locked = false
			session.LastUpdated = time.Now()
			if err := h.db.SaveSession(session); err != nil {
				utils.LogError("saving answered session %q: %v", req.Topic, err)
			}
		}
	}
	completed := session != nil && allAnswered(session)
	h.mu.Unlock()

	if h.queue != nil {
		if err := h.queue.QueueHistoryAppend(models.HistoryEntry{
			ID:        uuid.NewString(),
			Question:  question.Question,
			Answer:    final,
			Topic:     req.Topic,
			Timestamp: time.Now(),
		}); err != nil {
			utils.LogError("queueing history append: %v", err)
		}
		if err := h.queue.QueueQuestionAnswered(req.Topic); err != nil {
			utils.LogError("queueing stats update: %v", err)
		}
		if completed {
			if err := h.queue.QueueTopicCompleted(req.Topic); err != nil {
				utils.LogError("queueing topic completion: %v", err)
			}
		}
	}

	h.sendEvent(w, flusher, "done", answerChunk(final))
}

// HandleNote attaches a user note to a question.
func (h *LearningHandlers) HandleNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}

	var req models.NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "请求格式错误"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	session, err := h.db.GetSession(req.Topic)
	if err != nil || session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "会话不存在"})
		return
	}
	question := session.FindQuestion(req.QuestionID)
	if question == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "题目不存在"})
		return
	}

	question.Note = req.Note
	session.LastUpdated = time.Now()
	if err := h.db.SaveSession(session); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "保存笔记失败"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"saved": true})
}

// markLocked refreshes the per-question lock flags from the ledger.
func (h *LearningHandlers) markLocked(session *models.Session) {
	for i := range session.Questions {
		q := &session.Questions[i]
		q.Locked = !q.Answered && !h.entitlements.HasFreeAccess(session.Topic, q.ID)
	}
}

func (h *LearningHandlers) sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

func answerChunk(text string) map[string]string {
	return map[string]string{
		"text":      text,
		"formatted": ai.FormatAnswer(text),
	}
}

func allAnswered(session *models.Session) bool {
	if len(session.Questions) == 0 {
		return false
	}
	for _, q := range session.Questions {
		if !q.Answered {
			return false
		}
	}
	return true
}
