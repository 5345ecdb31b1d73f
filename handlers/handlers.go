package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/studyspark/StudySparkApi/ai"
	"github.com/studyspark/StudySparkApi/config"
	"github.com/studyspark/StudySparkApi/db"
	"github.com/studyspark/StudySparkApi/jobs"
	"github.com/studyspark/StudySparkApi/ledger"
	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/progress"
	"github.com/studyspark/StudySparkApi/utils"
)

// API wrapper to hold all handlers
type API struct {
	configHandlers   *ConfigHandlers
	learningHandlers *LearningHandlers
	paymentHandlers  *PaymentHandlers
	progressHandlers *ProgressHandlers
	topicHandlers    *TopicHandlers
	dataHandlers     *DataHandlers
}

func NewAPI(database *db.DB, entitlements *ledger.Ledger, tracker *progress.Tracker, aiClient *ai.Client, jobManager *jobs.JobManager, cfg *config.Config, configHandlers *ConfigHandlers) *API {
	learning := NewLearningHandlers(database, entitlements, aiClient, jobManager, configHandlers)
	return &API{
		configHandlers:   configHandlers,
		learningHandlers: learning,
		paymentHandlers:  NewPaymentHandlers(entitlements, database),
		progressHandlers: NewProgressHandlers(tracker, database),
		topicHandlers:    NewTopicHandlers(database),
		dataHandlers:     NewDataHandlers(database, entitlements, tracker, configHandlers, cfg.AdminTokenHash),
	}
}

func NewRouter(database *db.DB, entitlements *ledger.Ledger, tracker *progress.Tracker, aiClient *ai.Client, jobManager *jobs.JobManager, cfg *config.Config, configHandlers *ConfigHandlers) http.Handler {
	api := NewAPI(database, entitlements, tracker, aiClient, jobManager, cfg, configHandlers)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", healthCheck)

	// Provider configuration
	mux.HandleFunc("/config", api.configHandlers.HandleConfig)

	// Learning flow
	mux.HandleFunc("/learn/start", api.learningHandlers.HandleStart)
	mux.HandleFunc("/learn/more", api.learningHandlers.HandleMore)
	mux.HandleFunc("/learn/session", api.learningHandlers.HandleGetSession)

	// Answers and notes
	mux.HandleFunc("/questions/answer", api.learningHandlers.HandleAnswer)
	mux.HandleFunc("/questions/note", api.learningHandlers.HandleNote)

	// Payments
	mux.HandleFunc("/packages", api.paymentHandlers.HandlePackages)
	mux.HandleFunc("/payments/verify", api.paymentHandlers.HandleVerify)
	mux.HandleFunc("/payments/history", api.paymentHandlers.HandleHistory)

	// Progress
	mux.HandleFunc("/progress/stats", api.progressHandlers.HandleStats)
	mux.HandleFunc("/achievements", api.progressHandlers.HandleAchievements)
	mux.HandleFunc("/history", api.progressHandlers.HandleHistory)

	// Topic recommendation
	mux.HandleFunc("/topics/recommend", api.topicHandlers.HandleRecommend)

	// Data management (admin token required for mutations)
	mux.HandleFunc("/data/export", api.dataHandlers.HandleExport)
	mux.HandleFunc("/data/import", api.dataHandlers.HandleImport)
	mux.HandleFunc("/data/reset", api.dataHandlers.HandleReset)

	return corsMiddleware(requestIDMiddleware(mux))
}

// CORS middleware to allow web and miniprogram clients
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Token")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware tags every request for log correlation.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		utils.LogHTTP("%s %s [%s]", r.Method, r.URL.Path, reqID)
		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var cfgErr *models.ConfigError
	var valErr *models.ValidationError
	var replayErr *models.ReplayError
	var netErr *models.NetworkError
	var provErr *models.ProviderError
	var parseErr *models.ParseError

	switch {
	case errors.As(err, &cfgErr), errors.As(err, &valErr):
		status = http.StatusBadRequest
	case errors.As(err, &replayErr):
		status = http.StatusConflict
	case errors.As(err, &netErr):
		status = http.StatusGatewayTimeout
	case errors.As(err, &provErr), errors.As(err, &parseErr):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
