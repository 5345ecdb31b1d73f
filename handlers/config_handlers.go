package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/studyspark/StudySparkApi/db"
	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/utils"
)

// ConfigHandlers keeps the active provider configuration in memory and
// persists changes. Other handlers read the current config through it.
type ConfigHandlers struct {
	mu      sync.RWMutex
	current models.ProviderConfig
	db      *db.DB
}

func NewConfigHandlers(database *db.DB, initial models.ProviderConfig) *ConfigHandlers {
	return &ConfigHandlers{current: initial, db: database}
}

// Current returns a copy of the active provider configuration.
func (h *ConfigHandlers) Current() models.ProviderConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// HasKey reports whether a usable API key is configured. The ledger
// uses this to decide whether topic access is unrestricted.
func (h *ConfigHandlers) HasKey() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.HasKey()
}

func (h *ConfigHandlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getConfig(w, r)
	case http.MethodPut, http.MethodPost:
		h.updateConfig(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
	}
}

func (h *ConfigHandlers) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.Current()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"provider":   cfg.Provider,
		"model":      cfg.Model,
		"baseUrl":    cfg.BaseURL,
		"apiKey":     maskKey(cfg.APIKey),
		"configured": cfg.HasKey(),
	})
}

func (h *ConfigHandlers) updateConfig(w http.ResponseWriter, r *http.Request) {
	var req models.ProviderConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "请求格式错误"})
		return
	}

	switch req.Provider {
	case models.ProviderOpenAI, models.ProviderDeepseek, models.ProviderDeepseekNvidia, models.ProviderClaude:
	default:
		writeError(w, &models.ValidationError{Field: "provider", Reason: "不支持的服务商: " + req.Provider})
		return
	}

	h.mu.Lock()
	// A masked key in the payload means "keep the stored one".
	if req.APIKey == "" || req.APIKey == maskKey(h.current.APIKey) {
		req.APIKey = h.current.APIKey
	}
	h.current = req
	h.mu.Unlock()

	if err := h.db.SaveProviderConfig(req); err != nil {
		utils.LogError("saving provider config: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "保存配置失败"})
		return
	}

	utils.LogAI("provider config updated: provider=%s model=%s", req.Provider, req.Model)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"provider":   req.Provider,
		"model":      req.Model,
		"configured": req.HasKey(),
	})
}

// maskKey hides the middle of an API key, keeping enough to recognize it.
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
