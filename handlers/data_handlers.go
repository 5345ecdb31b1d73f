package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/studyspark/StudySparkApi/db"
	"github.com/studyspark/StudySparkApi/ledger"
	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/progress"
	"github.com/studyspark/StudySparkApi/utils"
)

// DataHandlers implements whole-account export, import and reset.
// Import and reset are destructive and require the admin token.
type DataHandlers struct {
	db             *db.DB
	entitlements   *ledger.Ledger
	tracker        *progress.Tracker
	providerCfg    *ConfigHandlers
	adminTokenHash string
}

func NewDataHandlers(database *db.DB, entitlements *ledger.Ledger, tracker *progress.Tracker, providerCfg *ConfigHandlers, adminTokenHash string) *DataHandlers {
	return &DataHandlers{
		db:             database,
		entitlements:   entitlements,
		tracker:        tracker,
		providerCfg:    providerCfg,
		adminTokenHash: adminTokenHash,
	}
}

func (h *DataHandlers) authorized(r *http.Request) bool {
	if h.adminTokenHash == "" {
		return false
	}
	return utils.CheckAdminToken(h.adminTokenHash, r.Header.Get("X-Admin-Token"))
}

// HandleExport dumps all persisted state as a versioned snapshot.
func (h *DataHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}

	sessions, err := h.db.GetAllSessions()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "读取会话失败"})
		return
	}
	history, err := h.db.GetHistory()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "读取历史记录失败"})
		return
	}
	usedOrders, err := h.db.GetUsedOrders()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "读取订单记录失败"})
		return
	}
	payments, err := h.db.GetPaymentHistory()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "读取付款记录失败"})
		return
	}

	entitlement := h.entitlements.Snapshot()
	stats := h.tracker.Stats()
	cfg := h.providerCfg.Current()

	snapshot := models.ExportSnapshot{
		Version:        models.ExportVersion,
		ExportTime:     time.Now(),
		APIConfig:      &cfg,
		CreditBalance:  entitlement.CreditBalance,
		UsedTopics:     entitlement.UsedTopics,
		LearningCache:  sessions,
		QAHistory:      history,
		UsedOrders:     usedOrders,
		PaymentHistory: payments,
		LearningStats:  &stats,
	}

	utils.LogInfo("data export: %d sessions, %d history entries", len(sessions), len(history))
	writeJSON(w, http.StatusOK, snapshot)
}

// HandleImport restores a previously exported snapshot.
func (h *DataHandlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}
	if !h.authorized(r) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "需要管理员令牌"})
		return
	}

	var snapshot models.ExportSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "请求格式错误"})
		return
	}
	if snapshot.Version != models.ExportVersion {
		writeError(w, &models.ValidationError{Field: "version", Reason: "不支持的数据版本: " + snapshot.Version})
		return
	}

	h.entitlements.Restore(models.EntitlementSnapshot{
		CreditBalance: snapshot.CreditBalance,
		UsedTopics:    snapshot.UsedTopics,
	}, snapshot.UsedOrders)

	if snapshot.APIConfig != nil {
		if err := h.db.SaveProviderConfig(*snapshot.APIConfig); err != nil {
			utils.LogError("import: saving provider config: %v", err)
		} else {
			h.providerCfg.mu.Lock()
			h.providerCfg.current = *snapshot.APIConfig
			h.providerCfg.mu.Unlock()
		}
	}

	if err := h.db.ClearSessions(); err != nil {
		utils.LogError("import: clearing sessions: %v", err)
	}
	for _, session := range snapshot.LearningCache {
		if err := h.db.SaveSession(session); err != nil {
			utils.LogError("import: saving session %q: %v", session.Topic, err)
		}
	}

	if err := h.db.ClearHistory(); err != nil {
		utils.LogError("import: clearing history: %v", err)
	}
	// Entries arrive newest first; append oldest first to keep order.
	for i := len(snapshot.QAHistory) - 1; i >= 0; i-- {
		if err := h.db.AppendHistory(snapshot.QAHistory[i]); err != nil {
			utils.LogError("import: appending history: %v", err)
		}
	}

	if snapshot.LearningStats != nil {
		h.tracker.Restore(snapshot.LearningStats)
	}

	utils.LogInfo("data import complete: %d sessions, %d history entries", len(snapshot.LearningCache), len(snapshot.QAHistory))
	writeJSON(w, http.StatusOK, map[string]interface{}{"imported": true})
}

// HandleReset wipes learning data. Payment records and the provider
// configuration survive a reset.
func (h *DataHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}
	if !h.authorized(r) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "需要管理员令牌"})
		return
	}

	usedOrders, err := h.db.GetUsedOrders()
	if err != nil {
		usedOrders = nil
	}

	if err := h.db.ClearSessions(); err != nil {
		utils.LogError("reset: clearing sessions: %v", err)
	}
	if err := h.db.ClearHistory(); err != nil {
		utils.LogError("reset: clearing history: %v", err)
	}
	h.tracker.Reset()
	// Used orders stay burned so a reset cannot re-enable replay.
	h.entitlements.Restore(models.EntitlementSnapshot{UsedTopics: []string{}}, usedOrders)

	utils.LogInfo("data reset complete")
	writeJSON(w, http.StatusOK, map[string]interface{}{"reset": true})
}
