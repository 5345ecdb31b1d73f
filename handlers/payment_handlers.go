package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/studyspark/StudySparkApi/db"
	"github.com/studyspark/StudySparkApi/ledger"
	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/utils"
)

type PaymentHandlers struct {
	entitlements *ledger.Ledger
	db           *db.DB
}

func NewPaymentHandlers(entitlements *ledger.Ledger, database *db.DB) *PaymentHandlers {
	return &PaymentHandlers{entitlements: entitlements, db: database}
}

// HandlePackages lists the purchasable packages plus the current balance.
func (h *PaymentHandlers) HandlePackages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"packages":  models.CreditPackages,
		"balance":   h.entitlements.Balance(),
		"remaining": h.entitlements.Remaining(),
	})
}

// HandleVerify validates a payment order and credits the balance.
func (h *PaymentHandlers) HandleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}

	var req models.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "请求格式错误"})
		return
	}

	pkg, ok := models.FindPackage(req.Package)
	if !ok {
		writeError(w, &models.ValidationError{Field: "package", Reason: "未知的套餐: " + req.Package})
		return
	}

	order, err := h.entitlements.VerifyPayment(req.OrderID, req.Amount, pkg.Price, pkg, req.Method)
	if err != nil {
		utils.LogLedger("payment verification rejected: %v", err)
		writeError(w, err)
		return
	}

	utils.LogLedger("payment verified: order=%s package=%s", order.OrderID, order.Package)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order":     order,
		"balance":   h.entitlements.Balance(),
		"remaining": h.entitlements.Remaining(),
	})
}

// HandleHistory returns verified payments, newest first.
func (h *PaymentHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "方法不支持"})
		return
	}
	payments, err := h.db.GetPaymentHistory()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "读取付款记录失败"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}
