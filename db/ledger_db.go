package db

import (
	"database/sql"
	"encoding/json"

	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/utils"
)

// SaveEntitlement persists the ledger snapshot.
func (db *DB) SaveEntitlement(snapshot models.EntitlementSnapshot) error {
	topics, err := json.Marshal(snapshot.UsedTopics)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        INSERT INTO entitlement (id, credit_balance, used_topics) VALUES (1, ?, ?)
        ON CONFLICT(id) DO UPDATE SET credit_balance = excluded.credit_balance, used_topics = excluded.used_topics
    `, snapshot.CreditBalance, string(topics))
	if err != nil {
		utils.LogError("SaveEntitlement failed: %v", err)
	}
	return err
}

// GetEntitlement loads the ledger snapshot, zero-valued when absent.
func (db *DB) GetEntitlement() (models.EntitlementSnapshot, error) {
	var snapshot models.EntitlementSnapshot
	var topicsJSON string

	err := db.QueryRow(`SELECT credit_balance, used_topics FROM entitlement WHERE id = 1`).
		Scan(&snapshot.CreditBalance, &topicsJSON)
	if err == sql.ErrNoRows {
		return models.EntitlementSnapshot{UsedTopics: []string{}}, nil
	}
	if err != nil {
		utils.LogError("GetEntitlement failed: %v", err)
		return snapshot, err
	}

	if err := json.Unmarshal([]byte(topicsJSON), &snapshot.UsedTopics); err != nil {
		utils.LogError("Failed to decode used topics: %v", err)
		return snapshot, err
	}
	return snapshot, nil
}

// RecordOrder appends a verified order to the anti-replay set and the
// payment history.
func (db *DB) RecordOrder(order models.PaymentOrder) error {
	utils.LogDB("Recording payment order %s", order.OrderID)

	if _, err := db.Exec(`INSERT INTO used_orders (order_id) VALUES (?)`, order.OrderID); err != nil {
		utils.LogError("Failed to record used order %s: %v", order.OrderID, err)
		return err
	}

	_, err := db.Exec(`
        INSERT INTO payment_history (order_id, amount, package, method, timestamp)
        VALUES (?, ?, ?, ?, ?)
    `, order.OrderID, order.Amount, order.Package, order.Method, order.Timestamp)
	if err != nil {
		utils.LogError("Failed to record payment %s: %v", order.OrderID, err)
	}
	return err
}

// GetUsedOrders returns every consumed order id.
func (db *DB) GetUsedOrders() ([]string, error) {
	rows, err := db.Query(`SELECT order_id FROM used_orders ORDER BY recorded_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		orders = append(orders, id)
	}
	return orders, rows.Err()
}

// GetPaymentHistory returns verified payments, oldest first.
func (db *DB) GetPaymentHistory() ([]models.PaymentOrder, error) {
	rows, err := db.Query(`
        SELECT order_id, amount, package, method, timestamp
        FROM payment_history ORDER BY timestamp
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.PaymentOrder
	for rows.Next() {
		var p models.PaymentOrder
		if err := rows.Scan(&p.OrderID, &p.Amount, &p.Package, &p.Method, &p.Timestamp); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// SaveProviderConfig persists the active provider configuration.
func (db *DB) SaveProviderConfig(cfg models.ProviderConfig) error {
	utils.LogDB("Saving provider config (provider %s)", cfg.Provider)

	_, err := db.Exec(`
        INSERT INTO provider_config (id, provider, api_key, base_url, model) VALUES (1, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET provider = excluded.provider, api_key = excluded.api_key,
            base_url = excluded.base_url, model = excluded.model
    `, cfg.Provider, cfg.APIKey, cfg.BaseURL, cfg.Model)
	if err != nil {
		utils.LogError("SaveProviderConfig failed: %v", err)
	}
	return err
}

// GetProviderConfig loads the stored provider configuration, nil when
// none was saved yet.
func (db *DB) GetProviderConfig() (*models.ProviderConfig, error) {
	var cfg models.ProviderConfig
	err := db.QueryRow(`SELECT provider, api_key, base_url, model FROM provider_config WHERE id = 1`).
		Scan(&cfg.Provider, &cfg.APIKey, &cfg.BaseURL, &cfg.Model)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		utils.LogError("GetProviderConfig failed: %v", err)
		return nil, err
	}
	return &cfg, nil
}
