package db

import (
	"database/sql"
	"encoding/json"

	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/utils"
)

// SaveStats persists the learning stats snapshot.
func (db *DB) SaveStats(stats *models.LearningStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        INSERT INTO learning_stats (id, data) VALUES (1, ?)
        ON CONFLICT(id) DO UPDATE SET data = excluded.data
    `, string(data))
	if err != nil {
		utils.LogError("SaveStats failed: %v", err)
	}
	return err
}

// GetStats loads the learning stats, zero-valued when absent.
func (db *DB) GetStats() (*models.LearningStats, error) {
	var data string
	err := db.QueryRow(`SELECT data FROM learning_stats WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return &models.LearningStats{Achievements: []string{}}, nil
	}
	if err != nil {
		utils.LogError("GetStats failed: %v", err)
		return nil, err
	}

	var stats models.LearningStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		utils.LogError("Failed to decode stats: %v", err)
		return nil, err
	}
	if stats.Achievements == nil {
		stats.Achievements = []string{}
	}
	return &stats, nil
}

// ResetStats clears the learning stats.
func (db *DB) ResetStats() error {
	utils.LogDB("Resetting learning stats")
	_, err := db.Exec(`DELETE FROM learning_stats`)
	return err
}
