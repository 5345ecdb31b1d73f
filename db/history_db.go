package db

import (
	"time"

	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/utils"
)

// historyLimit caps the Q&A log; oldest entries are evicted first.
const historyLimit = 100

// AppendHistory records one answered question and trims the log.
func (db *DB) AppendHistory(entry models.HistoryEntry) error {
	utils.LogDB("Appending history entry %s (topic %q)", entry.ID, entry.Topic)
	start := time.Now()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	_, err := db.Exec(`
        INSERT INTO qa_history (id, question, answer, topic, timestamp)
        VALUES (?, ?, ?, ?, ?)
    `, entry.ID, entry.Question, entry.Answer, entry.Topic, entry.Timestamp)
	if err != nil {
		utils.LogError("AppendHistory failed: %v", err)
		return err
	}

	// Keep only the newest historyLimit rows.
	_, err = db.Exec(`
        DELETE FROM qa_history WHERE id NOT IN (
            SELECT id FROM qa_history ORDER BY timestamp DESC, id DESC LIMIT ?
        )
    `, historyLimit)
	if err != nil {
		utils.LogError("History trim failed: %v", err)
		return err
	}

	utils.LogDB("History entry appended in %v", time.Since(start))
	return nil
}

// GetHistory returns the log, newest first.
func (db *DB) GetHistory() ([]models.HistoryEntry, error) {
	utils.LogDB("Loading Q&A history")

	rows, err := db.Query(`
        SELECT id, question, answer, topic, timestamp
        FROM qa_history ORDER BY timestamp DESC, id DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.Topic, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ClearHistory wipes the Q&A log.
func (db *DB) ClearHistory() error {
	utils.LogDB("Clearing Q&A history")
	_, err := db.Exec(`DELETE FROM qa_history`)
	return err
}
