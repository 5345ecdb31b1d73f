package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/utils"
)

// SaveSession upserts the cached session for a topic.
func (db *DB) SaveSession(session *models.Session) error {
	utils.LogDB("Saving session for topic %q (%d questions)", session.Topic, len(session.Questions))
	start := time.Now()

	session.LastUpdated = time.Now()
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        INSERT INTO sessions (topic, data, last_updated) VALUES (?, ?, ?)
        ON CONFLICT(topic) DO UPDATE SET data = excluded.data, last_updated = excluded.last_updated
    `, session.Topic, string(data), session.LastUpdated)

	if err != nil {
		utils.LogError("SaveSession(%q) failed: %v", session.Topic, err)
		return err
	}

	utils.LogDB("Session %q saved in %v", session.Topic, time.Since(start))
	return nil
}

// GetSession loads the cached session for a topic, nil when absent.
func (db *DB) GetSession(topic string) (*models.Session, error) {
	utils.LogDB("Executing query: GetSession(%q)", topic)

	var data string
	err := db.QueryRow(`SELECT data FROM sessions WHERE topic = ?`, topic).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		utils.LogError("GetSession(%q) failed: %v", topic, err)
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		utils.LogError("Failed to decode session %q: %v", topic, err)
		return nil, err
	}
	return &session, nil
}

// GetAllSessions loads the whole topic cache.
func (db *DB) GetAllSessions() (map[string]*models.Session, error) {
	utils.LogDB("Loading all cached sessions")

	rows, err := db.Query(`SELECT topic, data FROM sessions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make(map[string]*models.Session)
	for rows.Next() {
		var topic, data string
		if err := rows.Scan(&topic, &data); err != nil {
			return nil, err
		}
		var session models.Session
		if err := json.Unmarshal([]byte(data), &session); err != nil {
			utils.LogError("Skipping undecodable session %q: %v", topic, err)
			continue
		}
		sessions[topic] = &session
	}
	return sessions, rows.Err()
}

// DeleteSession evicts one topic from the cache.
func (db *DB) DeleteSession(topic string) error {
	utils.LogDB("Deleting session %q", topic)
	_, err := db.Exec(`DELETE FROM sessions WHERE topic = ?`, topic)
	return err
}

// ClearSessions wipes the whole learning cache.
func (db *DB) ClearSessions() error {
	utils.LogDB("Clearing learning cache")
	_, err := db.Exec(`DELETE FROM sessions`)
	return err
}
