package progress

import (
	"sync"
	"time"

	"github.com/studyspark/StudySparkApi/db"
	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/utils"
)

// Tracker derives progress metrics and achievement unlocks from
// answered questions and completed topics. Thin consumer of the ledger
// side of the world; owns only the stats row.
type Tracker struct {
	mu    sync.Mutex
	stats *models.LearningStats
	db    *db.DB
}

func NewTracker(database *db.DB) (*Tracker, error) {
	stats, err := database.GetStats()
	if err != nil {
		return nil, err
	}
	return &Tracker{stats: stats, db: database}, nil
}

// QuestionAnswered bumps the answered counter and the daily streak,
// returning any achievements unlocked by the update.
func (t *Tracker) QuestionAnswered() []models.Achievement {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.TotalQuestionsAnswered++
	t.updateStreakLocked(time.Now())
	return t.checkAchievementsLocked()
}

// TopicCompleted bumps the completed-topics counter.
func (t *Tracker) TopicCompleted() []models.Achievement {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.TotalTopicsCompleted++
	return t.checkAchievementsLocked()
}

// AddStudyTime accumulates study minutes.
func (t *Tracker) AddStudyTime(minutes int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.TotalStudyTime += minutes
	t.persistLocked()
}

// Stats returns a copy of the current counters.
func (t *Tracker) Stats() models.LearningStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := *t.stats
	out.Achievements = append([]string(nil), t.stats.Achievements...)
	return out
}

// Restore replaces the counters wholesale, used by data import.
func (t *Tracker) Restore(stats *models.LearningStats) {
	t.mu.Lock()
	defer t.mu.Unlock()

	copied := *stats
	if copied.Achievements == nil {
		copied.Achievements = []string{}
	}
	t.stats = &copied
	t.persistLocked()
}

// Reset wipes all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats = &models.LearningStats{Achievements: []string{}}
	t.persistLocked()
}

// updateStreakLocked applies the daily streak rules: same day keeps the
// streak, a one-day gap extends it, anything longer restarts at 1.
func (t *Tracker) updateStreakLocked(now time.Time) {
	last := t.stats.LastStudyDate
	switch {
	case last == nil:
		t.stats.StreakDays = 1
	case utils.SameDay(*last, now):
		// Already counted today.
	case utils.DaysBetween(*last, now) == 1:
		t.stats.StreakDays++
	default:
		t.stats.StreakDays = 1
	}
	t.stats.LastStudyDate = &now
}

func (t *Tracker) checkAchievementsLocked() []models.Achievement {
	var unlocked []models.Achievement
	for _, a := range models.AchievementCatalog {
		if a.Unlocked(t.stats) && !t.stats.HasAchievement(a.ID) {
			t.stats.Achievements = append(t.stats.Achievements, a.ID)
			unlocked = append(unlocked, a)
			utils.LogInfo("Achievement unlocked: %s %s", a.Icon, a.Name)
		}
	}
	t.persistLocked()
	return unlocked
}

func (t *Tracker) persistLocked() {
	if t.db == nil {
		return
	}
	if err := t.db.SaveStats(t.stats); err != nil {
		utils.LogError("Failed to persist stats: %v", err)
	}
}

// AchievementView is one catalog entry with unlock state and progress.
type AchievementView struct {
	models.Achievement
	UnlockedFlag bool `json:"unlocked"`
	Progress     int  `json:"progress"`
}

// Achievements lists the catalog with per-entry unlock state.
func (t *Tracker) Achievements() []AchievementView {
	t.mu.Lock()
	defer t.mu.Unlock()

	views := make([]AchievementView, 0, len(models.AchievementCatalog))
	for _, a := range models.AchievementCatalog {
		views = append(views, AchievementView{
			Achievement:  a,
			UnlockedFlag: t.stats.HasAchievement(a.ID),
			Progress:     a.Progress(t.stats),
		})
	}
	return views
}
