package models

// Achievement is one unlockable milestone.
type Achievement struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	Icon   string `json:"icon"`
	Target int    `json:"target"`
	// Metric selects which stats counter drives the target.
	Metric string `json:"-"`
}

const (
	MetricQuestions = "questions"
	MetricTopics    = "topics"
	MetricStreak    = "streak"
)

// AchievementCatalog lists every unlockable achievement.
var AchievementCatalog = []Achievement{
	{ID: "first_question", Name: "初学者", Desc: "回答第一个问题", Icon: "🌱", Target: 1, Metric: MetricQuestions},
	{ID: "ten_questions", Name: "勤学者", Desc: "回答10个问题", Icon: "📚", Target: 10, Metric: MetricQuestions},
	{ID: "fifty_questions", Name: "学霸", Desc: "回答50个问题", Icon: "🎓", Target: 50, Metric: MetricQuestions},
	{ID: "hundred_questions", Name: "知识达人", Desc: "回答100个问题", Icon: "🏆", Target: 100, Metric: MetricQuestions},
	{ID: "first_topic", Name: "探索者", Desc: "完成第一个主题", Icon: "🔍", Target: 1, Metric: MetricTopics},
	{ID: "five_topics", Name: "多面手", Desc: "完成5个主题", Icon: "🎯", Target: 5, Metric: MetricTopics},
	{ID: "streak_3", Name: "坚持者", Desc: "连续学习3天", Icon: "🔥", Target: 3, Metric: MetricStreak},
	{ID: "streak_7", Name: "毅力者", Desc: "连续学习7天", Icon: "💪", Target: 7, Metric: MetricStreak},
	{ID: "streak_30", Name: "习惯大师", Desc: "连续学习30天", Icon: "👑", Target: 30, Metric: MetricStreak},
}

// MetricValue reads the counter an achievement tracks.
func (s *LearningStats) MetricValue(metric string) int {
	switch metric {
	case MetricQuestions:
		return s.TotalQuestionsAnswered
	case MetricTopics:
		return s.TotalTopicsCompleted
	case MetricStreak:
		return s.StreakDays
	}
	return 0
}

// Unlocked reports whether the stats satisfy an achievement.
func (a Achievement) Unlocked(s *LearningStats) bool {
	return s.MetricValue(a.Metric) >= a.Target
}

// Progress clamps the tracked counter to the achievement target.
func (a Achievement) Progress(s *LearningStats) int {
	v := s.MetricValue(a.Metric)
	if v > a.Target {
		return a.Target
	}
	return v
}
