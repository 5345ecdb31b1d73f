package models

import "time"

// Supported AI providers.
const (
	ProviderOpenAI         = "openai"
	ProviderDeepseek       = "deepseek"
	ProviderDeepseekNvidia = "deepseek-nvidia"
	ProviderClaude         = "claude"
)

// ProviderConfig selects the AI backend. Immutable per request; the
// whole value is swapped when the user changes provider.
type ProviderConfig struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
	Model    string `json:"model"`
}

func (c *ProviderConfig) HasKey() bool {
	return c != nil && len(c.APIKey) > 0
}

// UnlimitedCredits is the sentinel balance meaning every topic is free.
const UnlimitedCredits = -1

// EntitlementSnapshot is the persisted shape of the ledger state.
type EntitlementSnapshot struct {
	CreditBalance int      `json:"credit_balance"`
	UsedTopics    []string `json:"used_topics"`
}

// LearningStats accumulates per-user progress counters.
type LearningStats struct {
	TotalStudyTime         int        `json:"total_study_time"`
	TotalQuestionsAnswered int        `json:"total_questions_answered"`
	TotalTopicsCompleted   int        `json:"total_topics_completed"`
	StreakDays             int        `json:"streak_days"`
	LastStudyDate          *time.Time `json:"last_study_date,omitempty"`
	Achievements           []string   `json:"achievements"`
}

func (s *LearningStats) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// ExportSnapshot is the full data dump for export/import.
type ExportSnapshot struct {
	Version        string              `json:"version"`
	ExportTime     time.Time           `json:"export_time"`
	APIConfig      *ProviderConfig     `json:"api_config,omitempty"`
	CreditBalance  int                 `json:"credit_balance"`
	UsedTopics     []string            `json:"used_topics"`
	LearningCache  map[string]*Session `json:"learning_cache"`
	QAHistory      []HistoryEntry      `json:"qa_history"`
	UsedOrders     []string            `json:"used_orders"`
	PaymentHistory []PaymentOrder      `json:"payment_history"`
	LearningStats  *LearningStats      `json:"learning_stats,omitempty"`
}

const ExportVersion = "1.0"
