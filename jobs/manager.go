package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/studyspark/StudySparkApi/db"
	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/progress"
	"github.com/studyspark/StudySparkApi/utils"
)

const (
	TypeAppendHistory    = "history:append"
	TypeQuestionAnswered = "stats:question_answered"
	TypeTopicCompleted   = "stats:topic_completed"
)

type JobManager struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
}

type StatsPayload struct {
	Topic string `json:"topic"`
}

func NewJobManager(redisURL string) *JobManager {
	addr := strings.TrimPrefix(redisURL, "redis://")
	redisOpt := asynq.RedisClientOpt{
		Addr: addr,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"default": 3,
			"low":     1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			utils.LogError("Job failed: type=%s error=%v", task.Type(), err)
		}),
		Logger: &AsynqLogger{},
	})

	mux := asynq.NewServeMux()

	return &JobManager{
		client: client,
		server: server,
		mux:    mux,
	}
}

func (jm *JobManager) RegisterHandlers(database *db.DB, tracker *progress.Tracker) {
	jm.mux.HandleFunc(TypeAppendHistory, jm.handleAppendHistory(database))
	jm.mux.HandleFunc(TypeQuestionAnswered, jm.handleQuestionAnswered(tracker))
	jm.mux.HandleFunc(TypeTopicCompleted, jm.handleTopicCompleted(tracker))
}

func (jm *JobManager) Start() error {
	utils.LogStartup("Starting job queue worker...")
	return jm.server.Run(jm.mux)
}

func (jm *JobManager) Stop() {
	utils.LogShutdown("Stopping job queue...")
	jm.server.Stop()
	jm.server.Shutdown()
	jm.client.Close()
}

// QueueHistoryAppend records an answered question off the request path.
func (jm *JobManager) QueueHistoryAppend(entry models.HistoryEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history payload: %w", err)
	}

	task := asynq.NewTask(TypeAppendHistory, payload)
	info, err := jm.client.Enqueue(task,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second))
	if err != nil {
		return fmt.Errorf("failed to enqueue history task: %w", err)
	}

	utils.LogJobs("Queued history append: ID=%s topic=%q", info.ID, entry.Topic)
	return nil
}

// QueueQuestionAnswered updates the stats counters in the background.
func (jm *JobManager) QueueQuestionAnswered(topic string) error {
	return jm.queueStats(TypeQuestionAnswered, topic)
}

// QueueTopicCompleted bumps the completed-topics counter.
func (jm *JobManager) QueueTopicCompleted(topic string) error {
	return jm.queueStats(TypeTopicCompleted, topic)
}

func (jm *JobManager) queueStats(taskType, topic string) error {
	payload, err := json.Marshal(StatsPayload{Topic: topic})
	if err != nil {
		return fmt.Errorf("failed to marshal stats payload: %w", err)
	}

	task := asynq.NewTask(taskType, payload)
	info, err := jm.client.Enqueue(task,
		asynq.Queue("low"),
		asynq.MaxRetry(2),
		asynq.Timeout(30*time.Second))
	if err != nil {
		return fmt.Errorf("failed to enqueue stats task: %w", err)
	}

	utils.LogJobs("Queued stats job: ID=%s type=%s topic=%q", info.ID, taskType, topic)
	return nil
}

func (jm *JobManager) handleAppendHistory(database *db.DB) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var entry models.HistoryEntry
		if err := json.Unmarshal(task.Payload(), &entry); err != nil {
			return fmt.Errorf("failed to unmarshal history payload: %w", err)
		}

		if err := database.AppendHistory(entry); err != nil {
			return fmt.Errorf("failed to append history for topic %q: %w", entry.Topic, err)
		}

		utils.LogJobs("History entry %s recorded", entry.ID)
		return nil
	}
}

func (jm *JobManager) handleQuestionAnswered(tracker *progress.Tracker) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		unlocked := tracker.QuestionAnswered()
		for _, a := range unlocked {
			utils.LogJobs("Achievement unlocked: %s %s (%s)", a.Icon, a.Name, a.Desc)
		}
		return nil
	}
}

func (jm *JobManager) handleTopicCompleted(tracker *progress.Tracker) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		unlocked := tracker.TopicCompleted()
		for _, a := range unlocked {
			utils.LogJobs("Achievement unlocked: %s %s (%s)", a.Icon, a.Name, a.Desc)
		}
		return nil
	}
}

// Custom logger that routes asynq output through the tagged log helpers
type AsynqLogger struct{}

func (l *AsynqLogger) Debug(args ...interface{}) {
	utils.LogDebug(fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	utils.LogJobs(fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}
