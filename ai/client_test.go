package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/studyspark/StudySparkApi/models"
)

func testClient() (*Client, *[]time.Duration) {
	var sleeps []time.Duration
	c := NewClient()
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return c, &sleeps
}

func testConfig(url string) models.ProviderConfig {
	return models.ProviderConfig{
		Provider: models.ProviderOpenAI,
		APIKey:   "sk-test",
		BaseURL:  url,
		Model:    "gpt-4o-mini",
	}
}

func okBody(content string) string {
	return `{"choices":[{"message":{"content":"` + content + `"}}]}`
}

func TestExecuteRetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(okBody("终于成功了")))
	}))
	defer server.Close()

	c, sleeps := testClient()
	var notices []string
	c.SetNoticeFunc(func(msg string) { notices = append(notices, msg) })

	text, err := c.Execute(context.Background(), "问题", testConfig(server.URL))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if text != "终于成功了" {
		t.Errorf("text = %q", text)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
	// Linear backoff: 1s, 2s, 3s.
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, (*sleeps)[i], want[i])
		}
	}
	// Notice fires on the first retry only.
	if len(notices) != 1 {
		t.Errorf("notices = %v, want exactly one", notices)
	}
}

func TestExecuteClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid API key"}}`))
	}))
	defer server.Close()

	c, _ := testClient()
	_, err := c.Execute(context.Background(), "问题", testConfig(server.URL))
	if err == nil {
		t.Fatal("expected error")
	}
	var provErr *models.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if provErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d", provErr.Status)
	}
	if provErr.Message != "Invalid API key" {
		t.Errorf("message = %q", provErr.Message)
	}
	if calls != 1 {
		t.Errorf("calls = %d, 4xx must not be retried", calls)
	}
}

func TestExecuteExhaustsRetryBudget(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c, _ := testClient()
	_, err := c.Execute(context.Background(), "问题", testConfig(server.URL))
	if err == nil {
		t.Fatal("expected error")
	}
	var netErr *models.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError after exhaustion, got %T: %v", err, err)
	}
	if netErr.Attempts != 4 {
		t.Errorf("attempts = %d, want 4", netErr.Attempts)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestExecuteConfigErrors(t *testing.T) {
	c, _ := testClient()

	tests := []struct {
		name string
		cfg  models.ProviderConfig
	}{
		{"missing base url", models.ProviderConfig{Provider: models.ProviderOpenAI, APIKey: "sk-test"}},
		{"missing api key", models.ProviderConfig{Provider: models.ProviderOpenAI, BaseURL: "https://api.example.com/v1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Execute(context.Background(), "问题", tt.cfg)
			var cfgErr *models.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T: %v", err, err)
			}
		})
	}
}

func TestExecuteMalformedSuccessBody(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"unexpected": true}`))
	}))
	defer server.Close()

	c, _ := testClient()
	_, err := c.Execute(context.Background(), "问题", testConfig(server.URL))
	var provErr *models.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, malformed 200 must not be retried", calls)
	}
}

func TestDiagnose(t *testing.T) {
	cfgMsg := Diagnose(&models.ConfigError{Reason: "请在设置中输入有效的API密钥"})
	if !strings.HasPrefix(cfgMsg, "❌") {
		t.Errorf("config diagnosis = %q", cfgMsg)
	}

	netMsg := Diagnose(&models.NetworkError{Cause: models.NetworkCauseTimeout, Attempts: 4, Err: context.DeadlineExceeded})
	if netMsg == "" {
		t.Error("timeout diagnosis empty")
	}
}
