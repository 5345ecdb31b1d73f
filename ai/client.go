package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/utils"
)

const (
	maxRetries     = 3
	attemptTimeout = 60 * time.Second
	baseRetryDelay = time.Second
)

// Client issues one logical AI call per Execute, retrying transient
// failures internally. It never streams at the transport level.
type Client struct {
	hc *http.Client

	// sleep and onNotice are swappable for tests.
	sleep func(time.Duration)
	// onNotice fires once, on the first retry only.
	onNotice func(string)
}

func NewClient() *Client {
	return &Client{
		hc:       &http.Client{Timeout: attemptTimeout},
		sleep:    time.Sleep,
		onNotice: func(msg string) { utils.LogAI("%s", msg) },
	}
}

// SetNoticeFunc replaces the transient-retry notice callback.
func (c *Client) SetNoticeFunc(fn func(string)) {
	if fn != nil {
		c.onNotice = fn
	}
}

// Execute performs the call with timeout, linear-backoff retry and
// error classification. Retryable: HTTP 5xx, timeouts, connection
// failures. Everything else fails immediately.
func (c *Client) Execute(ctx context.Context, prompt string, cfg models.ProviderConfig) (string, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return "", &models.ConfigError{Reason: "请在设置中配置正确的API地址"}
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return "", &models.ConfigError{Reason: "请在设置中输入有效的API密钥"}
	}

	provider := ForConfig(cfg)
	payload, err := json.Marshal(provider.BuildBody(cfg.Model, prompt))
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	utils.LogAI("Calling %s via %s, payload %s", provider.Name(), url, utils.Truncate(string(payload), 200))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if attempt == 1 {
				c.onNotice("网络不稳定，正在重试...")
			}
			delay := baseRetryDelay * time.Duration(attempt)
			utils.LogAI("Retry %d/%d after %v", attempt, maxRetries, delay)
			c.sleep(delay)
		}

		text, retryable, err := c.attempt(ctx, url, provider, cfg.APIKey, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}

	cause := models.NetworkCauseConnection
	if isTimeout(lastErr) {
		cause = models.NetworkCauseTimeout
	}
	return "", &models.NetworkError{Cause: cause, Attempts: maxRetries + 1, Err: lastErr}
}

// attempt runs a single HTTP call. The bool reports whether the
// failure is worth retrying.
func (c *Client) attempt(ctx context.Context, url string, provider Provider, apiKey string, payload []byte) (string, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	for k, v := range provider.BuildHeaders(apiKey) {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		utils.LogAI("Request failed after %v: %v", time.Since(start), err)
		return "", true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, err
	}

	utils.LogAI("Response %d in %v, %d bytes", resp.StatusCode, time.Since(start), len(body))

	if resp.StatusCode != http.StatusOK {
		perr := &models.ProviderError{Status: resp.StatusCode, Message: providerMessage(body, resp.Status)}
		return "", perr.Retryable(), perr
	}

	text, ok := provider.ExtractText(body)
	if !ok {
		// Malformed 200 is not worth retrying.
		return "", false, &models.ProviderError{Status: resp.StatusCode, Message: "响应缺少有效内容"}
	}

	return provider.FilterTrace(text), false, nil
}

// providerMessage digs the error message out of a failure body.
func providerMessage(body []byte, fallback string) string {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return fallback
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return false
}

// Diagnose renders any pipeline error as the explanation shown to the
// user. Terminal failures always get a specific message.
func Diagnose(err error) string {
	var cfgErr *models.ConfigError
	if errors.As(err, &cfgErr) {
		return "❌ " + cfgErr.Error()
	}
	var netErr *models.NetworkError
	if errors.As(err, &netErr) {
		return netErr.Diagnostic()
	}
	return err.Error()
}
