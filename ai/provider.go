package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/studyspark/StudySparkApi/models"
)

// Provider normalizes auth, request shape and response extraction for
// one AI backend. Implementations are pure: same config and prompt in,
// same headers and payload out.
type Provider interface {
	Name() string
	BuildHeaders(apiKey string) map[string]string
	BuildBody(model, prompt string) ChatRequest
	ExtractText(body []byte) (string, bool)
	FilterTrace(text string) string
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

func newChatRequest(model string, messages []ChatMessage) ChatRequest {
	return ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   2000,
		Stream:      false,
	}
}

// ForConfig selects the provider adapter once at configuration time.
func ForConfig(cfg models.ProviderConfig) Provider {
	switch cfg.Provider {
	case models.ProviderClaude:
		return claudeProvider{}
	case models.ProviderDeepseekNvidia:
		return reasoningProvider{}
	default:
		return openAIProvider{name: cfg.Provider}
	}
}

// openAIProvider covers every OpenAI-compatible Bearer-auth backend
// (openai, deepseek and friends).
type openAIProvider struct {
	name string
}

func (p openAIProvider) Name() string { return p.name }

func (p openAIProvider) BuildHeaders(apiKey string) map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + apiKey,
	}
}

func (p openAIProvider) BuildBody(model, prompt string) ChatRequest {
	return newChatRequest(model, []ChatMessage{
		{Role: "system", Content: "你是一个专业的学习顾问助手。"},
		{Role: "user", Content: prompt},
	})
}

func (p openAIProvider) ExtractText(body []byte) (string, bool) {
	return extractChoicesContent(body)
}

func (p openAIProvider) FilterTrace(text string) string { return text }

// reasoningProvider is OpenAI-compatible but serves reasoning models
// that leak their thinking trace. It injects a suppressing system
// prompt and strips any trace markup that still comes through.
type reasoningProvider struct{}

func (p reasoningProvider) Name() string { return models.ProviderDeepseekNvidia }

func (p reasoningProvider) BuildHeaders(apiKey string) map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + apiKey,
	}
}

func (p reasoningProvider) BuildBody(model, prompt string) ChatRequest {
	return newChatRequest(model, []ChatMessage{
		{Role: "system", Content: "你是一个专业的学习顾问助手。请直接回答问题，不要显示思考过程。"},
		{Role: "user", Content: prompt},
	})
}

func (p reasoningProvider) ExtractText(body []byte) (string, bool) {
	return extractChoicesContent(body)
}

var (
	thinkTagRe    = regexp.MustCompile(`(?s)<think>.*?</think>`)
	thinkMarkerRe = regexp.MustCompile(`(?s)<\|beginning of thinking\|>.*?<\|end of thinking\|>`)
	blankRunRe    = regexp.MustCompile(`\n\s*\n\s*\n`)
)

func (p reasoningProvider) FilterTrace(text string) string {
	text = thinkTagRe.ReplaceAllString(text, "")
	text = thinkMarkerRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// claudeProvider authenticates with a key/version header pair and
// extracts from the content-block response shape.
type claudeProvider struct{}

func (p claudeProvider) Name() string { return models.ProviderClaude }

func (p claudeProvider) BuildHeaders(apiKey string) map[string]string {
	return map[string]string{
		"Content-Type":      "application/json",
		"x-api-key":         apiKey,
		"anthropic-version": "2023-06-01",
	}
}

func (p claudeProvider) BuildBody(model, prompt string) ChatRequest {
	return newChatRequest(model, []ChatMessage{
		{Role: "user", Content: prompt},
	})
}

func (p claudeProvider) ExtractText(body []byte) (string, bool) {
	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Content) == 0 {
		return "", false
	}
	return resp.Content[0].Text, true
}

func (p claudeProvider) FilterTrace(text string) string { return text }

func extractChoicesContent(body []byte) (string, bool) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Choices) == 0 {
		return "", false
	}
	return resp.Choices[0].Message.Content, true
}
