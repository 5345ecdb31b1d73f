package ai

import (
	"context"
	"strings"
	"time"

	"github.com/studyspark/StudySparkApi/models"
)

const thinkingInterval = 500 * time.Millisecond

// StreamFunc receives each progressive snapshot of the reveal.
type StreamFunc func(partial string)

// ExecuteStream emulates token streaming over the single blocking call:
// a rotating thinking placeholder while the request is in flight, then
// a character-by-character reveal of the finished answer with
// punctuation-aware pacing. On failure the explanation is delivered
// through onChunk before the error is returned, so the caller never
// sits on a bare placeholder.
func (c *Client) ExecuteStream(ctx context.Context, prompt string, cfg models.ProviderConfig, onChunk StreamFunc) (string, error) {
	thinkingDone := make(chan struct{})
	thinkingStopped := make(chan struct{})
	go func() {
		defer close(thinkingStopped)
		ticker := time.NewTicker(thinkingInterval)
		defer ticker.Stop()
		dots := 0
		onChunk("AI正在思考中")
		for {
			select {
			case <-thinkingDone:
				return
			case <-ticker.C:
				dots = (dots + 1) % 4
				onChunk("AI正在思考中" + strings.Repeat(".", dots))
			}
		}
	}()

	fullText, err := c.Execute(ctx, prompt, cfg)
	// The placeholder goroutine must be fully stopped before any reveal
	// chunk goes out; onChunk is not assumed to be goroutine-safe.
	close(thinkingDone)
	<-thinkingStopped

	if err != nil {
		onChunk("❌ 请求失败\n\n" + Diagnose(err))
		return "", err
	}

	if len(fullText) == 0 {
		onChunk("抱歉，AI没有返回有效内容，请重试。")
		return "", &models.ParseError{Reason: "AI返回了空内容"}
	}

	var b strings.Builder
	for _, r := range fullText {
		if ctx.Err() != nil {
			// Caller abandoned the stream; stop revealing.
			return fullText, nil
		}
		b.WriteRune(r)
		onChunk(b.String())
		c.sleep(revealDelay(r))
	}

	return fullText, nil
}

// revealDelay paces the reveal by the character just emitted.
func revealDelay(r rune) time.Duration {
	switch r {
	case '。', '！', '？':
		return 200 * time.Millisecond
	case '，', '；':
		return 100 * time.Millisecond
	case '\n':
		return 150 * time.Millisecond
	}
	if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
		return 20 * time.Millisecond
	}
	return 30 * time.Millisecond
}
