package ai

import (
	"strings"
	"testing"
)

func TestFormatAnswerBasics(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"empty", "", ""},
		{"heading", "# 标题", "<h1>标题</h1>"},
		{"subheading", "### 小节", "<h3>小节</h3>"},
		{"bold", "这是**重点**内容", "这是<strong>重点</strong>内容"},
		{"italic", "这是*强调*内容", "这是<em>强调</em>内容"},
		{"bold italic", "***非常重要***", "<strong><em>非常重要</em></strong>"},
		{"strike", "~~已过时~~", "<del>已过时</del>"},
		{"ordered item", "1. 第一步", "<li>第一步</li>"},
		{"unordered item", "- 要点", "<li>要点</li>"},
		{"quote", "> 引用内容", "<blockquote>引用内容</blockquote>"},
		{"link", "[官方文档](https://example.com)", `<a href="https://example.com">官方文档</a>`},
		{"hr", "---", "<hr/>"},
		{"single newline", "第一行\n第二行", "第一行<br/>第二行"},
		{"paragraph break", "第一段\n\n\n第二段", "第一段<br/><br/>第二段"},
		{"inline code", "使用`fmt.Println`打印", "使用<code>fmt.Println</code>打印"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAnswer(tt.in); got != tt.want {
				t.Errorf("FormatAnswer(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatAnswerCodeBeforeEmphasis(t *testing.T) {
	// Markdown tokens inside code spans must come through untouched.
	got := FormatAnswer("行内：`a ** b`，以及：\n```python\n# 注释\nx = 1 * 2\n```")
	if !strings.Contains(got, "<code>a ** b</code>") {
		t.Errorf("inline code mangled: %q", got)
	}
	if !strings.Contains(got, "<pre><code># 注释\nx = 1 * 2</code></pre>") {
		t.Errorf("fenced code mangled: %q", got)
	}
	if strings.Contains(got, "<h1>") || strings.Contains(got, "<em>") {
		t.Errorf("formatting leaked into code: %q", got)
	}
}

func TestFormatAnswerIdempotentOnPlainText(t *testing.T) {
	in := "水彩画的核心在于水分控制。\n先湿后干，层层叠加。"
	once := FormatAnswer(in)
	twice := FormatAnswer(once)
	if once != twice {
		t.Errorf("not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}
