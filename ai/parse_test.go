package ai

import (
	"errors"
	"strings"
	"testing"

	"github.com/studyspark/StudySparkApi/models"
)

func TestParseQuestionsNumberedLines(t *testing.T) {
	raw := strings.Join([]string{
		"1. Python的基本数据类型有哪些？",
		"2. 如何安装和配置Python开发环境？",
		"3. 变量和常量在Python中如何定义？",
		"4. 条件语句和循环语句怎么使用？",
		"5. 函数的定义和调用方式是什么？",
		"6. 如何用列表推导式处理数据？",
		"7. 文件读写操作怎么实现？",
		"8. 异常处理机制是怎样的？",
		"9. 模块和包如何组织代码？",
		"10. 面向对象编程的核心概念是什么？",
		"11. 装饰器的原理和应用场景？",
		"12. 生成器和迭代器有什么区别？",
		"13. 多线程和多进程如何选择？",
		"14. 如何进行单元测试和调试？",
		"15. Python在行业中有哪些典型应用？",
	}, "\n")

	questions, err := ParseQuestions(raw, "Python编程基础", 0, 15)
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	if len(questions) != 15 {
		t.Fatalf("expected 15 questions, got %d", len(questions))
	}

	for i, q := range questions {
		if q.ID != i+1 {
			t.Errorf("question %d: id = %d, want %d", i, q.ID, i+1)
		}
		if q.Topic != "Python编程基础" {
			t.Errorf("question %d: topic = %q", i, q.Topic)
		}
	}

	// Category ratio within the batch.
	if questions[0].Category != models.CategoryBasic {
		t.Errorf("first question category = %q, want basic", questions[0].Category)
	}
	if questions[6].Category != models.CategoryPractice {
		t.Errorf("question 7 category = %q, want practice", questions[6].Category)
	}
	if questions[12].Category != models.CategoryAdvanced {
		t.Errorf("question 13 category = %q, want advanced", questions[12].Category)
	}
	if questions[14].Category != models.CategoryIndustry {
		t.Errorf("last question category = %q, want industry", questions[14].Category)
	}
	if questions[0].Label != "基础入门" {
		t.Errorf("first question label = %q", questions[0].Label)
	}
}

func TestParseQuestionsOffsetContinuation(t *testing.T) {
	raw := "16. 如何设计可扩展的爬虫架构？\n17. 异步IO在高并发场景下怎么应用？\n18. Python在机器学习工程中的角色？"

	questions, err := ParseQuestions(raw, "Python编程基础", 15, 3)
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	for i, want := range []int{16, 17, 18} {
		if questions[i].ID != want {
			t.Errorf("question %d: id = %d, want %d", i, questions[i].ID, want)
		}
	}
	// Positions 15..17 of 18 sit at the deep end of the ratio.
	if questions[0].Category != models.CategoryAdvanced {
		t.Errorf("question 16 category = %q, want advanced", questions[0].Category)
	}
	if questions[2].Category != models.CategoryIndustry {
		t.Errorf("question 18 category = %q, want industry", questions[2].Category)
	}
}

func TestParseQuestionsJSON(t *testing.T) {
	raw := `好的，以下是生成的问题：
{
  "topic": "水彩绘画入门",
  "questions": [
    {"id": 1, "category": "basic", "question": "水彩画需要准备哪些基本工具？"},
    {"id": 2, "category": "weird", "question": "如何控制水彩的水分比例？"},
    {"id": 0, "category": "practice", "question": "湿画法和干画法分别适合什么题材？"}
  ]
}
希望对你有帮助。`

	questions, err := ParseQuestions(raw, "水彩绘画入门", 0, 15)
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	if questions[0].ID != 1 || questions[1].ID != 2 {
		t.Errorf("ids = %d, %d; provided ids should be kept", questions[0].ID, questions[1].ID)
	}
	// Out-of-range id falls back to position-derived numbering.
	if questions[2].ID != 3 {
		t.Errorf("third id = %d, want 3", questions[2].ID)
	}
	// Unknown categories normalize to basic.
	if questions[1].Category != models.CategoryBasic {
		t.Errorf("unknown category normalized to %q, want basic", questions[1].Category)
	}
	if questions[2].Category != models.CategoryPractice {
		t.Errorf("category = %q, want practice", questions[2].Category)
	}
}

func TestParseQuestionsDiscardsShortLines(t *testing.T) {
	raw := "1. 太短\n2. 这是一个足够长的正经问题吗？\n以下不是编号行\n3) 括号编号不匹配"

	questions, err := ParseQuestions(raw, "测试", 0, 5)
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if questions[0].Question != "这是一个足够长的正经问题吗？" {
		t.Errorf("question text = %q", questions[0].Question)
	}
	if questions[0].ID != 1 {
		t.Errorf("id = %d, want 1", questions[0].ID)
	}
}

func TestParseQuestionsCapsAtExpected(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 10; i++ {
		sb.WriteString("1. 这里是编号问题内容足够长了\n")
	}
	questions, err := ParseQuestions(sb.String(), "测试", 0, 3)
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected cap at 3, got %d", len(questions))
	}
}

func TestParseQuestionsEmpty(t *testing.T) {
	_, err := ParseQuestions("抱歉，我无法回答这个问题。", "测试", 0, 15)
	if err == nil {
		t.Fatal("expected error for unparseable output")
	}
	var parseErr *models.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
}

func TestCategoryForPosition(t *testing.T) {
	tests := []struct {
		position, total int
		want            string
	}{
		{0, 15, models.CategoryBasic},
		{4, 15, models.CategoryBasic},
		{5, 15, models.CategoryPractice},
		{10, 15, models.CategoryPractice},
		{11, 15, models.CategoryAdvanced},
		{13, 15, models.CategoryAdvanced},
		{14, 15, models.CategoryIndustry},
		{0, 0, models.CategoryBasic},
	}
	for _, tt := range tests {
		if got := CategoryForPosition(tt.position, tt.total); got != tt.want {
			t.Errorf("CategoryForPosition(%d, %d) = %q, want %q", tt.position, tt.total, got, tt.want)
		}
	}
}
