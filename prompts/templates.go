package prompts

import (
	"fmt"
	"strings"
)

// Learning domains, in match priority order.
const (
	DomainTechnology = "technology"
	DomainArt        = "art"
	DomainBusiness   = "business"
	DomainScience    = "science"
	DomainLifestyle  = "lifestyle"
)

// Keyword lists per domain. Matching is case-insensitive substring
// containment against the topic; the first matching domain wins.
var domainKeywords = []struct {
	domain   string
	keywords []string
}{
	{DomainTechnology, []string{"编程", "python", "javascript", "java", "react", "开发", "算法", "数据库", "ai", "机器学习", "深度学习"}},
	{DomainArt, []string{"绘画", "插花", "摄影", "设计", "音乐", "舞蹈", "书法", "雕塑", "手工"}},
	{DomainBusiness, []string{"营销", "管理", "创业", "投资", "金融", "电商", "运营", "销售"}},
	{DomainScience, []string{"物理", "化学", "生物", "数学", "医学", "心理学", "营养学"}},
}

// ClassifyTopic picks the prompt domain for a topic.
func ClassifyTopic(topic string) string {
	lower := strings.ToLower(topic)
	for _, d := range domainKeywords {
		for _, kw := range d.keywords {
			if strings.Contains(lower, kw) {
				return d.domain
			}
		}
	}
	return DomainLifestyle
}

// Per-domain role and emphasis variants. Every variant embeds the same
// {topic} substitution token.
var domainRoles = map[string]string{
	DomainTechnology: "你是一个资深技术专家，用户想要深入学习\"{topic}\"。",
	DomainArt:        "你是一个艺术教育专家，用户想要深入学习\"{topic}\"。",
	DomainBusiness:   "你是一个商业顾问专家，用户想要深入学习\"{topic}\"。",
	DomainScience:    "你是一个科学研究专家，用户想要深入学习\"{topic}\"。",
	DomainLifestyle:  "你是一个专业的学习顾问，用户想要深入学习\"{topic}\"。",
}

var domainEmphasis = map[string]string{
	DomainTechnology: `重点关注：
- 基础概念和原理理解
- 实际编程和项目实践
- 最佳实践和设计模式
- 行业应用和发展趋势`,
	DomainArt: `重点关注：
- 基础技法和理论知识
- 创作过程和实践练习
- 美学原理和风格分析
- 个人风格发展和创新`,
	DomainBusiness: `重点关注：
- 基础概念和商业模式
- 实际案例分析和应用
- 市场分析和竞争策略
- 行业趋势和未来发展`,
	DomainScience: `重点关注：
- 基础理论和科学原理
- 实验方法和研究技巧
- 数据分析和结果解读
- 前沿研究和发展方向`,
	DomainLifestyle: `重点关注：
- 基础知识和入门技巧
- 实际操作和练习方法
- 进阶技能和专业提升
- 常见问题和解决方案`,
}

// BuildQuestionsPrompt produces the instruction text for a question
// generation batch. Initial batches ask for a foundational-to-advanced
// progression; incremental batches reference the prior count and
// continue the numbering.
func BuildQuestionsPrompt(topic string, existingCount, requestedCount int, isInitial bool) string {
	domain := ClassifyTopic(topic)
	role := strings.ReplaceAll(domainRoles[domain], "{topic}", topic)
	emphasis := strings.ReplaceAll(domainEmphasis[domain], "{topic}", topic)

	var context, difficulty string
	if isInitial {
		context = role
		difficulty = "问题应该从基础概念开始，逐步深入到实践应用、进阶技能和行业洞察。"
	} else {
		context = fmt.Sprintf("用户正在学习\"%s\"，已经有%d个问题，现在需要%d个更深入的问题。", topic, existingCount, requestedCount)
		difficulty = fmt.Sprintf("基于前面%d个问题的基础，生成更高级、更深入的问题。", existingCount)
	}

	return fmt.Sprintf(`%s

%s

请根据以下要求生成%d个高质量的学习问题：

1. %s
2. 问题必须体现%s领域的核心知识点和精髓
3. 每个问题都要具体、可操作，能引导深度思考
4. 问题之间要有逻辑递进关系

请直接输出问题列表，每个问题一行，格式如下：
%d. 问题内容
%d. 问题内容
...

不要添加其他说明文字，只输出编号和问题内容。`,
		context, emphasis, requestedCount, difficulty, topic,
		existingCount+1, existingCount+2)
}

// BuildAnswerPrompt produces the instruction text for answering one
// question of a topic.
func BuildAnswerPrompt(topic, question string) string {
	return fmt.Sprintf(`请详细回答以下关于"%s"的问题：

%s

请提供专业、详细、实用的回答，包含：
1. 核心概念解释
2. 具体的例子和案例
3. 实践建议和操作步骤
4. 相关的注意事项
5. 进一步学习的方向

回答要结构清晰，内容丰富，对学习者有实际帮助。`, topic, question)
}
