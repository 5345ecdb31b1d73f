package prompts

// Curated starter topics per domain, shown on the recommendation feed.
var domainTopics = map[string][]string{
	DomainTechnology: {
		"Python编程基础", "JavaScript入门", "React前端开发", "数据结构与算法",
		"机器学习入门", "数据库设计", "微信小程序开发", "网络安全基础",
	},
	DomainArt: {
		"水彩绘画入门", "手机摄影技巧", "平面设计基础", "吉他弹唱入门",
		"书法练习", "插花艺术", "视频剪辑", "素描基础",
	},
	DomainBusiness: {
		"新媒体运营", "个人理财入门", "电商运营基础", "市场营销策略",
		"创业基础知识", "股票投资入门", "品牌管理", "商务谈判技巧",
	},
	DomainScience: {
		"心理学入门", "营养学基础", "天文学科普", "基础物理学",
		"生物学常识", "数学思维训练", "医学常识", "化学入门",
	},
	DomainLifestyle: {
		"家常菜烹饪", "健身训练计划", "咖啡冲煮技巧", "园艺种植入门",
		"收纳整理术", "烘焙入门", "茶艺基础", "宠物养护",
	},
}

// TopicsForDomain returns the curated list for a domain, falling back
// to the lifestyle set for unknown domains.
func TopicsForDomain(domain string) []string {
	if topics, ok := domainTopics[domain]; ok {
		return topics
	}
	return domainTopics[DomainLifestyle]
}

// AllDomains lists the domains in recommendation priority order.
func AllDomains() []string {
	return []string{DomainTechnology, DomainArt, DomainBusiness, DomainScience, DomainLifestyle}
}
