package analyzer

import "fmt"

// buildAnalysisPrompt embeds content in the full analysis instruction. The
// category rubric biases classification toward the fixed enum.
func buildAnalysisPrompt(content string) string {
	return fmt.Sprintf(`你是一个专业的灵感分析助手。请分析以下内容，提取其中的核心思想和关键信息，并按照指定格式返回分析结果。

分析内容：
%s

请严格按照以下JSON格式返回分析结果，不要包含任何其他文字：

{
  "title": "为这个灵感生成一个简洁有吸引力的标题（10-20字）",
  "summary": "总结这个灵感的核心要点和价值（50-100字）",
  "categories": ["从以下4个类别中选择最合适的1-2个：work（工作）, life（生活）, creation（创作）, learning（学习）"],
  "tags": ["提取3-5个最相关的关键词标签，用中文表示"]
}

分类标准：
- work：工作相关、商业想法、职业发展、项目计划等
- life：生活感悟、个人体验、日常思考、情感表达等
- creation：创意作品、艺术灵感、设计想法、创作计划等
- learning：学习心得、知识总结、技能提升、教育相关等

请确保返回的是有效的JSON格式。`, content)
}

// buildTagsPrompt asks for keyword tags as a bare JSON array.
func buildTagsPrompt(content string) string {
	return fmt.Sprintf(`请从以下内容中提取3-5个最重要的关键词标签，用中文表示，以JSON数组格式返回：

内容：%s

返回格式：["标签1", "标签2", "标签3"]`, content)
}

// buildCategoriesPrompt asks for categories from the fixed enum.
func buildCategoriesPrompt(content string) string {
	return fmt.Sprintf(`请分析以下内容，从这4个类别中选择最合适的1-2个：
- work（工作）
- life（生活）
- creation（创作）
- learning（学习）

内容：%s

返回格式：["category1", "category2"]`, content)
}
