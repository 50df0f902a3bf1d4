package extractor

import "fmt"

// SystemPrompt is sent as the system message on every attempt.
const SystemPrompt = "你是专业的销售分析专家，根据通话内容判断客户购买意向并返回JSON格式结果。"

// BuildPrompt asks for a five-dimension intent evaluation of transcript and
// a strict {"score", "reason"} reply.
func BuildPrompt(transcript, subject string) string {
	return fmt.Sprintf(`你是一个专业的销售分析专家。请根据下面与客户"%s"的销售通话内容，判断该客户的购买意向。

请从以下几个维度进行分析：
1. 客户对产品的兴趣程度
2. 客户提出的问题类型（价格、功能、售后等）
3. 客户的语气和态度
4. 客户是否有明确的购买时间计划
5. 客户是否有预算或决策权

根据分析结果，给出0-100的购买意向分数：
- 0-20分：完全无购买意向
- 21-40分：购买意向较低
- 41-60分：购买意向一般
- 61-80分：购买意向较强
- 81-100分：购买意向非常强烈

【通话内容】：
%s

请严格按照以下JSON格式返回结果，不要包含任何其他内容：
{"score": <0-100的整数>, "reason": "详细的分析理由"}`, subject, transcript)
}
