package actionable

import (
	"strings"

	"sales-intent-go/internal/types"
)

var (
	positiveKeywords = []string{"加微信", "发我资料", "发报价", "稍后联系", "方便加微信", "有需要再联系", "加个微信", "我再看一下", "你发我"}
	negativeKeywords = []string{"不需要", "没预算", "不考虑", "做完了", "没时间", "不感兴趣", "不用了", "不做了", "已经合作", "已找别家"}
)

// DetectStatus classifies a transcript by keyword. Positive wording wins
// over negative; anything else is keep-in-touch.
func DetectStatus(text string) types.CustomerStatus {
	text = strings.ToLower(text)
	switch {
	case containsAny(text, positiveKeywords):
		return types.StatusInterested
	case containsAny(text, negativeKeywords):
		return types.StatusNotInterested
	default:
		return types.StatusKeepInTouch
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
