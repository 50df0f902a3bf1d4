package extractor

import (
	"context"
	"strings"
)

// MockCompleter answers without a network call, for offline demos
// (USE_MOCK_LLM=true). The reply is fenced like a real model's.
type MockCompleter struct{}

func (MockCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	score, reason := "55", "mock: customer asked general questions, no clear timeline"
	switch {
	case strings.Contains(prompt, "微信") || strings.Contains(prompt, "多少钱"):
		score, reason = "78", "mock: customer asked about price and offered contact details"
	case strings.Contains(prompt, "不用了") || strings.Contains(prompt, "没兴趣"):
		score, reason = "15", "mock: customer declined"
	}
	return "```json\n{\"score\": " + score + ", \"reason\": \"" + reason + "\"}\n```", nil
}
