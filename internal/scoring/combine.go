package scoring

import (
	"math"
	"strings"

	"sales-intent-go/internal/types"
)

const NoExplanation = "no explanation available"

// Weights need not sum to 1; the final score is clamped either way.
type Weights struct {
	Rule   float64
	Remote float64
}

func DefaultWeights() Weights { return Weights{Rule: 0.4, Remote: 0.6} }

// Combine blends the two scores. The reason is the remote reason, else the
// rule explanation, else NoExplanation.
func Combine(rule types.RuleScoreResult, remote types.RemoteScoreResult, w Weights) types.CombinedResult {
	final := math.Round(float64(rule.Score)*w.Rule + float64(remote.Score)*w.Remote)

	reason := strings.TrimSpace(remote.Reason)
	if reason == "" {
		reason = rule.Explain()
	}
	if reason == "" {
		reason = NoExplanation
	}

	return types.CombinedResult{
		FinalScore:  types.Clamp(int(final)),
		RuleScore:   rule.Score,
		RemoteScore: remote.Score,
		Reason:      reason,
		Detail:      types.ScoreDetail{Rule: rule, Remote: remote},
	}
}
