package types

import (
	"fmt"
	"strings"
)

// IntentLevel buckets a 0-100 intent score.
type IntentLevel string

const (
	LevelNone   IntentLevel = "None"
	LevelWeak   IntentLevel = "Weak"
	LevelMedium IntentLevel = "Medium"
	LevelStrong IntentLevel = "Strong"
)

// LevelFor classifies an already clamped score.
func LevelFor(score int) IntentLevel {
	switch {
	case score >= 80:
		return LevelStrong
	case score >= 60:
		return LevelMedium
	case score >= 40:
		return LevelWeak
	default:
		return LevelNone
	}
}

// Clamp bounds a score to [0,100].
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

type RuleScoreResult struct {
	Score        int         `json:"score"`
	Level        IntentLevel `json:"level"`
	MatchedRules []string    `json:"matched_rules"`
}

// Explain renders the rule engine's verdict as one line of text. A zero
// result, one the rule engine never produced, explains nothing.
func (r RuleScoreResult) Explain() string {
	if r.Level == "" {
		return ""
	}
	var summary string
	switch {
	case r.Score >= 70:
		summary = "customer expressed strong purchase intent, prioritize follow-up"
	case r.Score >= 40:
		summary = "customer shows some interest, keep pushing toward conversion"
	case r.Score >= 20:
		summary = "customer is vague or hesitant, needs further guidance"
	default:
		summary = "customer purchase intent is low, lower the priority"
	}
	if len(r.MatchedRules) == 0 {
		return fmt.Sprintf("rule engine: %s (score %d, level %s)", summary, r.Score, r.Level)
	}
	return fmt.Sprintf("rule engine: %s (score %d, level %s; matched %s)",
		summary, r.Score, r.Level, strings.Join(r.MatchedRules, ", "))
}

type RemoteScoreResult struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

type ScoreDetail struct {
	Rule   RuleScoreResult   `json:"rule"`
	Remote RemoteScoreResult `json:"remote"`
}

type CombinedResult struct {
	FinalScore  int         `json:"final_score"`
	RuleScore   int         `json:"rule_score"`
	RemoteScore int         `json:"remote_score"`
	Reason      string      `json:"reason"`
	Detail      ScoreDetail `json:"detail"`
}
