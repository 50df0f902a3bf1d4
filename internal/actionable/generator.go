// Package actionable turns scores into follow-up instructions for the
// sales team.
package actionable

import (
	"fmt"

	"sales-intent-go/internal/aggregator"
	"sales-intent-go/internal/types"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// ForCall builds the card for one analyzed call.
func ForCall(rec types.AnalysisRecord) ActionCard {
	score := rec.Result.FinalScore
	if rec.Degraded {
		return ActionCard{
			Insight: fmt.Sprintf("Model evaluation unavailable, rule score %d only", rec.Result.RuleScore),
			Action:  "Review the transcript manually before deciding on follow-up",
			Impact:  "Avoid dropping a lead on an incomplete score",
		}
	}
	switch {
	case score >= 70 || (rec.Status == types.StatusInterested && score >= 60):
		return ActionCard{
			Insight: fmt.Sprintf("Strong purchase intent (%d, %s)", score, rec.Level),
			Action:  "Call back within 24h with a quote and installation plan",
			Impact:  "High conversion likelihood",
		}
	case score >= 40:
		return ActionCard{
			Insight: fmt.Sprintf("Some interest (%d, %s)", score, rec.Level),
			Action:  "Send product material and schedule a follow-up call this week",
			Impact:  "Move the lead toward a decision",
		}
	case score >= 20 && rec.Status != types.StatusNotInterested:
		return ActionCard{
			Insight: fmt.Sprintf("Hesitant customer (%d)", score),
			Action:  "Keep in touch, address price and after-sales concerns",
			Impact:  "Low immediate conversion",
		}
	default:
		return ActionCard{
			Insight: fmt.Sprintf("Low purchase intent (%d)", score),
			Action:  "Lower the priority, revisit next season",
			Impact:  "Free capacity for stronger leads",
		}
	}
}

// Generate builds the card for a whole batch.
func Generate(ins aggregator.Insight) ActionCard {
	if ins.Total == 0 {
		return ActionCard{
			Insight: "No calls analyzed",
			Action:  "Upload call transcripts to score",
			Impact:  "None",
		}
	}
	if ins.DegradedRate >= 0.5 {
		return ActionCard{
			Insight: fmt.Sprintf("Model evaluation failed for %.0f%% of calls", ins.DegradedRate*100),
			Action:  "Check the LLM gateway configuration and quota, then rerun the batch",
			Impact:  "Scores currently rely on keyword rules only",
		}
	}
	hot := ins.LevelCounts[types.LevelStrong] + ins.LevelCounts[types.LevelMedium]
	if hot > 0 {
		return ActionCard{
			Insight: fmt.Sprintf("%d of %d calls show medium or strong intent (mean score %.1f)", hot, ins.Total, ins.MeanScore),
			Action:  "Prioritize follow-up on the top leads",
			Impact:  "Focus sales effort where conversion is likely",
		}
	}
	return ActionCard{
		Insight: fmt.Sprintf("No strong intent in %d calls (mean score %.1f)", ins.Total, ins.MeanScore),
		Action:  "Review the pitch and collect more calls",
		Impact:  "Low immediate intervention",
	}
}
