package aggregator

import (
	"math"
	"sort"

	"sales-intent-go/internal/types"
)

// Insight summarizes a batch of analyses.
type Insight struct {
	Total        int                          `json:"total"`
	MeanScore    float64                      `json:"mean_score"`
	LevelCounts  map[types.IntentLevel]int    `json:"level_counts"`
	StatusCounts map[types.CustomerStatus]int `json:"status_counts"`
	Degraded     int                          `json:"degraded"`
	DegradedRate float64                      `json:"degraded_rate"`
	// TopLeads holds the ids of the highest-scoring calls, best first.
	TopLeads []string `json:"top_leads"`
}

const topLeads = 5

func Aggregate(records []types.AnalysisRecord) Insight {
	ins := Insight{
		Total:        len(records),
		LevelCounts:  map[types.IntentLevel]int{},
		StatusCounts: map[types.CustomerStatus]int{},
		TopLeads:     []string{},
	}
	if len(records) == 0 {
		return ins
	}

	sum := 0
	for _, r := range records {
		sum += r.Result.FinalScore
		ins.LevelCounts[r.Level]++
		ins.StatusCounts[r.Status]++
		if r.Degraded {
			ins.Degraded++
		}
	}
	ins.MeanScore = math.Round(float64(sum)/float64(len(records))*10) / 10
	ins.DegradedRate = float64(ins.Degraded) / float64(len(records))

	ranked := make([]types.AnalysisRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Result.FinalScore > ranked[j].Result.FinalScore
	})
	for _, r := range ranked {
		if len(ins.TopLeads) == topLeads || r.Level == types.LevelNone {
			break
		}
		id := r.FileID
		if id == "" {
			id = r.ID
		}
		ins.TopLeads = append(ins.TopLeads, id)
	}
	return ins
}
