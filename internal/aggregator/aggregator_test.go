package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"sales-intent-go/internal/types"
)

func TestAggregate(t *testing.T) {
	records := []types.AnalysisRecord{
		{ID: "1", FileID: "a.wav", Result: types.CombinedResult{FinalScore: 82}, Level: types.LevelStrong, Status: types.StatusInterested},
		{ID: "2", Result: types.CombinedResult{FinalScore: 20}, Level: types.LevelNone, Status: types.StatusNotInterested, Degraded: true},
		{ID: "3", FileID: "c.wav", Result: types.CombinedResult{FinalScore: 65}, Level: types.LevelMedium, Status: types.StatusKeepInTouch},
	}
	ins := Aggregate(records)

	assert.Equal(t, 3, ins.Total)
	assert.InDelta(t, 55.7, ins.MeanScore, 1e-9)
	assert.Equal(t, 1, ins.LevelCounts[types.LevelStrong])
	assert.Equal(t, 1, ins.LevelCounts[types.LevelNone])
	assert.Equal(t, 1, ins.StatusCounts[types.StatusNotInterested])
	assert.Equal(t, 1, ins.Degraded)
	assert.InDelta(t, 1.0/3, ins.DegradedRate, 1e-9)
	assert.Equal(t, []string{"a.wav", "c.wav"}, ins.TopLeads)
	assert.Equal(t, "1", records[0].ID, "input order must be untouched")
}

func TestAggregate_Empty(t *testing.T) {
	ins := Aggregate(nil)
	assert.Equal(t, 0, ins.Total)
	assert.Empty(t, ins.TopLeads)
	assert.NotNil(t, ins.LevelCounts)
}
