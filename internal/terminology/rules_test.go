package terminology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBatch(t *testing.T) {
	rules, skipped := ParseBatch("水费机 -> 水肥机\n\n  嗯->  \nno arrow here\n -> 空\na->b->c\n")
	assert.Equal(t, []Rule{
		{Wrong: "水费机", Correct: "水肥机"},
		{Wrong: "嗯", Correct: ""},
		{Wrong: "a", Correct: "b->c"},
	}, rules)
	assert.Equal(t, []string{"no arrow here", "-> 空"}, skipped)
}

func TestUpsertKeepsPosition(t *testing.T) {
	base := []Rule{{"a", "1"}, {"b", "2"}}
	out, added := upsert(base, "a", "9")
	assert.False(t, added)
	assert.Equal(t, []Rule{{"a", "9"}, {"b", "2"}}, out)
	assert.Equal(t, "1", base[0].Correct, "input must not be modified")

	out, added = upsert(base, "c", "3")
	assert.True(t, added)
	assert.Equal(t, []Rule{{"a", "1"}, {"b", "2"}, {"c", "3"}}, out)
}

func TestRemove(t *testing.T) {
	base := []Rule{{"a", "1"}, {"b", "2"}, {"c", "3"}}
	out, ok := remove(base, "b")
	assert.True(t, ok)
	assert.Equal(t, []Rule{{"a", "1"}, {"c", "3"}}, out)

	_, ok = remove(base, "zzz")
	assert.False(t, ok)
}

func TestRename(t *testing.T) {
	base := []Rule{{"a", "1"}, {"b", "2"}, {"c", "3"}}

	assert.Equal(t, []Rule{{"a", "1"}, {"bb", "22"}, {"c", "3"}}, rename(base, "b", "bb", "22"))
	assert.Equal(t, []Rule{{"a", "1"}, {"b", "2"}, {"c", "3"}, {"d", "4"}}, rename(base, "missing", "d", "4"))
	// Renaming onto an existing key keeps that key's slot.
	assert.Equal(t, []Rule{{"b", "2"}, {"c", "x"}}, rename(base, "a", "c", "x"))
}

func TestStats(t *testing.T) {
	st := statsOf([]Rule{{"a", ""}, {"b", "2"}, {"c", ""}})
	assert.Equal(t, Stats{TotalRules: 3, DeletionRules: 2, ReplacementRules: 1}, st)
}
