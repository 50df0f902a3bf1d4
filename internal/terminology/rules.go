// Package terminology normalizes domain-specific misrecognitions in call
// transcripts using an ordered set of literal replace/delete rules.
package terminology

import (
	"errors"
	"strings"
)

var (
	ErrEmptyTerm    = errors.New("wrong term must not be empty")
	ErrRuleNotFound = errors.New("rule not found")
	ErrNoDocument   = errors.New("rule document does not exist")
)

// Rule rewrites every occurrence of Wrong with Correct. An empty Correct
// deletes the term.
type Rule struct {
	Wrong   string `json:"wrong_term"`
	Correct string `json:"correct_term"`
}

func (r Rule) IsDeletion() bool { return r.Correct == "" }

type Stats struct {
	TotalRules       int `json:"total_rules"`
	DeletionRules    int `json:"deletion_rules"`
	ReplacementRules int `json:"replacement_rules"`
}

func statsOf(rules []Rule) Stats {
	st := Stats{TotalRules: len(rules)}
	for _, r := range rules {
		if r.IsDeletion() {
			st.DeletionRules++
		} else {
			st.ReplacementRules++
		}
	}
	return st
}

func indexOf(rules []Rule, wrong string) int {
	for i, r := range rules {
		if r.Wrong == wrong {
			return i
		}
	}
	return -1
}

// upsert updates an existing key in place or appends a new one. The input
// slice is never modified.
func upsert(rules []Rule, wrong, correct string) ([]Rule, bool) {
	out := make([]Rule, len(rules), len(rules)+1)
	copy(out, rules)
	if i := indexOf(out, wrong); i >= 0 {
		out[i].Correct = correct
		return out, false
	}
	return append(out, Rule{Wrong: wrong, Correct: correct}), true
}

func remove(rules []Rule, wrong string) ([]Rule, bool) {
	i := indexOf(rules, wrong)
	if i < 0 {
		return rules, false
	}
	out := make([]Rule, 0, len(rules)-1)
	out = append(out, rules[:i]...)
	return append(out, rules[i+1:]...), true
}

// rename rewrites the rule keyed oldWrong in place. If oldWrong is absent
// the new rule is upserted; if newWrong already exists elsewhere that entry
// keeps its position and the old one is dropped.
func rename(rules []Rule, oldWrong, newWrong, newCorrect string) []Rule {
	i := indexOf(rules, oldWrong)
	if i < 0 {
		out, _ := upsert(rules, newWrong, newCorrect)
		return out
	}
	if j := indexOf(rules, newWrong); j >= 0 && j != i {
		out, _ := remove(rules, oldWrong)
		out, _ = upsert(out, newWrong, newCorrect)
		return out
	}
	out := make([]Rule, len(rules))
	copy(out, rules)
	out[i] = Rule{Wrong: newWrong, Correct: newCorrect}
	return out
}

func equalRules(a, b []Rule) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ParseBatch reads "wrong -> correct" lines. Lines without an arrow or with
// an empty wrong term are returned in skipped.
func ParseBatch(text string) (rules []Rule, skipped []string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		wrong, correct, ok := strings.Cut(line, "->")
		wrong = strings.TrimSpace(wrong)
		if !ok || wrong == "" {
			skipped = append(skipped, line)
			continue
		}
		rules = append(rules, Rule{Wrong: wrong, Correct: strings.TrimSpace(correct)})
	}
	return rules, skipped
}

// DefaultRules is the built-in dictionary for agricultural irrigation
// equipment calls. Order matters: "只能" runs before "只能化".
func DefaultRules() []Rule {
	return []Rule{
		{"水费机", "水肥机"},
		{"水费计划", "水肥计划"},
		{"水费设备", "水肥设备"},
		{"水费系统", "水肥系统"},
		{"水费一体化", "水肥一体化"},
		{"玉苗", "玉米"},
		{"墓地", "亩地"},
		{"嵌苏膜", "滴灌膜"},
		{"前苏膜", "滴灌膜"},
		{"前速膜", "滴灌膜"},
		{"机器设备", "设备"},
		{"自动华", "自动化"},
		{"自动话", "自动化"},
		{"只能", "智能"},
		{"只能化", "智能化"},
		// filler words
		{"那个", ""},
		{"就是", ""},
		{"嗯", ""},
		{"呃", ""},
		{"额", ""},
		{"老闆", "老板"},
		{"贵信", "贵姓"},
		{"寻过", "询过"},
		{"问过", "询过"},
		{"好了", "好的"},
		{"行行行", "行"},
		{"对对对", "对"},
	}
}
