// Package scoring holds the deterministic half of intent scoring: the
// keyword rule scorer and the weighted combiner.
package scoring

import (
	"fmt"
	"regexp"

	"sales-intent-go/internal/types"
)

type compiledTier struct {
	name     string
	delta    int
	patterns []*regexp.Regexp
	sources  []string
}

// RuleScorer is safe for concurrent use; it holds only compiled patterns.
type RuleScorer struct {
	baseline int
	tiers    []compiledTier
}

// NewRuleScorer compiles the profile's patterns case-insensitively.
func NewRuleScorer(p Profile) (*RuleScorer, error) {
	s := &RuleScorer{baseline: p.Baseline}
	for _, t := range p.Tiers {
		ct := compiledTier{name: t.Name, delta: t.Delta}
		for _, src := range t.Patterns {
			re, err := regexp.Compile("(?i)" + src)
			if err != nil {
				return nil, fmt.Errorf("tier %s: pattern %q: %w", t.Name, src, err)
			}
			ct.patterns = append(ct.patterns, re)
			ct.sources = append(ct.sources, src)
		}
		s.tiers = append(s.tiers, ct)
	}
	return s, nil
}

// Score never fails; text without matches scores the baseline.
func (s *RuleScorer) Score(text string) types.RuleScoreResult {
	score := s.baseline
	matched := []string{}
	for _, t := range s.tiers {
		for i, re := range t.patterns {
			if re.MatchString(text) {
				score += t.delta
				matched = append(matched, t.name+": "+t.sources[i])
			}
		}
	}
	score = types.Clamp(score)
	return types.RuleScoreResult{
		Score:        score,
		Level:        types.LevelFor(score),
		MatchedRules: matched,
	}
}
