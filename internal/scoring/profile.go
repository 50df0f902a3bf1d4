package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tier is a group of patterns sharing one score delta. Every pattern that
// matches applies the delta once.
type Tier struct {
	Name     string   `yaml:"name"`
	Delta    int      `yaml:"delta"`
	Patterns []string `yaml:"patterns"`
}

// Profile configures the rule scorer.
type Profile struct {
	Baseline int    `yaml:"baseline"`
	Tiers    []Tier `yaml:"tiers"`
}

// DefaultProfile is the irrigation-equipment sales profile.
func DefaultProfile() Profile {
	return Profile{
		Baseline: 50,
		Tiers: []Tier{
			{
				Name:  "strong",
				Delta: 20,
				Patterns: []string{
					`我\s*想\s*买`,
					`打算\s*装`,
					`你\s*微信\s*发我`,
					`加\s*你\s*微信`,
					`我们\s*地\s*太\s*多`,
					`后续\s*联系`,
				},
			},
			{
				Name:  "decline",
				Delta: -30,
				Patterns: []string{
					`不用了`,
					`没\s*兴趣`,
					`今年\s*不\s*装`,
					`后面\s*再说`,
					`我\s*再\s*看看`,
				},
			},
			{
				Name:  "ambiguous",
				Delta: -10,
				Patterns: []string{
					`再说吧`,
					`我\s*考虑\s*一下`,
					`你\s*发资料我看看`,
				},
			},
		},
	}
}

// LoadProfile reads a YAML profile. An empty path yields DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read scorer profile: %w", err)
	}
	return ParseProfile(data)
}

func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse scorer profile: %w", err)
	}
	for i, t := range p.Tiers {
		if t.Name == "" {
			return Profile{}, fmt.Errorf("scorer profile: tier %d has no name", i)
		}
	}
	return p, nil
}
