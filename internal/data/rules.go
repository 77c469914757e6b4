package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/replypilot/replypilot/internal/biz/domain"
	"github.com/replypilot/replypilot/internal/biz/repo"
)

// ruleFile is the on-disk YAML shape of the rule configuration
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Name     string `yaml:"name"`
	Pattern  string `yaml:"pattern"`
	Match    string `yaml:"match"` // "contains" (default) or "regexp"
	Response string `yaml:"response"`
	Priority int    `yaml:"priority"`
}

// ruleRepo loads reply rules from a YAML file
type ruleRepo struct {
	path string
}

// NewRuleRepo creates a rule repository backed by a YAML file
func NewRuleRepo(path string) repo.RuleRepo {
	return &ruleRepo{path: path}
}

// Load reads, validates and compiles the rule set. A rule with a bad
// regexp fails the whole load; broken rules are a deploy error, not a
// runtime condition.
func (r *ruleRepo) Load() ([]domain.ReplyRule, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	rules := make([]domain.ReplyRule, 0, len(file.Rules))
	for i, entry := range file.Rules {
		if entry.Pattern == "" {
			return nil, fmt.Errorf("rule %d (%s): empty pattern", i, entry.Name)
		}
		if entry.Response == "" {
			return nil, fmt.Errorf("rule %d (%s): empty response template", i, entry.Name)
		}
		rule := domain.ReplyRule{
			Name:             entry.Name,
			Pattern:          entry.Pattern,
			Match:            domain.MatchKind(entry.Match),
			ResponseTemplate: entry.Response,
			Priority:         entry.Priority,
		}
		if err := rule.Compile(); err != nil {
			return nil, fmt.Errorf("rule %d (%s): bad pattern: %w", i, entry.Name, err)
		}
		rules = append(rules, rule)
	}

	fmt.Printf("[Rules] Loaded %d rules from %s\n", len(rules), r.path)
	return rules, nil
}
