package repo

import "github.com/replypilot/replypilot/internal/biz/domain"

// RuleRepo loads the read-only reply rule configuration
type RuleRepo interface {
	// Load returns all rules, compiled and sorted by descending priority
	// (declaration order preserved within equal priority)
	Load() ([]domain.ReplyRule, error)
}
