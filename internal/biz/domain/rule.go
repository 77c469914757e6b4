package domain

import (
	"regexp"
	"strings"
)

// MatchKind selects how a rule pattern is evaluated
type MatchKind string

const (
	MatchContains MatchKind = "contains" // case-insensitive substring
	MatchRegexp   MatchKind = "regexp"
)

// ReplyRule is one read-only matching rule. Higher priority wins;
// ties are broken by declaration order.
type ReplyRule struct {
	Name             string
	Pattern          string
	Match            MatchKind
	ResponseTemplate string
	Priority         int

	compiled *regexp.Regexp
}

// Compile prepares the rule for matching. Must be called once at load time;
// a regexp rule with a bad pattern fails here, not on the hot path.
func (r *ReplyRule) Compile() error {
	if r.Match == "" {
		r.Match = MatchContains
	}
	if r.Match == MatchRegexp {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return err
		}
		r.compiled = re
	}
	return nil
}

// Matches evaluates the rule pattern against reply text
func (r *ReplyRule) Matches(text string) bool {
	switch r.Match {
	case MatchRegexp:
		if r.compiled == nil {
			return false
		}
		return r.compiled.MatchString(text)
	default:
		return strings.Contains(strings.ToLower(text), strings.ToLower(r.Pattern))
	}
}
