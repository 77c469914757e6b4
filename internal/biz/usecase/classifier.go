package usecase

import (
	"sort"
	"strings"

	"github.com/replypilot/replypilot/internal/biz/domain"
)

// Ignore reasons surfaced in the ledger and audit trail
const (
	ReasonNoRuleMatched = "no-rule-matched"
	ReasonRenderFailed  = "render-failed"
)

// Decision is the outcome of classifying one reply event
type Decision struct {
	Respond      bool
	RuleName     string
	RenderedText string
	Reason       string // set when Respond is false
}

// Classify evaluates rules against the event text and selects a response.
// Pure function: no I/O, no mutation of the inputs. Rules are evaluated in
// descending priority order, ties broken by declaration order; first match wins.
func Classify(event *domain.ReplyEvent, rules []domain.ReplyRule) Decision {
	ordered := make([]domain.ReplyRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for _, rule := range ordered {
		if !rule.Matches(event.Text) {
			continue
		}
		rendered, ok := renderTemplate(rule.ResponseTemplate, event)
		if !ok {
			// A bad rule must never crash ingestion for unrelated events
			return Decision{Reason: ReasonRenderFailed}
		}
		return Decision{Respond: true, RuleName: rule.Name, RenderedText: rendered}
	}

	return Decision{Reason: ReasonNoRuleMatched}
}

// renderTemplate substitutes event fields into the template. Returns false
// if the template references a field the event does not carry.
func renderTemplate(template string, event *domain.ReplyEvent) (string, bool) {
	fields := map[string]string{
		"author":  event.AuthorHandle,
		"excerpt": event.Excerpt(40),
		"post_id": event.PostID,
	}

	var sb strings.Builder
	rest := template
	for {
		start := strings.Index(rest, "{")
		if start < 0 {
			sb.WriteString(rest)
			return sb.String(), true
		}
		sb.WriteString(rest[:start])
		end := strings.Index(rest[start:], "}")
		if end < 0 {
			return "", false
		}
		name := rest[start+1 : start+end]
		value, known := fields[name]
		if !known || value == "" {
			return "", false
		}
		sb.WriteString(value)
		rest = rest[start+end+1:]
	}
}
