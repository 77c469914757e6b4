package domain

import "time"

// ReplyEvent represents one inbound reply notification
type ReplyEvent struct {
	EventID      string // delivery envelope ID, discarded after parsing
	PostID       string
	ReplyID      string // true deduplication key
	AuthorID     string
	AuthorHandle string
	Text         string
	ReceivedAt   time.Time
}

// Excerpt returns the first n characters of the reply text
func (e *ReplyEvent) Excerpt(n int) string {
	runes := []rune(e.Text)
	if len(runes) <= n {
		return e.Text
	}
	return string(runes[:n]) + "..."
}

// Valid checks that the event carries the fields the pipeline needs
func (e *ReplyEvent) Valid() bool {
	return e.ReplyID != "" && e.PostID != ""
}
