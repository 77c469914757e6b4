package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body
const SignatureHeader = "X-Webhook-Signature"

// InboundEvent is one reply notification as delivered by the platform
type InboundEvent struct {
	EventID      string `json:"event_id"`
	PostID       string `json:"post_id"`
	ReplyID      string `json:"reply_id"`
	AuthorID     string `json:"author_id"`
	AuthorHandle string `json:"author_handle"`
	Text         string `json:"text"`
	CreatedAtMS  int64  `json:"created_at"`
}

// WebhookEnvelope is the signed webhook body: one or more events per delivery
type WebhookEnvelope struct {
	Events []InboundEvent `json:"events"`
}

// Sign computes the hex HMAC-SHA256 signature for a webhook body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the supplied signature against the raw body in
// constant time. An empty signature never verifies.
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// ParseEnvelope decodes a verified webhook body
func ParseEnvelope(body []byte) (*WebhookEnvelope, error) {
	var env WebhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope failed: %w", err)
	}
	if len(env.Events) == 0 {
		return nil, errors.New("envelope carries no events")
	}
	for i, ev := range env.Events {
		if ev.ReplyID == "" || ev.PostID == "" {
			return nil, fmt.Errorf("event %d missing reply_id or post_id", i)
		}
	}
	return &env, nil
}
