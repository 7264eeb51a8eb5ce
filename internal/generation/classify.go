package generation

import (
	"encoding/json"
	"strings"
)

// Kind is the closed set of user-facing failure categories for the external
// generation service.
type Kind string

const (
	KindRateLimited     Kind = "rate_limited"
	KindContentPolicy   Kind = "content_policy_blocked"
	KindNoImageProduced Kind = "no_image_produced"
	KindBillingIssue    Kind = "billing_issue"
	KindTimeout         Kind = "timeout"
	KindNetworkError    Kind = "network_error"
	KindUnknown         Kind = "unknown"
)

// Classified pairs the friendly message shown to the user with the raw error
// text kept for support diagnosis.
type Classified struct {
	Kind             Kind   `json:"kind"`
	Message          string `json:"message"`
	TechnicalDetails string `json:"technical_details"`
}

var friendlyMessages = map[Kind]string{
	KindRateLimited:     "The image service is busy right now. Please try again in a moment.",
	KindContentPolicy:   "The image request was blocked by the service's content policy. Try rewording the scene description.",
	KindNoImageProduced: "The service responded without producing an image. Please retry.",
	KindBillingIssue:    "The image service account has a billing problem. Contact support.",
	KindTimeout:         "The image request timed out. Please retry.",
	KindNetworkError:    "Could not reach the image service. Check connectivity and retry.",
	KindUnknown:         "Image generation failed. Please retry or contact support.",
}

// keyword tables checked in order; the first match wins, which keeps
// classification deterministic for a given raw string.
var classifierRules = []struct {
	kind     Kind
	keywords []string
}{
	{KindRateLimited, []string{"rate limit", "rate_limit", "too many requests", "status 429", "quota exceeded"}},
	{KindContentPolicy, []string{"content policy", "safety", "blocked", "prohibited", "moderation"}},
	{KindBillingIssue, []string{"billing", "payment", "insufficient credit", "status 402"}},
	{KindNoImageProduced, []string{"no image", "empty response", "no candidates", "missing image data"}},
	{KindTimeout, []string{"timeout", "timed out", "deadline exceeded", "status 504"}},
	{KindNetworkError, []string{"connection refused", "connection reset", "no such host", "network", "eof", "status 502", "status 503"}},
}

// Classify maps a raw failure string onto the taxonomy. When the raw text
// embeds a structured {"error":{"message":...}} fragment, that inner message
// is surfaced verbatim instead of the canned one; the raw text is always
// retained as technical details.
func Classify(raw string) Classified {
	kind := KindUnknown
	lower := strings.ToLower(raw)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				kind = rule.kind
				break
			}
		}
		if kind != KindUnknown {
			break
		}
	}

	message := friendlyMessages[kind]
	if inner := extractUpstreamMessage(raw); inner != "" {
		message = inner
	}

	return Classified{Kind: kind, Message: message, TechnicalDetails: raw}
}

// extractUpstreamMessage pulls the message out of an embedded
// {"error":{"message":"..."}} JSON fragment, if one is present anywhere in
// the raw text.
func extractUpstreamMessage(raw string) string {
	start := strings.Index(raw, "{")
	if start < 0 {
		return ""
	}
	for i := start; i >= 0 && i < len(raw); i = nextBrace(raw, i) {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		dec := json.NewDecoder(strings.NewReader(raw[i:]))
		if err := dec.Decode(&body); err == nil && body.Error.Message != "" {
			return body.Error.Message
		}
	}
	return ""
}

func nextBrace(raw string, after int) int {
	idx := strings.Index(raw[after+1:], "{")
	if idx < 0 {
		return -1
	}
	return after + 1 + idx
}
