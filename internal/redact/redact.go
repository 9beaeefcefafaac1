// Package redact scrubs secrets and share-tracking parameters from request
// fields before they leave the client.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

var patterns []*regexp.Regexp

func init() {
	raw := []string{
		// Bearer tokens
		`Bearer\s+[A-Za-z0-9\-._~+/]+=*`,
		// Generic key/secret/token/password assignments
		`(?i)(api[_-]?key|api[_-]?secret|secret[_-]?key|token|password|passwd|credentials)\s*[:=]\s*\S+`,
		// Email addresses
		`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
		// Phone numbers with at least ten digits
		`\+?\d[\d\s\-().]{8,}\d`,
	}
	for _, r := range raw {
		patterns = append(patterns, regexp.MustCompile(r))
	}
}

// Text replaces secret patterns in free text with [REDACTED].
func Text(text string) string {
	for _, p := range patterns {
		text = p.ReplaceAllString(text, "[REDACTED]")
	}
	return text
}

// trackingParams are query keys share links append to identify the sharer.
var trackingParams = []string{"_t", "_r", "is_from_webapp", "sender_device", "share_app_id", "share_item_id", "u_code", "sec_uid"}

// URL drops share-tracking query parameters and the fragment. Input that does
// not parse is returned unchanged.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for key := range q {
		if isTracking(key) {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}

func isTracking(key string) bool {
	k := strings.ToLower(key)
	if strings.HasPrefix(k, "utm_") {
		return true
	}
	for _, p := range trackingParams {
		if k == p {
			return true
		}
	}
	return false
}
