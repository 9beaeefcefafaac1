// Package request defines the analysis request and its local validation.
package request

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrEmptyInput reports a blank URL.
	ErrEmptyInput = errors.New("please enter a video URL")
	// ErrInvalidURLFormat reports a URL that does not match the platform shape.
	ErrInvalidURLFormat = errors.New("please enter a valid video URL")
)

// Request is an immutable analysis request.
type Request struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// New trims both fields and returns the request. A URL pasted without a
// scheme, such as www.tiktok.com/@u/video/1, gets https:// prepended.
func New(rawURL, description string) Request {
	return Request{
		URL:         withScheme(strings.TrimSpace(rawURL)),
		Description: strings.TrimSpace(description),
	}
}

func withScheme(u string) string {
	if u == "" || strings.Contains(u, "://") {
		return u
	}
	return "https://" + strings.TrimPrefix(u, "//")
}

// Key identifies a request for caching and logging.
func (r Request) Key() string {
	return r.URL + "\n" + r.Description
}

// Rules describe the accepted URL shape for the supported platform.
type Rules struct {
	// Hosts lists host substrings; a URL host must contain one of them.
	Hosts []string
	// PathMarker must appear in the URL path. Empty disables the check.
	PathMarker string
}

// DefaultRules accepts TikTok video links.
func DefaultRules() Rules {
	return Rules{Hosts: []string{"tiktok.com"}, PathMarker: "/video/"}
}

// Validate checks r against the rules. It never performs I/O.
func (rules Rules) Validate(r Request) error {
	if strings.TrimSpace(r.URL) == "" {
		return ErrEmptyInput
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURLFormat, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURLFormat)
	}
	host := strings.ToLower(u.Hostname())
	if !rules.hostAllowed(host) {
		return fmt.Errorf("%w: unsupported host %q", ErrInvalidURLFormat, host)
	}
	if rules.PathMarker != "" && !strings.Contains(u.Path, rules.PathMarker) {
		return fmt.Errorf("%w: path must contain %q", ErrInvalidURLFormat, rules.PathMarker)
	}
	return nil
}

func (rules Rules) hostAllowed(host string) bool {
	if host == "" {
		return false
	}
	if len(rules.Hosts) == 0 {
		return true
	}
	for _, h := range rules.Hosts {
		if h != "" && strings.Contains(host, strings.ToLower(h)) {
			return true
		}
	}
	return false
}
