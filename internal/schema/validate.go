// Package schema validates analysis payloads against a metric profile.
package schema

import (
	"fmt"
	"sort"

	"github.com/dshills/byteme/internal/profile"
	"github.com/dshills/byteme/internal/score"
	"github.com/dshills/byteme/internal/service"
)

// ValidationError describes a single payload violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a response's score map against the profile: every
// declared metric present, non-null, and in [0,10]; no
// undeclared metric other than ignored ones.
func Validate(resp *service.Response, p *profile.Profile) []ValidationError {
	if resp == nil {
		return []ValidationError{{"$", "empty response"}}
	}
	var errs []ValidationError
	if resp.Scores == nil {
		return append(errs, ValidationError{"scores", "required"})
	}

	for _, m := range p.Metrics {
		path := "scores." + m.Name
		val, ok := resp.Scores[m.Name]
		switch {
		case !ok:
			errs = append(errs, ValidationError{path, "required"})
		case val == nil:
			errs = append(errs, ValidationError{path, "must be a number, got null"})
		case !score.InRange(*val):
			errs = append(errs, ValidationError{path, fmt.Sprintf("%v out of range [%g,%g]", *val, score.MinValue, score.MaxValue)})
		}
	}

	var extra []string
	for name := range resp.Scores {
		if _, declared := lookup(p, name); declared || p.Ignored(name) {
			continue
		}
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		errs = append(errs, ValidationError{"scores." + name, fmt.Sprintf("unknown metric for profile %q", p.Name)})
	}

	if resp.AverageScore != nil && !score.InRange(*resp.AverageScore) {
		errs = append(errs, ValidationError{"averageScore", fmt.Sprintf("%v out of range [%g,%g]", *resp.AverageScore, score.MinValue, score.MaxValue)})
	}
	return errs
}

// Scores extracts the declared metrics from a validated response. Ignored
// keys are dropped. Call Validate first; invalid entries are skipped.
func Scores(resp *service.Response, p *profile.Profile) score.Scores {
	out := make(score.Scores, len(p.Metrics))
	for _, m := range p.Metrics {
		if v, ok := resp.Scores[m.Name]; ok && v != nil {
			out[m.Name] = *v
		}
	}
	return out
}

func lookup(p *profile.Profile, name string) (profile.Metric, bool) {
	for _, m := range p.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return profile.Metric{}, false
}
