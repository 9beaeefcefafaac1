// Package render produces text, Markdown and JSON views of an analysis state.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/dshills/byteme/internal/analysis"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatPretty   Format = "pretty"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatMarkdown, FormatPretty:
		return f, nil
	case "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("render: unknown format %q (want text, json, md or pretty)", s)
	}
}

// Render renders st in format f. width only affects pretty output.
func Render(st analysis.State, f Format, width int) (string, error) {
	switch f {
	case FormatText:
		return Text(st), nil
	case FormatMarkdown:
		return Markdown(st), nil
	case FormatPretty:
		return Pretty(st, width)
	case FormatJSON:
		data, err := JSON(st)
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("render: unknown format %q", f)
	}
}

// Markdown renders st as a Markdown report.
func Markdown(st analysis.State) string {
	var b strings.Builder
	b.WriteString("# Video Analysis\n\n")

	switch st.Phase {
	case analysis.PhaseIdle:
		b.WriteString("No analysis yet.\n")
		return b.String()
	case analysis.PhaseLoading:
		fmt.Fprintf(&b, "Analyzing %s ...\n", st.Request.URL)
		return b.String()
	case analysis.PhaseFailed:
		fmt.Fprintf(&b, "**URL:** %s\n", st.Request.URL)
		fmt.Fprintf(&b, "**Status:** failed (%s)\n\n", st.Failure.Kind)
		fmt.Fprintf(&b, "> %s\n", st.Failure.Reason)
		return b.String()
	}

	r := st.Result
	fmt.Fprintf(&b, "**URL:** %s\n", r.Request.URL)
	if r.Description != "" {
		fmt.Fprintf(&b, "**Description:** %s\n", r.Description)
	}
	fmt.Fprintf(&b, "**Average score:** %.1f / 10\n", r.AverageScore)
	fmt.Fprintf(&b, "**Tier:** %s\n\n", r.Tier)

	b.WriteString("## Scores\n\n")
	b.WriteString("| Metric | Score |\n|---|---|\n")
	for _, m := range r.Metrics {
		fmt.Fprintf(&b, "| %s | %.1f |\n", m.Label, r.Scores[m.Name])
	}
	b.WriteString("\n## Advice\n\n")
	for _, a := range r.Advice {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	if len(r.RemoteAdvice) > 0 {
		b.WriteString("\n## Service Notes\n\n")
		for _, a := range r.RemoteAdvice {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}
	return b.String()
}

// Pretty renders the Markdown report for a terminal with glamour. It falls
// back to plain Markdown if the renderer cannot be built.
func Pretty(st analysis.State, width int) (string, error) {
	md := Markdown(st)
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return md, nil
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render.Pretty: %w", err)
	}
	return out, nil
}

type document struct {
	Phase      string            `json:"phase"`
	Generation uint64            `json:"generation"`
	URL        string            `json:"url,omitempty"`
	Result     *analysis.Result  `json:"result,omitempty"`
	Failure    *analysis.Failure `json:"failure,omitempty"`
}

// JSON renders st as an indented JSON document.
func JSON(st analysis.State) ([]byte, error) {
	doc := document{
		Phase:      st.Phase.String(),
		Generation: st.Generation,
		URL:        st.Request.URL,
		Result:     st.Result,
		Failure:    st.Failure,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render.JSON: %w", err)
	}
	return data, nil
}
