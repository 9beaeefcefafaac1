package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dshills/byteme/internal/analysis"
	"github.com/dshills/byteme/internal/score"
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	styleMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleLabel  = lipgloss.NewStyle().Width(16)
	styleError  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleAdvice = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))

	tierColors = map[score.Tier]lipgloss.Color{
		score.TierDiamond: lipgloss.Color("#b9f2ff"),
		score.TierGold:    lipgloss.Color("#ffd700"),
		score.TierSilver:  lipgloss.Color("#c0c0c0"),
		score.TierBronze:  lipgloss.Color("#cd7f32"),
	}
)

// TierStyle returns the badge style for a tier.
func TierStyle(t score.Tier) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(tierColors[t])
}

// ErrorStyle is used for failure reasons.
func ErrorStyle() lipgloss.Style { return styleError }

// Bar draws v in [0,10] as a bar of the given width.
func Bar(v float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(v / score.MaxValue * float64(width)))
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Text renders st for a terminal.
func Text(st analysis.State) string {
	var b strings.Builder
	switch st.Phase {
	case analysis.PhaseIdle:
		b.WriteString(styleMuted.Render("No analysis yet.") + "\n")
	case analysis.PhaseLoading:
		fmt.Fprintf(&b, "Analyzing %s ...\n", st.Request.URL)
	case analysis.PhaseFailed:
		fmt.Fprintf(&b, "%s %s\n", styleError.Render("Analysis failed:"), st.Failure.Reason)
		fmt.Fprintf(&b, "%s\n", styleMuted.Render(fmt.Sprintf("%s  %s", st.Failure.Kind, st.Request.URL)))
	case analysis.PhaseSucceeded:
		writeResult(&b, st.Result)
	}
	return b.String()
}

func writeResult(b *strings.Builder, r *analysis.Result) {
	fmt.Fprintf(b, "%s  %s\n", styleTitle.Render("BYTEME analysis"), styleMuted.Render(r.Request.URL))
	if r.Description != "" {
		fmt.Fprintf(b, "%s\n", r.Description)
	}
	fmt.Fprintf(b, "\nTier: %s   Average: %.1f/10\n\n",
		TierStyle(r.Tier).Render(strings.ToUpper(string(r.Tier))), r.AverageScore)
	for _, m := range r.Metrics {
		v := r.Scores[m.Name]
		fmt.Fprintf(b, "  %s %s %4.1f\n", styleLabel.Render(m.Label), Bar(v, 20), v)
	}
	b.WriteString("\nAdvice:\n")
	for _, a := range r.Advice {
		fmt.Fprintf(b, "  • %s\n", styleAdvice.Render(a))
	}
}
