package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dshills/byteme/internal/analysis"
	"github.com/dshills/byteme/internal/request"
	"github.com/dshills/byteme/internal/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	state     analysis.State
	submitted []request.Request
	submitErr error
	resets    int
	retries   int
}

func (f *fakeController) Submit(r request.Request) error {
	f.submitted = append(f.submitted, r)
	return f.submitErr
}
func (f *fakeController) Reset()                { f.resets++ }
func (f *fakeController) Retry() error          { f.retries++; return nil }
func (f *fakeController) State() analysis.State { return f.state }

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func send(t *testing.T, m Model, st analysis.State) Model {
	t.Helper()
	next, _ := m.Update(StateMsg(st))
	return next.(Model)
}

func TestSubmitForwardsInputs(t *testing.T) {
	ctl := &fakeController{}
	m := New(ctl)

	m = typeText(t, m, " https://www.tiktok.com/@cat/video/1 ")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "cat video")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, ctl.submitted, 1)
	assert.Equal(t, request.Request{URL: "https://www.tiktok.com/@cat/video/1", Description: "cat video"}, ctl.submitted[0])
	assert.Empty(t, m.notice)
}

func TestSubmitErrorIsShown(t *testing.T) {
	ctl := &fakeController{submitErr: request.ErrEmptyInput}
	m := New(ctl)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, request.ErrEmptyInput.Error(), m.notice)
	assert.Contains(t, m.View(), "please enter a video URL")
	assert.Equal(t, analysis.PhaseIdle, m.state.Phase)
}

func TestLoadingView(t *testing.T) {
	ctl := &fakeController{}
	m := New(ctl)

	next, cmd := m.Update(StateMsg(analysis.State{Phase: analysis.PhaseLoading, Request: request.Request{URL: "https://x/video/1"}}))
	m = next.(Model)
	assert.NotNil(t, cmd, "entering loading starts the spinner")
	assert.Contains(t, m.View(), "Analyzing https://x/video/1")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 1, ctl.resets)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, ctl.submitted)
}

func TestFailedKeys(t *testing.T) {
	ctl := &fakeController{}
	m := send(t, New(ctl), analysis.State{
		Phase:   analysis.PhaseFailed,
		Failure: &analysis.Failure{Kind: analysis.KindRemoteRejected, Reason: "video not found"},
	})
	assert.Contains(t, m.View(), "video not found")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, 1, ctl.retries)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 1, ctl.resets)

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestSucceededView(t *testing.T) {
	ctl := &fakeController{}
	m := send(t, New(ctl), analysis.State{
		Phase: analysis.PhaseSucceeded,
		Result: &analysis.Result{
			Scores:       score.Scores{"accuracy": 9},
			Metrics:      []score.Metric{{Name: "accuracy", Label: "Accuracy"}},
			AverageScore: 9,
			Tier:         score.TierDiamond,
			Advice:       []string{"Keep it up."},
		},
	})
	view := m.View()
	assert.Contains(t, view, "DIAMOND")
	assert.Contains(t, view, "Keep it up.")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, 0, ctl.retries)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	assert.Equal(t, 1, ctl.resets)
}

func TestReturnToIdleClearsInputs(t *testing.T) {
	ctl := &fakeController{}
	m := typeText(t, New(ctl), "https://x/video/1")
	m = send(t, m, analysis.State{Phase: analysis.PhaseLoading})
	m = send(t, m, analysis.State{Phase: analysis.PhaseSucceeded, Result: &analysis.Result{}})
	m = send(t, m, analysis.State{Phase: analysis.PhaseIdle})

	assert.Empty(t, m.url.Value())
	assert.True(t, m.url.Focused())
}

func TestCtrlCQuits(t *testing.T) {
	m := New(&fakeController{})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}
