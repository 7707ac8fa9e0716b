package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"shouldibuy/internal/advice"
	"shouldibuy/internal/pile"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdvisor struct {
	mu    sync.Mutex
	reply string
	err   error
	asked []advice.Request
}

func (f *fakeAdvisor) Advise(_ context.Context, req advice.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, req)
	return f.reply, f.err
}

type harness struct {
	m     Model
	tasks []pile.Task
}

func newHarness(t *testing.T, a Advisor) *harness {
	t.Helper()
	opts := pile.DefaultOptions()
	opts.Seed = 7
	h := &harness{}
	h.m = NewModel(context.Background(), Options{
		Advisor: a,
		Pile:    pile.New(opts),
		Styles:  NewStyles(LightTheme()),
	})
	h.m.schedule = func(task pile.Task) tea.Cmd {
		h.tasks = append(h.tasks, task)
		return nil
	}
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) completeTasks() {
	tasks := h.tasks
	h.tasks = nil
	for _, task := range tasks {
		h.send(taskMsg{task: task})
	}
}

// fill types the three fields, leaving focus back on income.
func (h *harness) fill(income, item, price string) {
	h.typeText(income)
	h.send(tea.KeyMsg{Type: tea.KeyTab})
	h.typeText(item)
	h.send(tea.KeyMsg{Type: tea.KeyTab})
	h.typeText(price)
	h.send(tea.KeyMsg{Type: tea.KeyTab})
}

// collect runs cmd, unpacking batches, and returns the messages of the
// given type.
func collect[T any](cmd tea.Cmd) []T {
	if cmd == nil {
		return nil
	}
	var out []T
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, collect[T](c)...)
		}
	case T:
		out = append(out, msg)
	}
	return out
}

func TestModel_TypingRetargetsPile(t *testing.T) {
	h := newHarness(t, &fakeAdvisor{})

	h.typeText("4000")
	assert.Equal(t, 16, h.m.Pile().Target())
	require.Len(t, h.tasks, 1)
	assert.Equal(t, pile.TaskEnter, h.tasks[0].Kind)
	h.completeTasks()
	assert.True(t, h.m.Pile().Settled())

	// Item name changes leave the pile alone.
	h.send(tea.KeyMsg{Type: tea.KeyTab})
	h.typeText("boat")
	assert.Empty(t, h.tasks)

	h.send(tea.KeyMsg{Type: tea.KeyTab})
	h.typeText("2000")
	assert.Equal(t, 8, h.m.Pile().Target())
	require.Len(t, h.tasks, 1)
	assert.Equal(t, pile.TaskExit, h.tasks[0].Kind)
	assert.Len(t, h.m.Pile().VisibleTokens(), 16)

	h.completeTasks()
	assert.Len(t, h.m.Pile().VisibleTokens(), 8)
	assert.Equal(t, 8, h.m.Pile().PoolSize())
	assert.Contains(t, h.m.View(), "8 bags")
}

func TestModel_FocusWraps(t *testing.T) {
	h := newHarness(t, nil)
	h.send(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, fieldPrice, h.m.focus)
	h.send(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, fieldIncome, h.m.focus)
	assert.True(t, h.m.inputs[fieldIncome].Focused())
	assert.False(t, h.m.inputs[fieldPrice].Focused())
}

func TestModel_SubmitShowsVerdict(t *testing.T) {
	fa := &fakeAdvisor{reply: "Nope. Buy a rowboat."}
	h := newHarness(t, fa)
	h.fill("4000", "boat", "2000")

	cmd := h.send(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, h.m.loading)
	assert.Contains(t, h.m.View(), "Asking...")

	msgs := collect[adviceMsg](cmd)
	require.Len(t, msgs, 1)
	h.send(msgs[0])

	assert.False(t, h.m.loading)
	assert.Equal(t, "Nope. Buy a rowboat.", h.m.verdict)
	assert.Empty(t, h.m.toast)
	require.Len(t, fa.asked, 1)
	assert.Equal(t, "4000", fa.asked[0].MonthlyIncome.Raw)
	assert.Equal(t, "boat", fa.asked[0].ItemName)
	assert.Equal(t, "2000", fa.asked[0].ItemPrice.Raw)
}

func TestModel_StaleResponseIgnored(t *testing.T) {
	fa := &fakeAdvisor{reply: "first"}
	h := newHarness(t, fa)
	h.fill("4000", "boat", "2000")

	first := collect[adviceMsg](h.send(tea.KeyMsg{Type: tea.KeyEnter}))
	fa.reply = "second"
	second := collect[adviceMsg](h.send(tea.KeyMsg{Type: tea.KeyEnter}))
	require.Len(t, first, 1)
	require.Len(t, second, 1)

	h.send(second[0])
	h.send(first[0])
	assert.Equal(t, "second", h.m.verdict)
	assert.False(t, h.m.loading)
}

func TestModel_FailureShowsToast(t *testing.T) {
	h := newHarness(t, &fakeAdvisor{err: errors.New("boom")})
	h.fill("4000", "boat", "2000")

	msgs := collect[adviceMsg](h.send(tea.KeyMsg{Type: tea.KeyEnter}))
	require.Len(t, msgs, 1)
	h.send(msgs[0])

	assert.Equal(t, advice.UserMessage, h.m.toast)
	assert.Empty(t, h.m.verdict)
	assert.NotContains(t, h.m.View(), "boom")

	// An older toast timer must not clear a newer toast.
	h.send(toastDoneMsg{seq: h.m.toastSeq - 1})
	assert.NotEmpty(t, h.m.toast)
	h.send(toastDoneMsg{seq: h.m.toastSeq})
	assert.Empty(t, h.m.toast)
}

func TestModel_NoAdvisor(t *testing.T) {
	h := newHarness(t, nil)
	h.fill("4000", "boat", "2000")

	msgs := collect[adviceMsg](h.send(tea.KeyMsg{Type: tea.KeyEnter}))
	require.Len(t, msgs, 1)
	h.send(msgs[0])
	assert.Equal(t, advice.UserMessage, h.m.toast)
}

func TestModel_MissingFieldDoesNotAsk(t *testing.T) {
	fa := &fakeAdvisor{reply: "x"}
	h := newHarness(t, fa)
	h.typeText("4000")

	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, h.m.loading)
	assert.Equal(t, uint64(0), h.m.seq)
	assert.Equal(t, "itemName is required", h.m.toast)
	assert.Empty(t, fa.asked)
}

func TestModel_QuitTearsDownPile(t *testing.T) {
	h := newHarness(t, nil)
	h.typeText("4000")

	cmd := h.send(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, h.m.Pile().Closed())

	// Completions scheduled before quitting are no-ops.
	h.completeTasks()
	assert.Empty(t, h.m.Pile().VisibleTokens())
}

func TestRenderPile(t *testing.T) {
	s := NewStyles(LightTheme())
	assert.Contains(t, RenderPile(nil, 80, s), "no bags")

	opts := pile.DefaultOptions()
	opts.Seed = 3
	p := pile.New(opts)
	p.Reconcile(10)

	out := RenderPile(p.VisibleTokens(), 40, s)
	assert.Equal(t, 10, strings.Count(out, bagGlyph))
	assert.Contains(t, out, "│")

	// Narrow terminals still show every bag.
	out = RenderPile(p.VisibleTokens(), 1, s)
	assert.Equal(t, 10, strings.Count(out, bagGlyph))
}

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")
	t.Setenv("SHOULDIBUY_DARK_MODE", "1")
	assert.True(t, DetectTheme().IsDark)

	t.Setenv("SHOULDIBUY_DARK_MODE", "")
	assert.False(t, DetectTheme().IsDark)

	t.Setenv("COLORFGBG", "15;0")
	assert.True(t, DetectTheme().IsDark)
}
