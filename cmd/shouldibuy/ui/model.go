package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shouldibuy/internal/advice"
	"shouldibuy/internal/logging"
	"shouldibuy/internal/pile"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Advisor answers one question. *advice.Advisor satisfies it.
type Advisor interface {
	Advise(ctx context.Context, req advice.Request) (string, error)
}

// Form fields, in focus order.
const (
	fieldIncome = iota
	fieldItem
	fieldPrice
	fieldCount
)

const toastDuration = 4 * time.Second

// Messages for tea updates
type (
	adviceMsg struct {
		seq  uint64
		text string
		err  error
	}
	taskMsg      struct{ task pile.Task }
	toastDoneMsg struct{ seq uint64 }
)

// Options configures a Model.
type Options struct {
	// Advisor may be nil; submitting then only shows the failure toast.
	Advisor Advisor
	Pile    *pile.Pile
	Styles  Styles
}

// Model is the bubbletea model for the form, the bag pile and the verdict.
// The pile is only touched from Update, so task completions never race
// input changes.
type Model struct {
	ctx     context.Context
	advisor Advisor
	pile    *pile.Pile

	inputs   [fieldCount]textinput.Model
	focus    int
	spinner  spinner.Model
	styles   Styles
	renderer *glamour.TermRenderer

	loading  bool
	seq      uint64
	verdict  string
	toast    string
	toastSeq uint64

	width  int
	height int

	// schedule turns a pile task into a delayed message.
	schedule func(pile.Task) tea.Cmd
}

// NewModel builds the initial model.
func NewModel(ctx context.Context, opts Options) Model {
	styles := opts.Styles
	p := opts.Pile
	if p == nil {
		p = pile.New(pile.DefaultOptions())
	}

	placeholders := [fieldCount]string{"4000", "boat", "2000"}
	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.Prompt = "│ "
		ti.CharLimit = 64
		ti.Width = 32
		ti.PromptStyle = styles.Prompt
		ti.TextStyle = styles.UserInput
		inputs[i] = ti
	}
	inputs[fieldIncome].Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return Model{
		ctx:      ctx,
		advisor:  opts.Advisor,
		pile:     p,
		inputs:   inputs,
		spinner:  sp,
		styles:   styles,
		renderer: newRenderer(styles, 72),
		width:    80,
		schedule: tickTask,
	}
}

func newRenderer(styles Styles, wrap int) *glamour.TermRenderer {
	style := "light"
	if styles.Theme.IsDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		logging.UIWarn("markdown renderer unavailable: %v", err)
		return nil
	}
	return r
}

func tickTask(task pile.Task) tea.Cmd {
	return tea.Tick(task.Delay, func(time.Time) tea.Msg { return taskMsg{task: task} })
}

// Pile exposes the underlying pile.
func (m Model) Pile() *pile.Pile { return m.pile }

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.pile.Teardown()
			return m, tea.Quit
		case tea.KeyTab, tea.KeyDown:
			return m.setFocus(m.focus + 1), nil
		case tea.KeyShiftTab, tea.KeyUp:
			return m.setFocus(m.focus - 1), nil
		case tea.KeyEnter:
			return m.submit()
		}
		return m.updateInput(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if wrap := msg.Width - 8; wrap > 20 {
			m.renderer = newRenderer(m.styles, wrap)
		}
		return m, nil

	case taskMsg:
		m.pile.Complete(msg.task)
		return m, nil

	case adviceMsg:
		// Only the latest submission may update the screen.
		if msg.seq != m.seq {
			logging.UIDebug("dropping stale advice response %d (current %d)", msg.seq, m.seq)
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.showToast(advice.UserMessage)
		}
		m.verdict = msg.text
		return m, nil

	case toastDoneMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) setFocus(i int) Model {
	m.focus = (i + fieldCount) % fieldCount
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return m
}

// updateInput forwards a key to the focused field and re-targets the pile
// when a money field changed.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)

	if m.focus == fieldItem || m.inputs[m.focus].Value() == before {
		return m, cmd
	}
	tasks := m.pile.OnInputsChanged(m.inputs[fieldIncome].Value(), m.inputs[fieldPrice].Value())
	cmds := []tea.Cmd{cmd}
	for _, task := range tasks {
		cmds = append(cmds, m.schedule(task))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) request() advice.Request {
	return advice.Request{
		MonthlyIncome: advice.NewAmount(m.inputs[fieldIncome].Value()),
		ItemName:      strings.TrimSpace(m.inputs[fieldItem].Value()),
		ItemPrice:     advice.NewAmount(m.inputs[fieldPrice].Value()),
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	req := m.request()
	if err := req.Validate(); err != nil {
		return m.showToast(err.Error())
	}

	m.seq++
	m.loading = true
	m.verdict = ""
	seq := m.seq
	advisor := m.advisor
	ctx := m.ctx

	ask := func() tea.Msg {
		if advisor == nil {
			return adviceMsg{seq: seq, err: fmt.Errorf("no advice provider configured")}
		}
		text, err := advisor.Advise(ctx, req)
		if err != nil {
			logging.UIWarn("advice failed: %v", err)
		}
		return adviceMsg{seq: seq, text: text, err: err}
	}
	return m, tea.Batch(m.spinner.Tick, ask)
}

func (m Model) showToast(text string) (tea.Model, tea.Cmd) {
	m.toastSeq++
	m.toast = text
	seq := m.toastSeq
	return m, tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastDoneMsg{seq: seq} })
}

func (m Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("Should I Buy It? 💸"))
	b.WriteString("\n")

	labels := [fieldCount]string{"Monthly income", "Item", "Price"}
	for i, ti := range m.inputs {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render(labels[i]), ti.View()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	tokens := m.pile.VisibleTokens()
	b.WriteString(s.Count.Render(fmt.Sprintf("%d bags", m.pile.Target())))
	b.WriteString("\n")
	b.WriteString(RenderPile(tokens, m.width, s))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Asking...")
	case m.verdict != "":
		b.WriteString(s.Advice.Render(m.renderVerdict()))
	}
	if m.toast != "" {
		b.WriteString("\n")
		b.WriteString(s.Toast.Render(m.toast))
	}

	b.WriteString("\n")
	b.WriteString(s.Footer.Render("tab: next field • enter: ask • esc: quit"))
	return b.String()
}

func (m Model) renderVerdict() string {
	if m.renderer == nil {
		return m.verdict
	}
	out, err := m.renderer.Render(m.verdict)
	if err != nil {
		return m.verdict
	}
	return strings.TrimSpace(out)
}
