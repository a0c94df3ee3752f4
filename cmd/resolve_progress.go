package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type candidateMsg struct {
	candidate string
}

type resolvedMsg struct {
	session domain.Session
	err     error
}

// resolveModel shows which catalog entry a resolution pass is trying and
// ends with the pass outcome.
type resolveModel struct {
	spinner   spinner.Model
	resolve   tea.Cmd
	candidate string
	tried     int
	session   domain.Session
	err       error
	done      bool

	okStyle   lipgloss.Style
	failStyle lipgloss.Style
	dimStyle  lipgloss.Style
}

func newResolveModel(resolve tea.Cmd) resolveModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return resolveModel{
		spinner:   s,
		resolve:   resolve,
		okStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		failStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		dimStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

func (m resolveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.resolve)
}

func (m resolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case candidateMsg:
		m.candidate = msg.candidate
		m.tried++
		return m, nil
	case resolvedMsg:
		m.done = true
		m.session = msg.session
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m resolveModel) View() string {
	if m.done {
		return m.outcome() + "\n"
	}
	if m.candidate == "" {
		return fmt.Sprintf("%s Reading endpoint catalog...", m.spinner.View())
	}

	return fmt.Sprintf("%s Resolving endpoint via %s %s", m.spinner.View(), m.candidate, m.dimStyle.Render(fmt.Sprintf("(candidate %d)", m.tried)))
}

func (m resolveModel) outcome() string {
	if m.err != nil {
		return m.failStyle.Render(fmt.Sprintf("Endpoint resolution failed after %d candidate(s)", m.tried))
	}

	who := "guest"
	if !m.session.User.IsGuest() {
		who = string(m.session.User.ID)
	}

	return m.okStyle.Render(fmt.Sprintf("Resolved %s as %s", m.session.BaseURL, who))
}

// runResolveProgress runs resolve while rendering candidate progress on
// output. observe installs the candidate callback for the duration of the
// pass.
func runResolveProgress(
	ctx context.Context,
	output io.Writer,
	observe func(func(candidate string)),
	resolve func(context.Context) (domain.Session, error),
) (domain.Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	resolveCmd := func() tea.Msg {
		session, err := resolve(ctx)
		return resolvedMsg{session: session, err: err}
	}

	p := tea.NewProgram(
		newResolveModel(resolveCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	observe(func(candidate string) {
		p.Send(candidateMsg{candidate: candidate})
	})
	defer observe(nil)

	finalModel, err := p.Run()
	if err != nil {
		return domain.Session{}, err
	}

	result, ok := finalModel.(resolveModel)
	if !ok {
		return domain.Session{}, fmt.Errorf("unexpected final resolve model type %T", finalModel)
	}
	if result.err != nil {
		return domain.Session{}, result.err
	}

	return result.session, nil
}
