package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// reconcileStep is one presence query: connect records first, then leaves.
type reconcileStep struct {
	kind    string
	pattern domain.Pattern
}

var reconcileSteps = []reconcileStep{
	{kind: "connect", pattern: domain.ConnectPattern()},
	{kind: "leave", pattern: domain.LeavePattern()},
}

type queryFunc func(context.Context, domain.Pattern) ([]domain.Record, error)

type stepDoneMsg struct {
	index   int
	records []domain.Record
	err     error
}

type reconcileSpinnerModel struct {
	ctx      context.Context
	spinner  spinner.Model
	query    queryFunc
	backends []string
	results  [][]domain.Record
	current  int
	err      error
	done     bool
}

func newReconcileSpinnerModel(ctx context.Context, backends []string, query queryFunc) reconcileSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return reconcileSpinnerModel{
		ctx:      ctx,
		spinner:  s,
		query:    query,
		backends: backends,
		results:  make([][]domain.Record, len(reconcileSteps)),
	}
}

func (m reconcileSpinnerModel) runStep(index int) tea.Cmd {
	ctx, query, step := m.ctx, m.query, reconcileSteps[index]
	return func() tea.Msg {
		records, err := query(ctx, step.pattern)
		return stepDoneMsg{index: index, records: records, err: err}
	}
}

func (m reconcileSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runStep(0))
}

func (m reconcileSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepDoneMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("query %s records: %w", reconcileSteps[msg.index].kind, msg.err)
			m.done = true
			return m, tea.Quit
		}

		m.results[msg.index] = msg.records
		m.current = msg.index + 1
		if m.current == len(reconcileSteps) {
			m.done = true
			return m, tea.Quit
		}
		return m, m.runStep(m.current)
	default:
		return m, nil
	}
}

func (m reconcileSpinnerModel) View() string {
	if m.done {
		return ""
	}

	line := fmt.Sprintf("%s querying %s records (%d/%d)",
		m.spinner.View(), reconcileSteps[m.current].kind, m.current+1, len(reconcileSteps))
	if len(m.backends) > 0 {
		line += " on " + strings.Join(m.backends, ", ")
	}
	if m.current > 0 {
		line += fmt.Sprintf(" · %d connect records so far", len(m.results[0]))
	}

	return line
}

// runReconcileSpinner runs the presence queries one after the other and
// shows which record kind and backends are being queried on output.
func runReconcileSpinner(ctx context.Context, output io.Writer, backends []string, query queryFunc) (connects, leaves []domain.Record, err error) {
	p := tea.NewProgram(
		newReconcileSpinnerModel(ctx, backends, query),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return nil, nil, err
	}

	result, ok := finalModel.(reconcileSpinnerModel)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}
	if result.err != nil {
		return nil, nil, result.err
	}

	return result.results[0], result.results[1], nil
}
