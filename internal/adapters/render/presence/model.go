package presence

import (
	"cmp"
	"errors"
	"io"
	"slices"

	"github.com/bnema/dindex-chat/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final roster model type")

// rosterMsg carries the active users in display order.
type rosterMsg struct {
	users []application.ActiveUser
}

// rosterModel lays out one presence snapshot and quits.
type rosterModel struct {
	snapshot []application.ActiveUser
	opts     RenderOptions
	styles   styles
	view     string
}

func newRosterModel(snapshot []application.ActiveUser, opts RenderOptions) rosterModel {
	return rosterModel{
		snapshot: snapshot,
		opts:     opts,
		styles:   newStyles(),
	}
}

func (m rosterModel) Init() tea.Cmd {
	snapshot := m.snapshot
	self := m.opts.Self
	return func() tea.Msg {
		return rosterMsg{users: rosterOrder(snapshot, self)}
	}
}

func (m rosterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	roster, ok := msg.(rosterMsg)
	if !ok {
		return m, nil
	}

	m.view = renderUsers(roster.users, m.opts, m.styles)
	return m, tea.Quit
}

func (m rosterModel) View() string {
	return m.view
}

// rosterOrder pins the local user first, then lists everyone else by how
// long they have been present, longest first. Users without a join time
// come last, by name.
func rosterOrder(users []application.ActiveUser, self string) []application.ActiveUser {
	ordered := slices.Clone(users)
	slices.SortStableFunc(ordered, func(a, b application.ActiveUser) int {
		if aSelf, bSelf := a.Username == self, b.Username == self; aSelf != bSelf {
			if aSelf {
				return -1
			}
			return 1
		}
		if aZero, bZero := a.Since.IsZero(), b.Since.IsZero(); aZero != bZero {
			if bZero {
				return -1
			}
			return 1
		}
		if c := a.Since.Compare(b.Since); c != 0 {
			return c
		}
		return cmp.Compare(a.Username, b.Username)
	})

	return ordered
}

// Render draws the active-user list.
func Render(users []application.ActiveUser, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newRosterModel(users, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(rosterModel)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
