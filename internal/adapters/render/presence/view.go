package presence

import (
	"fmt"
	"time"

	"github.com/bnema/dindex-chat/internal/application"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// Self is the local username; it is marked in lists and messages.
	Self string
}

func renderUsers(users []application.ActiveUser, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Active users"),
		s.header.Render(fmt.Sprintf("users: %d", len(users))),
	}

	if len(users) == 0 {
		lines = append(lines, s.empty.Render("Nobody is connected."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, user := range users {
		lines = append(lines, userLine(user, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func userLine(user application.ActiveUser, opts RenderOptions, s styles) string {
	name := s.user.Render(user.Username)
	if user.Username == opts.Self {
		name = s.self.Render(user.Username) + " " + s.meta.Render("(you)")
	}

	parts := []string{s.marker.Render("●"), " ", name}
	if since := formatSince(user.Since, opts.Now); since != "" {
		parts = append(parts, " ", s.meta.Render(since))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// RenderEvent draws one chat line. Ignored events render as "".
func RenderEvent(event application.Event, opts RenderOptions) string {
	s := newStyles()

	switch event.Kind {
	case application.EventUserJoined:
		if !event.Changed {
			return ""
		}
		return s.joined.Render(fmt.Sprintf("→ %s joined", event.Username))
	case application.EventUserLeft:
		if !event.Changed {
			return ""
		}
		return s.left.Render(fmt.Sprintf("← %s left", event.Username))
	case application.EventMessageReceived:
		author := s.author
		if event.Username == opts.Self {
			author = s.self
		}
		return lipgloss.JoinHorizontal(
			lipgloss.Top,
			author.Render(event.Username+":"),
			" ",
			s.message.Render(event.Message),
		)
	default:
		return ""
	}
}

// RenderError draws a warning line for problems worth showing in the
// chat transcript.
func RenderError(err error) string {
	return newStyles().warning.Render("! " + err.Error())
}

func formatSince(since, now time.Time) string {
	if since.IsZero() || now.IsZero() {
		return ""
	}

	elapsed := now.Sub(since)
	switch {
	case elapsed < time.Minute:
		return "here just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("here for %dm", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("here for %dh%02dm", int(elapsed.Hours()), int(elapsed.Minutes())%60)
	default:
		return "here since " + since.Format("02 Jan 15:04")
	}
}
