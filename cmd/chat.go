package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	presencerender "github.com/bnema/dindex-chat/internal/adapters/render/presence"
	"github.com/bnema/dindex-chat/internal/application"
	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/spf13/cobra"
)

const (
	leaveTimeout   = 10 * time.Second
	quitCommand    = "/quit"
	whoCommand     = "/who"
	chatHelpFooter = "Type a message and press enter. /who lists active users, /quit leaves."
)

var errListenLoopStuck = errors.New("listen loop did not stop after leaving")

func newChatCmd(app *app) *cobra.Command {
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join the chat, follow other users, and leave on /quit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, app, pollInterval)
		},
	}

	cmd.Flags().DurationVar(&pollInterval, "poll", 0, "Listen poll interval (default listen.poll_interval)")

	return cmd
}

// lockedWriter serializes output from the input loop and the listen loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) println(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := fmt.Fprintln(l.w, line)
	return err
}

func runChat(cmd *cobra.Command, app *app, pollInterval time.Duration) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store, app.logger)

	out := &lockedWriter{w: cmd.OutOrStdout()}
	renderOpts := presencerender.RenderOptions{Self: app.settings.Username}
	sink := func(event application.Event) error {
		line := presencerender.RenderEvent(event, renderOpts)
		if line == "" {
			return nil
		}
		return out.println(line)
	}

	session := application.NewSession(store, app.sessionConfig(pollInterval), sink, app.clock, app.logger)
	active, err := session.Start(ctx)
	if err != nil {
		return err
	}

	if err := printUsers(out, app, active); err != nil {
		return err
	}
	if err := out.println(chatHelpFooter); err != nil {
		return err
	}

	// The listen loop must outlive a signal so the leave record is
	// published before it ends.
	runDone := make(chan error, 1)
	go func() {
		runDone <- session.Run(context.WithoutCancel(ctx))
	}()

	inputDone := make(chan struct{})
	defer close(inputDone)
	lines := readLines(cmd.InOrStdin(), inputDone)

	finished, runErr := chatLoop(ctx, session, out, app, lines, runDone)

	leaveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaveTimeout)
	defer cancel()
	leaveErr := session.Leave(leaveCtx)

	if !finished {
		select {
		case runErr = <-runDone:
		case <-leaveCtx.Done():
			runErr = errListenLoopStuck
		}
	}

	return errors.Join(leaveErr, runErr)
}

// chatLoop handles user input until the user quits, input ends, a signal
// arrives, or the listen loop ends on its own. finished reports the last
// case, with the loop's error.
func chatLoop(ctx context.Context, session *application.Session, out *lockedWriter, app *app, lines <-chan string, runDone <-chan error) (bool, error) {
	for {
		select {
		case <-ctx.Done():
			return false, nil
		case err := <-runDone:
			if err != nil {
				_ = out.println(presencerender.RenderError(err))
			}
			return true, err
		case line, ok := <-lines:
			if !ok {
				return false, nil
			}

			switch text := strings.TrimSpace(line); text {
			case "":
			case quitCommand:
				return false, nil
			case whoCommand:
				if err := printUsers(out, app, session.ActiveUsers()); err != nil {
					return false, err
				}
			default:
				if err := session.Say(ctx, line); err != nil && !errors.Is(err, domain.ErrEmptyMessage) {
					app.logger.Error("send message", "error", err)
					_ = out.println(presencerender.RenderError(err))
				}
			}
		}
	}
}

func printUsers(out *lockedWriter, app *app, users []application.ActiveUser) error {
	rendered, err := app.userRenderer(users, presenceRenderOptions(app))
	if err != nil {
		return fmt.Errorf("render active users: %w", err)
	}

	return out.println(rendered)
}

// readLines streams input lines until EOF or until done is closed.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	return lines
}
