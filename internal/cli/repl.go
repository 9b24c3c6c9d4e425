package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fauxterm/internal/client"
)

const clearScreen = "\033[H\033[2J"

func newReplCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive terminal session",
		Long: `Read commands line by line and run them on the server.

Ctrl-C kills the running command and everything queued behind it.
Type exit or press Ctrl-D to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := opts.terminal(cmd)
			if err != nil {
				return err
			}

			interrupts := make(chan os.Signal, 1)
			signal.Notify(interrupts, os.Interrupt)
			defer signal.Stop(interrupts)
			go func() {
				for range interrupts {
					t.Queue.Kill()
				}
			}()

			return repl(cmd, t, cmd.InOrStdin(), isTerminal(cmd.InOrStdin()))
		},
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// repl runs lines from in until EOF or exit. The prompt is only shown when
// interactive.
func repl(cmd *cobra.Command, t *client.Terminal, in io.Reader, interactive bool) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	for {
		if interactive {
			fmt.Fprint(out, t.Prompt())
		}
		if !scanner.Scan() {
			if interactive {
				fmt.Fprintln(out)
			}
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		b, err := t.Queue.SubmitLine(line, true)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			continue
		}
		outs, err := b.Wait(cmd.Context())
		for _, o := range outs {
			if interactive && o.Output == "" && (strings.EqualFold(o.Command, "clear") || strings.EqualFold(o.Command, "cls")) {
				fmt.Fprint(out, clearScreen)
			}
		}
		printOutcomes(out, succeeded(outs))
		shown := drainNotifications(cmd.ErrOrStderr(), t.State)
		if err != nil {
			if errors.Is(err, client.ErrKilled) {
				fmt.Fprintln(out, client.TerminatedNotice)
				continue
			}
			if shown == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
		}
	}
}

// succeeded drops the outcomes whose error is reported as a notification.
func succeeded(outs []client.Outcome) []client.Outcome {
	kept := outs[:0:0]
	for _, o := range outs {
		if o.Err == nil {
			kept = append(kept, o)
		}
	}
	return kept
}

// drainNotifications prints the pending notifications and returns how many
// there were.
func drainNotifications(w io.Writer, st *client.State) int {
	n := 0
	for {
		select {
		case note := <-st.Notifications():
			fmt.Fprintln(w, note.Message)
			n++
		default:
			return n
		}
	}
}
