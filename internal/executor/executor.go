// Package executor runs terminal commands on the host on behalf of a session.
//
// A command is dispatched to the first handler that claims it:
//
//   - custom commands (help, about, ...) answered from a static table
//   - cd, which only changes the session's working directory
//   - launcher verbs (open, start, explorer, xdg-open) that hand a URL or
//     path to a GUI helper
//   - commands whose output comes in a legacy code page on this host
//   - everything else, through the host shell with UTF-8 decoding
//
// Execute never fails: every error is folded into Result.Stderr and the
// session's working directory is always reported back.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"fauxterm/internal/custom"

	"golang.org/x/text/encoding"
)

// Kind names the dispatch branch that handled a command.
type Kind string

const (
	KindEmpty    Kind = "empty"
	KindCustom   Kind = "custom"
	KindCd       Kind = "cd"
	KindLauncher Kind = "launcher"
	KindEncoded  Kind = "encoded"
	KindShell    Kind = "shell"
)

const unknownErrorMessage = "An unknown error occurred"

// Result is the outcome of one command.
type Result struct {
	Stdout   string
	Stderr   string
	NewCwd   string
	Kind     Kind
	ExitCode int
	Duration time.Duration
}

// Failed reports whether the command ended in an error.
func (r Result) Failed() bool { return r.ExitCode != 0 || (r.Stderr != "" && r.Stdout == "") }

// Config holds executor tunables.
type Config struct {
	// Timeout bounds a single subprocess. Zero means no limit.
	Timeout time.Duration
	// Locale is used for the LANG/LC_ALL hints, e.g. "en_US".
	Locale string
	// EnvFile is a dotenv file layered under the process environment of
	// every subprocess. Missing files are ignored.
	EnvFile string
	// Custom is the custom command table. Nil disables custom commands.
	Custom *custom.Registry
	// Encodings maps a command name to the code page its output is decoded
	// from. Nil selects the host default.
	Encodings map[string]encoding.Encoding
	// Launchers lists the verbs handled by the launcher path. Nil selects
	// DefaultLaunchers.
	Launchers []string
}

// Executor dispatches raw command lines.
type Executor struct {
	cfg       Config
	encodings map[string]encoding.Encoding
	launchers map[string]bool
}

// New returns an Executor for cfg.
func New(cfg Config) *Executor {
	if cfg.Locale == "" {
		cfg.Locale = defaultLocale()
	}
	enc := cfg.Encodings
	if enc == nil {
		enc = DefaultEncodings()
	}
	verbs := cfg.Launchers
	if verbs == nil {
		verbs = DefaultLaunchers
	}
	launchers := make(map[string]bool, len(verbs))
	for _, v := range verbs {
		launchers[strings.ToLower(v)] = true
	}
	return &Executor{cfg: cfg, encodings: enc, launchers: launchers}
}

// Execute runs raw in the context of s.
func (e *Executor) Execute(ctx context.Context, s *Session, raw string) (res Result) {
	s.run.Lock()
	defer s.run.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("executor: panic", "session", s.ID, "cmd", raw, "panic", r)
			res = Result{Stderr: unknownErrorMessage, Kind: res.Kind, ExitCode: -1}
		}
		res.NewCwd = s.Cwd()
		res.Duration = time.Since(start)
	}()

	cmd := strings.TrimSpace(raw)
	if cmd == "" {
		return Result{Kind: KindEmpty}
	}
	word := firstWord(cmd)

	if e.cfg.Custom.IsCustom(cmd) {
		out := e.cfg.Custom.Execute(custom.WithLocale(ctx, strings.ReplaceAll(e.cfg.Locale, "_", "-")), cmd)
		return Result{Stdout: out, Kind: KindCustom}
	}

	if arg, ok := cdArgument(cmd); ok {
		return changeDirectory(s, arg)
	}

	if e.cfg.Timeout > 0 {
		// name the limit only when ours is the deadline that can fire first
		if dl, ok := ctx.Deadline(); !ok || time.Until(dl) > e.cfg.Timeout {
			ctx = context.WithValue(ctx, timeoutKey{}, e.cfg.Timeout)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	lower := strings.ToLower(word)
	if e.launchers[lower] {
		return e.launch(ctx, s, lower, strings.TrimSpace(cmd[len(word):]))
	}
	if enc, ok := e.encodings[lower]; ok {
		return e.runEncoded(ctx, s, cmd, enc)
	}
	return e.runShell(ctx, s, cmd)
}

func firstWord(cmd string) string {
	if i := strings.IndexAny(cmd, " \t"); i >= 0 {
		return cmd[:i]
	}
	return cmd
}

func defaultLocale() string {
	lang := os.Getenv("LANG")
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	if lang == "" || lang == "C" || lang == "POSIX" {
		return "en_US"
	}
	return strings.ReplaceAll(lang, "-", "_")
}

type timeoutKey struct{}

// timeoutMessage is reported when a subprocess outlives its deadline. A zero
// d means the deadline came from the caller.
func timeoutMessage(d time.Duration) string {
	if d <= 0 {
		return "Command timed out"
	}
	return fmt.Sprintf("Command timed out after %s", d)
}
