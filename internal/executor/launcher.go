package executor

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
)

// DefaultLaunchers are the verbs that hand a URL or path to the desktop.
var DefaultLaunchers = []string{"open", "xdg-open", "start", "explorer"}

// launch runs a launcher verb. GUI helpers such as explorer.exe exit nonzero
// after a successful hand-off; a nonzero exit that printed nothing at all is
// therefore reported as success. Other command families never get this.
func (e *Executor) launch(ctx context.Context, s *Session, verb, target string) Result {
	slog.Debug("executor: launcher", "session", s.ID, "verb", verb, "target", target)
	cmd, err := launcherCommand(ctx, verb, target)
	if err != nil {
		return Result{Stderr: err.Error(), Kind: KindLauncher, ExitCode: -1}
	}
	cmd.Dir = s.Cwd()
	cmd.Env = e.environ(false)

	stdout, stderr, err := capture(cmd)
	res := Result{
		Stdout: decode(stdout, nil),
		Stderr: decode(stderr, nil),
		Kind:   KindLauncher,
	}

	silent := strings.TrimSpace(res.Stdout) == "" && strings.TrimSpace(res.Stderr) == ""
	var exitErr *exec.ExitError
	if silent && ctx.Err() == nil && (err == nil || errors.As(err, &exitErr)) {
		if name := strings.Trim(target, `"' `); name != "" {
			return Result{Stdout: "Opening " + name, Kind: KindLauncher}
		}
	}
	return e.finish(ctx, res, err)
}
