package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// waitDelay bounds how long Wait blocks on pipes held open by grandchildren
// after the shell itself has exited or been killed.
const waitDelay = time.Second

// mergeEnv layers the environment of a subprocess:
//  1. OS env                 (highest)
//  2. dotenv file            (only if key is still unset)
//  3. overrides              (always win)
func mergeEnv(fileEnv, overrides map[string]string) map[string]string {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			out[parts[0]] = parts[1]
		}
	}
	for k, v := range fileEnv {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// mapToEnv converts map[string]string → []string{"k=v"} for exec.Cmd.Env.
func mapToEnv(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}

// environ builds the subprocess environment. color adds the hints that make
// CLI tools emit ANSI colors without a TTY.
func (e *Executor) environ(color bool) []string {
	var fileEnv map[string]string
	if e.cfg.EnvFile != "" {
		fileEnv, _ = godotenv.Read(e.cfg.EnvFile)
	}
	overrides := map[string]string{
		"LANG":   e.cfg.Locale + ".UTF-8",
		"LC_ALL": e.cfg.Locale + ".UTF-8",
	}
	if color {
		overrides["FORCE_COLOR"] = "1"
		overrides["TERM"] = "xterm-256color"
	}
	return mapToEnv(mergeEnv(fileEnv, overrides))
}

// capture runs cmd with separate raw stdout/stderr buffers.
func capture(cmd *exec.Cmd) (stdout, stderr []byte, err error) {
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	cmd.WaitDelay = waitDelay
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// finish applies the error taxonomy to a completed subprocess.
func (e *Executor) finish(ctx context.Context, res Result, err error) Result {
	if err == nil {
		return res
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.ExitCode = -1
		limit, _ := ctx.Value(timeoutKey{}).(time.Duration)
		res.Stderr = timeoutMessage(limit)
		return res
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if strings.TrimSpace(res.Stderr) == "" {
			res.Stderr = fmt.Sprintf("Process exited with code %d", res.ExitCode)
		}
		return res
	}
	res.ExitCode = -1
	res.Stderr = err.Error()
	return res
}

// runShell is the generic path: host shell, UTF-8 output, color hints.
func (e *Executor) runShell(ctx context.Context, s *Session, command string) Result {
	slog.Debug("executor: shell", "session", s.ID, "dir", s.Cwd(), "cmd", command)
	cmd := shellCommand(ctx, command)
	cmd.Dir = s.Cwd()
	cmd.Env = e.environ(true)

	stdout, stderr, err := capture(cmd)
	res := Result{
		Stdout: decode(stdout, unicode.UTF8),
		Stderr: decode(stderr, unicode.UTF8),
		Kind:   KindShell,
	}
	res = e.finish(ctx, res, err)
	if err != nil {
		slog.Debug("executor: shell failed", "session", s.ID, "cmd", command, "code", res.ExitCode, "err", err)
	}
	return res
}

// runEncoded runs a command whose output arrives in enc regardless of the
// UTF-8 hints, then normalizes line endings and control characters.
func (e *Executor) runEncoded(ctx context.Context, s *Session, command string, enc encoding.Encoding) Result {
	slog.Debug("executor: encoded", "session", s.ID, "dir", s.Cwd(), "cmd", command, "encoding", enc)
	cmd := shellCommand(ctx, command)
	cmd.Dir = s.Cwd()
	cmd.Env = e.environ(false)

	stdout, stderr, err := capture(cmd)
	res := Result{
		Stdout: normalize(decode(stdout, enc)),
		Stderr: normalize(decode(stderr, enc)),
		Kind:   KindEncoded,
	}
	return e.finish(ctx, res, err)
}
