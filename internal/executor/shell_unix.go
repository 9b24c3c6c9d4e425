//go:build !windows

package executor

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/mattn/go-shellwords"
	"golang.org/x/text/encoding"
)

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	return exec.CommandContext(ctx, "/bin/sh", "-c", command)
}

// Unix tools honour LANG; nothing needs a legacy code page.
func hostEncodings() map[string]encoding.Encoding {
	return map[string]encoding.Encoding{}
}

// desktopOpener returns the program that opens URLs and files.
func desktopOpener() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}

func launcherCommand(ctx context.Context, verb, target string) (*exec.Cmd, error) {
	args, err := shellwords.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", verb, err)
	}
	program := verb
	switch verb {
	case "open", "xdg-open", "start", "explorer":
		program = desktopOpener()
	}
	return exec.CommandContext(ctx, program, args...), nil
}
