//go:build windows

package executor

import (
	"context"
	"os/exec"
	"syscall"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// shellCommand hands the line to cmd.exe untouched; Go's argument quoting
// does not follow cmd.exe rules, so the command line is set verbatim.
func shellCommand(ctx context.Context, command string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "cmd.exe")
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine:    `cmd.exe /d /s /c "` + command + `"`,
		HideWindow: true,
	}
	return cmd
}

// Console builtins and the old file tools print in the OEM code page even
// after chcp 65001.
func hostEncodings() map[string]encoding.Encoding {
	return map[string]encoding.Encoding{
		"dir":  charmap.CodePage850,
		"tree": charmap.CodePage850,
		"type": charmap.CodePage437,
		"chcp": charmap.CodePage437,
		"fc":   charmap.CodePage437,
	}
}

func launcherCommand(ctx context.Context, verb, target string) (*exec.Cmd, error) {
	switch verb {
	case "start", "open", "xdg-open":
		// start is a cmd.exe builtin; the empty title keeps a quoted target
		// from being taken as the window title
		return shellCommand(ctx, `start "" `+target), nil
	}
	program := verb
	if verb == "explorer" {
		program = "explorer.exe"
	}
	cmd := exec.CommandContext(ctx, program)
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: program + " " + target, HideWindow: true}
	return cmd, nil
}
