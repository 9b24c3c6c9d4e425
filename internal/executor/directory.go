package executor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// cdArgument reports whether cmd is a directory change and returns its
// argument. "cd.." is accepted the way cmd.exe accepts it.
func cdArgument(cmd string) (string, bool) {
	word := firstWord(cmd)
	switch {
	case strings.EqualFold(word, "cd"):
		arg := strings.TrimSpace(cmd[len(word):])
		// cmd.exe switches drives with /d; the path alone is enough here
		if len(arg) > 2 && strings.EqualFold(arg[:3], "/d ") {
			arg = strings.TrimSpace(arg[3:])
		}
		return unquote(arg), true
	case strings.EqualFold(word, "cd.."):
		return "..", true
	}
	return "", false
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// resolveDir computes the target of "cd arg" from cwd.
func resolveDir(cwd, arg string) (string, error) {
	switch {
	case arg == "" || arg == "~":
		return os.UserHomeDir()
	case strings.HasPrefix(arg, "~/") || strings.HasPrefix(arg, `~\`):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, arg[2:]), nil
	case arg == ".." || arg == "../" || arg == `..\`:
		return filepath.Dir(filepath.Clean(cwd)), nil
	case filepath.IsAbs(arg):
		return filepath.Clean(arg), nil
	}
	return filepath.Join(cwd, arg), nil
}

func changeDirectory(s *Session, arg string) Result {
	target, err := resolveDir(s.Cwd(), arg)
	if err != nil {
		return Result{Stderr: fmt.Sprintf("cd: %v", err), Kind: KindCd, ExitCode: 1}
	}

	info, err := os.Stat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Result{Stderr: "cd: no such file or directory: " + arg, Kind: KindCd, ExitCode: 1}
	case err != nil:
		return Result{Stderr: fmt.Sprintf("cd: %v", err), Kind: KindCd, ExitCode: 1}
	case !info.IsDir():
		return Result{Stderr: "cd: not a directory: " + arg, Kind: KindCd, ExitCode: 1}
	}

	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		target = resolved
	}
	s.setCwd(target)
	return Result{Stdout: "Directory changed to " + target, Kind: KindCd}
}
