// Package custom holds the commands answered from a static table instead of
// the OS shell. Both the executor and the client queue consult it.
package custom

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Command is one entry of the custom command table.
type Command interface {
	// Name returns the command name, e.g. "help".
	Name() string
	// Help returns a one-line description.
	Help() string
	// Execute returns the text shown for the command. args[0] is the name.
	Execute(ctx context.Context, args []string) string
}

// Registry resolves custom commands by their first word.
type Registry struct {
	commands map[string]Command
}

// NewRegistry builds a registry from cmds. Later entries replace earlier ones
// with the same name.
func NewRegistry(cmds ...Command) *Registry {
	r := &Registry{commands: make(map[string]Command, len(cmds))}
	for _, c := range cmds {
		r.commands[c.Name()] = c
	}
	return r
}

// Default returns the registry with help, about and getuserlang.
func Default() *Registry {
	r := NewRegistry(AboutCommand{}, UserLangCommand{})
	r.commands["help"] = &HelpCommand{registry: r}
	return r
}

// IsCustom reports whether the first word of cmd names a custom command.
func (r *Registry) IsCustom(cmd string) bool {
	if r == nil {
		return false
	}
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return false
	}
	_, ok := r.commands[fields[0]]
	return ok
}

// Execute runs the custom command named by the first word of cmd. It returns
// an empty string when cmd is not a custom command.
func (r *Registry) Execute(ctx context.Context, cmd string) string {
	if r == nil {
		return ""
	}
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	c, ok := r.commands[fields[0]]
	if !ok {
		return ""
	}
	return c.Execute(ctx, fields)
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HelpCommand lists the available commands.
type HelpCommand struct{ registry *Registry }

func (c *HelpCommand) Name() string { return "help" }
func (c *HelpCommand) Help() string { return "Show this help message" }
func (c *HelpCommand) Execute(ctx context.Context, args []string) string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, n := range c.registry.Names() {
		fmt.Fprintf(&b, "  %-13s - %s\n", n, c.registry.commands[n].Help())
	}
	fmt.Fprintf(&b, "  %-13s - %s\n", "cls | clear", "Clear terminal screen")
	b.WriteString("\nSeparate several commands with ';' to run them in order, e.g. help; about")
	return b.String()
}

// AboutCommand prints the version banner.
type AboutCommand struct{}

func (AboutCommand) Name() string { return "about" }
func (AboutCommand) Help() string { return "About this terminal" }
func (AboutCommand) Execute(ctx context.Context, args []string) string {
	return "Terminal Emulator v1.0\nBuilt with Go: a local command executor and a browser terminal widget"
}

type localeKey struct{}

// WithLocale attaches the caller's language tag to ctx. getuserlang reports it.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// Locale returns the language tag from ctx, then from LANG, then "en-US".
func Locale(ctx context.Context) string {
	if l, ok := ctx.Value(localeKey{}).(string); ok && l != "" {
		return l
	}
	if l := localeFromEnv(os.Getenv("LANG")); l != "" {
		return l
	}
	return "en-US"
}

// localeFromEnv turns "fr_FR.UTF-8" into "fr-FR".
func localeFromEnv(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "" || v == "C" || v == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(v, "_", "-")
}

// UserLangCommand reports the current user language.
type UserLangCommand struct{}

func (UserLangCommand) Name() string { return "getuserlang" }
func (UserLangCommand) Help() string { return "Show current user language" }
func (UserLangCommand) Execute(ctx context.Context, args []string) string {
	return "Current user language: " + Locale(ctx)
}
