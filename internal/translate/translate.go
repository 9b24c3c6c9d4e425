// Package translate maps logical command names to their equivalents on the
// operating system the commands will run on (ls → dir on Windows, and so on).
package translate

import (
	"slices"
	"strings"
)

// OS identifies a command dialect.
type OS string

const (
	Windows OS = "windows"
	MacOS   OS = "macos"
	Linux   OS = "linux"
)

// Spelling holds the native form of one logical command per OS.
type Spelling struct {
	Windows string
	MacOS   string
	Linux   string
}

// For returns the native form for os. Unknown OS values fall back to Linux.
func (s Spelling) For(os OS) string {
	switch os {
	case Windows:
		return s.Windows
	case MacOS:
		return s.MacOS
	default:
		return s.Linux
	}
}

func (s Spelling) all() []string { return []string{s.Windows, s.MacOS, s.Linux} }

// Entry is one row of the translation table.
type Entry struct {
	Name     string
	Spelling Spelling
}

// Table is the command mapping. Order matters: lookups prefer an exact key
// match and otherwise take the first row listing the word as a native form.
var Table = []Entry{
	{"type", Spelling{"type", "cat", "cat"}},
	{"cat", Spelling{"type", "cat", "cat"}},
	{"dir", Spelling{"dir", "ls", "ls"}},
	{"ls", Spelling{"dir", "ls", "ls"}},
	{"cd", Spelling{"cd", "cd", "cd"}},
	// cmd.exe prints the directory through %cd%; a bare "cd" would be
	// taken as a directory change by the executor.
	{"pwd", Spelling{"echo %cd%", "pwd", "pwd"}},
	{"mkdir", Spelling{"mkdir", "mkdir", "mkdir"}},
	{"del", Spelling{"del", "rm", "rm"}},
	{"rm", Spelling{"del", "rm", "rm"}},
	{"copy", Spelling{"copy", "cp", "cp"}},
	{"cp", Spelling{"copy", "cp", "cp"}},
	{"move", Spelling{"move", "mv", "mv"}},
	{"mv", Spelling{"move", "mv", "mv"}},
	{"ren", Spelling{"ren", "mv", "mv"}},
	{"cls", Spelling{"cls", "clear", "clear"}},
	{"clear", Spelling{"cls", "clear", "clear"}},
	{"echo", Spelling{"echo", "echo", "echo"}},
	{"findstr", Spelling{"findstr", "grep", "grep"}},
	{"grep", Spelling{"findstr", "grep", "grep"}},
	{"fsutil", Spelling{"fsutil volume diskfree", "df", "df"}},
	{"df", Spelling{"fsutil volume diskfree", "df", "df"}},
	{"tasklist", Spelling{"tasklist", "ps", "ps"}},
	{"ps", Spelling{"tasklist", "ps", "ps"}},
	{"taskkill", Spelling{"taskkill", "kill", "kill"}},
	{"kill", Spelling{"taskkill", "kill", "kill"}},
}

// head returns the lower-cased first whitespace-delimited word of cmd.
func head(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// leadingWord returns the first word of a (possibly multi-word) spelling.
func leadingWord(spelling string) string {
	if i := strings.IndexByte(spelling, ' '); i >= 0 {
		return spelling[:i]
	}
	return spelling
}

func lookup(word string) (Entry, bool) {
	if word == "" {
		return Entry{}, false
	}
	for _, e := range Table {
		if e.Name == word {
			return e, true
		}
	}
	for _, e := range Table {
		for _, native := range e.Spelling.all() {
			if leadingWord(native) == word {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// ShouldTranslate reports whether the first word of cmd is a key of the table
// or a native spelling for any OS.
func ShouldTranslate(cmd string) bool {
	_, ok := lookup(head(cmd))
	return ok
}

// Translator rewrites commands for one target OS.
type Translator struct {
	OS OS
}

// New returns a Translator for os.
func New(os OS) Translator { return Translator{OS: os} }

// Translate substitutes the leading command word with the native spelling for
// the translator's OS. Arguments are kept byte for byte. Commands that are not
// in the table are returned unchanged.
func (t Translator) Translate(cmd string) string {
	trimmed := strings.TrimLeft(cmd, " \t")
	entry, ok := lookup(head(trimmed))
	if !ok {
		return cmd
	}

	rest := trimmed[len(leadingWord(firstField(trimmed))):]
	// a multi-word spelling such as "fsutil volume diskfree" is consumed whole
	for _, native := range entry.Spelling.all() {
		if strings.Contains(native, " ") && hasWordPrefix(trimmed, native) {
			rest = trimmed[len(native):]
			break
		}
	}
	return entry.Spelling.For(t.OS) + rest
}

func firstField(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

func hasWordPrefix(s, prefix string) bool {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return false
	}
	return len(s) == len(prefix) || s[len(prefix)] == ' ' || s[len(prefix)] == '\t'
}

// Rule is the table resolved for one leading word and one target OS. A
// command whose lower-cased first word is the rule's key becomes Replace
// followed by the remaining text; when the command starts with one of
// Phrases, the whole phrase is consumed instead of the first word.
type Rule struct {
	Replace string   `json:"replace"`
	Phrases []string `json:"phrases,omitempty"`
}

// Rules flattens Table for os into a word-keyed map that front ends outside
// Go can apply with the same result as Translate.
func Rules(os OS) map[string]Rule {
	rules := make(map[string]Rule)
	add := func(word string) {
		word = strings.ToLower(word)
		if _, seen := rules[word]; seen {
			return
		}
		e, ok := lookup(word)
		if !ok {
			return
		}
		r := Rule{Replace: e.Spelling.For(os)}
		for _, native := range e.Spelling.all() {
			if strings.Contains(native, " ") && !slices.Contains(r.Phrases, native) {
				r.Phrases = append(r.Phrases, native)
			}
		}
		rules[word] = r
	}
	for _, e := range Table {
		add(e.Name)
		for _, native := range e.Spelling.all() {
			add(leadingWord(native))
		}
	}
	return rules
}

// DetectOS guesses the client OS from a browser user agent. It is a heuristic;
// callers that know the OS of the executing host should use FromGOOS instead.
func DetectOS(userAgent string) OS {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "win"):
		return Windows
	case strings.Contains(ua, "mac"):
		return MacOS
	case strings.Contains(ua, "linux"):
		return Linux
	}
	return Windows
}

// FromGOOS maps a runtime.GOOS value to a command dialect.
func FromGOOS(goos string) OS {
	switch goos {
	case "windows":
		return Windows
	case "darwin", "ios":
		return MacOS
	}
	return Linux
}

// PromptSymbol is the character a native shell of os ends its prompt with.
func (os OS) PromptSymbol() string {
	switch os {
	case Windows:
		return ">"
	case MacOS:
		return "%"
	}
	return "$"
}

// Parse maps a free-form OS name to a dialect. ok is false for unknown names.
func Parse(name string) (os OS, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "windows", "win", "win32":
		return Windows, true
	case "macos", "mac", "darwin", "osx":
		return MacOS, true
	case "linux":
		return Linux, true
	}
	return "", false
}
