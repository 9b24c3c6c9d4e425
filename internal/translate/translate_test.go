package translate

import (
	"strings"
	"testing"
)

func TestShouldTranslate(t *testing.T) {
	tests := []struct {
		cmd  string
		want bool
	}{
		{"ls", true},
		{"dir", true},
		{"ls -la", true},
		{"LS", true},
		{"tasklist /v", true},
		{"fsutil volume diskfree c:", true},
		{"npm -v", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		if got := ShouldTranslate(tt.cmd); got != tt.want {
			t.Errorf("ShouldTranslate(%q) = %v, want %v", tt.cmd, got, tt.want)
		}
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		os   OS
		cmd  string
		want string
	}{
		{Windows, "ls -la", "dir -la"},
		{Windows, "dir /s", "dir /s"},
		{Linux, "dir /tmp", "ls /tmp"},
		{MacOS, "type notes.txt", "cat notes.txt"},
		{Windows, "cat  'two  spaces'", "type  'two  spaces'"},
		{Windows, "df", "fsutil volume diskfree"},
		{Windows, "df c:", "fsutil volume diskfree c:"},
		{Linux, "fsutil volume diskfree /", "df /"},
		{Windows, "fsutil volume diskfree c:", "fsutil volume diskfree c:"},
		{Windows, "pwd", "echo %cd%"},
		{Linux, "pwd", "pwd"},
		{Windows, "mv a b", "move a b"},
		{Linux, "ren a b", "mv a b"},
		{Windows, "npm -v", "npm -v"},
		{Linux, "grep -r foo .", "grep -r foo ."},
	}
	for _, tt := range tests {
		got := New(tt.os).Translate(tt.cmd)
		if got != tt.want {
			t.Errorf("%s: Translate(%q) = %q, want %q", tt.os, tt.cmd, got, tt.want)
		}
	}
}

func TestTranslateNativeIsIdentity(t *testing.T) {
	for _, os := range []OS{Windows, MacOS, Linux} {
		tr := New(os)
		for _, e := range Table {
			native := e.Spelling.For(os)
			cmd := native + " arg"
			if got := tr.Translate(cmd); got != cmd {
				t.Errorf("%s: Translate(%q) = %q, want identity", os, cmd, got)
			}
		}
	}
}

func TestDetectOS(t *testing.T) {
	tests := map[string]OS{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64)":         Windows,
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)":   MacOS,
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36": Linux,
		"curl/8.0":                                           Windows,
	}
	for ua, want := range tests {
		if got := DetectOS(ua); got != want {
			t.Errorf("DetectOS(%q) = %s, want %s", ua, got, want)
		}
	}
}

func TestFromGOOS(t *testing.T) {
	if FromGOOS("windows") != Windows || FromGOOS("darwin") != MacOS || FromGOOS("freebsd") != Linux {
		t.Fatal("unexpected GOOS mapping")
	}
}

func TestPromptSymbol(t *testing.T) {
	for os, want := range map[OS]string{Windows: ">", MacOS: "%", Linux: "$"} {
		if got := os.PromptSymbol(); got != want {
			t.Errorf("%s: PromptSymbol = %q, want %q", os, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want OS
		ok   bool
	}{
		{"windows", Windows, true},
		{"Darwin", MacOS, true},
		{" linux ", Linux, true},
		{"plan9", "", false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Parse(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

// applyRules mirrors the rewrite the browser widget performs with Rules.
func applyRules(rules map[string]Rule, cmd string) string {
	trimmed := strings.TrimLeft(cmd, " \t")
	rule, ok := rules[head(trimmed)]
	if !ok {
		return cmd
	}
	rest := trimmed[len(firstField(trimmed)):]
	for _, p := range rule.Phrases {
		if hasWordPrefix(trimmed, p) {
			rest = trimmed[len(p):]
			break
		}
	}
	return rule.Replace + rest
}

func TestRulesMatchTranslate(t *testing.T) {
	cmds := []string{
		"", "   ", "git status", "LS -la", "  dir /b", "pwd", "cat a.txt",
		"fsutil volume diskfree c:", "FSUTIL VOLUME DISKFREE", "fsutil volume", "df -h",
		"echo %cd%", "echo hi", "kill 12", "ren a b", "clear",
	}
	for _, os := range []OS{Windows, MacOS, Linux} {
		rules := Rules(os)
		for _, e := range Table {
			cmds = append(cmds, e.Name, e.Name+" x", e.Spelling.For(os)+"  y")
		}
		for _, cmd := range cmds {
			if got, want := applyRules(rules, cmd), New(os).Translate(cmd); got != want {
				t.Errorf("%s: rules give %q for %q, Translate gives %q", os, got, cmd, want)
			}
		}
	}
}

func TestRulesPhrases(t *testing.T) {
	r := Rules(Linux)["fsutil"]
	if r.Replace != "df" || len(r.Phrases) != 1 || r.Phrases[0] != "fsutil volume diskfree" {
		t.Fatalf("fsutil rule = %+v", r)
	}
	if _, ok := Rules(Windows)["git"]; ok {
		t.Fatal("rule for a word outside the table")
	}
}
