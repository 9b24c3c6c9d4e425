package custom

import (
	"context"
	"strings"
	"testing"
)

func TestRegistryLookup(t *testing.T) {
	r := Default()
	for _, cmd := range []string{"help", "about", "getuserlang", "  help  extra"} {
		if !r.IsCustom(cmd) {
			t.Errorf("IsCustom(%q) = false", cmd)
		}
	}
	for _, cmd := range []string{"", "ls", "helper", "Help"} {
		if r.IsCustom(cmd) {
			t.Errorf("IsCustom(%q) = true", cmd)
		}
	}
	if got := r.Execute(context.Background(), "ls"); got != "" {
		t.Errorf("Execute(ls) = %q, want empty", got)
	}
}

func TestHelpListsCommands(t *testing.T) {
	out := Default().Execute(context.Background(), "help")
	for _, want := range []string{"about", "getuserlang", "help", "clear"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q:\n%s", want, out)
		}
	}
}

func TestUserLang(t *testing.T) {
	r := Default()
	ctx := WithLocale(context.Background(), "fr-CA")
	if got := r.Execute(ctx, "getuserlang"); got != "Current user language: fr-CA" {
		t.Errorf("got %q", got)
	}

	t.Setenv("LANG", "de_DE.UTF-8")
	if got := r.Execute(context.Background(), "getuserlang"); got != "Current user language: de-DE" {
		t.Errorf("got %q", got)
	}

	t.Setenv("LANG", "C")
	if got := Locale(context.Background()); got != "en-US" {
		t.Errorf("Locale = %q, want en-US", got)
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	if r.IsCustom("help") || r.Execute(context.Background(), "help") != "" {
		t.Fatal("nil registry must answer nothing")
	}
}
