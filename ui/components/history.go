package components

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// HistoryRow renders one finished command: the echoed command line behind
// the host's prompt symbol, and its output. Failed commands get the error
// class.
func HistoryRow(id, symbol, command, output string, failed bool) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		class := "history-output"
		if failed {
			class += " error"
		}
		_, err := fmt.Fprintf(w,
			"<div class=\"history-row\" id=\"cmd-%s\"><div class=\"history-command\"><span class=\"prompt\">%s</span> %s</div><pre class=\"%s\">%s</pre></div>",
			templ.EscapeString(id), templ.EscapeString(symbol), templ.EscapeString(command), class, templ.EscapeString(output))
		return err
	})
}

// Prompt renders the input line.
func Prompt(symbol string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			"<form id=\"prompt\" class=\"prompt-line\" autocomplete=\"off\"><span class=\"cwd\" data-text=\"$cwd\"></span> <span class=\"prompt\">%s</span> <input id=\"command\" name=\"command\" autofocus spellcheck=\"false\"></form>",
			templ.EscapeString(symbol))
		return err
	})
}
