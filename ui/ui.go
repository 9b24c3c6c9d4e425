// Package ui holds the browser terminal page and its embedded assets.
package ui

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"fauxterm/internal/translate"
	components "fauxterm/ui/components"

	"github.com/a-h/templ"
)

//go:embed static
var StaticFS embed.FS

//go:embed static/favicon.svg
var FaviconSVG []byte

//go:embed docs
var DocsFS embed.FS

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-beta.11/bundles/datastar.js"

// Page is what the terminal page is rendered from.
type Page struct {
	OS      string
	Cwd     string
	Session string

	Rules          map[string]translate.Rule // command rewrites for OS
	CommandTimeout time.Duration             // zero means no limit
	Events         bool                      // history rows arrive over /events
}

func head(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="icon" href="/favicon.svg" type="image/svg+xml">
<link rel="stylesheet" href="/static/terminal.css">
<script type="module" src="%s"></script>
</head>
`, templ.EscapeString(title), datastarScript)
	return err
}

// Index renders the terminal widget. The widget reads its settings from the
// data attributes of the terminal element.
func Index(p Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := head(w, "fauxterm"); err != nil {
			return err
		}
		signals, err := json.Marshal(map[string]string{"cwd": p.Cwd})
		if err != nil {
			return err
		}
		symbol := "$"
		if os, ok := translate.Parse(p.OS); ok {
			symbol = os.PromptSymbol()
		}
		rules := p.Rules
		if rules == nil {
			rules = map[string]translate.Rule{}
		}
		rulesJSON, err := json.Marshal(rules)
		if err != nil {
			return err
		}
		stream := ""
		if p.Events {
			stream = " data-on-load=\"@get('/events')\""
		}
		if _, err := fmt.Fprintf(w,
			"<body data-signals='%s'>\n<main class=\"terminal\" data-session=\"%s\" data-symbol=\"%s\" data-timeout-ms=\"%d\" data-events=\"%t\" data-rules='%s'>\n<header class=\"terminal-bar\">fauxterm <a href=\"/docs\">help</a></header>\n<div id=\"history\"%s></div>\n",
			templ.EscapeString(string(signals)), templ.EscapeString(p.Session), templ.EscapeString(symbol),
			p.CommandTimeout.Milliseconds(), p.Events, templ.EscapeString(string(rulesJSON)), stream); err != nil {
			return err
		}
		if err := components.Prompt(symbol).Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, "\n</main>\n<script src=\"/static/terminal.js\"></script>\n</body>\n</html>\n")
		return err
	})
}

// DocsPage wraps rendered documentation in the page chrome.
func DocsPage(body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := head(w, "fauxterm help"); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "<body>\n<main class=\"docs\">\n"); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n</main>\n</body>\n</html>\n")
		return err
	})
}
