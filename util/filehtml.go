package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	hl "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
)

var (
	cache sync.Map // map[string]string, keyed by path

	markdown = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			hl.NewHighlighting(hl.WithStyle("github")), // inline colours
		),
	)
)

// MarkdownToHTML converts Markdown source to HTML.
func MarkdownToHTML(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// FileToHTML converts a Markdown or source-code file to ready-to-embed HTML.
//
//	path   – file path inside fsys
//	lang   – "" to auto-detect from extension, or override like "go", "sh"
//
// Results are cached per path for the life of the process.
func FileToHTML(path string, lang string, fsys fs.FS) templ.Component {
	if v, ok := cache.Load(path); ok {
		return templ.Raw(v.(string))
	}

	src, err := fs.ReadFile(fsys, path)
	if err != nil {
		return errorComponent(err)
	}

	if lang == "" {
		lang = strings.TrimPrefix(filepath.Ext(path), ".") // ".go" -> "go"
	}
	if lang != "" && lang != "md" && lang != "markdown" {
		// wrap in a fenced block so it gets highlighted
		src = append([]byte("```"+lang+"\n"), append(src, []byte("\n```")...)...)
	}

	htmlStr, err := MarkdownToHTML(src)
	if err != nil {
		return errorComponent(err)
	}
	cache.Store(path, htmlStr)
	return templ.Raw(htmlStr)
}

func errorComponent(err error) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, werr := fmt.Fprintf(w, "<p class=\"error\">%s</p>", templ.EscapeString(err.Error()))
		return werr
	})
}
