package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"fauxterm/internal/messages"
	components "fauxterm/ui/components"
	"fauxterm/util"

	"github.com/nats-io/nats.go/jetstream"
	datastar "github.com/starfederation/datastar/sdk/go"
)

// RenderFunc renders one bus message into the SSE stream.
type RenderFunc func(ctx context.Context, msg jetstream.Msg, sse *datastar.ServerSentEventGenerator) error

// Renderer pairs a subject pattern with the function rendering its messages.
type Renderer struct {
	Pattern    string
	MatchFunc  func(string) bool
	RenderFunc RenderFunc
}

// newRenderer creates a renderer matching a specific subject pattern (with wildcards).
func newRenderer(pattern string, fn RenderFunc) Renderer {
	return Renderer{
		Pattern:    pattern,
		MatchFunc:  func(subj string) bool { return util.SubjectMatches(pattern, subj) },
		RenderFunc: fn,
	}
}

// newTypedRenderer decodes the JSON payload into T and invokes handler.
func newTypedRenderer[T any](pattern string, handler func(context.Context, jetstream.Msg, *datastar.ServerSentEventGenerator, T) error) Renderer {
	return newRenderer(pattern, func(ctx context.Context, msg jetstream.Msg, sse *datastar.ServerSentEventGenerator) error {
		var p T
		if err := json.NewDecoder(bytes.NewReader(msg.Data())).Decode(&p); err != nil {
			return fmt.Errorf("decode %T: %w", p, err)
		}
		return handler(ctx, msg, sse, p)
	})
}

// terminalRenderers are tried in order; the first match wins.
var terminalRenderers = []Renderer{
	newTypedRenderer(messages.TerminalExecutedSubjectPattern, renderExecuted),
}

// renderFor returns the renderer for subj.
func renderFor(subj string) (Renderer, bool) {
	for _, r := range terminalRenderers {
		if r.MatchFunc(subj) {
			return r, true
		}
	}
	return Renderer{}, false
}

func renderExecuted(ctx context.Context, msg jetstream.Msg, sse *datastar.ServerSentEventGenerator, evt messages.CommandExecutedEvent) error {
	if evt.ID == "" {
		// older events carry no ID; derive a stable one from the subject
		evt.ID = fmt.Sprintf("%s-%d", util.Token(msg.Subject(), 3), evt.ExecutedAt.UnixNano())
	}

	// 1. append the history row
	if err := sse.MergeFragmentTempl(
		components.HistoryRow(evt.ID, HostOS.PromptSymbol(), evt.Command, evt.Response().Display(), evt.ExitCode != 0),
		datastar.WithSelectorID("history"),
		datastar.WithMergeAppend(),
	); err != nil {
		return err
	}

	// 2. move the prompt to the new directory
	signals, err := json.Marshal(map[string]string{"cwd": evt.NewCwd})
	if err != nil {
		return err
	}
	return sse.MergeSignals(signals)
}
