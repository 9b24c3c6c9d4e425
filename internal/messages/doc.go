// Package messages holds the contracts shared by the fauxterm server and its
// clients.
//
// It defines:
//
//   - the HTTP wire types of POST /execute and the GET / liveness marker
//   - JSON-Schema validation of incoming request bodies
//   - terminal events published on NATS, their subjects and builders
//   - a type-safe publisher for those events
//
// # Subject Patterns
//
// Subjects come in two forms: pattern constants for consumers
// (e.g. "event.terminal.session.*.executed") and builder functions for
// publishers (TerminalExecutedSubject("abc") → "event.terminal.session.abc.executed").
//
// # Usage Example
//
//	evt := messages.NewCommandExecutedEvent(sid, "ls -la").
//	    WithOutput(res.Stdout, res.Stderr, res.NewCwd).
//	    WithOutcome(string(res.Kind), res.ExitCode, res.Duration)
//
//	publisher := messages.NewPublisher(js)
//	if err := publisher.PublishEvent(ctx, evt); err != nil {
//	    slog.Warn("publish", "err", err)
//	}
package messages
