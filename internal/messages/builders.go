package messages

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/xid"
)

// =============================================================================
// CONSTRUCTORS - Easy message creation
// =============================================================================

// NewCommandExecutedEvent creates an executed-command event with a fresh ID.
func NewCommandExecutedEvent(sessionID, command string) *CommandExecutedEvent {
	return &CommandExecutedEvent{
		ID:         xid.New().String(),
		SessionID:  sessionID,
		Command:    command,
		ExecutedAt: time.Now(),
	}
}

// WithID replaces the generated ID with one chosen by the client, so a front
// end can match the event to the row it already drew. Invalid IDs are ignored.
func (e *CommandExecutedEvent) WithID(id string) *CommandExecutedEvent {
	if commandIDRegex.MatchString(id) {
		e.ID = id
	}
	return e
}

// WithOutput sets the captured output and resulting directory.
func (e *CommandExecutedEvent) WithOutput(stdout, stderr, newCwd string) *CommandExecutedEvent {
	e.Stdout = stdout
	e.Stderr = stderr
	e.NewCwd = newCwd
	return e
}

// WithOutcome sets how the command was dispatched and how it ended.
func (e *CommandExecutedEvent) WithOutcome(kind string, exitCode int, d time.Duration) *CommandExecutedEvent {
	e.Kind = kind
	e.ExitCode = exitCode
	e.DurationMs = d.Milliseconds()
	return e
}

// =============================================================================
// VALIDATION
// =============================================================================

// session ids become a single subject token
var sessionIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// event ids end up as DOM ids and SSE event ids
var commandIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

func validateCommandExecutedEvent(e CommandExecutedEvent) error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !commandIDRegex.MatchString(e.ID) {
		return fmt.Errorf("id must be 1-64 alphanumeric characters, hyphens, or underscores")
	}
	if e.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if !sessionIDRegex.MatchString(e.SessionID) {
		return fmt.Errorf("session_id must contain only alphanumeric characters, hyphens, and underscores")
	}
	return nil
}

// =============================================================================
// PUBLISHER - Type-safe message publishing
// =============================================================================

// EventPublisher publishes validated events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, evt Event) error
}

// Publisher publishes events to JetStream.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a new type-safe publisher
func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishEvent publishes an event with validation
func (p *Publisher) PublishEvent(ctx context.Context, evt Event) error {
	if err := evt.Validate(); err != nil {
		return fmt.Errorf("event validation failed: %w", err)
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.js.Publish(ctx, evt.Subject(), data)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event. Used when the event bus is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(ctx context.Context, evt Event) error { return evt.Validate() }

// DecodeCommandExecutedEvent parses an event payload received from the bus.
func DecodeCommandExecutedEvent(data []byte) (CommandExecutedEvent, error) {
	var evt CommandExecutedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return evt, fmt.Errorf("decode executed event: %w", err)
	}
	return evt, nil
}
