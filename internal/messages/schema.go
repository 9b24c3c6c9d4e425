package messages

import (
	"fmt"
	"time"
)

// =============================================================================
// CORE INTERFACES
// =============================================================================

// Message represents any message in the system
type Message interface {
	Subject() string
	Validate() error
}

// Event represents something that has happened
type Event interface {
	Message
	IsEvent()
	Timestamp() time.Time
}

// =============================================================================
// SUBJECT CONSTANTS - Single source of truth for all subjects
// =============================================================================

const (
	// TerminalEventsSubject covers every terminal event; the TERMINAL stream
	// is bound to it.
	TerminalEventsSubject = "event.terminal.>"

	TerminalExecutedSubjectPattern = "event.terminal.session.*.executed" // * = session id
)

// TerminalExecutedSubject returns the subject a session's executed commands
// are published on.
func TerminalExecutedSubject(sessionID string) string {
	return fmt.Sprintf("event.terminal.session.%s.executed", sessionID)
}

// =============================================================================
// HTTP WIRE CONTRACTS
// =============================================================================

// ExecuteRequest is the body of POST /execute.
type ExecuteRequest struct {
	Command string `json:"command"`
}

// ExecuteResponse is returned by POST /execute, even when the command failed.
type ExecuteResponse struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	NewCwd string `json:"newCwd"`
}

// Display returns the text a terminal shows for the response: stderr when
// present, then stdout, then a generic success notice.
func (r ExecuteResponse) Display() string {
	switch {
	case r.Stderr != "":
		return r.Stderr
	case r.Stdout != "":
		return r.Stdout
	}
	return SuccessNotice
}

// SuccessNotice is displayed for commands that printed nothing.
const SuccessNotice = "Command executed successfully"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionHeader carries the executor session ID for clients that cannot keep
// the session cookie, such as a widget embedded on another origin.
const SessionHeader = "X-Fauxterm-Session"

// CommandIDHeader lets a client name the event its command produces.
const CommandIDHeader = "X-Fauxterm-Command-ID"

// LivenessMessage marks a fauxterm server during port discovery.
const LivenessMessage = "Server is running!"

// Liveness is returned by GET /.
type Liveness struct {
	Message string `json:"message"`
	OS      string `json:"os,omitempty"`
	Cwd     string `json:"cwd,omitempty"`
	Session string `json:"session,omitempty"`
}

// =============================================================================
// TERMINAL DOMAIN - EVENTS
// =============================================================================

// CommandExecutedEvent records one command run by the executor.
type CommandExecutedEvent struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Command    string    `json:"command"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	NewCwd     string    `json:"new_cwd"`
	Kind       string    `json:"kind"`
	ExitCode   int       `json:"exit_code"`
	DurationMs int64     `json:"duration_ms"`
	ExecutedAt time.Time `json:"executed_at"`
}

func (e CommandExecutedEvent) Subject() string      { return TerminalExecutedSubject(e.SessionID) }
func (e CommandExecutedEvent) IsEvent()             {}
func (e CommandExecutedEvent) Timestamp() time.Time { return e.ExecutedAt }
func (e CommandExecutedEvent) Validate() error {
	return validateCommandExecutedEvent(e)
}

// Response projects the event onto the /execute wire shape.
func (e CommandExecutedEvent) Response() ExecuteResponse {
	return ExecuteResponse{Stdout: e.Stdout, Stderr: e.Stderr, NewCwd: e.NewCwd}
}
