package messages

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDecodeExecuteRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr string
	}{
		{name: "valid", body: `{"command":"ls -la"}`, want: "ls -la"},
		{name: "extra fields", body: `{"command":"pwd","source":"widget"}`, want: "pwd"},
		{name: "empty command", body: `{"command":""}`, want: ""},
		{name: "missing command", body: `{}`, wantErr: "invalid request"},
		{name: "wrong type", body: `{"command":42}`, wantErr: "invalid request"},
		{name: "not an object", body: `["ls"]`, wantErr: "invalid request"},
		{name: "malformed", body: `{"command":`, wantErr: "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := DecodeExecuteRequest([]byte(tt.body))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Command != tt.want {
				t.Fatalf("Command = %q, want %q", req.Command, tt.want)
			}
		})
	}
}

func TestExecuteResponseDisplay(t *testing.T) {
	tests := []struct {
		resp ExecuteResponse
		want string
	}{
		{ExecuteResponse{Stdout: "out", Stderr: "err"}, "err"},
		{ExecuteResponse{Stdout: "out"}, "out"},
		{ExecuteResponse{}, SuccessNotice},
	}
	for _, tt := range tests {
		if got := tt.resp.Display(); got != tt.want {
			t.Errorf("Display(%+v) = %q, want %q", tt.resp, got, tt.want)
		}
	}
}

func TestExecuteResponseWireNames(t *testing.T) {
	data, err := json.Marshal(ExecuteResponse{Stdout: "a", Stderr: "b", NewCwd: "/tmp"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"stdout":"a","stderr":"b","newCwd":"/tmp"}` {
		t.Fatalf("wire form = %s", data)
	}
}

func TestCommandExecutedEvent(t *testing.T) {
	evt := NewCommandExecutedEvent("3f2a-sid", "echo hi").
		WithOutput("hi\n", "", "/home").
		WithOutcome("shell", 0, 1500*time.Millisecond)

	if evt.ID == "" {
		t.Fatal("expected generated ID")
	}
	if got := evt.Subject(); got != "event.terminal.session.3f2a-sid.executed" {
		t.Fatalf("Subject = %q", got)
	}
	if evt.DurationMs != 1500 {
		t.Fatalf("DurationMs = %d", evt.DurationMs)
	}
	if err := evt.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r := evt.Response(); r.Stdout != "hi\n" || r.NewCwd != "/home" {
		t.Fatalf("Response = %+v", r)
	}

	data, _ := json.Marshal(evt)
	back, err := DecodeCommandExecutedEvent(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.ID != evt.ID || back.Command != "echo hi" {
		t.Fatalf("decoded %+v", back)
	}
}

func TestCommandExecutedEventRejectsBadSession(t *testing.T) {
	for _, sid := range []string{"", "a.b", "a*", "a >"} {
		evt := NewCommandExecutedEvent(sid, "ls")
		if err := evt.Validate(); err == nil {
			t.Errorf("session %q: expected validation error", sid)
		}
	}
}

func TestNopPublisherValidates(t *testing.T) {
	var p EventPublisher = NopPublisher{}
	if err := p.PublishEvent(context.Background(), NewCommandExecutedEvent("sid", "ls")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.PublishEvent(context.Background(), NewCommandExecutedEvent("bad.sid", "ls")); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCommandExecutedEventWithID(t *testing.T) {
	generated := NewCommandExecutedEvent("sid", "ls").ID
	tests := []struct {
		id   string
		kept bool
	}{
		{"c-1700000000000-3", true},
		{"", false},
		{"row 1", false},
		{"<script>", false},
		{strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		evt := NewCommandExecutedEvent("sid", "ls")
		before := evt.ID
		evt.WithID(tt.id)
		if tt.kept && evt.ID != tt.id {
			t.Errorf("id %q not applied, got %q", tt.id, evt.ID)
		}
		if !tt.kept && evt.ID != before {
			t.Errorf("invalid id %q replaced %q", tt.id, before)
		}
		if err := evt.Validate(); err != nil {
			t.Errorf("id %q: %v", tt.id, err)
		}
	}
	if len(generated) != 20 {
		t.Fatalf("generated id %q", generated)
	}
}
