package platform

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"fauxterm/internal/executor"
	"fauxterm/internal/messages"
	"fauxterm/internal/translate"
	"fauxterm/ui"
	"fauxterm/util"

	"github.com/a-h/templ"
)

// maxBodyBytes bounds a POST /execute body.
const maxBodyBytes = 1 << 20

// publishTimeout bounds event publication after a command finished.
const publishTimeout = 2 * time.Second

// HostOS is the command dialect of this server.
var HostOS = translate.FromGOOS(runtime.GOOS)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messages.ErrorResponse{Error: msg})
}

// Health returns 200 OK.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Liveness answers GET /. Browsers get the terminal page; everything else gets
// the JSON marker clients look for during port discovery.
func Liveness(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := SessionID(r)
		cwd := svc.Sessions.Get(sid).Cwd()
		if wantsHTML(r) {
			WidgetLoads.WithLabelValues(string(translate.DetectOS(r.UserAgent()))).Inc()
			templ.Handler(ui.Index(ui.Page{
				OS:             string(HostOS),
				Cwd:            cwd,
				Session:        sid,
				Rules:          translate.Rules(HostOS),
				CommandTimeout: svc.CommandTimeout,
				Events:         svc.JS != nil,
			})).ServeHTTP(w, r)
			return
		}
		writeJSON(w, http.StatusOK, messages.Liveness{
			Message: messages.LivenessMessage,
			OS:      string(HostOS),
			Cwd:     cwd,
			Session: sid,
		})
	}
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

// Execute runs the posted command in the caller's session. Failed commands
// still answer 200; only malformed requests and panics produce an error status.
func Execute(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("execute: panic", "panic", rec)
				writeError(w, http.StatusInternalServerError, "An unknown error occurred")
			}
		}()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "could not read request body")
			return
		}
		req, err := messages.DecodeExecuteRequest(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		sid := SessionID(r)
		sess := svc.Sessions.Get(sid)
		res := svc.Exec.Execute(r.Context(), sess, req.Command)
		observeCommand(res)

		if res.Kind != executor.KindEmpty {
			slog.Info("command executed", "session", sid, "cmd", req.Command, "kind", res.Kind,
				"exit", res.ExitCode, "duration", res.Duration)
			svc.publish(sid, r.Header.Get(messages.CommandIDHeader), req.Command, res)
		}

		writeJSON(w, http.StatusOK, messages.ExecuteResponse{
			Stdout: res.Stdout,
			Stderr: res.Stderr,
			NewCwd: res.NewCwd,
		})
	}
}

func observeCommand(res executor.Result) {
	outcome := "ok"
	if res.Failed() {
		outcome = "error"
	}
	CommandsTotal.WithLabelValues(string(res.Kind), outcome).Inc()
	CommandDuration.WithLabelValues(string(res.Kind)).Observe(res.Duration.Seconds())
}

func (svc *Service) publish(sid, commandID, command string, res executor.Result) {
	if svc.Events == nil {
		return
	}
	evt := messages.NewCommandExecutedEvent(sid, command).
		WithID(commandID).
		WithOutput(res.Stdout, res.Stderr, res.NewCwd).
		WithOutcome(string(res.Kind), res.ExitCode, res.Duration)

	// the request context may already be gone when the client hung up
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := svc.Events.PublishEvent(ctx, evt); err != nil {
		slog.Warn("publish executed event", "session", sid, "err", err)
	}
}

// Docs renders the embedded help page.
func Docs(w http.ResponseWriter, r *http.Request) {
	body := util.FileToHTML("docs/help.md", "", ui.DocsFS)
	templ.Handler(ui.DocsPage(body)).ServeHTTP(w, r)
}
