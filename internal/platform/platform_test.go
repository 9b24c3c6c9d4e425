package platform

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"fauxterm/internal/custom"
	"fauxterm/internal/executor"
	"fauxterm/internal/messages"
	"fauxterm/internal/translate"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []messages.Event
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, evt messages.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newTestService(t *testing.T, startDir string) (*Service, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return &Service{
		Exec:     executor.New(executor.Config{Custom: custom.Default(), Locale: "en_US", Timeout: 10 * time.Second}),
		Sessions: executor.NewRegistry(startDir, 0),
		Events:   pub,
	}, pub
}

func newTestServer(t *testing.T, svc *Service) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(svc, NewCookieStore(""), HTTPServerConfig{}))
	t.Cleanup(srv.Close)
	return srv
}

func postExecute(t *testing.T, srv *httptest.Server, sid, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/execute", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.Header.Set(SessionHeader, sid)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf strings.Builder
	if _, err := bufio.NewReader(resp.Body).WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return resp, []byte(buf.String())
}

func TestLivenessJSON(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestService(t, dir)
	srv := newTestServer(t, svc)

	resp, err := srv.Client().Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var live messages.Liveness
	if err := json.NewDecoder(resp.Body).Decode(&live); err != nil {
		t.Fatal(err)
	}
	if live.Message != messages.LivenessMessage {
		t.Fatalf("Message = %q", live.Message)
	}
	if live.OS != string(HostOS) || live.Cwd != dir {
		t.Fatalf("unexpected liveness %+v", live)
	}
	if _, err := uuid.Parse(live.Session); err != nil {
		t.Fatalf("session %q is not a uuid", live.Session)
	}
	if resp.Header.Get(SessionHeader) != live.Session {
		t.Fatalf("session header %q, body %q", resp.Header.Get(SessionHeader), live.Session)
	}
	if len(resp.Cookies()) == 0 {
		t.Fatal("expected a session cookie")
	}
}

func TestLivenessHTML(t *testing.T) {
	svc, _ := newTestService(t, t.TempDir())
	svc.CommandTimeout = 45 * time.Second
	srv := newTestServer(t, svc)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf strings.Builder
	bufio.NewReader(resp.Body).WriteTo(&buf)
	if !strings.Contains(buf.String(), `id="history"`) {
		t.Fatalf("expected terminal page, got %s", buf.String())
	}
	for _, want := range []string{
		`data-timeout-ms="45000"`,
		`data-events="false"`,
		`data-symbol="` + strings.ReplaceAll(HostOS.PromptSymbol(), ">", "&gt;") + `"`,
		`&#34;ls&#34;:{&#34;replace&#34;:&#34;` + translate.New(HostOS).Translate("ls") + `&#34;}`,
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("page missing %s", want)
		}
	}
	if strings.Contains(buf.String(), "@get('/events')") {
		t.Error("page subscribes to /events without an event bus")
	}
}

func TestWidgetLoadsCountedByClientOS(t *testing.T) {
	svc, _ := newTestService(t, t.TempDir())
	srv := newTestServer(t, svc)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4)")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf strings.Builder
	bufio.NewReader(resp.Body).WriteTo(&buf)
	if !strings.Contains(buf.String(), `fauxterm_widget_page_loads_total{client_os="macos"}`) {
		t.Fatalf("metrics missing the widget load:\n%s", buf.String())
	}
}

func TestExecutePublishesClientCommandID(t *testing.T) {
	svc, pub := newTestService(t, t.TempDir())
	srv := newTestServer(t, svc)

	for _, id := range []string{"c-42-1", "not valid!"} {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/execute", strings.NewReader(`{"command":"about"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(messages.CommandIDHeader, id)
		resp, err := srv.Client().Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 2 {
		t.Fatalf("published %d events", len(pub.events))
	}
	if id := pub.events[0].(*messages.CommandExecutedEvent).ID; id != "c-42-1" {
		t.Fatalf("event id = %q, want the client id", id)
	}
	if id := pub.events[1].(*messages.CommandExecutedEvent).ID; id == "not valid!" || id == "" {
		t.Fatalf("event id = %q, want a generated id", id)
	}
}

func TestExecuteCustomCommand(t *testing.T) {
	svc, pub := newTestService(t, t.TempDir())
	srv := newTestServer(t, svc)

	resp, body := postExecute(t, srv, "", `{"command":"about"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	var out messages.ExecuteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Stdout, "Terminal Emulator") || out.Stderr != "" {
		t.Fatalf("unexpected response %+v", out)
	}
	if pub.count() != 1 {
		t.Fatalf("published %d events, want 1", pub.count())
	}
}

func TestExecuteEmptyCommandPublishesNothing(t *testing.T) {
	svc, pub := newTestService(t, t.TempDir())
	srv := newTestServer(t, svc)

	resp, _ := postExecute(t, srv, "", `{"command":"   "}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if pub.count() != 0 {
		t.Fatalf("published %d events, want 0", pub.count())
	}
}

func TestExecuteRejectsBadRequests(t *testing.T) {
	svc, _ := newTestService(t, t.TempDir())
	srv := newTestServer(t, svc)

	for _, body := range []string{`not json`, `{}`, `{"command":1}`} {
		resp, data := postExecute(t, srv, "", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d", body, resp.StatusCode)
			continue
		}
		var e messages.ErrorResponse
		if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
			t.Errorf("%s: body %s is not an error response", body, data)
		}
	}
}

func TestExecuteKeepsDirectoryPerSession(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	svc, _ := newTestService(t, dir)
	srv := newTestServer(t, svc)

	a, b := uuid.NewString(), uuid.NewString()

	_, body := postExecute(t, srv, a, `{"command":"cd sub"}`)
	var out messages.ExecuteResponse
	json.Unmarshal(body, &out)
	if out.NewCwd != filepath.Join(dir, "sub") {
		t.Fatalf("after cd: %+v", out)
	}

	_, body = postExecute(t, srv, a, `{"command":"cd /nonexistent-fauxterm-dir"}`)
	json.Unmarshal(body, &out)
	if out.NewCwd != filepath.Join(dir, "sub") || !strings.Contains(out.Stderr, "no such file or directory") {
		t.Fatalf("failed cd: %+v", out)
	}

	_, body = postExecute(t, srv, b, `{"command":"help"}`)
	json.Unmarshal(body, &out)
	if out.NewCwd != dir {
		t.Fatalf("other session moved: %+v", out)
	}
}

func TestHealthAndDocs(t *testing.T) {
	svc, _ := newTestService(t, t.TempDir())
	srv := newTestServer(t, svc)

	resp, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	resp, err = srv.Client().Get(srv.URL + "/docs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf strings.Builder
	bufio.NewReader(resp.Body).WriteTo(&buf)
	if !strings.Contains(buf.String(), "<h1") {
		t.Fatalf("docs not rendered: %s", buf.String())
	}
}

func TestEventsDisabled(t *testing.T) {
	svc, _ := newTestService(t, t.TempDir())
	srv := newTestServer(t, svc)

	resp, err := srv.Client().Get(srv.URL + "/events")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	svc, _ := newTestService(t, t.TempDir())
	srv := newTestServer(t, svc)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/execute", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("missing CORS headers: %v", resp.Header)
	}
}

func TestListenAvailableSkipsBusyPort(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	start := busy.Addr().(*net.TCPAddr).Port

	ln, port, err := ListenAvailable("127.0.0.1", start, 20)
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	if port <= start {
		t.Fatalf("port = %d, want > %d", port, start)
	}
}

func TestListenAvailableExhausted(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	start := busy.Addr().(*net.TCPAddr).Port

	if _, _, err := ListenAvailable("127.0.0.1", start, 1); err == nil {
		t.Fatal("expected error when the only candidate is busy")
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoadAppConfig(t *testing.T) {
	chdir(t, t.TempDir()) // no stray .env
	t.Setenv("FAUXTERM_PORT", "4100")
	t.Setenv("FAUXTERM_EXEC_TIMEOUT", "3s")
	t.Setenv("FAUXTERM_EVENTS", "false")
	t.Setenv("FAUXTERM_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("FAUXTERM_LOG_LEVEL", "debug")
	t.Setenv("FAUXTERM_PORT_ATTEMPTS", "lots")

	cfg := LoadAppConfig()
	if cfg.HTTPSrvCfg.Port != 4100 || cfg.HTTPSrvCfg.PortAttempts != 10 {
		t.Errorf("ports: %+v", cfg.HTTPSrvCfg)
	}
	if cfg.ExecCfg.Timeout != 3*time.Second {
		t.Errorf("timeout = %s", cfg.ExecCfg.Timeout)
	}
	if cfg.Flags.Events {
		t.Error("events should be disabled")
	}
	if got := cfg.HTTPSrvCfg.CORSOrigins; len(got) != 2 || got[1] != "http://b.test" {
		t.Errorf("origins = %q", got)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("level = %v", cfg.LogLevel)
	}
	if cfg.HTTPSrvCfg.EnableTLS {
		t.Error("TLS enabled without cert")
	}
}

func TestLoadAppConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FAUXTERM_HOST=0.0.0.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FAUXTERM_HOST", "")
	os.Unsetenv("FAUXTERM_HOST")

	cfg := LoadAppConfig()
	if cfg.HTTPSrvCfg.Host != "0.0.0.0" {
		t.Fatalf("Host = %q", cfg.HTTPSrvCfg.Host)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEventBusReplaysSessionHistory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := StartEvents(ctx, EmbeddedServerConfig{InProcess: true, JetStream: true, EventMaxAge: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	defer events.Close()

	dir := t.TempDir()
	svc, _ := newTestService(t, dir)
	svc.Events = events.Publisher
	svc.JS = events.JS
	srv := newTestServer(t, svc)

	sid := uuid.NewString()
	postExecute(t, srv, sid, `{"command":"about"}`)

	stream, err := events.JS.Stream(ctx, TerminalStream)
	if err != nil {
		t.Fatal(err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.State.Msgs != 1 {
		t.Fatalf("stream holds %d messages, want 1", info.State.Msgs)
	}

	reqCtx, reqCancel := context.WithTimeout(ctx, 5*time.Second)
	defer reqCancel()
	req, _ := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL+"/events", nil)
	req.Header.Set(SessionHeader, sid)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if strings.Contains(sc.Text(), "history-row") {
			return
		}
	}
	t.Fatalf("history row never streamed: %v", sc.Err())
}

func TestSetupStreamsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	events, err := StartEvents(ctx, EmbeddedServerConfig{InProcess: true, JetStream: true})
	if err != nil {
		t.Fatal(err)
	}
	defer events.Close()

	if _, err := SetupStreams(ctx, events.NC, EmbeddedServerConfig{}); err != nil {
		t.Fatalf("second setup: %v", err)
	}
	stream, err := events.JS.Stream(ctx, TerminalStream)
	if err != nil {
		t.Fatal(err)
	}
	if got := stream.CachedInfo().Config.Storage; got != jetstream.MemoryStorage {
		t.Fatalf("storage = %v", got)
	}
}

func TestEventsCloseRemovesTempStore(t *testing.T) {
	events, err := StartEvents(context.Background(), EmbeddedServerConfig{InProcess: true, JetStream: true})
	if err != nil {
		t.Fatal(err)
	}
	dir := events.tempDir
	if dir == "" {
		t.Fatal("no temporary store directory")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("store directory missing while running: %v", err)
	}

	events.Close()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("store directory left behind: %v", err)
	}
}

func TestEventsKeepConfiguredStore(t *testing.T) {
	dir := t.TempDir()
	events, err := StartEvents(context.Background(), EmbeddedServerConfig{InProcess: true, JetStream: true, StoreDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	events.Close()
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("configured store removed: %v", err)
	}
}
