package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"fauxterm/internal/messages"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// TerminalStream stores every terminal event so /events can replay a
// session's history.
const TerminalStream = "TERMINAL"

// terminalHistory bounds the replay per session subject.
const terminalHistory = 1000

// Events is the running event bus.
type Events struct {
	NC        *nats.Conn
	NS        *server.Server
	JS        jetstream.JetStream
	Publisher messages.EventPublisher

	tempDir string // removed by Close
}

// StartEvents runs the embedded NATS server and creates the TERMINAL stream.
// Without a StoreDir the server gets a temporary directory that Close removes.
func StartEvents(ctx context.Context, cfg EmbeddedServerConfig) (*Events, error) {
	runCfg := cfg
	var tempDir string
	if cfg.StoreDir == "" {
		// the server insists on a directory even for memory streams
		dir, err := os.MkdirTemp("", "fauxterm-js-")
		if err != nil {
			return nil, fmt.Errorf("embedded nats: %w", err)
		}
		tempDir, runCfg.StoreDir = dir, dir
	}

	nc, ns, _, err := RunEmbeddedServer(ctx, runCfg)
	if err != nil {
		removeDir(tempDir)
		return nil, fmt.Errorf("embedded nats: %w", err)
	}

	js, err := SetupStreams(ctx, nc, cfg)
	if err != nil {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
		removeDir(tempDir)
		return nil, err
	}
	slog.Info("event bus ready", "stream", TerminalStream, "subjects", messages.TerminalEventsSubject)

	return &Events{NC: nc, NS: ns, JS: js, Publisher: messages.NewPublisher(js), tempDir: tempDir}, nil
}

func removeDir(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("remove nats store", "dir", dir, "err", err)
	}
}

// SetupStreams initializes JetStream on nc and creates or updates the
// TERMINAL stream.
func SetupStreams(ctx context.Context, nc *nats.Conn, cfg EmbeddedServerConfig) (jetstream.JetStream, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	storage := jetstream.FileStorage
	if cfg.StoreDir == "" {
		storage = jetstream.MemoryStorage
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:              TerminalStream,
		Subjects:          []string{messages.TerminalEventsSubject},
		Storage:           storage,
		MaxAge:            cfg.EventMaxAge,
		MaxMsgsPerSubject: terminalHistory,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s stream: %w", TerminalStream, err)
	}
	return js, nil
}

// Close drains the client connection and stops the server.
func (e *Events) Close() {
	if e == nil {
		return
	}
	if err := e.NC.Drain(); err != nil {
		slog.Warn("nats drain", "err", err)
	}
	e.NS.Shutdown()
	e.NS.WaitForShutdown()
	removeDir(e.tempDir)
}
