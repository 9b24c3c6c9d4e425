package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fauxterm/internal/custom"
	"fauxterm/internal/executor"
	"fauxterm/internal/messages"
	"fauxterm/internal/platform"
)

func main() {
	appCfg := platform.LoadAppConfig()
	platform.InitLogger(appCfg.LogLevel)
	platform.InitMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := &platform.Service{
		Exec: executor.New(executor.Config{
			Timeout:   appCfg.ExecCfg.Timeout,
			EnvFile:   appCfg.ExecCfg.EnvFile,
			Custom:    custom.Default(),
			Encodings: executor.DefaultEncodings(),
		}),
		Sessions: executor.NewRegistry(appCfg.ExecCfg.StartDir, appCfg.ExecCfg.SessionIdle),
		Events:   messages.NopPublisher{},

		CommandTimeout: appCfg.ExecCfg.CommandTimeout,
	}

	// --- Run embedded NATS server ---
	if appCfg.Flags.Events {
		events, err := platform.StartEvents(ctx, *appCfg.NatsCfg)
		if err != nil {
			slog.Error("Failed to start event bus", "err", err)
			os.Exit(1)
		}
		defer events.Close()
		svc.Events, svc.JS = events.Publisher, events.JS
	}

	httpCfg := *appCfg.HTTPSrvCfg
	ln, port, err := platform.ListenAvailable(httpCfg.Host, httpCfg.Port, httpCfg.PortAttempts)
	if err != nil {
		slog.Error("No port available", "host", httpCfg.Host, "start", httpCfg.Port, "err", err)
		os.Exit(1)
	}
	slog.Info("Server listening", "url", "http://"+ln.Addr().String(), "port", port, "cwd", appCfg.ExecCfg.StartDir)

	router := platform.NewRouter(svc, platform.NewCookieStore(httpCfg.SessionKey), httpCfg)
	httpErrCh := platform.RunHTTPServer(ctx, ln, router, httpCfg)

	err = <-httpErrCh
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("HTTP server error", "err", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
