// Package client is the terminal side of fauxterm: it finds the server, keeps
// the history and working directory of one terminal, and feeds commands to
// the server one at a time.
package client

import (
	"context"
	"fmt"
	"runtime"

	"fauxterm/internal/custom"
	"fauxterm/internal/translate"
)

// Terminal wires a gateway, a state and a queue from one Config.
type Terminal struct {
	Config  *Config
	Gateway *Gateway
	State   *State
	Queue   *Queue
}

// NewTerminal builds an idle terminal. Until Connect learns the server's OS,
// commands are translated for cfg.OS or, failing that, the local OS.
func NewTerminal(cfg *Config) *Terminal {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	os, ok := translate.Parse(cfg.OS)
	if !ok {
		os = translate.FromGOOS(runtime.GOOS)
	}
	gw := NewGateway(cfg.GatewayConfig())
	st := NewState(cfg, os)
	q := NewQueue(gw, st, QueueConfig{
		Timeout:    cfg.CommandTimeout(),
		MaxPending: cfg.MaxPending,
		Custom:     custom.Default(),
	})
	return &Terminal{Config: cfg, Gateway: gw, State: st, Queue: q}
}

// Connect discovers the server and adopts the OS and directory it reports.
// A configured OS takes precedence over the reported one.
func (t *Terminal) Connect(ctx context.Context) (string, error) {
	base, err := t.Gateway.Discover(ctx)
	if err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}
	_, info, _ := t.Gateway.Server()
	if _, forced := translate.Parse(t.Config.OS); !forced {
		if os, ok := translate.Parse(info.OS); ok {
			t.State.SetOS(os)
		}
	}
	t.State.SetDirectory(info.Cwd)
	return base, nil
}

// Prompt renders the prompt for the current state.
func (t *Terminal) Prompt() string {
	snap := t.State.Snapshot()
	symbol := snap.OSInfo.PromptSymbol() + " "
	if t.Config.PromptString != "" && t.Config.PromptString != "$ " {
		symbol = t.Config.PromptString
	}
	if t.Config.ShowPath && snap.CurrentDirectory != "" {
		return snap.CurrentDirectory + " " + symbol
	}
	return symbol
}
