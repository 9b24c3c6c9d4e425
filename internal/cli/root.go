// Package cli implements fauxctl, a terminal client for a running fauxterm
// server.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"fauxterm/internal/client"
)

// ExitCodeError makes the process exit with Code without printing anything
// further.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string { return fmt.Sprintf("exit code %d", e.Code) }

type rootOptions struct {
	configPath string
	host       string
	port       int
	os         string
	verbose    bool
}

// NewRootCmd builds the fauxctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "fauxctl",
		Short: "Talk to a fauxterm server from the command line",
		Long: `fauxctl finds a fauxterm server on the local machine and runs commands
through it, translated for the server's operating system.

Commands separated by ';' run one after another; the first one that cannot
reach the server stops the rest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "fauxterm.yaml", "client config file")
	pf.StringVar(&opts.host, "host", "", "server host (overrides config)")
	pf.IntVarP(&opts.port, "port", "p", 0, "server port; skips the port scan")
	pf.StringVar(&opts.os, "os", "", "translate commands for this OS instead of the server's")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newExecCmd(opts),
		newReplCmd(opts),
		newPingCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// Execute runs fauxctl and returns any error.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	var exitErr *ExitCodeError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// loadConfig reads the config file and applies flag overrides.
func (o *rootOptions) loadConfig() (*client.Config, error) {
	cfg, err := client.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.host != "" {
		cfg.Host = o.host
	}
	if o.port > 0 {
		cfg.PortStart, cfg.PortCount = o.port, 1
	}
	if o.os != "" {
		cfg.OS = o.os
	}
	return cfg, cfg.Validate()
}

// terminal returns a connected terminal.
func (o *rootOptions) terminal(cmd *cobra.Command) (*client.Terminal, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	t := client.NewTerminal(cfg)
	if _, err := t.Connect(cmd.Context()); err != nil {
		if errors.Is(err, client.ErrNoServer) {
			return nil, fmt.Errorf("no fauxterm server on %s ports %d-%d; is it running?",
				cfg.Host, cfg.PortStart, cfg.PortStart+cfg.PortCount-1)
		}
		return nil, err
	}
	return t, nil
}
