package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"gopkg.in/yaml.v3"
)

// Config is the terminal configuration: widget options plus how to reach and
// pace the server.
type Config struct {
	// UI
	ShowTerminal    bool `yaml:"showTerminal" json:"showTerminal"`
	StartFullscreen bool `yaml:"startFullscreen" json:"startFullscreen"`
	DefaultHeight   int  `yaml:"defaultHeight" json:"defaultHeight"`
	DefaultWidth    int  `yaml:"defaultWidth,omitempty" json:"defaultWidth,omitempty"`
	MinHeight       int  `yaml:"minHeight" json:"minHeight"`
	MinWidth        int  `yaml:"minWidth" json:"minWidth"`

	// Behavior
	ShowExecutedCommands bool `yaml:"showExecutedCommands" json:"showExecutedCommands"`
	KeepCommandHistory   bool `yaml:"keepCommandHistory" json:"keepCommandHistory"`
	MaxHistoryLength     int  `yaml:"maxHistoryLength" json:"maxHistoryLength"`

	// Appearance
	Theme      string `yaml:"theme" json:"theme"`
	FontSize   int    `yaml:"fontSize" json:"fontSize"`
	FontFamily string `yaml:"fontFamily" json:"fontFamily"`

	// Prompt
	PromptString string `yaml:"promptString" json:"promptString"`
	ShowPath     bool   `yaml:"showPath" json:"showPath"`

	// Output
	MaxOutputLength int `yaml:"maxOutputLength" json:"maxOutputLength"`
	ScrollbackLimit int `yaml:"scrollbackLimit" json:"scrollbackLimit"`

	// Transport
	Host               string `yaml:"host" json:"host"`
	PortStart          int    `yaml:"portStart" json:"portStart"`
	PortCount          int    `yaml:"portCount" json:"portCount"`
	DiscoveryTimeoutMs int    `yaml:"discoveryTimeoutMs" json:"discoveryTimeoutMs"`
	RequestTimeoutSec  int    `yaml:"requestTimeoutSec" json:"requestTimeoutSec"`
	CommandTimeoutSec  int    `yaml:"commandTimeoutSec" json:"commandTimeoutSec"`
	MaxPending         int    `yaml:"maxPending" json:"maxPending"`
	// OS forces the command dialect instead of asking the server.
	OS string `yaml:"os,omitempty" json:"os,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ShowTerminal:         true,
		StartFullscreen:      false,
		DefaultHeight:        320,
		MinHeight:            200,
		MinWidth:             400,
		ShowExecutedCommands: true,
		KeepCommandHistory:   true,
		MaxHistoryLength:     100,
		Theme:                "dark",
		FontSize:             14,
		FontFamily:           "monospace",
		PromptString:         "$ ",
		ShowPath:             true,
		MaxOutputLength:      1000,
		ScrollbackLimit:      1000,

		Host:               "127.0.0.1",
		PortStart:          3001,
		PortCount:          10,
		DiscoveryTimeoutMs: 500,
		RequestTimeoutSec:  60,
		CommandTimeoutSec:  30,
		MaxPending:         64,
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file
// yields the defaults; unknown keys are an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := strictUnmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// strictUnmarshal decodes YAML into v, rejecting unknown fields. Empty input
// leaves v untouched.
func strictUnmarshal(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode YAML: %w", err)
	}
	return nil
}

// Patch applies a JSON merge patch (RFC 7386) such as
// {"showTerminal": false}. The config is unchanged when the result is invalid.
func (c *Config) Patch(patch []byte) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return fmt.Errorf("apply config patch: %w", err)
	}
	next := DefaultConfig()
	if err := json.Unmarshal(merged, next); err != nil {
		return fmt.Errorf("apply config patch: %w", err)
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("apply config patch: %w", err)
	}
	*c = *next
	return nil
}

// Reset restores the defaults.
func (c *Config) Reset() { *c = *DefaultConfig() }

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Theme {
	case "dark", "light", "system":
	default:
		return fmt.Errorf("theme: must be dark, light or system, got %q", c.Theme)
	}
	if c.PortStart < 1 || c.PortStart > 65535 {
		return fmt.Errorf("portStart: must be between 1 and 65535, got %d", c.PortStart)
	}
	if c.PortCount < 1 || c.PortStart+c.PortCount-1 > 65535 {
		return fmt.Errorf("portCount: range %d+%d exceeds the port space", c.PortStart, c.PortCount)
	}
	for name, v := range map[string]int{
		"maxHistoryLength":   c.MaxHistoryLength,
		"maxOutputLength":    c.MaxOutputLength,
		"scrollbackLimit":    c.ScrollbackLimit,
		"discoveryTimeoutMs": c.DiscoveryTimeoutMs,
		"requestTimeoutSec":  c.RequestTimeoutSec,
		"commandTimeoutSec":  c.CommandTimeoutSec,
		"maxPending":         c.MaxPending,
	} {
		if v < 0 {
			return fmt.Errorf("%s: must be non-negative, got %d", name, v)
		}
	}
	if c.MinHeight > 0 && c.DefaultHeight > 0 && c.DefaultHeight < c.MinHeight {
		return fmt.Errorf("defaultHeight: %d is below minHeight %d", c.DefaultHeight, c.MinHeight)
	}
	return nil
}

// GatewayConfig derives the gateway settings.
func (c *Config) GatewayConfig() GatewayConfig {
	return GatewayConfig{
		Host:             c.Host,
		PortStart:        c.PortStart,
		PortCount:        c.PortCount,
		DiscoveryTimeout: time.Duration(c.DiscoveryTimeoutMs) * time.Millisecond,
		RequestTimeout:   time.Duration(c.RequestTimeoutSec) * time.Second,
	}
}

// CommandTimeout is the queue-level deadline of one command.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSec) * time.Second
}
