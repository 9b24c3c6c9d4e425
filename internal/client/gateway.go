package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"sync"
	"time"

	"fauxterm/internal/messages"
)

// Sender executes one command remotely.
type Sender interface {
	Send(ctx context.Context, command string) (messages.ExecuteResponse, error)
}

// GatewayConfig tells the gateway where to look for the server.
type GatewayConfig struct {
	Scheme    string // http unless set
	Host      string
	PortStart int
	PortCount int
	// Ports overrides PortStart/PortCount with an explicit candidate list.
	Ports            []int
	DiscoveryTimeout time.Duration
	RequestTimeout   time.Duration
}

func (c GatewayConfig) candidates() []int {
	if len(c.Ports) > 0 {
		return c.Ports
	}
	n := c.PortCount
	if n < 1 {
		n = 1
	}
	out := make([]int, 0, n)
	for p := c.PortStart; p < c.PortStart+n; p++ {
		out = append(out, p)
	}
	return out
}

// Gateway is the HTTP client of a fauxterm server. The first server found
// during discovery is used for the life of the gateway. Failed sends are
// never retried.
type Gateway struct {
	cfg    GatewayConfig
	client *http.Client

	mu      sync.Mutex
	base    string
	info    messages.Liveness
	session string
}

// NewGateway returns a gateway for cfg.
func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.DiscoveryTimeout <= 0 {
		cfg.DiscoveryTimeout = 500 * time.Millisecond
	}
	jar, _ := cookiejar.New(nil)
	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Jar: jar},
	}
}

// Discover finds the server, probing candidate ports in order. The result is
// cached; later calls return it without probing.
func (g *Gateway) Discover(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.base != "" {
		return g.base, nil
	}

	for _, port := range g.cfg.candidates() {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", ErrAborted, err)
		}
		base := g.cfg.Scheme + "://" + net.JoinHostPort(g.cfg.Host, strconv.Itoa(port))
		info, err := g.identify(ctx, base)
		if err != nil {
			slog.Debug("gateway: no fauxterm server", "url", base, "err", err)
			continue
		}
		slog.Debug("gateway: server found", "url", base, "os", info.OS)
		g.base, g.info, g.session = base, info, info.Session
		return base, nil
	}
	return "", ErrNoServer
}

func (g *Gateway) identify(ctx context.Context, base string) (messages.Liveness, error) {
	var info messages.Liveness

	ctx, cancel := context.WithTimeout(ctx, g.cfg.DiscoveryTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/", nil)
	if err != nil {
		return info, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return info, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return info, fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&info); err != nil {
		return info, err
	}
	if info.Message != messages.LivenessMessage {
		return info, fmt.Errorf("not a fauxterm server: %q", info.Message)
	}
	if info.Session == "" {
		info.Session = resp.Header.Get(messages.SessionHeader)
	}
	return info, nil
}

// Server returns the discovered base URL and what the server reported about
// itself. ok is false before a successful discovery.
func (g *Gateway) Server() (base string, info messages.Liveness, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.base, g.info, g.base != ""
}

// Send posts command to /execute.
func (g *Gateway) Send(ctx context.Context, command string) (messages.ExecuteResponse, error) {
	var out messages.ExecuteResponse

	base, err := g.Discover(ctx)
	if err != nil {
		return out, err
	}
	body, err := json.Marshal(messages.ExecuteRequest{Command: command})
	if err != nil {
		return out, err
	}

	reqCtx := ctx
	if g.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, g.cfg.RequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, base+"/execute", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	g.mu.Lock()
	if g.session != "" {
		req.Header.Set(messages.SessionHeader, g.session)
	}
	g.mu.Unlock()

	resp, err := g.client.Do(req)
	if err != nil {
		return out, g.classify(ctx, reqCtx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, g.classify(ctx, reqCtx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e messages.ErrorResponse
		_ = json.Unmarshal(data, &e)
		return out, &ServerError{Status: resp.StatusCode, Message: e.Error}
	}
	if sid := resp.Header.Get(messages.SessionHeader); sid != "" {
		g.mu.Lock()
		g.session = sid
		g.mu.Unlock()
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: invalid response: %v", ErrNetwork, err)
	}
	return out, nil
}

// classify maps a transport error onto the gateway error taxonomy.
func (g *Gateway) classify(parent, reqCtx context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		return fmt.Errorf("%w: %v", ErrAborted, parent.Err())
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		return &TimeoutError{Op: "request", After: g.cfg.RequestTimeout}
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
