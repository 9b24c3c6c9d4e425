package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"syscall"
)

// ListenAvailable binds the first free TCP port in [start, start+attempts)
// on host. Only "address in use" moves on to the next port; any other error
// is returned immediately.
func ListenAvailable(host string, start, attempts int) (net.Listener, int, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for port := start; port < start+attempts; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			if port != start {
				slog.Info("port in use, moved on", "requested", start, "port", port)
			}
			return ln, port, nil
		}
		if !isAddrInUse(err) {
			return nil, 0, fmt.Errorf("listen on port %d: %w", port, err)
		}
		lastErr = err
	}
	return nil, 0, fmt.Errorf("no free port in %d-%d: %w", start, start+attempts-1, lastErr)
}

func isAddrInUse(err error) bool {
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	msg := err.Error()
	// winsock reports WSAEADDRINUSE, which is not syscall.EADDRINUSE
	return strings.Contains(msg, "address already in use") ||
		strings.Contains(msg, "Only one usage of each socket address")
}
