package client

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoServer is returned when discovery tried every candidate port
	// without finding a fauxterm server.
	ErrNoServer = errors.New("no server found")
	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = errors.New("timed out")
	// ErrAborted is returned when the caller cancelled the request.
	ErrAborted = errors.New("request aborted")
	// ErrNetwork wraps transport failures between client and server.
	ErrNetwork = errors.New("network error")
	// ErrKilled fails batches dropped by Queue.Kill.
	ErrKilled = errors.New("process terminated")
	// ErrQueueFull is returned by Submit when MaxPending batches are waiting.
	ErrQueueFull = errors.New("command queue is full")
)

// TimeoutError reports a deadline hit either by the gateway ("request") or
// by the queue ("command").
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.After)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ServerError is a non-2xx answer from the server.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}
