package client

import (
	"strings"
	"sync"

	"fauxterm/internal/translate"

	"github.com/rs/xid"
)

// TerminatedNotice replaces the history when a running command is killed.
const TerminatedNotice = "Process terminated"

// HistoryEntry is one row of the terminal.
type HistoryEntry struct {
	ID        string `json:"id"`
	Command   string `json:"command"`
	Output    string `json:"output"`
	IsLoading bool   `json:"isLoading"`
}

// Snapshot is an immutable copy of the terminal state.
type Snapshot struct {
	History          []HistoryEntry
	Open             bool
	Minimized        bool
	Fullscreen       bool
	CurrentDirectory string
	OSInfo           translate.OS
}

// Level grades a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a transient message for the user, such as a toast.
type Notification struct {
	Level   Level
	Message string
}

// State is the observable state of one terminal. Every change is pushed to
// subscribers as a Snapshot; no caller needs to poll.
type State struct {
	mu   sync.Mutex
	snap Snapshot
	cfg  *Config

	subs   map[int]*subscriber
	nextID int

	notes chan Notification
}

// NewState returns the initial state for cfg.
func NewState(cfg *Config, os translate.OS) *State {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &State{
		cfg: cfg,
		snap: Snapshot{
			Open:       cfg.ShowTerminal,
			Fullscreen: cfg.StartFullscreen,
			OSInfo:     os,
		},
		subs:  map[int]*subscriber{},
		notes: make(chan Notification, 16),
	}
}

type subscriber struct {
	ch   chan Snapshot
	done chan struct{}
}

// Subscribe calls fn with the latest snapshot after every change. fn runs on
// its own goroutine; when it falls behind, intermediate snapshots are
// skipped. The returned func stops the subscription.
func (s *State) Subscribe(fn func(Snapshot)) (cancel func()) {
	sub := &subscriber{ch: make(chan Snapshot, 1), done: make(chan struct{})}
	go func() {
		for {
			select {
			case snap := <-sub.ch:
				fn(snap)
			case <-sub.done:
				return
			}
		}
	}()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(sub.done)
		})
	}
}

// Notifications delivers transient messages. Messages are dropped when
// nobody reads them.
func (s *State) Notifications() <-chan Notification { return s.notes }

// Notify raises a transient message.
func (s *State) Notify(level Level, msg string) {
	select {
	case s.notes <- Notification{Level: level, Message: msg}:
	default:
	}
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *State) copyLocked() Snapshot {
	out := s.snap
	out.History = append([]HistoryEntry(nil), s.snap.History...)
	return out
}

// publishLocked pushes the current snapshot; the caller holds s.mu.
func (s *State) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.copyLocked()
	for _, sub := range s.subs {
		// keep only the newest pending snapshot
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- snap
	}
}

// Begin appends a loading entry for command and returns its ID.
func (s *State) Begin(command string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := xid.New().String()
	s.snap.History = append(s.snap.History, HistoryEntry{ID: id, Command: command, IsLoading: true})
	s.trimLocked()
	s.publishLocked()
	return id
}

// Finish sets the final output of entry id. It reports false when the entry
// no longer exists, e.g. after Clear or Terminate.
func (s *State) Finish(id, output string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.snap.History) - 1; i >= 0; i-- {
		if s.snap.History[i].ID == id {
			s.snap.History[i].Output = s.capOutput(output)
			s.snap.History[i].IsLoading = false
			s.publishLocked()
			return true
		}
	}
	return false
}

// Clear empties the history.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.History = nil
	s.publishLocked()
}

// Terminate replaces the history with a single finished notice entry.
func (s *State) Terminate(notice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.History = []HistoryEntry{{ID: xid.New().String(), Output: notice}}
	s.publishLocked()
}

// SetDirectory records the working directory reported by the server.
func (s *State) SetDirectory(dir string) {
	s.update(func(snap *Snapshot) bool {
		if dir == "" || dir == snap.CurrentDirectory {
			return false
		}
		snap.CurrentDirectory = dir
		return true
	})
}

// SetOS records the OS commands are translated for.
func (s *State) SetOS(os translate.OS) {
	s.update(func(snap *Snapshot) bool {
		if snap.OSInfo == os {
			return false
		}
		snap.OSInfo = os
		return true
	})
}

// OS returns the OS commands are translated for.
func (s *State) OS() translate.OS {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.OSInfo
}

// SetOpen shows or hides the terminal.
func (s *State) SetOpen(open bool) {
	s.update(func(snap *Snapshot) bool {
		if snap.Open == open {
			return false
		}
		snap.Open = open
		return true
	})
}

// ToggleVisibility flips the terminal's visibility, or sets it when force is
// non-nil, and returns the new value.
func (s *State) ToggleVisibility(force *bool) bool {
	var open bool
	s.update(func(snap *Snapshot) bool {
		open = !snap.Open
		if force != nil {
			open = *force
		}
		if open == snap.Open {
			return false
		}
		snap.Open = open
		return true
	})
	return open
}

// SetMinimized minimizes or restores the terminal.
func (s *State) SetMinimized(v bool) {
	s.update(func(snap *Snapshot) bool {
		if snap.Minimized == v {
			return false
		}
		snap.Minimized = v
		return true
	})
}

// SetFullscreen enters or leaves fullscreen.
func (s *State) SetFullscreen(v bool) {
	s.update(func(snap *Snapshot) bool {
		if snap.Fullscreen == v {
			return false
		}
		snap.Fullscreen = v
		return true
	})
}

func (s *State) update(fn func(*Snapshot) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn(&s.snap) {
		s.publishLocked()
	}
}

// trimLocked drops the oldest entries beyond MaxHistoryLength. Without
// KeepCommandHistory only the newest entry is kept.
func (s *State) trimLocked() {
	limit := s.cfg.MaxHistoryLength
	if !s.cfg.KeepCommandHistory {
		limit = 1
	}
	if limit > 0 && len(s.snap.History) > limit {
		s.snap.History = append([]HistoryEntry(nil), s.snap.History[len(s.snap.History)-limit:]...)
	}
}

// capOutput keeps the last MaxOutputLength lines of out.
func (s *State) capOutput(out string) string {
	limit := s.cfg.MaxOutputLength
	if limit <= 0 {
		return out
	}
	lines := strings.SplitAfter(out, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) <= limit {
		return out
	}
	return strings.Join(lines[len(lines)-limit:], "")
}
