package client

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fauxterm/internal/custom"
	"fauxterm/internal/messages"
	"fauxterm/internal/translate"
)

// QueueState is Idle or Running.
type QueueState int

const (
	Idle QueueState = iota
	Running
)

func (s QueueState) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// QueueConfig holds queue tunables.
type QueueConfig struct {
	// Timeout bounds one command, network included. Zero means no limit.
	Timeout time.Duration
	// MaxPending bounds the batches waiting behind the running one. Zero
	// means no limit.
	MaxPending int
	// Custom commands are answered locally. Nil sends everything.
	Custom *custom.Registry
}

// Outcome is what happened to one command of a batch.
type Outcome struct {
	Command  string
	Sent     string // command after translation; empty when answered locally
	Output   string // text shown in the history
	Response messages.ExecuteResponse
	Err      error
}

// Batch is one submission. Its commands run in order and the batch stops at
// the first command that fails to get a result.
type Batch struct {
	Commands []string
	Display  bool

	once     sync.Once
	done     chan struct{}
	outcomes []Outcome
	err      error
}

func newBatch(display bool, commands []string) *Batch {
	return &Batch{Commands: commands, Display: display, done: make(chan struct{})}
}

func (b *Batch) finish(err error) {
	b.once.Do(func() {
		b.err = err
		close(b.done)
	})
}

// Done is closed when the batch has settled.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Wait blocks until the batch settles and returns the outcome of every
// command that ran, plus the error that stopped the batch, if any.
func (b *Batch) Wait(ctx context.Context) ([]Outcome, error) {
	select {
	case <-b.done:
		return b.outcomes, b.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Queue runs commands one at a time, in submission order, and mirrors them
// into a State. Any number of goroutines may submit; a single consumer
// goroutine, started on demand, executes.
type Queue struct {
	gw  Sender
	st  *State
	cfg QueueConfig

	mu      sync.Mutex
	pending []*Batch
	running bool
	idle    chan struct{} // closed while Idle
	epoch   uint64        // bumped by Kill; stale results are dropped
	cancel  context.CancelFunc
}

// NewQueue returns an idle queue sending through gw.
func NewQueue(gw Sender, st *State, cfg QueueConfig) *Queue {
	idle := make(chan struct{})
	close(idle)
	return &Queue{gw: gw, st: st, cfg: cfg, idle: idle}
}

// SplitLine splits user input on ';' into trimmed, non-empty commands.
func SplitLine(line string) []string {
	var out []string
	for _, part := range strings.Split(line, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SubmitLine submits one line of input as a batch.
func (q *Queue) SubmitLine(line string, display bool) (*Batch, error) {
	return q.Submit(display, SplitLine(line)...)
}

// Submit enqueues commands as one batch. Blank commands are skipped; a batch
// with nothing left settles immediately.
func (q *Queue) Submit(display bool, commands ...string) (*Batch, error) {
	var cmds []string
	for _, c := range commands {
		if c = strings.TrimSpace(c); c != "" {
			cmds = append(cmds, c)
		}
	}
	b := newBatch(display, cmds)
	if len(cmds) == 0 {
		b.finish(nil)
		return b, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cfg.MaxPending > 0 && len(q.pending) >= q.cfg.MaxPending {
		return nil, ErrQueueFull
	}
	q.pending = append(q.pending, b)
	if !q.running {
		q.running = true
		q.idle = make(chan struct{})
		go q.drain()
	}
	return b, nil
}

// State reports whether a command is being processed.
func (q *Queue) State() QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return Running
	}
	return Idle
}

// WaitIdle blocks until the queue has nothing left to run.
func (q *Queue) WaitIdle(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill aborts the running command, fails every waiting batch with ErrKilled
// and resets the history to a single terminated notice. Results arriving for
// the aborted command are discarded.
func (q *Queue) Kill() {
	q.mu.Lock()
	q.epoch++
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	dropped := q.pending
	q.pending = nil
	q.st.Terminate(TerminatedNotice)
	q.mu.Unlock()

	for _, b := range dropped {
		b.finish(ErrKilled)
	}
	slog.Debug("queue: killed", "dropped", len(dropped))
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			close(q.idle)
			q.mu.Unlock()
			return
		}
		b := q.pending[0]
		q.pending = q.pending[1:]
		epoch := q.epoch
		q.mu.Unlock()

		q.runBatch(b, epoch)
	}
}

func (q *Queue) runBatch(b *Batch, epoch uint64) {
	for _, cmd := range b.Commands {
		out, err := q.run(b.Display, cmd, epoch)
		b.outcomes = append(b.outcomes, out)
		if err != nil {
			b.finish(err)
			return
		}
	}
	b.finish(nil)
}

// isClear reports whether cmd only resets the screen.
func isClear(cmd string) bool {
	return strings.EqualFold(cmd, "clear") || strings.EqualFold(cmd, "cls")
}

func (q *Queue) run(display bool, cmd string, epoch uint64) (Outcome, error) {
	out := Outcome{Command: cmd}

	if isClear(cmd) {
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.epoch != epoch {
			return out, ErrKilled
		}
		q.st.Clear()
		return out, nil
	}

	if q.cfg.Custom.IsCustom(cmd) {
		out.Output = q.cfg.Custom.Execute(context.Background(), cmd)
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.epoch != epoch {
			return out, ErrKilled
		}
		if display {
			q.st.Finish(q.st.Begin(cmd), out.Output)
		}
		return out, nil
	}

	q.mu.Lock()
	if q.epoch != epoch {
		q.mu.Unlock()
		return out, ErrKilled
	}
	var id string
	if display {
		id = q.st.Begin(cmd)
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.mu.Unlock()
	defer cancel()

	out.Sent = cmd
	if translate.ShouldTranslate(cmd) {
		out.Sent = translate.New(q.st.OS()).Translate(cmd)
	}
	resp, err := q.race(ctx, out.Sent)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.epoch != epoch {
		// killed while in flight
		return out, ErrKilled
	}
	q.cancel = nil

	if err != nil {
		out.Err = err
		out.Output = "Error: " + err.Error()
		if display {
			q.st.Finish(id, out.Output)
		}
		q.st.Notify(LevelError, out.Output)
		slog.Debug("queue: command failed", "cmd", cmd, "err", err)
		return out, err
	}

	out.Response = resp
	out.Output = resp.Display()
	q.st.SetDirectory(resp.NewCwd)
	if display {
		q.st.Finish(id, out.Output)
	}
	return out, nil
}

// race runs the gateway call against the queue timeout and cancellation.
func (q *Queue) race(ctx context.Context, command string) (messages.ExecuteResponse, error) {
	type reply struct {
		resp messages.ExecuteResponse
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		resp, err := q.gw.Send(ctx, command)
		ch <- reply{resp, err}
	}()

	var timeout <-chan time.Time
	if q.cfg.Timeout > 0 {
		t := time.NewTimer(q.cfg.Timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-timeout:
		return messages.ExecuteResponse{}, &TimeoutError{Op: "command", After: q.cfg.Timeout}
	case <-ctx.Done():
		return messages.ExecuteResponse{}, ErrKilled
	}
}
