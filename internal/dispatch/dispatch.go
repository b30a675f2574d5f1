// Package dispatch runs conversation turns off the UI loop.
//
// At most one turn is in flight. The worker goroutine hands its result back
// over a channel; only the consumer of that channel touches UI state, and it
// calls Settle once the result is applied.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

var (
	ErrEmptyInput   = errors.New("empty input")
	ErrTurnInFlight = errors.New("a turn is already in flight")
)

// Turner runs one conversation turn and always produces a reply.
type Turner interface {
	Send(ctx context.Context, text string) string
}

// Result is the outcome of one submitted turn.
type Result struct {
	Prompt  string
	Reply   string
	Elapsed time.Duration
}

type Dispatcher struct {
	turner   Turner
	results  chan Result
	inFlight atomic.Bool
	logger   *log.Logger
	// base is the parent context of every turn.
	base context.Context
}

type Option func(*Dispatcher)

func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithContext sets the parent context for turns. Cancelling it aborts
// outbound calls of the running turn.
func WithContext(ctx context.Context) Option {
	return func(d *Dispatcher) {
		if ctx != nil {
			d.base = ctx
		}
	}
}

func New(turner Turner, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		turner:  turner,
		results: make(chan Result, 1),
		logger:  log.New(io.Discard),
		base:    context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit starts a turn for text in a new goroutine. It returns immediately.
// text is passed on as typed; blank text is rejected.
func (d *Dispatcher) Submit(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	if !d.inFlight.CompareAndSwap(false, true) {
		return ErrTurnInFlight
	}
	d.logger.Debug("turn submitted", "bytes", len(text))
	go d.run(text)
	return nil
}

func (d *Dispatcher) run(text string) {
	start := time.Now()
	res := Result{Prompt: text}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("turn panicked", "panic", r)
			res.Reply = fmt.Sprintf("An error occurred: %v", r)
		}
		res.Elapsed = time.Since(start)
		d.results <- res
	}()
	res.Reply = d.turner.Send(d.base, text)
}

// Results delivers one Result per accepted Submit.
func (d *Dispatcher) Results() <-chan Result { return d.results }

// Settle re-enables submission. Call it after the result has been applied.
func (d *Dispatcher) Settle() { d.inFlight.Store(false) }

// InFlight reports whether a submitted turn has not been settled yet.
func (d *Dispatcher) InFlight() bool { return d.inFlight.Load() }

// Wait blocks for the next result and settles it.
func (d *Dispatcher) Wait(ctx context.Context) (Result, error) {
	select {
	case res := <-d.results:
		d.Settle()
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
