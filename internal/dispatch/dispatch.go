// Package dispatch fans inbound trade intents out to one worker per
// instrument. Signals for the same instrument run strictly in arrival
// order; different instruments proceed in parallel.
package dispatch

import (
	"context"
	"errors"
	"sync"

	"tradewire/internal/logger"
	"tradewire/internal/types"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrQueueFull means the instrument's queue is at capacity; the caller
	// should reject the signal rather than block the transport.
	ErrQueueFull = errors.New("dispatch: instrument queue full")

	// ErrStopped means the dispatcher is shutting down.
	ErrStopped = errors.New("dispatch: stopped")
)

// Handler processes one intent to completion. Calls for the same
// instrument are never concurrent.
type Handler interface {
	Handle(ctx context.Context, intent types.TradeIntent) error
}

const defaultQueueSize = 8

// Dispatcher owns the per-instrument workers. Workers are spawned lazily
// on the first signal for an instrument and live until Close.
type Dispatcher struct {
	handler   Handler
	queueSize int

	mu      sync.Mutex
	queues  map[string]chan types.TradeIntent
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	grp    *errgroup.Group
}

// New builds a dispatcher around handler. queueSize <= 0 selects the
// default per-instrument depth.
func New(handler Handler, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	grp, ctx := errgroup.WithContext(ctx)
	return &Dispatcher{
		handler:   handler,
		queueSize: queueSize,
		queues:    map[string]chan types.TradeIntent{},
		ctx:       ctx,
		cancel:    cancel,
		grp:       grp,
	}
}

// Submit enqueues one intent for its instrument's worker. It never blocks:
// a full queue returns ErrQueueFull immediately.
func (d *Dispatcher) Submit(intent types.TradeIntent) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrStopped
	}
	q, ok := d.queues[intent.Symbol]
	if !ok {
		q = make(chan types.TradeIntent, d.queueSize)
		d.queues[intent.Symbol] = q
		d.spawn(intent.Symbol, q)
	}

	// The send stays under the lock so Close cannot close the channel
	// between the stopped check and the enqueue. It cannot block: the
	// default arm fires when the buffer is full.
	defer d.mu.Unlock()
	select {
	case q <- intent:
		return nil
	default:
		logger.Warnf("dispatch: %s queue full, signal %s dropped", intent.Symbol, intent.SignalID)
		return ErrQueueFull
	}
}

// spawn starts the worker loop for one instrument. Caller holds the lock.
func (d *Dispatcher) spawn(symbol string, q chan types.TradeIntent) {
	d.grp.Go(func() error {
		logger.Infof("dispatch: worker started for %s", symbol)
		for {
			select {
			case <-d.ctx.Done():
				return nil
			case intent, ok := <-q:
				if !ok {
					return nil
				}
				d.run(intent)
			}
		}
	})
}

// run executes one intent, converting handler panics and errors into log
// lines so a bad signal never takes the worker down.
func (d *Dispatcher) run(intent types.TradeIntent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("dispatch: %s handler panic on signal %s: %v",
				intent.Symbol, intent.SignalID, r)
		}
	}()
	if err := d.handler.Handle(d.ctx, intent); err != nil {
		logger.Errorf("dispatch: %s signal %s failed: %v", intent.Symbol, intent.SignalID, err)
		return
	}
	logger.Infof("dispatch: %s signal %s completed", intent.Symbol, intent.SignalID)
}

// Close stops accepting new signals, lets in-flight work drain, and waits
// for every worker to exit.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	err := d.grp.Wait()
	d.cancel()
	return err
}
