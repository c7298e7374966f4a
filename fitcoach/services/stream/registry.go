// Package stream keeps an in-process registry of model-invocation streams so
// a disconnected client can re-attach to one by id. Producers run on
// supervised background goroutines detached from the client connection;
// subscribers replay everything produced so far and then follow live events.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"fitcoach/fitcoach/services/llm"
)

// Producer drives one model invocation, calling emit for every generation
// event. The context carries the wall-clock ceiling for the whole turn.
type Producer func(ctx context.Context, emit func(llm.Event))

var ErrDuplicateStream = errors.New("stream id already registered")

type entry struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []llm.Event
	done   bool
}

func newEntry() *entry {
	e := &entry{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *entry) publish(ev llm.Event) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
	e.cond.Broadcast()
}

func (e *entry) finish() {
	e.mu.Lock()
	e.done = true
	e.mu.Unlock()
	e.cond.Broadcast()
}

func (e *entry) isDone() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// subscribe returns a channel that yields the entry's events from the
// beginning, following live production until the entry finishes or ctx ends.
func (e *entry) subscribe(ctx context.Context) <-chan llm.Event {
	out := make(chan llm.Event)
	stop := make(chan struct{})

	// Wake the reader out of cond.Wait when the subscriber goes away.
	go func() {
		select {
		case <-ctx.Done():
			e.cond.Broadcast()
		case <-stop:
		}
	}()

	go func() {
		defer close(out)
		defer close(stop)
		i := 0
		for {
			e.mu.Lock()
			for {
				if ctx.Err() != nil {
					e.mu.Unlock()
					return
				}
				if i < len(e.events) {
					break
				}
				if e.done {
					e.mu.Unlock()
					return
				}
				e.cond.Wait()
			}
			ev := e.events[i]
			i++
			e.mu.Unlock()

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

type Registry struct {
	mu          sync.Mutex
	streams     map[string]*entry
	order       []string
	maxRetained int
	timeout     time.Duration
	wg          sync.WaitGroup
}

func NewRegistry(timeout time.Duration, maxRetained int) *Registry {
	if maxRetained <= 0 {
		maxRetained = 1024
	}
	return &Registry{
		streams:     make(map[string]*entry),
		maxRetained: maxRetained,
		timeout:     timeout,
	}
}

// Run registers streamID and spawns produce on a background goroutine whose
// context is detached from the caller: a client disconnect stops the returned
// subscription only, never the production or what happens on its completion.
// A stream id is producible exactly once.
func (r *Registry) Run(ctx context.Context, streamID string, produce Producer) (<-chan llm.Event, error) {
	r.mu.Lock()
	if _, exists := r.streams[streamID]; exists {
		r.mu.Unlock()
		return nil, ErrDuplicateStream
	}
	e := newEntry()
	r.streams[streamID] = e
	r.order = append(r.order, streamID)
	r.pruneLocked()
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer e.finish()
		prodCtx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		produce(prodCtx, e.publish)
	}()

	return e.subscribe(ctx), nil
}

// Resume re-attaches to an existing stream, replaying recorded events and
// following live ones. The model is never re-invoked. ok is false when the
// id is unknown to this process.
func (r *Registry) Resume(ctx context.Context, streamID string) (<-chan llm.Event, bool) {
	r.mu.Lock()
	e, ok := r.streams[streamID]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return e.subscribe(ctx), true
}

// Wait blocks until every background producer has finished. Used on shutdown.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// pruneLocked evicts the oldest completed streams once over capacity.
// Streams still producing are never evicted.
func (r *Registry) pruneLocked() {
	if len(r.order) <= r.maxRetained {
		return
	}
	kept := r.order[:0]
	excess := len(r.order) - r.maxRetained
	for _, id := range r.order {
		if excess > 0 {
			if e, ok := r.streams[id]; ok && e.isDone() {
				delete(r.streams, id)
				excess--
				continue
			}
		}
		kept = append(kept, id)
	}
	r.order = kept
}

// Detached relays produce without registering it anywhere: the degraded,
// non-resumable path used when no registry is available. Production still
// runs to completion on its own context.
func Detached(ctx context.Context, timeout time.Duration, produce Producer) <-chan llm.Event {
	e := newEntry()
	go func() {
		defer e.finish()
		prodCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		produce(prodCtx, e.publish)
	}()
	return e.subscribe(ctx)
}

// Empty returns an immediately-completed stream.
func Empty() <-chan llm.Event {
	ch := make(chan llm.Event)
	close(ch)
	return ch
}
