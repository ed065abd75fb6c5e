package eventbus

import "sync"

// EventUnauthorized names the zero-payload signal raised when an outgoing
// request is rejected with 401. Kept as a constant so log lines and tests
// refer to the same spelling.
const EventUnauthorized = "auth:unauthorized"

// Bus is a fire-and-forget broadcast channel between the HTTP layer and the
// renewal logic. Observers register explicitly; the composition root owns the
// bus instance so tests can inject a fake.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

func New() *Bus {
	return &Bus{subs: map[int]func(){}}
}

// Subscribe registers an observer and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Bus) Subscribe(fn func()) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish invokes every current observer once. Observers run outside the bus
// lock so a handler may subscribe or unsubscribe during dispatch.
func (b *Bus) Publish() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
