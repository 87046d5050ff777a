package output

import (
	"context"
	"sync"
)

// gate serializes work per key in the order tickets were taken. Each
// ticket waits for the previous ticket on the same key to be released.
type gate struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

func newGate() *gate {
	return &gate{tails: map[string]chan struct{}{}}
}

// acquire takes a ticket for key and blocks until every earlier ticket for
// key is released. The returned release must be called exactly once. When
// ctx ends first, the ticket is released on the caller's behalf as soon as
// its predecessor finishes, so later tickets keep their order.
func (g *gate) acquire(ctx context.Context, key string) (func(), error) {
	done := make(chan struct{})
	g.mu.Lock()
	prev := g.tails[key]
	g.tails[key] = done
	g.mu.Unlock()

	release := func() { g.finish(key, done) }
	if prev == nil {
		return release, nil
	}
	select {
	case <-prev:
		return release, nil
	case <-ctx.Done():
		go func() {
			<-prev
			release()
		}()
		return nil, ctx.Err()
	}
}

func (g *gate) finish(key string, done chan struct{}) {
	g.mu.Lock()
	if g.tails[key] == done {
		delete(g.tails, key)
	}
	g.mu.Unlock()
	close(done)
}
