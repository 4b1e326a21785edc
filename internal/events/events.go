// Package events provides a small typed publish/subscribe feed used to
// decouple the scene document and session controller from the rendering
// engine's callback registries.
package events

import "sync"

// Feed delivers published values to every subscribed handler, in
// subscription order. The zero value is ready to use.
type Feed[T any] struct {
	mu   sync.Mutex
	next int
	subs []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers a handler and returns a function that removes it.
func (f *Feed[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs = append(f.subs, subscription[T]{id: id, fn: fn})
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.subs {
			if s.id == id {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers v to all current subscribers. Handlers run on the
// publishing goroutine, outside the feed lock.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	subs := make([]subscription[T], len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}
