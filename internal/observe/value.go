// Package observe provides a small observable-value abstraction: a mutable
// value whose changes are visible to any number of subscribers in update
// order, with the latest value always retained.
package observe

import "sync"

// Value holds a single value of type T and notifies subscribers on change.
//
// Subscriber channels have capacity 1 and conflate: if a subscriber is slow,
// intermediate values are dropped but the most recent value is always
// delivered. Readers that only need the current value should call Get.
type Value[T any] struct {
	mu   sync.Mutex
	v    T
	subs map[int]chan T
	next int
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		v:    initial,
		subs: make(map[int]chan T),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.v
}

// Set stores val and notifies all current subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.v = val
	for _, ch := range v.subs {
		send(ch, val)
	}
}

// send delivers val with latest-wins semantics: if the subscriber has not
// consumed the previous value, it is replaced.
func send[T any](ch chan T, val T) {
	select {
	case ch <- val:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- val:
	default:
	}
}

// Subscription delivers value updates on C until cancelled.
type Subscription[T any] struct {
	C      <-chan T
	cancel func()
}

// Cancel detaches the subscription. Safe to call multiple times.
func (s *Subscription[T]) Cancel() {
	s.cancel()
}

// Subscribe registers a new subscriber. The channel receives every update
// made after the call (conflated under load); it does not replay the
// current value.
func (v *Value[T]) Subscribe() *Subscription[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.next
	v.next++
	ch := make(chan T, 1)
	v.subs[id] = ch

	var once sync.Once
	return &Subscription[T]{
		C: ch,
		cancel: func() {
			once.Do(func() {
				v.mu.Lock()
				delete(v.subs, id)
				v.mu.Unlock()
			})
		},
	}
}
