package store

import "sync"

// subject is a publish-on-write stream with replay-one semantics: a new
// subscriber receives the latest published value immediately, then every
// subsequent publish. Slow subscribers never block a publisher; the oldest
// pending value is dropped so the latest always lands.
type subject[T any] struct {
	mu   sync.Mutex
	last T
	has  bool
	subs map[int]chan T
	next int
}

func newSubject[T any]() *subject[T] {
	return &subject[T]{subs: make(map[int]chan T)}
}

func (s *subject[T]) publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = v
	s.has = true

	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// subscribe returns the value channel and a cancel func. Cancel closes the
// channel and is safe to call more than once.
func (s *subject[T]) subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++

	ch := make(chan T, 8)
	if s.has {
		ch <- s.last
	}
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}
