package process

import (
	"io"
	"sync"
)

// tailSize bounds the bytes kept by a stream for diagnostics.
const tailSize = 64 << 10

// subscriberBuffer is the channel depth of a subscription.
const subscriberBuffer = 16

// stream is the io.Writer attached to a child's stdout or stderr. It keeps a
// bounded tail, tees to an optional log file, and forwards each chunk to the
// current subscribers.
//
// seen holds the bounded history of every published chunk, merged ones
// included. A chunk is recorded in seen and the subscriber set is copied in
// the same critical section, so a new subscriber gets each chunk exactly once:
// either in its history or on its channel.
//
// exec.Cmd copies the pipe into stream from its own goroutine and joins that
// goroutine before Wait returns, so every chunk has been delivered to the
// subscriber channels before the handle's exited channel is closed.
type stream struct {
	mu   sync.Mutex
	tail []byte
	seen []byte
	file io.Writer
	subs map[*subscription]struct{}
}

// subscription receives copies of every chunk published after it was
// created.
type subscription struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func newStream(file io.Writer) *stream {
	return &stream{file: file, subs: make(map[*subscription]struct{})}
}

// Write implements io.Writer. It never fails: log file errors are dropped so
// a full disk cannot stall the child process.
func (s *stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	s.tail = appendBounded(s.tail, p)
	if s.file != nil {
		_, _ = s.file.Write(p)
	}
	subs := s.recordLocked(p)
	s.mu.Unlock()

	deliver(subs, p)
	return len(p), nil
}

// publish forwards p to the subscribers without adding it to the tail.
func (s *stream) publish(p []byte) {
	s.mu.Lock()
	subs := s.recordLocked(p)
	s.mu.Unlock()

	deliver(subs, p)
}

// recordLocked appends p to the history and returns the subscribers that
// must receive it. s.mu must be held.
func (s *stream) recordLocked(p []byte) []*subscription {
	s.seen = appendBounded(s.seen, p)
	subs := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	return subs
}

func deliver(subs []*subscription, p []byte) {
	for _, sub := range subs {
		chunk := append([]byte(nil), p...)
		select {
		case sub.ch <- chunk:
		case <-sub.done:
		}
	}
}

func appendBounded(buf, p []byte) []byte {
	buf = append(buf, p...)
	if over := len(buf) - tailSize; over > 0 {
		buf = append(buf[:0], buf[over:]...)
	}
	return buf
}

// mergedWriter records into its own stream and also publishes to another
// stream's subscribers.
type mergedWriter struct {
	own, into *stream
}

func (w mergedWriter) Write(p []byte) (int, error) {
	n, err := w.own.Write(p)
	w.into.publish(p)
	return n, err
}

// String returns the retained tail.
func (s *stream) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.tail)
}

// subscribe registers a new subscription and returns the output published
// before it. The caller must call unsubscribe when it stops reading,
// otherwise writers block.
func (s *stream) subscribe() (*subscription, []byte) {
	sub := &subscription{
		ch:   make(chan []byte, subscriberBuffer),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	history := append([]byte(nil), s.seen...)
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub, history
}

// unsubscribe detaches sub and releases any writer blocked on it. Safe to
// call more than once.
func (s *stream) unsubscribe(sub *subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
	sub.once.Do(func() { close(sub.done) })
}
