package bridge

import (
	"context"
	"sync"
)

type envelopeKind int

const (
	kindRequest envelopeKind = iota
	kindResponse
	kindEvent
	kindJob
)

// Envelope is one message crossing the pipe.
type Envelope struct {
	kind envelopeKind
	// ID pairs a response with its request.
	ID int64
	// Method is the request method or the event channel.
	Method string
	// Payload is the codec-encoded body.
	Payload []byte
	// Error is the failure message of a response; empty means success.
	Error string
	// Transfer carries values moved to the other side without encoding.
	Transfer []any

	job func()
}

// mailbox is an unbounded FIFO queue. Put never blocks.
type mailbox struct {
	mu     sync.Mutex
	queue  []Envelope
	signal chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

func (m *mailbox) put(env Envelope) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, env)
	m.mu.Unlock()
	select {
	case m.signal <- struct{}{}:
	default:
	}
	return true
}

func (m *mailbox) get(ctx context.Context) (Envelope, error) {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			env := m.queue[0]
			m.queue[0] = Envelope{}
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return env, nil
		}
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return Envelope{}, ErrClosed
		}
		select {
		case <-m.signal:
		case <-ctx.Done():
			return Envelope{}, ctx.Err()
		}
	}
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Port is one end of a pipe.
type Port struct {
	in  *mailbox
	out *mailbox
}

// NewPipe returns two connected ports. Messages posted on one are received
// in order on the other.
func NewPipe() (*Port, *Port) {
	a, b := newMailbox(), newMailbox()
	return &Port{in: a, out: b}, &Port{in: b, out: a}
}

// Post sends env to the other end. It reports false if the pipe is closed.
func (p *Port) Post(env Envelope) bool {
	return p.out.put(env)
}

// Receive blocks until a message arrives, the pipe closes or ctx is done.
// Messages queued before Close are still delivered.
func (p *Port) Receive(ctx context.Context) (Envelope, error) {
	return p.in.get(ctx)
}

// Close closes both directions.
func (p *Port) Close() {
	p.in.close()
	p.out.close()
}

// postSelf queues env on this end's own inbox.
func (p *Port) postSelf(env Envelope) bool {
	return p.in.put(env)
}
