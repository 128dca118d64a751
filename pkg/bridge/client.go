package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-drift/puzzles/pkg/errors"
)

// CrashChannel carries CrashReport events for panics recovered in the worker.
const CrashChannel = "bridge/crash"

// CrashReport describes a panic recovered in the worker.
type CrashReport struct {
	Op      string `json:"op"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// pendingCall represents a call waiting for a response.
type pendingCall struct {
	done chan struct{}
	env  Envelope
}

// Client is the main-context end of a pipe. Calls are serialized: a call
// holds the client until its response arrives, so at most one request is
// in flight at a time.
type Client struct {
	port  *Port
	codec MessageCodec

	callMu  sync.Mutex
	pending map[int64]*pendingCall
	mu      sync.Mutex
	nextID  atomic.Int64

	eventsMu sync.Mutex
	events   map[string]*EventQueue[[]byte]

	closed chan struct{}
	wg     sync.WaitGroup
}

// NewClient starts reading responses and events from port.
func NewClient(port *Port, codec MessageCodec) *Client {
	if codec == nil {
		codec = DefaultCodec
	}
	c := &Client{
		port:    port,
		codec:   codec,
		pending: make(map[int64]*pendingCall),
		events:  make(map[string]*EventQueue[[]byte]),
		closed:  make(chan struct{}),
	}
	c.wg.Add(1)
	go c.readLoop()
	return c
}

// Codec returns the codec used for payloads.
func (c *Client) Codec() MessageCodec {
	return c.codec
}

// Call invokes method with args and decodes the response into result, which
// may be nil. A handler failure is returned as *CallError. If ctx is done
// before the response arrives, Call returns ctx.Err() and the late response
// is dropped.
func (c *Client) Call(ctx context.Context, method string, args, result any, transfer ...any) error {
	payload, err := c.codec.Encode(args)
	if err != nil {
		return &errors.PuzzleError{Op: "bridge.Call", Kind: errors.KindTransport, Err: fmt.Errorf("encode %s: %w", method, err)}
	}

	c.callMu.Lock()
	defer c.callMu.Unlock()

	id := c.nextID.Add(1)
	call := &pendingCall{done: make(chan struct{})}
	c.mu.Lock()
	c.pending[id] = call
	c.mu.Unlock()

	if !c.port.Post(Envelope{kind: kindRequest, ID: id, Method: method, Payload: payload, Transfer: transfer}) {
		c.forget(id)
		return ErrClosed
	}

	select {
	case <-call.done:
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	case <-c.closed:
		c.forget(id)
		return ErrClosed
	}

	if call.env.Error != "" {
		return &CallError{Method: method, Message: call.env.Error}
	}
	if result == nil {
		return nil
	}
	if err := c.codec.DecodeInto(call.env.Payload, result); err != nil {
		return &errors.PuzzleError{
			Op:   "bridge.Call",
			Kind: errors.KindParsing,
			Err:  &errors.ParseError{Channel: method, DataType: fmt.Sprintf("%T", result), Got: call.env.Payload},
		}
	}
	return nil
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Events returns the queue for channel, creating it on first use.
func (c *Client) Events(channel string) *EventQueue[[]byte] {
	c.eventsMu.Lock()
	defer c.eventsMu.Unlock()
	q, ok := c.events[channel]
	if !ok {
		q = &EventQueue[[]byte]{}
		c.events[channel] = q
	}
	return q
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	defer close(c.closed)
	for {
		env, err := c.port.Receive(context.Background())
		if err != nil {
			return
		}
		switch env.kind {
		case kindResponse:
			c.mu.Lock()
			call, ok := c.pending[env.ID]
			delete(c.pending, env.ID)
			c.mu.Unlock()
			if ok {
				call.env = env
				close(call.done)
			}
		case kindEvent:
			c.Events(env.Method).Push(env.Payload)
		}
	}
}

// Close closes the pipe and waits for the reader to stop. Calls in flight
// fail with ErrClosed.
func (c *Client) Close() {
	c.port.Close()
	c.wg.Wait()
}

// Done is closed once the pipe has closed and the reader stopped.
func (c *Client) Done() <-chan struct{} {
	return c.closed
}
