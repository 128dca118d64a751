package bridge

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/go-drift/puzzles/pkg/errors"
)

// HandlerFunc handles one request. It receives the encoded arguments and
// any transferred values and returns a result to encode, or an error whose
// message is sent back to the caller.
type HandlerFunc func(args []byte, transfer []any) (any, error)

// Server is the worker end of a pipe. It handles one message at a time, in
// arrival order, on the goroutine running Serve.
type Server struct {
	port  *Port
	codec MessageCodec

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewServer returns a server reading from port.
func NewServer(port *Port, codec MessageCodec) *Server {
	if codec == nil {
		codec = DefaultCodec
	}
	return &Server{
		port:     port,
		codec:    codec,
		handlers: make(map[string]HandlerFunc),
	}
}

// Codec returns the codec used for payloads.
func (s *Server) Codec() MessageCodec {
	return s.codec
}

// Handle registers h for method.
func (s *Server) Handle(method string, h HandlerFunc) {
	s.mu.Lock()
	s.handlers[method] = h
	s.mu.Unlock()
}

// Post queues fn to run on the serve loop after the messages already
// waiting. It reports false if the pipe is closed.
func (s *Server) Post(fn func()) bool {
	return s.port.postSelf(Envelope{kind: kindJob, job: fn})
}

// Emit sends an event on channel.
func (s *Server) Emit(channel string, data any) error {
	payload, err := s.codec.Encode(data)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", channel, err)
	}
	return s.EmitRaw(channel, payload)
}

// EmitRaw sends an already encoded event on channel.
func (s *Server) EmitRaw(channel string, payload []byte) error {
	if !s.port.Post(Envelope{kind: kindEvent, Method: channel, Payload: payload}) {
		return ErrClosed
	}
	return nil
}

// Serve processes messages until ctx is done or the pipe closes. It
// returns nil when the pipe closes.
func (s *Server) Serve(ctx context.Context) error {
	for {
		env, err := s.port.Receive(ctx)
		if err != nil {
			if stderrors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
		switch env.kind {
		case kindJob:
			s.runJob(env.job)
		case kindRequest:
			s.handle(env)
		}
	}
}

// Close closes the pipe.
func (s *Server) Close() {
	s.port.Close()
}

func (s *Server) runJob(fn func()) {
	defer errors.RecoverWithCallback("bridge.job", s.reportCrash)
	fn()
}

func (s *Server) handle(env Envelope) {
	resp := Envelope{kind: kindResponse, ID: env.ID}
	defer func() {
		s.port.Post(resp)
	}()
	defer errors.RecoverWithCallback("bridge."+env.Method, func(p *errors.PanicError) {
		s.reportCrash(p)
		resp.Payload = nil
		resp.Error = p.Error()
	})

	s.mu.RLock()
	h, ok := s.handlers[env.Method]
	s.mu.RUnlock()
	if !ok {
		resp.Error = ErrMethodNotFound.Error()
		return
	}

	result, err := h(env.Payload, env.Transfer)
	if err != nil {
		resp.Error = err.Error()
		return
	}
	payload, err := s.codec.Encode(result)
	if err != nil {
		resp.Error = fmt.Sprintf("encode result: %v", err)
		return
	}
	resp.Payload = payload
}

// reportCrash forwards a recovered panic to the main context.
func (s *Server) reportCrash(p *errors.PanicError) {
	_ = s.Emit(CrashChannel, CrashReport{
		Op:      p.Op,
		Message: fmt.Sprint(p.Value),
		Stack:   p.StackTrace,
	})
}
