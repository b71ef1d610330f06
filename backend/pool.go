package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Pool holds the sessions owned by one orchestrator, indexed by backend
// name and kept in registration order.
type Pool struct {
	mu       sync.RWMutex
	order    []string
	sessions map[string]Session
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{sessions: make(map[string]Session)}
}

// Put stores s under its name. A session already stored under that name is
// replaced in place, keeping its position.
func (p *Pool) Put(s Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := s.Name()
	if _, exists := p.sessions[name]; !exists {
		p.order = append(p.order, name)
	}
	p.sessions[name] = s
}

// Session returns the session for a backend name.
func (p *Pool) Session(name string) (Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.sessions[name]
	return s, ok
}

// List returns all sessions in insertion order.
func (p *Pool) List() []Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Session, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.sessions[name])
	}
	return out
}

// Connected returns the sessions in StateConnected.
func (p *Pool) Connected() []Session {
	all := p.List()
	out := make([]Session, 0, len(all))
	for _, s := range all {
		if s.State() == StateConnected {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of sessions in the pool.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// DisconnectAll disconnects every session, continuing past failures, and
// empties the pool. The returned error joins every failure.
func (p *Pool) DisconnectAll() error {
	p.mu.Lock()
	sessions := make([]Session, 0, len(p.order))
	for _, name := range p.order {
		sessions = append(sessions, p.sessions[name])
	}
	p.order = nil
	p.sessions = make(map[string]Session)
	p.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := disconnect(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// disconnect reports every failure as a *ConnectionError naming the backend.
func disconnect(s Session) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &ConnectionError{Backend: s.Name(), Op: "disconnect", Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	if err := s.Disconnect(); err != nil {
		return &ConnectionError{Backend: s.Name(), Op: "disconnect", Err: err}
	}
	return nil
}

// Failed returns a placeholder session for a backend that could not be
// connected. It reports StateFailed, advertises no tools and rejects every
// invocation with ReasonNotConnected.
func Failed(d Descriptor, err error) Session {
	return &failedSession{name: d.Name, kind: d.EffectiveKind(), err: err}
}

type failedSession struct {
	name string
	kind string
	err  error
}

func (f *failedSession) Name() string { return f.name }
func (f *failedSession) Kind() string { return f.kind }
func (f *failedSession) State() State { return StateFailed }
func (f *failedSession) Tools() []*mcp.Tool { return nil }
func (f *failedSession) ToolNames() []string { return nil }
func (f *failedSession) Disconnect() error { return nil }

func (f *failedSession) InvokeTool(_ context.Context, tool string, _ map[string]any) (*mcp.CallToolResult, error) {
	return nil, NotConnected(f.name, tool)
}
