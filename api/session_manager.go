package api

import (
	"fmt"
	"sync"

	"github.com/cilix/Holly/compiler"
	"github.com/cilix/Holly/value"
	"github.com/cilix/Holly/vm"
)

// Session is one compiled Holly program under debugger-style control
// through the API: steppable, inspectable, with output captured for
// WebSocket broadcast.
type Session struct {
	ID      string
	Machine *vm.VM
	Writer  *EventWriter
}

// SessionManager tracks active sessions, keyed by ID.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	broadcaster *Broadcaster
	nextID      int
}

// NewSessionManager creates a SessionManager that broadcasts session
// events through b.
func NewSessionManager(b *Broadcaster) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: b,
		nextID:      1,
	}
}

// Create compiles source and registers a new session for it.
func (sm *SessionManager) Create(source string, maxSteps uint64) (*Session, *compiler.Error) {
	global, pool, cerr := compiler.Compile(source, "session")
	if cerr != nil {
		return nil, cerr
	}

	sm.mu.Lock()
	id := fmt.Sprintf("session-%d", sm.nextID)
	sm.nextID++
	sm.mu.Unlock()

	machine := vm.New(global, pool)
	machine.MaxSteps = maxSteps
	writer := NewEventWriter(sm.broadcaster, id)
	machine.OutputWriter = writer

	sess := &Session{ID: id, Machine: machine, Writer: writer}

	sm.mu.Lock()
	sm.sessions[id] = sess
	sm.mu.Unlock()

	return sess, nil
}

// Get returns the session with the given ID, if any.
func (sm *SessionManager) Get(id string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[id]
	return s, ok
}

// Delete removes a session.
func (sm *SessionManager) Delete(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, id)
}

// FrameViews snapshots a session's frame stack for JSON responses.
func FrameViews(frames []*value.FuncState) []FrameView {
	views := make([]FrameView, len(frames))
	for i, fs := range frames {
		views[i] = FrameView{Name: fs.Name, Scan: fs.Scan, Size: len(fs.Ins)}
	}
	return views
}

// StateName maps a vm.ExecutionState to its JSON string form.
func StateName(s vm.ExecutionState) string {
	switch s {
	case vm.StateRunning:
		return "running"
	case vm.StateHalted:
		return "halted"
	case vm.StateBreakpoint:
		return "breakpoint"
	case vm.StateError:
		return "error"
	default:
		return "unknown"
	}
}
