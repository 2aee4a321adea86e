package api

import (
	"bytes"
	"io"
	"sync"
)

// EventWriter is the io.Writer a session binds as its VM's OutputWriter:
// every byte a running program's LOG statements produce is both kept in
// an in-memory buffer (for GET /state) and broadcast live to subscribed
// WebSocket clients as an EventTypeLog event.
type EventWriter struct {
	broadcaster *Broadcaster
	sessionID   string
	buffer      *bytes.Buffer
	mutex       sync.Mutex
}

// NewEventWriter creates a writer that broadcasts LOG output for sessionID.
func NewEventWriter(broadcaster *Broadcaster, sessionID string) *EventWriter {
	return &EventWriter{
		broadcaster: broadcaster,
		sessionID:   sessionID,
		buffer:      &bytes.Buffer{},
	}
}

// Write implements io.Writer, the VM's OutputWriter contract for LOG.
func (w *EventWriter) Write(p []byte) (n int, err error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	n, err = w.buffer.Write(p)
	if err == nil && n > 0 && w.broadcaster != nil {
		w.broadcaster.BroadcastLog(w.sessionID, string(p))
	}
	return n, err
}

// GetBufferAndClear returns all LOG output captured so far and clears it.
func (w *EventWriter) GetBufferAndClear() string {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	output := w.buffer.String()
	w.buffer.Reset()
	return output
}

// GetBuffer returns all LOG output captured so far without clearing it.
func (w *EventWriter) GetBuffer() string {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.buffer.String()
}

var _ io.Writer = (*EventWriter)(nil)
