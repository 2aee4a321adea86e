package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cilix/Holly/compiler"
	"github.com/cilix/Holly/vm"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// defaultMaxSteps falls back to the server's configured step budget when
// a request doesn't specify one.
func (s *Server) defaultMaxSteps(requested uint64) uint64 {
	if requested > 0 {
		return requested
	}
	if s.cfg != nil {
		return s.cfg.Execution.MaxSteps
	}
	return 0
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

// handleRun compiles and runs a program to completion in one request,
// with no persisted session: for quick one-shot evaluation.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	global, pool, cerr := compiler.Compile(req.Source, "run")
	if cerr != nil {
		writeJSON(w, http.StatusOK, RunResponse{Error: cerr.Error()})
		return
	}

	machine := vm.New(global, pool)
	machine.MaxSteps = s.defaultMaxSteps(req.MaxSteps)
	var out bytes.Buffer
	machine.OutputWriter = &out

	resp := RunResponse{}
	if rerr := machine.Run(); rerr != nil {
		resp.Error = rerr.Error()
	}
	resp.Output = out.String()
	writeJSON(w, http.StatusOK, resp)
}

// handleSession creates a new steppable session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	sess, cerr := s.sessions.Create(req.Source, s.defaultMaxSteps(req.MaxSteps))
	if cerr != nil {
		writeJSON(w, http.StatusOK, RunResponse{Error: cerr.Error()})
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{
		SessionID: sess.ID,
		State:     StateName(sess.Machine.State),
		Frames:    FrameViews(sess.Machine.Frames),
	})
}

// handleSessionRoute dispatches /api/v1/session/{id}[/step|/state].
func (s *Server) handleSessionRoute(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/session/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]

	sess, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session "+id)
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "step":
		s.handleStep(w, r, sess)
	case "state", "":
		s.handleState(w, sess)
	default:
		writeError(w, http.StatusNotFound, "unknown session route "+action)
	}
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, sess *Session) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req StepRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}
	for i := 0; i < count; i++ {
		if !sess.Machine.Step() {
			break
		}
	}

	s.broadcaster.BroadcastFrameState(sess.ID, FrameViews(sess.Machine.Frames))
	if sess.Machine.State != vm.StateRunning {
		s.broadcaster.BroadcastRunEvent(sess.ID, StateName(sess.Machine.State), nil)
	}
	s.handleState(w, sess)
}

func (s *Server) handleState(w http.ResponseWriter, sess *Session) {
	resp := StateResponse{
		SessionID: sess.ID,
		State:     StateName(sess.Machine.State),
		Frames:    FrameViews(sess.Machine.Frames),
		Output:    sess.Writer.GetBuffer(),
	}
	if err := sess.Machine.Err(); err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
