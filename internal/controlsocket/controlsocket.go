// Package controlsocket implements the HTTP surface external clients use
// to read current state, change operating mode, edit the schedule, and
// long-poll for status changes.
package controlsocket

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/benvon/thermod/internal/cycle"
	"github.com/benvon/thermod/internal/masterlock"
	"github.com/benvon/thermod/internal/status"
	"github.com/benvon/thermod/internal/timetable"
)

// Server is the control socket's HTTP handler.
type Server struct {
	mux *http.ServeMux

	lock *masterlock.Lock
	tt   *timetable.TimeTable
	cyc  *cycle.Cycle
	pub  *status.Publisher

	logger *slog.Logger
}

type errorResponse struct {
	Error   string `json:"error"`
	Explain string `json:"explain,omitempty"`
}

type monitorEnvelope struct {
	Name   string `json:"name,omitempty"`
	ID     string `json:"id"`
	Status any    `json:"status"`
}

// New builds a Server. lock and tt must be the same instances the Cycle
// was constructed with, so GET /settings and POST /settings observe and
// mutate exactly the state the control cycle evaluates.
func New(lock *masterlock.Lock, tt *timetable.TimeTable, cyc *cycle.Cycle, pub *status.Publisher, logger *slog.Logger) *Server {
	s := &Server{lock: lock, tt: tt, cyc: cyc, pub: pub, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/settings", s.handleSettings)
	mux.HandleFunc("/heating", s.handleStatusSnapshot)
	mux.HandleFunc("/status", s.handleStatusSnapshot)
	mux.HandleFunc("/monitor", s.handleMonitor)
	mux.HandleFunc("/", s.handleNotFound)
	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	defer s.recoverHandler(w, r)
	switch r.Method {
	case http.MethodGet:
		s.lock.Lock()
		doc := s.tt.Document()
		s.lock.Unlock()
		writeJSON(w, http.StatusOK, doc)
	case http.MethodPost:
		s.handlePostSettings(w, r)
	default:
		s.methodNotImplemented(w, r)
	}
}

func (s *Server) handlePostSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logInvalidRequest(r, "")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Explain: err.Error()})
		return
	}

	var patch timetable.Patch
	if err := json.Unmarshal(body, &patch); err != nil {
		s.logInvalidRequest(r, string(body))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Explain: err.Error()})
		return
	}

	s.lock.Lock()
	err = s.tt.Update(patch)
	s.lock.Unlock()
	if err != nil {
		s.logCannotUpdate(r, err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "cannot update settings", Explain: err.Error()})
		return
	}

	s.cyc.Notify()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatusSnapshot(w http.ResponseWriter, r *http.Request) {
	defer s.recoverHandler(w, r)
	if r.Method != http.MethodGet {
		s.methodNotImplemented(w, r)
		return
	}
	s.lock.Lock()
	st := s.cyc.LastStatus()
	s.lock.Unlock()
	writeJSON(w, http.StatusOK, st)
}

// handleMonitor holds the connection open until the status publisher
// delivers the next snapshot, then returns it and closes. The optional
// "name" query parameter is echoed back for server-side correlation.
func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	defer s.recoverHandler(w, r)
	if r.Method != http.MethodGet {
		s.methodNotImplemented(w, r)
		return
	}

	name := r.URL.Query().Get("name")
	sub := s.pub.Subscribe()
	defer s.pub.Unsubscribe(sub.ID)

	select {
	case st, ok := <-sub.C:
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "monitor closed"})
			return
		}
		writeJSON(w, http.StatusOK, monitorEnvelope{Name: name, ID: sub.ID.String(), Status: st})
	case <-r.Context().Done():
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
}

func (s *Server) methodNotImplemented(w http.ResponseWriter, r *http.Request) {
	host, port := clientAddr(r)
	s.logger.Warn(fmt.Sprintf("('%s', %s) method %q not implemented", host, port, r.Method))
	writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "method not implemented"})
}

func (s *Server) logInvalidRequest(r *http.Request, body string) {
	host, port := clientAddr(r)
	s.logger.Warn(fmt.Sprintf("('%s', %s) invalid request %q received", host, port, body))
}

func (s *Server) logCannotUpdate(r *http.Request, err error) {
	host, port := clientAddr(r)
	s.logger.Warn(fmt.Sprintf("('%s', %s) cannot update settings", host, port), "error", err)
}

func (s *Server) recoverHandler(w http.ResponseWriter, r *http.Request) {
	if rec := recover(); rec != nil {
		s.logger.Error(fmt.Sprintf("the %s request produced an unhandled %T exception", r.Method, rec), "panic", rec)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "unhandled exception"})
	}
}

func clientAddr(r *http.Request) (host, port string) {
	host, port, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr, ""
	}
	return host, port
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
