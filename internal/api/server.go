// Package api is the player's HTTP surface: health and metrics, the event
// stream, and operator endpoints that fire triggers and drive the timeline.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/AaronLay10/SentientStage/internal/events"
	"github.com/AaronLay10/SentientStage/internal/scene"
	"github.com/AaronLay10/SentientStage/internal/storage"
	"github.com/AaronLay10/SentientStage/internal/timeline"
	"github.com/AaronLay10/SentientStage/internal/version"
	"github.com/AaronLay10/SentientStage/internal/viewer"
)

// Controller is the part of the player the API drives. Every method must be
// safe to call from a request goroutine.
type Controller interface {
	Running() bool
	Fire(nodeID string, trigger scene.Trigger, key string) error
	SelectClip(ref string) error
	PlayClip(ref string) error
	PauseClip()
	StopClip()
	SeekClip(t float64)
	TimelineStatus() timeline.Status
	Variables() map[string]any
	ObjectSnapshots() map[string]viewer.Snapshot
}

// Options configures a Server.
type Options struct {
	Bus        *events.Bus
	Controller Controller
	// Journal backs /events/history. It may be nil.
	Journal   storage.Journal
	Auth      *Auth
	TLS       TLSFiles
	SceneName string
}

type Server struct {
	bus     *events.Bus
	ctrl    Controller
	journal storage.Journal
	auth    *Auth
	tls     TLSFiles
	scene   string
	started time.Time

	mu               sync.RWMutex
	mqttEnabled      bool
	mqttConnected    bool
	journalConnected bool
}

// NewServer creates a server. Nothing listens until ListenAndServe.
func NewServer(opts Options) *Server {
	return &Server{
		bus:              opts.Bus,
		ctrl:             opts.Controller,
		journal:          opts.Journal,
		auth:             opts.Auth,
		tls:              opts.TLS,
		scene:            opts.SceneName,
		started:          time.Now(),
		journalConnected: opts.Journal != nil,
	}
}

// SetMQTTStatus records whether the bridge is configured and connected.
func (s *Server) SetMQTTStatus(enabled, connected bool) {
	s.mu.Lock()
	s.mqttEnabled = enabled
	s.mqttConnected = connected
	s.mu.Unlock()
}

// SetJournalConnected records whether the event journal is reachable.
func (s *Server) SetJournalConnected(v bool) {
	s.mu.Lock()
	s.journalConnected = v
	s.mu.Unlock()
}

// Handler returns the routed handler with auth applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/ready", s.readyHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)

	mux.HandleFunc("/events", s.auth.Viewer(s.eventsHandler))
	mux.HandleFunc("/events/history", s.auth.Viewer(s.historyHandler))
	mux.HandleFunc("/ws/events", s.auth.Viewer(s.wsEventsHandler))
	mux.HandleFunc("/timeline", s.auth.Viewer(s.timelineHandler))
	mux.HandleFunc("/variables", s.auth.Viewer(s.variablesHandler))
	mux.HandleFunc("/objects", s.auth.Viewer(s.objectsHandler))

	mux.HandleFunc("/interaction/fire", s.auth.Operator(s.fireHandler))
	mux.HandleFunc("/timeline/play", s.auth.Operator(s.timelinePlayHandler))
	mux.HandleFunc("/timeline/pause", s.auth.Operator(s.timelinePauseHandler))
	mux.HandleFunc("/timeline/stop", s.auth.Operator(s.timelineStopHandler))
	mux.HandleFunc("/timeline/seek", s.auth.Operator(s.timelineSeekHandler))
	mux.HandleFunc("/timeline/clip", s.auth.Operator(s.timelineClipHandler))
	return mux
}

// ListenAndServe serves on port until ctx is done, then shuts down with a
// five second grace period.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	tlsCfg, err := s.tls.Config()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if tlsCfg != nil {
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.bus.CloseAllSubscribers()
		return srv.Shutdown(shutdownCtx)
	}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   version.Name,
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

type CheckResult struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckResult `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

// readyHandler reports 503 until the scene is running. MQTT is only checked
// when the bridge is enabled.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	mqttEnabled, mqttConnected := s.mqttEnabled, s.mqttConnected
	journalConnected := s.journalConnected
	s.mu.RUnlock()

	resp := ReadinessResponse{Ready: true, Checks: map[string]CheckResult{}}

	if s.ctrl != nil && s.ctrl.Running() {
		resp.Checks["scene"] = CheckResult{Status: "ok"}
	} else {
		resp.Checks["scene"] = CheckResult{Status: "not_ready"}
		resp.Ready = false
		resp.NotReadyMsg = "scene not started"
	}

	switch {
	case !mqttEnabled:
		resp.Checks["mqtt"] = CheckResult{Status: "disabled"}
	case mqttConnected:
		resp.Checks["mqtt"] = CheckResult{Status: "ok"}
	default:
		resp.Checks["mqtt"] = CheckResult{Status: "disconnected"}
		resp.Ready = false
		if resp.NotReadyMsg == "" {
			resp.NotReadyMsg = "mqtt disconnected"
		}
	}

	switch {
	case s.journal == nil:
		resp.Checks["journal"] = CheckResult{Status: "disabled"}
	case journalConnected:
		resp.Checks["journal"] = CheckResult{Status: "ok"}
	default:
		// The bus keeps running without its sink, so this never blocks readiness.
		resp.Checks["journal"] = CheckResult{Status: "degraded"}
	}

	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.bus.Snapshot())
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, "event journal not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	rows, err := s.journal.Query(r.Context(), limit)
	if err != nil {
		s.SetJournalConnected(false)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.SetJournalConnected(true)
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) timelineHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.TimelineStatus())
}

func (s *Server) variablesHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Variables())
}

func (s *Server) objectsHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.ObjectSnapshots())
}

type OperatorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type FireRequest struct {
	NodeID  string `json:"node_id"`
	Trigger string `json:"trigger"`
	Key     string `json:"key,omitempty"`
}

func (s *Server) fireHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req FireRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NodeID == "" {
		writeError(w, http.StatusBadRequest, "node_id required")
		return
	}
	trigger := scene.Trigger(req.Trigger)
	if !scene.ValidTrigger(trigger) {
		writeError(w, http.StatusBadRequest, "unknown trigger")
		return
	}
	if err := s.ctrl.Fire(req.NodeID, trigger, req.Key); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	s.bus.Emit("info", "operator.fire", "", map[string]interface{}{
		"node_id": req.NodeID,
		"trigger": req.Trigger,
		"key":     req.Key,
	})
	writeJSON(w, http.StatusOK, OperatorResponse{OK: true})
}

type ClipRequest struct {
	Clip string `json:"clip"`
}

func (s *Server) timelinePlayHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req ClipRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	if err := s.ctrl.PlayClip(req.Clip); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, OperatorResponse{OK: true})
}

func (s *Server) timelineClipHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req ClipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Clip == "" {
		writeError(w, http.StatusBadRequest, "clip required")
		return
	}
	if err := s.ctrl.SelectClip(req.Clip); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, OperatorResponse{OK: true})
}

func (s *Server) timelinePauseHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	s.ctrl.PauseClip()
	writeJSON(w, http.StatusOK, OperatorResponse{OK: true})
}

func (s *Server) timelineStopHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	s.ctrl.StopClip()
	writeJSON(w, http.StatusOK, OperatorResponse{OK: true})
}

type SeekRequest struct {
	Time *float64 `json:"time"`
}

func (s *Server) timelineSeekHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req SeekRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Time == nil {
		writeError(w, http.StatusBadRequest, "time required")
		return
	}
	s.ctrl.SeekClip(*req.Time)
	s.bus.Emit("info", "operator.seek", "", map[string]interface{}{
		"time": *req.Time,
	})
	writeJSON(w, http.StatusOK, OperatorResponse{OK: true})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, OperatorResponse{OK: false, Error: msg})
}
