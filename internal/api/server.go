package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/camlink/camlink/internal/camera"
	"github.com/camlink/camlink/internal/config"
	"github.com/camlink/camlink/internal/logger"
	"github.com/camlink/camlink/internal/output"
)

// Server exposes the ground-station surface over HTTP: the live MJPEG
// re-stream, a status API with a WebSocket event feed, and pass-through
// camera controls.
type Server struct {
	router     *mux.Router
	supervisor *camera.Supervisor
	configMgr  *config.Manager
	mjpegOut   *output.MJPEGOutput
	recorder   *output.Recorder
	snapshots  *output.SnapshotWriter
	latest     func() *camera.Frame
	upgrader   websocket.Upgrader
}

// NewServer creates the API server. latest returns the most recent
// supervised frame (or nil) and is used as the snapshot fallback when
// the capture endpoint is unreachable.
func NewServer(
	supervisor *camera.Supervisor,
	configMgr *config.Manager,
	mjpegOut *output.MJPEGOutput,
	recorder *output.Recorder,
	snapshots *output.SnapshotWriter,
	latest func() *camera.Frame,
) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		supervisor: supervisor,
		configMgr:  configMgr,
		mjpegOut:   mjpegOut,
		recorder:   recorder,
		snapshots:  snapshots,
		latest:     latest,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local tool, same-host GUI
			},
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Stream lifecycle
	api.HandleFunc("/stream/start", s.handleStreamStart).Methods("POST")
	api.HandleFunc("/stream/stop", s.handleStreamStop).Methods("POST")
	api.HandleFunc("/reset", s.handleReset).Methods("POST")

	// Status
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/status/ws", s.handleStatusStream)

	// Camera control pass-through
	api.HandleFunc("/control", s.handleControl).Methods("POST")

	// Disk sinks
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods("POST")
	api.HandleFunc("/record/start", s.handleRecordStart).Methods("POST")
	api.HandleFunc("/record/stop", s.handleRecordStop).Methods("POST")

	// Configuration (read-only; changing it requires a restart because
	// StreamConfig is immutable per supervisor)
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/stream", s.mjpegOut.GetHTTPHandler())
	s.router.HandleFunc("/", s.handleIndex)
}

// Start starts the HTTP server.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("api").Info().Str("addr", addr).Msg("HTTP server starting")
	return http.ListenAndServe(addr, s.router)
}

// Handler returns the root handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTP Handlers

func (s *Server) handleStreamStart(w http.ResponseWriter, r *http.Request) {
	if err := s.supervisor.Start(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]string{"status": "started"})
}

func (s *Server) handleStreamStop(w http.ResponseWriter, r *http.Request) {
	s.supervisor.Stop()
	writeJSON(w, map[string]string{"status": "stopped"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.supervisor.Reset(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]string{"status": "reset"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"state":          s.supervisor.State(),
		"frames":         s.supervisor.FrameCount(),
		"decode_errors":  s.supervisor.DecodeErrors(),
		"fps":            s.mjpegOut.FPS(),
		"stream_clients": s.mjpegOut.ClientCount(),
		"recording":      s.recorder.IsRunning(),
		"record_path":    s.recorder.Path(),
		"record_frames":  s.recorder.FrameCount(),
	})
}

func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	events := s.supervisor.Subscribe()
	defer s.supervisor.Unsubscribe(events)

	// Send the current state first so a late subscriber is not blind
	// until the next transition.
	initial := camera.StatusEvent{
		State:  s.supervisor.State(),
		Time:   time.Now(),
		Reason: "subscribed",
	}
	if err := conn.WriteJSON(initial); err != nil {
		return
	}

	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			logger.WithComponent("api").Debug().Err(err).Msg("WebSocket write failed")
			return
		}
	}
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Var string `json:"var"`
		Val int    `json:"val"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Var == "" {
		http.Error(w, "var is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Pass-through: the supervisor never intercepts control commands.
	if err := s.supervisor.Client().SetControl(ctx, req.Var, req.Val); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]string{"status": "success"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Prefer a fresh full-quality capture; fall back to the last
	// supervised frame when the capture endpoint is unreachable.
	path := ""
	data, err := s.supervisor.Client().Capture(ctx)
	if err == nil {
		path, err = s.snapshots.Save(data)
	} else if f := s.latest(); f != nil {
		path, err = s.snapshots.SaveFrame(f)
	}
	if err != nil || path == "" {
		msg := "no frame available for snapshot"
		if err != nil {
			msg = err.Error()
		}
		http.Error(w, msg, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "saved", "path": path})
}

func (s *Server) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	if err := s.recorder.Start(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]string{"status": "recording", "path": s.recorder.Path()})
}

func (s *Server) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	if err := s.recorder.Stop(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "stopped", "path": s.recorder.Path()})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.configMgr.Get()
	writeJSON(w, cfg)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status": "healthy",
		"state":  string(s.supervisor.State()),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(viewerHTML))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
