package api

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/AaronLay10/SentientStage/internal/timeline"
	"github.com/AaronLay10/SentientStage/internal/version"
)

// metricsHandler returns Prometheus text-format gauges and counters.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	mqttConnected := s.mqttConnected
	journalConnected := s.journalConnected && s.journal != nil
	s.mu.RUnlock()

	running, playing := false, false
	var status timeline.Status
	objects := 0
	if s.ctrl != nil {
		running = s.ctrl.Running()
		status = s.ctrl.TimelineStatus()
		playing = status.State == timeline.StatePlaying
		objects = len(s.ctrl.ObjectSnapshots())
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	labels := fmt.Sprintf(`scene="%s",instance="%s",version="%s"`, s.scene, hostname, version.Version)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	metric := func(name, mtype, help string, value interface{}) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
	}

	metric("stage_uptime_seconds", "gauge",
		"Number of seconds since the player started", time.Since(s.started).Seconds())
	metric("stage_scene_running", "gauge",
		"Whether the scene is running (1) or not (0)", boolGauge(running))
	metric("stage_objects", "gauge",
		"Number of registered scene objects", objects)
	metric("stage_timeline_playing", "gauge",
		"Whether a clip is playing (1) or not (0)", boolGauge(playing))
	metric("stage_timeline_time_seconds", "gauge",
		"Clock of the active clip in seconds", status.Time)
	metric("stage_events_total", "counter",
		"Total number of events emitted since startup", s.bus.TotalCount())
	metric("stage_events_buffered", "gauge",
		"Number of events held in the replay history", s.bus.Buffered())
	metric("stage_ws_clients", "gauge",
		"Number of active WebSocket client connections", s.bus.SubscriberCount())
	metric("stage_mqtt_connected", "gauge",
		"Whether the MQTT bridge is connected (1) or not (0)", boolGauge(mqttConnected))
	metric("stage_journal_connected", "gauge",
		"Whether the event journal is reachable (1) or not (0)", boolGauge(journalConnected))
}

func boolGauge(v bool) int {
	if v {
		return 1
	}
	return 0
}
