package api

import "net/http"

type statsResponse struct {
	Render        any `json:"render"`
	QueueDepth    int `json:"queue_depth"`
	QueueCapacity int `json:"queue_capacity"`
	Workers       int `json:"workers"`
}

// handleRenderStats reports render latency percentiles and import queue load.
func (s *Server) handleRenderStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "render stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Render:        s.stats.Snapshot(),
		QueueDepth:    s.orchestrator.QueueDepth(),
		QueueCapacity: s.cfg.MaxQueueSize,
		Workers:       s.cfg.WorkerCount,
	})
}
