package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.viewsMu.Lock()
	views := len(s.views)
	s.viewsMu.Unlock()

	resp := map[string]any{
		"latency":        s.deps.Stats.Snapshot(),
		"views":          views,
		"measure_cached": s.deps.Store.Len(),
	}
	if s.deps.Images != nil {
		resp["image_queue_depth"] = s.deps.Images.QueueDepth()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleImageStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Images == nil {
		jsonError(w, "image loading unavailable", http.StatusServiceUnavailable)
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		jsonError(w, "url query parameter is required", http.StatusBadRequest)
		return
	}
	snap, ok := s.deps.Images.Status(url)
	if !ok {
		jsonError(w, "image not requested", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
