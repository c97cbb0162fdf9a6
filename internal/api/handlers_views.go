package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/richtext/internal/measure"
	"github.com/dgallion1/richtext/internal/parser"
	"github.com/dgallion1/richtext/internal/render"
	"github.com/dgallion1/richtext/internal/runs"
)

// view is a server-side text view: the last rendered document for one
// measurement handle.
type view struct {
	mu       sync.Mutex
	doc      *runs.Document
	renderer *render.Renderer
}

func (s *Server) lookupView(r *http.Request) (measure.Handle, *view, bool) {
	id := measure.Handle(chi.URLParam(r, "id"))
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	v, ok := s.views[id]
	return id, v, ok
}

func (s *Server) handleOpenView(w http.ResponseWriter, r *http.Request) {
	id := s.deps.Store.Open()
	s.viewsMu.Lock()
	s.views[id] = &view{}
	s.viewsMu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          id,
		"measure_url": "/api/views/" + string(id) + "/measure",
	})
}

// handleStoreView renders the markdown body into the view and stores the
// resolved runs for measurement.
func (s *Server) handleStoreView(w http.ResponseWriter, r *http.Request) {
	id, v, ok := s.lookupView(r)
	if !ok {
		jsonError(w, "view not found", http.StatusNotFound)
		return
	}
	rd, err := s.renderer(r.URL.Query().Get("theme"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	start := time.Now()
	doc, err := rd.Render(r.Context(), parser.ParseMarkdown(string(body)))
	s.deps.Stats.Since("render", start)
	if err != nil {
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	v.mu.Lock()
	v.doc, v.renderer = doc, rd
	v.mu.Unlock()

	changed := s.deps.Store.Store(id, doc.Runs(rd.PreserveColors()), measure.PaintFor(rd.Config()))
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"changed":  changed,
		"text_len": doc.Len(),
	})
}

func (s *Server) handleMeasureView(w http.ResponseWriter, r *http.Request) {
	id, _, ok := s.lookupView(r)
	if !ok {
		jsonError(w, "view not found", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	width, err := floatParam(q.Get("width"))
	if err != nil {
		jsonError(w, "width must be a number", http.StatusBadRequest)
		return
	}
	maxHeight, err := floatParam(q.Get("max_height"))
	if err != nil {
		jsonError(w, "max_height must be a number", http.StatusBadRequest)
		return
	}

	start := time.Now()
	var size measure.PackedSize
	if maxHeight > 0 {
		size = s.deps.Store.MeasureAtMost(id, width, maxHeight, q.Get("initial"))
	} else {
		size = s.deps.Store.Measure(id, width, q.Get("initial"))
	}
	s.deps.Stats.Since("measure", start)

	writeJSON(w, http.StatusOK, map[string]any{
		"width":  size.Width(),
		"height": size.Height(),
		"packed": uint64(size),
	})
}

func (s *Server) handleReleaseView(w http.ResponseWriter, r *http.Request) {
	id, _, ok := s.lookupView(r)
	if !ok {
		jsonError(w, "view not found", http.StatusNotFound)
		return
	}
	s.viewsMu.Lock()
	delete(s.views, id)
	s.viewsMu.Unlock()
	s.deps.Store.Release(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivateLink(w http.ResponseWriter, r *http.Request) {
	_, v, ok := s.lookupView(r)
	if !ok {
		jsonError(w, "view not found", http.StatusNotFound)
		return
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		jsonError(w, "offset must be a non-negative integer", http.StatusBadRequest)
		return
	}

	v.mu.Lock()
	doc, rd := v.doc, v.renderer
	v.mu.Unlock()
	if doc == nil {
		jsonError(w, "view has no content", http.StatusConflict)
		return
	}
	url, found := doc.LinkAt(offset)
	if !found || !rd.Activate(doc, offset) {
		jsonError(w, "no link at offset", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": url, "offset": offset})
}

func floatParam(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, errors.New("negative")
	}
	return f, nil
}
