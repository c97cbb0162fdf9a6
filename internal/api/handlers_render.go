package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/richtext/internal/doctree"
	"github.com/dgallion1/richtext/internal/export"
	"github.com/dgallion1/richtext/internal/parser"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// handleRender converts a document to the requested output format. The body
// is either raw markdown or a multipart form with a "file" field.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "json"
	}
	switch format {
	case "json", "html", "ansi", "docx":
	default:
		jsonError(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
		return
	}
	width := 0
	if v := q.Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, "width must be a non-negative integer", http.StatusBadRequest)
			return
		}
		width = n
	}

	rd, err := s.renderer(q.Get("theme"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	root, status, err := s.readDocument(w, r)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	start := time.Now()
	doc, err := rd.Render(r.Context(), root)
	s.deps.Stats.Since("render", start)
	if err != nil {
		s.log.Error("render failed", "error", err)
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	cfg := rd.Config()
	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		err = export.JSON(&buf, doc, rd.PreserveColors(), true)
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		title, _ := root.Attr(doctree.AttrTitle)
		err = export.HTML(&buf, doc, cfg, title)
	case "ansi":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		err = export.ANSI(&buf, doc, cfg, export.ANSIOptions{Width: width, Color: q.Get("color") != "false"})
	case "docx":
		w.Header().Set("Content-Type", docxContentType)
		err = export.DOCX(&buf, doc, cfg)
	}
	if err != nil {
		w.Header().Del("Content-Type")
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(buf.Bytes())
}

// readDocument parses the request body into a document tree, returning the
// HTTP status to use on failure.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*doctree.Node, int, error) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("read body: %w", err)
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
		}
		return s.parse(data, "document.md")
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		return nil, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, http.StatusInternalServerError, errors.New("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	return s.parse(data, filename)
}

func (s *Server) parse(data []byte, filename string) (*doctree.Node, int, error) {
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	start := time.Now()
	root, err := p.Parse(bytes.NewReader(data), filename)
	s.deps.Stats.Since("parse", start)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, fmt.Errorf("parse %s: %w", filename, err)
	}
	return root, http.StatusOK, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
