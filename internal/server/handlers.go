package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mgpai22/lesson/internal/caption"
	"github.com/mgpai22/lesson/internal/lesson"
)

type lessonResponse struct {
	Ref       lesson.Ref        `json:"ref"`
	Title     string            `json:"title,omitempty"`
	Page      string            `json:"page"`
	Metadata  caption.Metadata  `json:"metadata"`
	Segments  []caption.Segment `json:"segments"`
	Resources lesson.Resources  `json:"resources"`
	Next      *lesson.Ref       `json:"next"`
}

type bookResponse struct {
	Key     string          `json:"key"`
	Book    string          `json:"book"`
	Lessons []lesson.Lesson `json:"lessons"`
}

type resolveResponse struct {
	Ref  *lesson.Ref `json:"ref"`
	Page string      `json:"page"`
}

// GET /api/lessons/{book}/{lesson}
func (s *Server) getLesson(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ref, err := lesson.ParseRef(vars["book"] + "/" + vars["lesson"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	idx, err := s.cache.Captions(r.Context(), ref)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "lesson "+ref.String()+" not found")
			return
		}
		s.logger.Errorw("Failed to load captions", "ref", ref.String(), "error", err)
		writeError(w, http.StatusBadGateway, "failed to load captions")
		return
	}

	resp := lessonResponse{
		Ref:       ref,
		Page:      ref.PageURL(),
		Metadata:  idx.Metadata(),
		Segments:  idx.Segments(),
		Resources: ref.Resources(),
	}

	// the lesson is still served when the manifest cannot place it
	manifest, err := s.cache.Manifest(r.Context())
	if err != nil {
		s.logger.Warnw("Manifest unavailable", "error", err)
	} else {
		if entry, ok := manifest.Lookup(ref); ok {
			resp.Title = entry.Title
		}
		if next, err := manifest.Next(ref); err == nil {
			resp.Next = &next
		} else {
			s.logger.Debugw("No next lesson", "ref", ref.String(), "reason", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /api/manifest
func (s *Server) getManifest(w http.ResponseWriter, r *http.Request) {
	manifest, err := s.cache.Manifest(r.Context())
	if err != nil {
		s.logger.Errorw("Failed to load manifest", "error", err)
		writeError(w, http.StatusBadGateway, "failed to load manifest")
		return
	}

	books := make([]bookResponse, 0)
	for _, key := range manifest.Books() {
		books = append(books, bookResponse{
			Key:     key,
			Book:    lesson.BookPrefix + key,
			Lessons: manifest.Book(key),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

// GET /api/resolve?address=NCE1/001 maps a page address to the page that
// should show it. An empty address goes to the book list.
func (s *Server) resolveAddress(w http.ResponseWriter, r *http.Request) {
	ref, err := lesson.ParseRef(r.URL.Query().Get("address"))
	switch {
	case errors.Is(err, lesson.ErrEmptyRef):
		writeJSON(w, http.StatusOK, resolveResponse{Page: lesson.HomePage})
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSON(w, http.StatusOK, resolveResponse{Ref: &ref, Page: ref.PageURL()})
	}
}

// serves audio, captions and covers straight from the content root
func (s *Server) contentHandler() http.Handler {
	switch src := s.lib.Source.(type) {
	case *lesson.DirSource:
		return http.FileServer(http.Dir(src.Root))
	case *lesson.HTTPSource:
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimPrefix(r.URL.Path, "/")
			http.Redirect(w, r, src.BaseURL.JoinPath(strings.Split(name, "/")...).String(), http.StatusFound)
		})
	default:
		return http.NotFoundHandler()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
