package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/state"
	"github.com/go-chi/chi/v5"
)

// Server exposes a document registry over REST. Mutations arriving through
// the API are tagged as remotely originated, so local subscribers can tell
// their own edits from synced ones.
type Server struct {
	Registry *registry.Registry
}

// NewHandler creates the HTTP handler for a document registry.
func NewHandler(reg *registry.Registry) http.Handler {
	server := &Server{Registry: reg}
	r := chi.NewRouter()

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", server.ListDocuments)
		r.Post("/", server.CreateDocument)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetDocument)
			r.Delete("/", server.DeleteDocument)
			r.Post("/save", server.SaveDocument)
			r.Post("/patch", server.PatchDocument)
			r.Post("/undo", server.Undo)
			r.Post("/redo", server.Redo)
			r.Get("/history", server.GetHistory)

			r.Get("/values/*", server.GetValue)
			r.Put("/values/*", server.PutValue)
			r.Delete("/values/*", server.DeleteValue)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// document resolves the {id} URL parameter into a live document, writing the
// error response itself when resolution fails.
func (s *Server) document(w http.ResponseWriter, r *http.Request) (*arbor.Document, bool) {
	id := chi.URLParam(r, "id")
	doc, err := s.Registry.GetOrOpen(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrDocumentNotFound) {
			http.Error(w, fmt.Sprintf("document not found: %s", id), http.StatusNotFound)
			return nil, false
		}
		http.Error(w, fmt.Sprintf("load error: %v", err), http.StatusInternalServerError)
		slog.Error("Document load failed", "error", err, "id", id)
		return nil, false
	}
	return doc, true
}

// valuePath extracts the dotted value path from the wildcard URL segment,
// accepting both "a/b/c" and "a.b.c" forms.
func valuePath(r *http.Request) string {
	raw := chi.URLParam(r, "*")
	return strings.ReplaceAll(strings.Trim(raw, "/"), "/", ".")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"app":     "arbor-http",
		"version": strings.TrimSpace(arbor.Version),
	})
}

// ListDocuments handles the GET /documents request.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	stored, err := s.Registry.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("list error: %v", err), http.StatusInternalServerError)
		slog.Error("List failed", "error", err)
		return
	}
	writeJSON(w, map[string]any{
		"stored": stored,
		"open":   s.Registry.Open(),
	})
}

// CreateDocument handles the POST /documents request.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID   string         `json:"id"`
		Data map[string]any `json:"data"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			slog.Warn("CreateDocument: Invalid request body", "error", err)
			return
		}
	}

	var opts []arbor.Option
	if body.ID != "" {
		opts = append(opts, arbor.WithID(body.ID))
	}
	doc := s.Registry.Create(body.Data, opts...)

	if err := doc.Save(r.Context(), s.Registry.Store()); err != nil {
		http.Error(w, fmt.Sprintf("save error: %v", err), http.StatusInternalServerError)
		slog.Error("CreateDocument: initial save failed", "error", err, "id", doc.ID())
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]any{"id": doc.ID(), "data": doc.Serialize()})
}

// GetDocument handles the GET /documents/{id} request.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]any{"id": doc.ID(), "data": doc.Serialize()})
}

// DeleteDocument handles the DELETE /documents/{id} request.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Registry.Delete(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("delete error: %v", err), http.StatusInternalServerError)
		slog.Error("DeleteDocument failed", "error", err, "id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveDocument handles the POST /documents/{id}/save request.
func (s *Server) SaveDocument(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.document(w, r); !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.Registry.Save(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("save error: %v", err), http.StatusInternalServerError)
		slog.Error("SaveDocument failed", "error", err, "id", id)
		return
	}
	writeJSON(w, map[string]string{"status": "saved"})
}

// GetValue handles the GET /documents/{id}/values/{path} request.
func (s *Server) GetValue(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	path := valuePath(r)
	v, found := doc.Get(path)
	if !found {
		http.Error(w, fmt.Sprintf("no value at path: %s", path), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"path": path, "value": v})
}

// PutValue handles the PUT /documents/{id}/values/{path} request.
func (s *Server) PutValue(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	var body struct {
		Value any  `json:"value"`
		Force bool `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("PutValue: Invalid request body", "error", err)
		return
	}

	opts := []state.MutateOption{state.Remote()}
	if body.Force {
		opts = append(opts, state.Force())
	}
	changed := doc.Set(valuePath(r), body.Value, opts...)
	writeJSON(w, map[string]any{"changed": changed})
}

// DeleteValue handles the DELETE /documents/{id}/values/{path} request.
func (s *Server) DeleteValue(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	path := valuePath(r)
	if !doc.Tree().Unset(path, state.Remote()) {
		http.Error(w, fmt.Sprintf("no value at path: %s", path), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"changed": true})
}

// PatchDocument handles the POST /documents/{id}/patch request.
func (s *Server) PatchDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	var body struct {
		Data          map[string]any `json:"data"`
		RemoveMissing bool           `json:"remove_missing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("PatchDocument: Invalid request body", "error", err)
		return
	}

	changed := doc.Tree().Patch(body.Data, body.RemoveMissing, state.Remote())
	writeJSON(w, map[string]any{"changed": changed, "data": doc.Serialize()})
}

// Undo handles the POST /documents/{id}/undo request.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	done := doc.Undo(r.Context())
	writeJSON(w, map[string]any{"done": done, "data": doc.Serialize()})
}

// Redo handles the POST /documents/{id}/redo request.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	done := doc.Redo(r.Context())
	writeJSON(w, map[string]any{"done": done, "data": doc.Serialize()})
}

// GetHistory handles the GET /documents/{id}/history request.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	stack := doc.History()
	if stack == nil {
		http.Error(w, "history disabled for this document", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]any{
		"actions":  stack.Names(),
		"cursor":   stack.Cursor(),
		"can_undo": stack.CanUndo(),
		"can_redo": stack.CanRedo(),
	})
}
