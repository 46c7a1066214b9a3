package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
	"github.com/dmitrijs2005/moodlebridge/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type mocView struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

func newMocView(m *models.Moc) mocView {
	return mocView{ID: m.ID, Title: m.Title, Description: m.Description, Completed: m.Completed, CreatedAt: m.CreatedAt}
}

// mocPatch carries only the fields present in the request body.
type mocPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func decodeMocPatch(r *http.Request) (*mocPatch, error) {
	var p mocPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: malformed json body", common.ErrorValidation)
	}
	return &p, nil
}

func (p *mocPatch) applyTo(in *services.MocInput) {
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Completed != nil {
		in.Completed = *p.Completed
	}
}

func mocID(r *http.Request) (int64, error) {
	return parseID("id", chi.URLParam(r, "id"))
}

func (s *Server) handleListMocs(w http.ResponseWriter, r *http.Request) {
	list, err := s.mocs.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]mocView, 0, len(list))
	for i := range list {
		out = append(out, newMocView(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMoc(w http.ResponseWriter, r *http.Request) {
	id, err := mocID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.mocs.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMocView(m))
}

func (s *Server) handleCreateMoc(w http.ResponseWriter, r *http.Request) {
	p, err := decodeMocPatch(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in services.MocInput
	p.applyTo(&in)

	m, err := s.mocs.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMocView(m))
}

// handleReplaceMoc treats absent fields as their zero value.
func (s *Server) handleReplaceMoc(w http.ResponseWriter, r *http.Request) {
	id, err := mocID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := decodeMocPatch(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in services.MocInput
	p.applyTo(&in)

	m, err := s.mocs.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMocView(m))
}

func (s *Server) handlePatchMoc(w http.ResponseWriter, r *http.Request) {
	id, err := mocID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := decodeMocPatch(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cur, err := s.mocs.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in := services.MocInput{Title: cur.Title, Description: cur.Description, Completed: cur.Completed}
	p.applyTo(&in)

	m, err := s.mocs.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMocView(m))
}

func (s *Server) handleDeleteMoc(w http.ResponseWriter, r *http.Request) {
	id, err := mocID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.mocs.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
