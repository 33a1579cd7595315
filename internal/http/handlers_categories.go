package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"finvue/internal/core"
	"finvue/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.deps.Service.Ledger().Taxonomy()).Write(w)
}

func (s *Server) handleListCategoriesOfType(w http.ResponseWriter, r *http.Request) {
	t, ok := categoryType(w, r)
	if !ok {
		return
	}
	names := s.deps.Service.Ledger().Taxonomy().Categories(t)
	if names == nil {
		names = []string{}
	}
	NewResponse().JSON(names).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	t, ok := categoryType(w, r)
	if !ok {
		return
	}
	name, ok := categoryName(w, r)
	if !ok {
		return
	}
	if err := s.deps.Service.AddCategory(r.Context(), t, name); err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(s.deps.Service.Ledger().Taxonomy()).Write(w)
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	t, ok := categoryType(w, r)
	if !ok {
		return
	}
	index, ok := categoryIndex(w, r)
	if !ok {
		return
	}
	name, ok := categoryName(w, r)
	if !ok {
		return
	}
	if err := s.deps.Service.RenameCategory(r.Context(), t, index, name); err != nil {
		writeError(w, r, err, log.OpUpdate)
		return
	}
	NewResponse().JSON(s.deps.Service.Ledger().Taxonomy()).Write(w)
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	t, ok := categoryType(w, r)
	if !ok {
		return
	}
	index, ok := categoryIndex(w, r)
	if !ok {
		return
	}
	if err := s.deps.Service.RemoveCategory(r.Context(), t, index); err != nil {
		writeError(w, r, err, log.OpDelete)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func categoryType(w http.ResponseWriter, r *http.Request) (core.Type, bool) {
	t, err := core.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return "", false
	}
	return t, true
}

func categoryIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		BadRequestError("category index must be a number").Write(w)
		return 0, false
	}
	return index, true
}

func categoryName(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return "", false
	}
	return p.Get("name"), true
}
