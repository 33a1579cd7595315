package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finvue/internal/analytics"
	"finvue/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	sel := ParseSelection(r.URL.Query(), s.deps.Now())
	txs := analytics.Filter(s.deps.Service.Ledger().List(), sel)
	NewResponse().JSON(txs).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	tx, err := s.deps.Service.Create(r.Context(), p.TransactionInput())
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+tx.ID).
		JSON(tx).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	tx, err := s.deps.Service.Update(r.Context(), chi.URLParam(r, "id"), p.TransactionInput())
	if err != nil {
		writeError(w, r, err, log.OpUpdate)
		return
	}
	NewResponse().JSON(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, log.OpDelete)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
