package http

import (
	"errors"
	"net/http"

	"finvue/internal/core"
	"finvue/internal/log"
	"finvue/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

// writeError maps ledger and validation errors onto status codes. Anything
// unrecognised is logged and reported as a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	var verrs core.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		ValidationError(verrs).Write(w)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, core.ErrCategoryNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, store.ErrDuplicateID), errors.Is(err, core.ErrCategoryExists):
		ConflictError(err.Error()).Write(w)
	case errors.Is(err, core.ErrInvalidType), errors.Is(err, core.ErrEmptyCategoryName):
		BadRequestError(err.Error()).Write(w)
	default:
		log.FromContext(r.Context()).LogError(r.Context(), "Request failed", err, operation, nil)
		InternalServerError("internal error").Write(w)
	}
}
