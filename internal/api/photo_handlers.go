package api

import (
	"context"
	"net/http"

	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/internal/resolver"
)

// handleQueryPhotos resolves an ad hoc query without storing anything.
// Partial failures come back as 200 with per-target errors.
func (s *Server) handleQueryPhotos(w http.ResponseWriter, r *http.Request) {
	var req photoQueryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.writeError(w, r, err)
		return
	}
	query, err := req.toDomain()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.resolver.Resolve(r.Context(), query, resolver.Options{Limit: req.Limit, SinceID: req.SinceID})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	photos := res.Photos
	if photos == nil {
		photos = []domain.Photo{}
	}
	s.writeJSON(w, http.StatusOK, photoQueryResponse{
		Photos:     photos,
		Candidates: res.Candidates,
		Errors:     newTargetErrors(res.Errors),
	})
}

func (s *Server) handleRemoveUnreferenced(w http.ResponseWriter, r *http.Request) {
	var deleted int64
	err := s.transactor.WithinTx(r.Context(), func(ctx context.Context) error {
		n, err := s.photoRepo.RemoveUnreferenced(ctx)
		deleted = n
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("Unreferenced photos removed", "rows_deleted", deleted)
	s.writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, newStatusResponse(s.scheduler.Status()))
}
