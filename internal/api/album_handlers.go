package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/internal/repositories/album"
	"github.com/orgball2608/fedi-albums/internal/repositories/photo"
	"github.com/orgball2608/fedi-albums/internal/scheduler"
	"github.com/orgball2608/fedi-albums/pkg/errors"
)

func (s *Server) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	enabled, err := parseOptionalBool(r, "enabled")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	albums, total, err := s.albumRepo.List(r.Context(), album.ListOptions{
		Offset:  page.Offset,
		Limit:   page.Limit,
		Enabled: enabled,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items := make([]albumResponse, 0, len(albums))
	for _, a := range albums {
		items = append(items, newAlbumResponse(a))
	}
	s.writeJSON(w, http.StatusOK, listResponse[albumResponse]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit})
}

func (s *Server) handleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req createAlbumRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.writeError(w, r, err)
		return
	}

	query, err := req.Query.toDomain()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	created, err := s.albumRepo.Create(r.Context(), domain.Album{
		ID:      req.ID,
		Title:   req.Title,
		Query:   query,
		Limit:   req.Limit,
		Enabled: enabled,
		Refresh: domain.RefreshState{Interval: time.Duration(req.IntervalSeconds) * time.Second},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newAlbumResponse(created))
}

func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	a, err := s.albumRepo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newAlbumResponse(a))
}

// handleUpdateAlbum applies a partial update. Refresh state other than the
// interval belongs to the scheduler and cannot be edited here.
func (s *Server) handleUpdateAlbum(w http.ResponseWriter, r *http.Request) {
	var req updateAlbumRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.writeError(w, r, err)
		return
	}

	patch := domain.AlbumPatch{
		Title:   req.Title,
		Limit:   req.Limit,
		Enabled: req.Enabled,
	}
	if req.Query != nil {
		query, err := req.Query.toDomain()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.Query = query
	}
	if req.IntervalSeconds != nil {
		interval := time.Duration(*req.IntervalSeconds) * time.Second
		patch.Refresh = &domain.RefreshPatch{Interval: &interval}
	}

	var updated domain.Album
	err := s.transactor.WithinTx(r.Context(), func(ctx context.Context) error {
		var err error
		updated, err = s.albumRepo.Update(ctx, chi.URLParam(r, "id"), patch)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newAlbumResponse(updated))
}

func (s *Server) handleDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.transactor.WithinTx(r.Context(), func(ctx context.Context) error {
		return s.albumRepo.Delete(ctx, id)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRefreshAlbum runs a refresh now. A rate limited or partial outcome
// is still a 200; only a failed refresh maps to an error status.
func (s *Server) handleRefreshAlbum(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.scheduler.ForceRefresh(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := newOutcomeResponse(outcome)
	if outcome.Kind == scheduler.OutcomeFailed {
		s.writeJSON(w, errors.HTTPStatus(errors.CodeOf(outcome.Err)), resp)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAlbumPhotos(w http.ResponseWriter, r *http.Request) {
	page, err := parsePagination(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := s.albumRepo.Get(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	photos, total, err := s.photoRepo.ListByAlbum(r.Context(), id, photo.Page{Offset: page.Offset, Limit: page.Limit})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listResponse[domain.Photo]{Items: photos, Total: total, Offset: page.Offset, Limit: page.Limit})
}
