package server

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/thbase/internal/errors"
	"github.com/vango-dev/thbase/pkg/records"
	"github.com/vango-dev/thbase/pkg/submission"
)

// categoriesResponse is the body of GET /api/records.
type categoriesResponse struct {
	Categories []int `json:"categories"`
}

// errorResponse is the body of a failed API call.
type errorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// handleCategories lists the known th values.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ths, err := s.records.Categories(r.Context())
	if err != nil {
		s.writeError(w, errors.New("E304").Wrap(err))
		return
	}
	_ = submission.WriteJSON(w, http.StatusOK, categoriesResponse{Categories: ths})
}

// handleCategory returns the records of one category.
func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	th, err := strconv.Atoi(chi.URLParam(r, "th"))
	if err != nil {
		s.writeError(w, errors.New("E202"))
		return
	}

	list, err := s.records.Load(r.Context(), th)
	if stderrors.Is(err, records.ErrNotFound) {
		s.writeError(w, errors.New("E303").WithDetail("No records for th " + strconv.Itoa(th)))
		return
	}
	if err != nil {
		s.writeError(w, errors.New("E304").Wrap(err))
		return
	}
	_ = submission.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	ae := errors.FromError(err, "E304")
	resp := errorResponse{Code: ae.Code, Message: ae.Message}
	if ae.HTTPStatus() >= http.StatusInternalServerError {
		s.logger.Error("api error", "error", err)
		resp.Error = err.Error()
	}
	_ = submission.WriteJSON(w, ae.HTTPStatus(), resp)
}
