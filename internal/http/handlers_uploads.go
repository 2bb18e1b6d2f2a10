package http

import (
	"errors"
	"net/http"

	"paycheck/internal/log"
)

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.dashboards.Uploads(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Set("uploads", uploads).Write(w)
}

// handleUpload stores the CSV statements sent as multipart field "files".
// Files whose name is already uploaded are skipped; if every file is skipped
// the response is 409.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	batches, err := ParseStatementUploads(r)
	if errors.Is(err, errBadUpload) {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err != nil {
		writeError(w, r, log.OpParse, err)
		return
	}

	result, err := s.dashboards.Upload(r.Context(), batches)
	var warning error
	if err != nil {
		if !isPersistence(err) {
			writeError(w, r, log.OpUpload, err)
			return
		}
		warning = err
	}

	resp := NewJSONResponse().Status(http.StatusCreated)
	if len(result.Added) == 0 && len(result.Skipped) > 0 {
		resp = ErrorResponse(http.StatusConflict, "already_uploaded", "all files were already uploaded")
	}
	resp.Set("added", result.Added).
		Set("skipped", result.Skipped).
		Warning(warning).
		Write(w)
}

func (s *Server) handleRemoveUpload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	err := s.dashboards.RemoveUpload(r.Context(), name)
	if err != nil && !isPersistence(err) {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Set("removed", name).Warning(err).Write(w)
}

func (s *Server) handleClearUploads(w http.ResponseWriter, r *http.Request) {
	err := s.dashboards.ClearUploads(r.Context())
	if err != nil && !isPersistence(err) {
		writeError(w, r, log.OpClear, err)
		return
	}
	NewJSONResponse().Set("cleared", true).Warning(err).Write(w)
}
