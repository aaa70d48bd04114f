package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeError maps err onto a status: validation kinds become 422 with a
// field list, unauthorized kinds 401, and everything else 500 with no detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *common.DomainError
	if !errors.As(err, &de) {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch de.Kind {
	case common.KindValidation:
		writeJSON(w, http.StatusUnprocessableEntity, []fieldError{{Field: de.Field, Message: de.Message}})
	case common.KindUnauthorized:
		writeMessage(w, http.StatusUnauthorized, de.Message)
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// outcome labels err for the auth outcome counter.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var de *common.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "error"
}
