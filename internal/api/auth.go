package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireBearer guards a handler with bearer token auth. A server with
// no configured token refuses with 500 rather than running open; a
// missing or wrong client token gets 401.
func (s *Server) requireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			s.logger.Error("bearer token not configured, refusing request",
				"path", r.URL.Path)
			writeError(w, http.StatusInternalServerError, "server authentication is not configured", s.logger)
			return
		}

		presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(s.token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid or missing bearer token", s.logger)
			return
		}

		next(w, r)
	}
}
