package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
)

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.directory.Courses(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) handleFindUser(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user, err := s.directory.FindUser(r.Context(), q.Get("username"), q.Get("email"))
	if errors.Is(err, common.ErrorNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: msgUserNotFound})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSiteInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.directory.SiteInfo(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleEnrolledCourses lists the courses of ?userid=, or of the identity
// bound to the web-service token when the parameter is absent.
func (s *Server) handleEnrolledCourses(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if raw := r.URL.Query().Get("userid"); raw != "" {
		id, err := parseID("userid", raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		userID = id
	}

	courses, err := s.directory.EnrolledCourses(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}
