package rest

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/server/services"
)

type directEnrollResponse struct {
	Status       string          `json:"status"`
	Message      string          `json:"message"`
	RemoteUserID int64           `json:"remote_user_id"`
	CourseID     int64           `json:"course_id"`
	Response     json.RawMessage `json:"response"`
}

// handleEnroll accepts courseid plus either userid (a Moodle user id,
// enrolled directly) or the registration fields of the person to enrol.
// A logged-in caller is enrolled as themselves.
func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	f, err := bindFields(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	courseID, ok, err := f.int64("courseid")
	if err == nil && !ok {
		err = common.ErrorMissingParams
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	remoteUserID, direct, err := f.int64("userid")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if direct {
		s.enrollDirect(w, r, remoteUserID, courseID)
		return
	}

	age, err := f.intPtr("age")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.enroller.Enroll(r.Context(), services.EnrollRequest{
		CourseID: courseID,
		Actor:    userFromContext(r.Context()),
		Name:     f["name"],
		Email:    f["email"],
		Password: f["password"],
		Age:      age,
		City:     f["city"],
		Country:  f["country"],
		Purpose:  f["purpose"],
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) enrollDirect(w http.ResponseWriter, r *http.Request, remoteUserID, courseID int64) {
	ack, err := s.enroller.EnrollDirect(r.Context(), remoteUserID, courseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(ack) == 0 {
		ack = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, directEnrollResponse{
		Status:       services.StatusEnrolled,
		Message:      "Inscripción exitosa",
		RemoteUserID: remoteUserID,
		CourseID:     courseID,
		Response:     ack,
	})
}
