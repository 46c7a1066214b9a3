package rest

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const archiveURLHeader = "X-Export-Archive-URL"

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseID("course_id", chi.URLParam(r, "course_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.exporter.CourseReport(r.Context(), courseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": report.Filename}))
	h.Set("Content-Length", strconv.Itoa(len(report.Content)))
	if report.ArchiveURL != "" {
		h.Set(archiveURLHeader, report.ArchiveURL)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Content)
}
