package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/logging"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/repomanager"
)

// EnrolledAtLayout renders enrollment timestamps as dd/mm/yyyy HH:MM.
const EnrolledAtLayout = "02/01/2006 15:04"

// ReportHeader is the fixed first row of every course report.
var ReportHeader = []string{
	"Nombre completo",
	"Correo electrónico",
	"Edad",
	"País",
	"Propósito",
	"Fecha de inscripción",
}

// Archiver copies a rendered report somewhere durable and returns a URL
// it can be fetched from.
type Archiver interface {
	Archive(ctx context.Context, moodleID int64, body []byte) (string, error)
}

// Report is a rendered course report.
type Report struct {
	Filename   string
	CourseName string
	Content    []byte
	Rows       int
	ArchiveURL string
}

type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mirror      *CourseMirror
	archiver    Archiver
	loc         *time.Location
	log         logging.Logger
}

// NewExportService builds the reporter. archiver may be nil.
func NewExportService(db *sql.DB, m repomanager.RepositoryManager, mirror *CourseMirror, archiver Archiver, log logging.Logger) *ExportService {
	return &ExportService{
		db:          db,
		repomanager: m,
		mirror:      mirror,
		archiver:    archiver,
		loc:         time.UTC,
		log:         log,
	}
}

// CourseReport renders one CSV row per local enrollment of the course. Users
// without a profile get an empty one created so every row resolves.
func (s *ExportService) CourseReport(ctx context.Context, moodleID int64) (*Report, error) {
	if moodleID <= 0 {
		return nil, common.ErrorMissingParams
	}

	course, err := s.mirror.Ensure(ctx, moodleID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repomanager.Enrollments(s.db).ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ReportHeader); err != nil {
		return nil, err
	}

	profiles := s.repomanager.Profiles(s.db)
	for _, row := range rows {
		if !row.HasProfile {
			p, _, err := profiles.GetOrCreate(ctx, row.UserID)
			if err != nil {
				return nil, err
			}
			row.Age = p.Age
			row.Country, row.Purpose = &p.Country, &p.Purpose
		}
		if err := w.Write(s.record(row)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	report := &Report{
		Filename:   "usuarios_curso_" + course.Name + ".csv",
		CourseName: course.Name,
		Content:    buf.Bytes(),
		Rows:       len(rows),
	}

	if s.archiver != nil {
		url, err := s.archiver.Archive(ctx, moodleID, report.Content)
		if err != nil {
			s.log.Warn(ctx, "report archive failed", "moodle_id", moodleID, "error", err)
		} else {
			report.ArchiveURL = url
		}
	}

	s.log.Info(ctx, "course report exported", "moodle_id", moodleID, "rows", report.Rows)
	return report, nil
}

func (s *ExportService) record(row models.EnrollmentRow) []string {
	age := common.PlaceholderUnavailable
	if row.Age != nil {
		age = strconv.Itoa(*row.Age)
	}
	return []string{
		common.JoinFullName(row.FirstName, row.LastName),
		row.Email,
		age,
		orUnavailable(row.Country),
		orUnavailable(row.Purpose),
		row.EnrolledAt.In(s.loc).Format(EnrolledAtLayout),
	}
}

func orUnavailable(v *string) string {
	if v == nil || *v == "" {
		return common.PlaceholderUnavailable
	}
	return *v
}
