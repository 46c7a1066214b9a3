package models

import "time"

// Course mirrors a remote Moodle course. Fields are filled once when the
// mirror row is first created and may go stale afterwards.
type Course struct {
	ID        int64
	MoodleID  int64
	Name      string
	Category  *int64
	StartDate *int64
	EndDate   *int64
	Summary   string
	ImageURL  *string
}

// Enrollment is the local mirror of a remote enrolment; unique per
// (UserID, CourseID).
type Enrollment struct {
	ID         int64
	UserID     int64
	CourseID   int64
	EnrolledAt time.Time
}

// EnrollmentRow is an enrollment joined with its user and, when present,
// the user's profile.
type EnrollmentRow struct {
	EnrollmentID int64
	UserID       int64
	FirstName    string
	LastName     string
	Email        string
	EnrolledAt   time.Time
	HasProfile   bool
	Age          *int
	Country      *string
	Purpose      *string
}
