package moodle

// Course is the subset of a Moodle course record the bridge consumes.
// core_course_get_courses reports the category as "categoryid" while
// core_enrol_get_users_courses uses "category"; CategoryRef merges both.
type Course struct {
	ID            int64  `json:"id"`
	ShortName     string `json:"shortname"`
	FullName      string `json:"fullname"`
	DisplayName   string `json:"displayname,omitempty"`
	Summary       string `json:"summary"`
	CategoryID    *int64 `json:"categoryid,omitempty"`
	Category      *int64 `json:"category,omitempty"`
	StartDate     *int64 `json:"startdate,omitempty"`
	EndDate       *int64 `json:"enddate,omitempty"`
	Format        string `json:"format,omitempty"`
	CourseImage   string `json:"courseimage,omitempty"`
	OverviewFiles []File `json:"overviewfiles,omitempty"`
}

// File is an attachment reference (course overview images).
type File struct {
	FileName string `json:"filename"`
	FileURL  string `json:"fileurl"`
	MimeType string `json:"mimetype,omitempty"`
}

// CategoryRef returns the course category from whichever field is set.
func (c Course) CategoryRef() *int64 {
	if c.CategoryID != nil {
		return c.CategoryID
	}
	return c.Category
}

// ImageURL returns the course image, preferring "courseimage" over the first
// overview file. Empty when neither is present.
func (c Course) ImageURL() string {
	if c.CourseImage != "" {
		return c.CourseImage
	}
	for _, f := range c.OverviewFiles {
		if f.FileURL != "" {
			return f.FileURL
		}
	}
	return ""
}

// User is a Moodle user record as returned by core_user_get_users.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	FullName  string `json:"fullname"`
	Email     string `json:"email"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
}

// NewUser holds the fields sent to core_user_create_users.
type NewUser struct {
	Name     string
	Email    string
	Country  string
	City     string
	Age      *int
	Password string
}

// SiteInfo is the identity bound to the configured token.
type SiteInfo struct {
	SiteName  string `json:"sitename"`
	SiteURL   string `json:"siteurl"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	FullName  string `json:"fullname"`
	UserID    int64  `json:"userid"`
	Release   string `json:"release,omitempty"`
	Version   string `json:"version,omitempty"`
	Lang      string `json:"lang,omitempty"`
}
