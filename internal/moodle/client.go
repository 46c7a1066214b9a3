// Package moodle is a client for the Moodle REST web-service endpoint.
// Every call carries the configured token and asks for JSON; failures are
// reported as errors matching common.ErrRemoteUnavailable.
package moodle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/cryptox"
)

// StudentRoleID is the Moodle role assigned by manual enrolment.
const StudentRoleID = 5

const (
	fnGetCourses     = "core_course_get_courses"
	fnGetUsers       = "core_user_get_users"
	fnCreateUsers    = "core_user_create_users"
	fnManualEnrol    = "enrol_manual_enrol_users"
	fnSiteInfo       = "core_webservice_get_site_info"
	fnGetUserCourses = "core_enrol_get_users_courses"
)

// Config locates the web-service endpoint. A zero Timeout leaves the
// transport default in place.
type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient returns a client for cfg. If hc is nil a new http.Client with
// cfg.Timeout is used.
func NewClient(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: hc}
}

// generatePassword is a seam for tests.
var generatePassword = cryptox.GeneratePassword

// Courses lists every course visible to the token. No pagination.
func (c *Client) Courses(ctx context.Context) ([]Course, error) {
	var courses []Course
	if err := c.call(ctx, http.MethodGet, fnGetCourses, url.Values{}, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// CourseByID fetches a single course. common.ErrorNotFound if Moodle returns
// an empty list.
func (c *Client) CourseByID(ctx context.Context, id int64) (*Course, error) {
	params := url.Values{}
	params.Set("options[ids][0]", strconv.FormatInt(id, 10))

	var courses []Course
	if err := c.call(ctx, http.MethodGet, fnGetCourses, params, &courses); err != nil {
		return nil, err
	}
	for i := range courses {
		if courses[i].ID == id {
			return &courses[i], nil
		}
	}
	return nil, common.ErrorNotFound
}

// FindUserBy returns the first user whose field ("username" or "email")
// equals value.
func (c *Client) FindUserBy(ctx context.Context, field, value string) (*User, error) {
	if field != "username" && field != "email" {
		return nil, fmt.Errorf("%w: unsupported lookup field %q", common.ErrorValidation, field)
	}

	params := url.Values{}
	params.Set("criteria[0][key]", field)
	params.Set("criteria[0][value]", value)

	var resp struct {
		Users []User `json:"users"`
	}
	if err := c.call(ctx, http.MethodGet, fnGetUsers, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, common.ErrorNotFound
	}
	return &resp.Users[0], nil
}

// CreateUser registers a manual-auth account. The username is the lowercased
// email; a random password is generated when none is supplied. Any answer
// other than a populated list with an id yields common.ErrRemoteUserCreation.
func (c *Client) CreateUser(ctx context.Context, u NewUser) (*User, error) {
	first, last := common.SplitFullName(u.Name)
	password := u.Password
	if password == "" {
		p, err := generatePassword()
		if err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		password = p
	}

	username := strings.ToLower(strings.TrimSpace(u.Email))

	params := url.Values{}
	params.Set("users[0][username]", username)
	params.Set("users[0][password]", password)
	params.Set("users[0][firstname]", first)
	params.Set("users[0][lastname]", last)
	params.Set("users[0][email]", u.Email)
	params.Set("users[0][auth]", "manual")
	if u.Country != "" {
		params.Set("users[0][country]", u.Country)
	}
	if u.City != "" {
		params.Set("users[0][city]", u.City)
	}
	if u.Age != nil {
		params.Set("users[0][description]", "Edad: "+strconv.Itoa(*u.Age))
	}

	var created []User
	if err := c.call(ctx, http.MethodPost, fnCreateUsers, params, &created); err != nil {
		var re *ResponseError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("%w: %s", common.ErrRemoteUserCreation, re.Error())
		}
		return nil, err
	}
	if len(created) == 0 || created[0].ID == 0 {
		return nil, common.ErrRemoteUserCreation
	}

	user := created[0]
	if user.Username == "" {
		user.Username = username
	}
	user.FirstName, user.LastName, user.Email = first, last, u.Email
	return &user, nil
}

// Enroll enrols userID in courseID as a student and returns Moodle's raw
// acknowledgement (normally JSON null).
func (c *Client) Enroll(ctx context.Context, userID, courseID int64) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("enrolments[0][roleid]", strconv.Itoa(StudentRoleID))
	params.Set("enrolments[0][userid]", strconv.FormatInt(userID, 10))
	params.Set("enrolments[0][courseid]", strconv.FormatInt(courseID, 10))

	var ack json.RawMessage
	if err := c.call(ctx, http.MethodPost, fnManualEnrol, params, &ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// SiteInfo returns the identity bound to the configured token.
func (c *Client) SiteInfo(ctx context.Context) (*SiteInfo, error) {
	var info SiteInfo
	if err := c.call(ctx, http.MethodGet, fnSiteInfo, url.Values{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// UserCourses lists the courses userID is enrolled in.
func (c *Client) UserCourses(ctx context.Context, userID int64) ([]Course, error) {
	params := url.Values{}
	params.Set("userid", strconv.FormatInt(userID, 10))

	var courses []Course
	if err := c.call(ctx, http.MethodGet, fnGetUserCourses, params, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// call issues one web-service request and decodes the JSON answer into out.
func (c *Client) call(ctx context.Context, method, function string, params url.Values, out any) error {
	params.Set("wstoken", c.cfg.Token)
	params.Set("wsfunction", function)
	params.Set("moodlewsrestformat", "json")

	var (
		req *http.Request
		err error
	)
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, c.cfg.URL, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.cfg.URL+"?"+params.Encode(), nil)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %s", common.ErrRemoteUnavailable, function, resp.Status)
	}

	return decode(function, body, out)
}

func decode(function string, body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Exception string `json:"exception"`
			ErrorCode string `json:"errorcode"`
			Message   string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && envelope.Exception != "" {
			return &ResponseError{
				Function:  function,
				Exception: envelope.Exception,
				ErrorCode: envelope.ErrorCode,
				Message:   envelope.Message,
			}
		}
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return &ResponseError{Function: function, Cause: err}
	}
	return nil
}
