package moodle

import (
	"fmt"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
)

// ResponseError is returned when the web service answered but the payload
// was an exception envelope or could not be decoded. It matches
// common.ErrRemoteUnavailable via errors.Is.
type ResponseError struct {
	Function  string
	Exception string
	ErrorCode string
	Message   string
	Cause     error
}

func (e *ResponseError) Error() string {
	if e.Exception != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Function, e.Message, e.ErrorCode)
	}
	return fmt.Sprintf("%s: malformed response: %v", e.Function, e.Cause)
}

func (e *ResponseError) Unwrap() error {
	return common.ErrRemoteUnavailable
}
