package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/tidwall/gjson"
)

// ErrAuthenticationExpired is returned when a 401 could not be cured by a
// refresh. Local credentials have been cleared and the user must log in.
var ErrAuthenticationExpired = errors.New("authentication expired")

// GenericErrorMessage is used when the server gave no usable message.
const GenericErrorMessage = "something went wrong, please try again"

// NetworkError covers everything that kept a request from getting a
// response, timeouts included.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request exceeded its time bound.
func (e *NetworkError) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// ValidationError is an HTTPError whose body listed field errors. Message
// holds them flattened into one line.
type ValidationError struct {
	*HTTPError
	Fields []apimodel.FieldError
}

func (e *ValidationError) Unwrap() error {
	return e.HTTPError
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

// NewHTTPError builds the error for a non-2xx response. A body with an
// "errors" list becomes a ValidationError; otherwise the body's "message" is
// used, falling back to GenericErrorMessage.
func NewHTTPError(status int, body []byte) error {
	he := &HTTPError{Status: status, Body: body, Message: GenericErrorMessage}
	if !gjson.ValidBytes(body) {
		return he
	}

	parsed := gjson.ParseBytes(body)
	if list := parsed.Get("errors"); list.IsArray() && len(list.Array()) > 0 {
		fields, messages := flattenFieldErrors(list)
		if len(messages) > 0 {
			he.Message = strings.Join(messages, ", ")
			return &ValidationError{HTTPError: he, Fields: fields}
		}
	}

	if msg := parsed.Get("message").String(); msg != "" {
		he.Message = msg
	} else if msg := parsed.Get("error").String(); msg != "" && parsed.Get("error").Type == gjson.String {
		he.Message = msg
	}
	return he
}

func flattenFieldErrors(list gjson.Result) ([]apimodel.FieldError, []string) {
	var (
		fields   []apimodel.FieldError
		messages []string
	)
	list.ForEach(func(_, item gjson.Result) bool {
		var fe apimodel.FieldError
		switch {
		case item.Type == gjson.String:
			fe.Message = item.String()
		case item.IsObject():
			fe.Field = firstString(item, "field", "param", "path")
			fe.Message = firstString(item, "message", "msg")
		}
		if fe.Message == "" {
			return true
		}
		fields = append(fields, fe)
		if fe.Field != "" && !strings.Contains(strings.ToLower(fe.Message), strings.ToLower(fe.Field)) {
			messages = append(messages, fe.Field+" "+fe.Message)
		} else {
			messages = append(messages, fe.Message)
		}
		return true
	})
	return fields, messages
}

func firstString(item gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
