package msgraph

import (
	"errors"
	"fmt"
	"net/http"

	abstractions "github.com/microsoft/kiota-abstractions-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"
)

// RemoteRequestError is returned for any Graph call that did not complete
// with a 2xx status, including transport failures (StatusCode 0).
type RemoteRequestError struct {
	Method     string
	URL        string
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Err        error
}

func (e *RemoteRequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("graph %s %s failed: %v", e.Method, e.URL, e.Err)
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("graph %s %s returned %d (%s): %s", e.Method, e.URL, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("graph %s %s returned %d: %s", e.Method, e.URL, e.StatusCode, msg)
}

func (e *RemoteRequestError) Unwrap() error {
	return e.Err
}

// tokenError marks a failure to obtain an access token. It never reaches
// the wire, so it is not turned into a RemoteRequestError.
type tokenError struct {
	err error
}

func (e *tokenError) Error() string { return "acquire token: " + e.err.Error() }
func (e *tokenError) Unwrap() error { return e.err }

// wrapError converts an error returned by the Graph SDK. OData error
// envelopes keep their code, message and request id; other API errors keep
// their status; anything else is a transport failure.
func wrapError(method, path string, err error) error {
	if err == nil {
		return nil
	}

	var te *tokenError
	if errors.As(err, &te) {
		return te.err
	}

	e := &RemoteRequestError{Method: method, URL: path, Err: err}

	var odataErr *odataerrors.ODataError
	var apiErr *abstractions.ApiError
	switch {
	case errors.As(err, &odataErr):
		e.StatusCode = odataErr.ResponseStatusCode
		if body := odataErr.GetErrorEscaped(); body != nil {
			e.Code = deref(body.GetCode())
			e.Message = deref(body.GetMessage())
			if inner := body.GetInnerError(); inner != nil {
				e.RequestID = deref(inner.GetRequestId())
			}
		}
		if e.RequestID == "" {
			e.RequestID = headerValue(odataErr.ResponseHeaders, "request-id")
		}
	case errors.As(err, &apiErr):
		e.StatusCode = apiErr.ResponseStatusCode
		e.RequestID = headerValue(apiErr.ResponseHeaders, "request-id")
	}
	return e
}

func headerValue(h *abstractions.ResponseHeaders, key string) string {
	if h == nil {
		return ""
	}
	if values := h.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// StatusCode returns the HTTP status of a RemoteRequestError in err's chain,
// or 0 if there is none.
func StatusCode(err error) int {
	var rre *RemoteRequestError
	if errors.As(err, &rre) {
		return rre.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a Graph 404
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
