package graph

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/teemow/graphplanner/internal/auth"
	"github.com/teemow/graphplanner/internal/msgraph"
)

// ErrorKind classifies a failed operation
type ErrorKind int

const (
	// KindUnknown is a failure that fits no other kind
	KindUnknown ErrorKind = iota
	// KindAuth means no usable credentials were available
	KindAuth
	// KindRemote means the Graph request failed or returned a non-2xx status
	KindRemote
	// KindMapping means a remote record did not have the expected shape
	KindMapping
	// KindInvalidArgument means the caller's input was rejected before any request
	KindInvalidArgument
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRemote:
		return "remote"
	case KindMapping:
		return "mapping"
	case KindInvalidArgument:
		return "invalid_argument"
	default:
		return "unknown"
	}
}

// Error is returned by every Service operation
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify wraps err in an *Error of the matching kind. Errors that are
// already classified pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var ge *Error
	if errors.As(err, &ge) {
		return err
	}

	var (
		authErr     *auth.AuthError
		retrieveErr *oauth2.RetrieveError
		remoteErr   *msgraph.RemoteRequestError
	)
	kind := KindUnknown
	switch {
	case errors.As(err, &authErr), errors.As(err, &retrieveErr):
		kind = KindAuth
	case errors.As(err, &remoteErr):
		kind = KindRemote
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func invalidArgument(op, format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err, or KindUnknown if err is not an *Error
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// DisplayMessage renders err for end users
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}

	var ge *Error
	if !errors.As(err, &ge) {
		return err.Error()
	}

	switch ge.Kind {
	case KindAuth:
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			return fmt.Sprintf("Authentication required for account %q: %s. Sign in again with 'graphplanner auth login'.", authErr.Account, authErr.Reason)
		}
		return "Authentication failed. Sign in again with 'graphplanner auth login'."
	case KindRemote:
		var rre *msgraph.RemoteRequestError
		if !errors.As(err, &rre) {
			return "Microsoft Graph request failed: " + ge.Err.Error()
		}
		switch {
		case rre.StatusCode == 0:
			return fmt.Sprintf("Could not reach Microsoft Graph: %v", rre.Err)
		case rre.StatusCode == http.StatusNotFound:
			return "Not found: " + messageOrStatus(rre)
		case rre.StatusCode == http.StatusUnauthorized || rre.StatusCode == http.StatusForbidden:
			return fmt.Sprintf("Access denied by Microsoft Graph (%d): %s", rre.StatusCode, messageOrStatus(rre))
		default:
			return fmt.Sprintf("Microsoft Graph request failed (%d): %s", rre.StatusCode, messageOrStatus(rre))
		}
	case KindMapping:
		return "Unexpected data in the task list: " + ge.Err.Error()
	case KindInvalidArgument:
		return "Invalid request: " + ge.Err.Error()
	default:
		return ge.Error()
	}
}

func messageOrStatus(rre *msgraph.RemoteRequestError) string {
	if rre.Message != "" {
		return rre.Message
	}
	return http.StatusText(rre.StatusCode)
}
