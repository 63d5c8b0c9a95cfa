package auth

import "fmt"

// AuthError reports that no usable token could be obtained for an account
type AuthError struct {
	Account string
	Reason  string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("authentication failed for account %q: %s", e.Account, e.Reason)
	}
	return fmt.Sprintf("authentication failed for account %q: %s: %v", e.Account, e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
