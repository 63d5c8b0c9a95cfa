package graph

import (
	"context"

	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/msgraph"
)

// userFields are the profile properties read for the current user
var userFields = []string{"displayName", "mail", "mailboxSettings", "userPrincipalName"}

// GetCurrentUser returns the signed-in user's profile
func (s *Service) GetCurrentUser(ctx context.Context) (*msgraph.User, error) {
	var user *msgraph.User
	err := s.do(ctx, instrumentation.ServiceUser, instrumentation.OperationGet, func(ctx context.Context, c *msgraph.Client) error {
		var err error
		user, err = c.Me(ctx, userFields...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DefaultTimeZone returns the user's mailbox time zone, or "UTC" when the
// mailbox has none.
func (s *Service) DefaultTimeZone(ctx context.Context) (string, error) {
	user, err := s.GetCurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if user.MailboxSettings == nil || user.MailboxSettings.TimeZone == "" {
		return "UTC", nil
	}
	return user.MailboxSettings.TimeZone, nil
}
