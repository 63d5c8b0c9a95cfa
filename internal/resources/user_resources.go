package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/graphplanner/internal/graph"
	"github.com/teemow/graphplanner/internal/server"
)

const (
	// ProfileURI is the resource of the signed-in user's profile
	ProfileURI = "user://profile"

	// SettingsURI is the resource of the effective planner settings
	SettingsURI = "user://settings"
)

// RegisterUserResources registers the user resources
func RegisterUserResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	profileResource := mcp.NewResource(
		ProfileURI,
		"Current User Profile",
		mcp.WithResourceDescription("Microsoft Graph profile of the configured account, including the mailbox time zone"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(profileResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleUserProfile(ctx, request, sc)
	})

	settingsResource := mcp.NewResource(
		SettingsURI,
		"Planner Settings",
		mcp.WithResourceDescription("Task list location, time zone and week start used by the calendar and task tools"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(settingsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSettings(ctx, request, sc)
	})

	return nil
}

// handleUserProfile returns the profile of the configured account
func handleUserProfile(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	account := sc.Config().Account
	if !sc.HasTokenForAccount(account) {
		return nil, fmt.Errorf("no token for account %s: %s", account, sc.AuthenticationHelp(account))
	}

	svc, err := sc.ServiceForAccount(account)
	if err != nil {
		return nil, err
	}

	user, err := svc.GetCurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %s", graph.DisplayMessage(err))
	}

	profileData := map[string]interface{}{
		"account":     account,
		"displayName": user.DisplayName,
		"email":       user.Email(),
		"timeZone":    "UTC",
	}
	if user.MailboxSettings != nil && user.MailboxSettings.TimeZone != "" {
		profileData["timeZone"] = user.MailboxSettings.TimeZone
	}

	return jsonContents(request.Params.URI, profileData)
}

// handleSettings returns the non-secret configuration values
func handleSettings(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	cfg := sc.Config()
	settingsData := map[string]interface{}{
		"account":   cfg.Account,
		"tenantId":  cfg.TenantID,
		"siteId":    cfg.SiteID,
		"listId":    cfg.ListID,
		"timeZone":  cfg.TimeZone,
		"weekStart": cfg.WeekStart,
	}
	return jsonContents(request.Params.URI, settingsData)
}

func jsonContents(uri string, data map[string]interface{}) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
