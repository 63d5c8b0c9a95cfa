// Package user_tools provides the MCP tool for reading the signed-in user's profile.
package user_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/server"
	"github.com/teemow/graphplanner/internal/tools/common"
)

// Profile is the user_get_profile response
type Profile struct {
	Account     string `json:"account"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	TimeZone    string `json:"timeZone"`
}

// RegisterUserTools registers the user tools with the MCP server
func RegisterUserTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	profileTool := mcp.NewTool("user_get_profile",
		mcp.WithDescription("Get the signed-in user's display name, email address and mailbox time zone"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Microsoft accounts."),
		),
	)
	s.AddTool(profileTool, common.InstrumentedToolHandlerWithService("user_get_profile",
		instrumentation.ServiceUser, instrumentation.OperationGet, sc, handleGetProfile(sc)))

	return nil
}

func handleGetProfile(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		svc, account, errResult := common.ServiceForRequest(sc, request)
		if errResult != nil {
			return errResult, nil
		}

		user, err := svc.GetCurrentUser(ctx)
		if err != nil {
			return common.ErrorResult(sc, account, err), nil
		}

		profile := Profile{
			Account:     account,
			DisplayName: user.DisplayName,
			Email:       user.Email(),
			TimeZone:    "UTC",
		}
		if user.MailboxSettings != nil && user.MailboxSettings.TimeZone != "" {
			profile.TimeZone = user.MailboxSettings.TimeZone
		}

		out, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
