package auth_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/server"
	"github.com/teemow/graphplanner/internal/tools/common"
)

// AccountStatus describes one stored sign-in
type AccountStatus struct {
	Account  string `json:"account"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	TenantID string `json:"tenantId,omitempty"`
}

// RegisterAuthTools registers the sign-in tools with the MCP server
func RegisterAuthTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getAuthURLTool := mcp.NewTool("auth_get_url",
		mcp.WithDescription("Get the Microsoft sign-in URL to authorize calendar and task list access for an account"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Microsoft accounts."),
		),
	)
	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler("auth_get_url", sc, handleGetAuthURL(sc)))

	saveAuthCodeTool := mcp.NewTool("auth_save_code",
		mcp.WithDescription("Exchange the authorization code from the sign-in redirect and store the token for an account"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("account",
			mcp.Description("Account name (default: the configured account). Used to manage multiple Microsoft accounts."),
		),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The code parameter of the sign-in redirect URL"),
		),
	)
	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler("auth_save_code", sc, handleSaveAuthCode(sc)))

	listAccountsTool := mcp.NewTool("auth_list_accounts",
		mcp.WithDescription("List the accounts with a stored sign-in and who they belong to"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(listAccountsTool, common.InstrumentedToolHandler("auth_list_accounts", sc, handleListAccounts(sc)))

	return nil
}

func handleGetAuthURL(sc *server.ServerContext) common.ToolHandler {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		account := common.GetAccountFromArgs(request.GetArguments(), sc.Config().Account)

		authenticator, err := sc.Authenticator()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(`To authorize calendar and task list access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Microsoft account and grant access
3. Copy the "code" parameter from the address bar of the page you are redirected to

4. Call the auth_save_code tool with the code and account name to complete authentication`,
			account, authenticator.AuthURLForAccount(account))), nil
	}
}

func handleSaveAuthCode(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(args, sc.Config().Account)

		authCode := strings.TrimSpace(common.StringArg(args, "authCode"))
		if authCode == "" {
			return mcp.NewToolResultError("authCode is required"), nil
		}

		authenticator, err := sc.Authenticator()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if _, err := authenticator.SaveTokenForAccount(ctx, account, authCode); err != nil {
			sc.Metrics().RecordAuthLogin(ctx, instrumentation.AuthMethodCode, instrumentation.AuthResultFailure)
			return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v", account, err)), nil
		}
		sc.Metrics().RecordAuthLogin(ctx, instrumentation.AuthMethodCode, instrumentation.AuthResultSuccess)

		if err := sc.Reauthenticate(ctx, account); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Token saved for account %s, but the Graph client could not be rebuilt: %v", account, err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Authorization successful for account '%s'. You can now use the calendar and task tools with this account.", account)), nil
	}
}

func handleListAccounts(sc *server.ServerContext) common.ToolHandler {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		accounts, err := sc.TokenStore().Accounts()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list accounts: %v", err)), nil
		}

		statuses := make([]AccountStatus, 0, len(accounts))
		for _, account := range accounts {
			status := AccountStatus{Account: account}
			if identity, err := sc.TokenStore().IdentityForAccount(account); err == nil {
				status.Name = identity.Name
				status.Username = identity.Username
				status.TenantID = identity.TenantID
			}
			statuses = append(statuses, status)
		}

		out, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
