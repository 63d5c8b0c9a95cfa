package common

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/graphplanner/internal/graph"
	"github.com/teemow/graphplanner/internal/server"
)

// ErrorResult turns a data-access error into a tool error. Authentication
// failures carry the instructions for authorizing the account.
func ErrorResult(sc *server.ServerContext, account string, err error) *mcp.CallToolResult {
	msg := graph.DisplayMessage(err)
	if graph.KindOf(err) == graph.KindAuth {
		msg += "\n\n" + sc.AuthenticationHelp(account)
	}
	return mcp.NewToolResultError(msg)
}

// ServiceForRequest resolves the account of a request and its data-access
// service. A non-nil result is the error to return from the tool.
func ServiceForRequest(sc *server.ServerContext, request mcp.CallToolRequest) (*graph.Service, string, *mcp.CallToolResult) {
	account := GetAccountFromArgs(request.GetArguments(), sc.Config().Account)
	if !sc.HasTokenForAccount(account) {
		return nil, account, mcp.NewToolResultError(sc.AuthenticationHelp(account))
	}
	svc, err := sc.ServiceForAccount(account)
	if err != nil {
		return nil, account, mcp.NewToolResultError(err.Error())
	}
	return svc, account, nil
}

// StringArg returns a string argument, or "" when absent or not a string
func StringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}
