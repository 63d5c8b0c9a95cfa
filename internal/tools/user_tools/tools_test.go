package user_tools

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/graphplanner/internal/tools/tooltest"
)

func TestRegisterUserTools(t *testing.T) {
	env := tooltest.NewEnv(t)

	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterUserTools(s, env.SC))
	assert.Equal(t, []string{"user_get_profile"}, tooltest.ToolNames(t, s))
}

func TestHandleGetProfile(t *testing.T) {
	env := tooltest.NewEnv(t)

	result, err := handleGetProfile(env.SC)(context.Background(), tooltest.Request("user_get_profile", map[string]interface{}{"account": "work"}))
	require.NoError(t, err)
	require.False(t, result.IsError, tooltest.Text(result))

	var profile Profile
	require.NoError(t, json.Unmarshal([]byte(tooltest.Text(result)), &profile))
	assert.Equal(t, Profile{
		Account:     "work",
		DisplayName: "Ada Lovelace",
		Email:       "ada@contoso.com",
		TimeZone:    "W. Europe Standard Time",
	}, profile)

	reqs := env.Graph.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/me", reqs[0].Path)
	assert.Equal(t, "Bearer token-work", reqs[0].Auth)
}

func TestHandleGetProfile_NoToken(t *testing.T) {
	env := tooltest.NewEnv(t)

	result, err := handleGetProfile(env.SC)(context.Background(), tooltest.Request("user_get_profile", map[string]interface{}{"account": "personal"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Empty(t, env.Graph.Requests())
}
