package auth_tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/graphplanner/internal/config"
	"github.com/teemow/graphplanner/internal/server"
	"github.com/teemow/graphplanner/internal/tools/tooltest"
)

// newLoginServer fakes the token endpoint of tenant "common". Only
// "good-code" is accepted.
func newLoginServer(t *testing.T) *httptest.Server {
	t.Helper()
	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name":               "Ada Lovelace",
		"preferred_username": "ada@contoso.com",
		"tid":                "tenant-1",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/common/oauth2/v2.0/token" || r.ParseForm() != nil {
			http.NotFound(w, r)
			return
		}
		if r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access",
			"token_type":    "Bearer",
			"refresh_token": "refresh",
			"expires_in":    3600,
			"id_token":      idToken,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAuthContext(t *testing.T, authority string) *server.ServerContext {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ClientID = "client-1"
	cfg.AuthorityHost = authority
	cfg.TokenDir = t.TempDir()

	sc, err := server.NewServerContext(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestRegisterAuthTools(t *testing.T) {
	sc := newAuthContext(t, "")

	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterAuthTools(s, sc))
	assert.Equal(t, []string{"auth_get_url", "auth_list_accounts", "auth_save_code"}, tooltest.ToolNames(t, s))
}

func TestHandleGetAuthURL(t *testing.T) {
	sc := newAuthContext(t, "")

	result, err := handleGetAuthURL(sc)(context.Background(), tooltest.Request("auth_get_url", map[string]interface{}{"account": "work"}))
	require.NoError(t, err)
	require.False(t, result.IsError, tooltest.Text(result))

	text := tooltest.Text(result)
	assert.Contains(t, text, `account "work"`)
	assert.Contains(t, text, "https://login.microsoftonline.com/common/oauth2/v2.0/authorize")
	assert.Contains(t, text, "client_id=client-1")
	assert.Contains(t, text, "state=work")
	assert.Contains(t, text, "auth_save_code")
}

func TestHandleGetAuthURL_NoClientID(t *testing.T) {
	env := tooltest.NewEnv(t)

	result, err := handleGetAuthURL(env.SC)(context.Background(), tooltest.Request("auth_get_url", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, tooltest.Text(result), "client ID is required")
}

func TestHandleSaveAuthCode(t *testing.T) {
	login := newLoginServer(t)
	sc := newAuthContext(t, login.URL)

	// An existing service is rebuilt with the new token
	_, err := sc.ServiceForAccount("work")
	require.NoError(t, err)

	result, err := handleSaveAuthCode(sc)(context.Background(), tooltest.Request("auth_save_code", map[string]interface{}{
		"account":  "work",
		"authCode": " good-code ",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, tooltest.Text(result))
	assert.Contains(t, tooltest.Text(result), "Authorization successful for account 'work'")

	assert.True(t, sc.HasTokenForAccount("work"))
	tok, err := sc.TokenStore().Load("work")
	require.NoError(t, err)
	assert.Equal(t, "access", tok.AccessToken)

	result, err = handleListAccounts(sc)(context.Background(), tooltest.Request("auth_list_accounts", nil))
	require.NoError(t, err)

	var statuses []AccountStatus
	require.NoError(t, json.Unmarshal([]byte(tooltest.Text(result)), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, AccountStatus{Account: "work", Name: "Ada Lovelace", Username: "ada@contoso.com", TenantID: "tenant-1"}, statuses[0])
}

func TestHandleSaveAuthCode_Errors(t *testing.T) {
	login := newLoginServer(t)
	sc := newAuthContext(t, login.URL)

	result, err := handleSaveAuthCode(sc)(context.Background(), tooltest.Request("auth_save_code", map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "authCode is required", tooltest.Text(result))

	result, err = handleSaveAuthCode(sc)(context.Background(), tooltest.Request("auth_save_code", map[string]interface{}{
		"authCode": "bad-code",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, tooltest.Text(result), "Failed to save authorization code for account default")
	assert.False(t, sc.HasTokenForAccount("default"))

	result, err = handleSaveAuthCode(sc)(context.Background(), tooltest.Request("auth_save_code", map[string]interface{}{
		"account":  "../escape",
		"authCode": "good-code",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleListAccounts_Empty(t *testing.T) {
	sc := newAuthContext(t, "")

	result, err := handleListAccounts(sc)(context.Background(), tooltest.Request("auth_list_accounts", nil))
	require.NoError(t, err)
	require.False(t, result.IsError, tooltest.Text(result))
	assert.JSONEq(t, `[]`, tooltest.Text(result))
}

