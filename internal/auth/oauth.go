package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const (
	// DefaultTenant accepts both work/school and personal Microsoft accounts
	DefaultTenant = "common"

	// DefaultAuthorityHost is the login host of the global cloud
	DefaultAuthorityHost = "https://login.microsoftonline.com"

	// NativeClientRedirectURL is the redirect registered for public desktop clients.
	// The authorization code is shown in the browser address bar after sign-in.
	NativeClientRedirectURL = "https://login.microsoftonline.com/common/oauth2/nativeclient"
)

// DefaultScopes are the delegated permissions graphplanner requests.
//
// The scopes provide access to:
//   - the signed-in user's profile and mailbox time zone
//   - the user's calendar (read and create events)
//   - SharePoint lists (task items)
var DefaultScopes = []string{
	// OpenID Connect scopes (id_token and refresh token)
	"openid",
	"profile",
	"offline_access",

	"User.Read",
	"MailboxSettings.Read",
	"Calendars.ReadWrite",
	"Sites.ReadWrite.All",
}

// Config describes the Azure AD app registration used to sign in
type Config struct {
	TenantID      string
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	AuthorityHost string
	Scopes        []string
}

// OAuth2Config returns the oauth2 configuration for the app registration
func (c Config) OAuth2Config() *oauth2.Config {
	tenant := c.TenantID
	if tenant == "" {
		tenant = DefaultTenant
	}

	endpoint := microsoft.AzureADEndpoint(tenant)
	host := strings.TrimRight(c.AuthorityHost, "/")
	if host != "" && host != DefaultAuthorityHost {
		endpoint.AuthURL = host + "/" + tenant + "/oauth2/v2.0/authorize"
		endpoint.TokenURL = host + "/" + tenant + "/oauth2/v2.0/token"
	} else {
		host = DefaultAuthorityHost
	}
	endpoint.DeviceAuthURL = host + "/" + tenant + "/oauth2/v2.0/devicecode"
	if c.ClientSecret == "" {
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	}

	redirect := c.RedirectURL
	if redirect == "" {
		redirect = NativeClientRedirectURL
	}

	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirect,
		Scopes:       scopes,
	}
}

// Authenticator runs the interactive sign-in flows and owns the token store
type Authenticator struct {
	conf  *oauth2.Config
	store *TokenStore
}

// NewAuthenticator creates an authenticator for the given app registration
func NewAuthenticator(cfg Config, store *TokenStore) (*Authenticator, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required: set client_id in the config file or GRAPHPLANNER_CLIENT_ID")
	}
	if store == nil {
		store = DefaultTokenStore()
	}
	return &Authenticator{
		conf:  cfg.OAuth2Config(),
		store: store,
	}, nil
}

// Store returns the token store
func (a *Authenticator) Store() *TokenStore {
	return a.store
}

// Provider returns a file-backed token provider sharing this authenticator's
// configuration and store.
func (a *Authenticator) Provider() *FileTokenProvider {
	return &FileTokenProvider{conf: a.conf, store: a.store}
}

// AuthURLForAccount returns the URL the user visits to sign in. The account
// name is carried as the state parameter.
func (a *Authenticator) AuthURLForAccount(account string) string {
	return a.conf.AuthCodeURL(account, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// SaveTokenForAccount exchanges an authorization code and stores the token
func (a *Authenticator) SaveTokenForAccount(ctx context.Context, account, authCode string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	authCode = strings.TrimSpace(authCode)
	if authCode == "" {
		return nil, fmt.Errorf("authorization code is empty")
	}

	tok, err := a.conf.Exchange(ctx, authCode)
	if err != nil {
		return nil, &AuthError{Account: account, Reason: "failed to exchange auth code", Err: err}
	}

	if err := a.store.Save(account, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// DeviceLogin runs the device authorization grant. prompt is called with the
// user code and verification URL before polling starts.
func (a *Authenticator) DeviceLogin(ctx context.Context, account string, prompt func(*oauth2.DeviceAuthResponse)) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	resp, err := a.conf.DeviceAuth(ctx)
	if err != nil {
		return nil, &AuthError{Account: account, Reason: "failed to start device login", Err: err}
	}
	if prompt != nil {
		prompt(resp)
	}

	tok, err := a.conf.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, &AuthError{Account: account, Reason: "device login did not complete", Err: err}
	}

	if err := a.store.Save(account, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// Logout removes the stored token of an account
func (a *Authenticator) Logout(account string) error {
	return a.store.Delete(account)
}

// AuthenticationErrorMessage explains how to authorize an account that has no token
func (a *Authenticator) AuthenticationErrorMessage(account string) string {
	return fmt.Sprintf(`Microsoft OAuth token not found for account "%s". To authorize access:

1. Visit this URL in your browser:
   %s

2. Sign in with your Microsoft account and grant access
3. Copy the "code" parameter from the address bar of the page you are redirected to

4. Provide the authorization code with the auth_save_code tool (account="%s")
   or run: graphplanner auth save-code --account %s <code>

Note: You only need to authorize once. Tokens are refreshed automatically.`,
		account, a.AuthURLForAccount(account), account, account)
}
