package auth

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/oauth2"
)

// TokenProvider is an interface for providing OAuth tokens for Microsoft Graph.
// This abstraction allows different token sources (file-based, static, etc.)
type TokenProvider interface {
	// GetTokenForAccount retrieves a valid OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// FileTokenProvider provides tokens from the token store, refreshing them
// through the OAuth client and writing refreshed tokens back.
type FileTokenProvider struct {
	conf  *oauth2.Config
	store *TokenStore
	mu    sync.Mutex
}

// NewFileTokenProvider creates a new file-based token provider
func NewFileTokenProvider(cfg Config, store *TokenStore) *FileTokenProvider {
	if store == nil {
		store = DefaultTokenStore()
	}
	return &FileTokenProvider{conf: cfg.OAuth2Config(), store: store}
}

// GetTokenForAccount loads the account's token and refreshes it if expired
func (p *FileTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, err := p.store.Load(account)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return nil, &AuthError{Account: account, Reason: "no token found, sign in first", Err: err}
		}
		return nil, &AuthError{Account: account, Reason: "failed to load token", Err: err}
	}

	tok, err := p.conf.TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, &AuthError{Account: account, Reason: "failed to refresh token", Err: err}
	}

	if tok.AccessToken != stored.AccessToken {
		if err := p.store.Save(account, tok); err != nil {
			return nil, &AuthError{Account: account, Reason: "failed to persist refreshed token", Err: err}
		}
	}
	return tok, nil
}

// HasTokenForAccount checks if a token file exists for the specified account
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	return p.store.Has(account)
}

// StaticTokenProvider serves fixed tokens, e.g. a bearer token passed on the
// command line.
type StaticTokenProvider struct {
	tokens map[string]*oauth2.Token
}

// NewStaticTokenProvider creates a provider serving tokens by account
func NewStaticTokenProvider(tokens map[string]*oauth2.Token) *StaticTokenProvider {
	return &StaticTokenProvider{tokens: tokens}
}

// GetTokenForAccount returns the configured token
func (p *StaticTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	tok, ok := p.tokens[account]
	if !ok || tok == nil {
		return nil, &AuthError{Account: account, Reason: "no token configured", Err: ErrNoToken}
	}
	return tok, nil
}

// HasTokenForAccount reports whether a token is configured for the account
func (p *StaticTokenProvider) HasTokenForAccount(account string) bool {
	tok, ok := p.tokens[account]
	return ok && tok != nil
}

// accountTokenSource asks a provider for an account's token on every call
type accountTokenSource struct {
	ctx      context.Context
	provider TokenProvider
	account  string
}

func (s *accountTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.provider.GetTokenForAccount(s.ctx, s.account)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &AuthError{Account: s.account, Reason: "token unavailable", Err: err}
	}
	return tok, nil
}

// TokenSource adapts a provider into an oauth2.TokenSource for one account.
// The token is cached until it expires. Failures are *AuthError.
func TokenSource(ctx context.Context, provider TokenProvider, account string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &accountTokenSource{
		ctx:      ctx,
		provider: provider,
		account:  account,
	})
}
