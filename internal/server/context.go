package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/graphplanner/internal/auth"
	"github.com/teemow/graphplanner/internal/config"
	"github.com/teemow/graphplanner/internal/graph"
	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/logging"
	"github.com/teemow/graphplanner/internal/msgraph"
)

// ServerContext holds the context for the MCP server and the CLI.
//
// It owns one graph.Service per account. Services are created on first use
// and keep their authenticated client until Reauthenticate is called.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg           *config.Config
	store         *auth.TokenStore
	authenticator *auth.Authenticator
	provider      auth.TokenProvider
	factory       graph.ClientFactory
	serviceOpts   []graph.Option
	logger        *slog.Logger

	services    map[string]*graph.Service
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext
type Option func(*ServerContext)

// WithTokenProvider replaces the file-backed token provider
func WithTokenProvider(p auth.TokenProvider) Option {
	return func(sc *ServerContext) {
		sc.provider = p
	}
}

// WithClientFactory replaces how authenticated Graph clients are built
func WithClientFactory(f graph.ClientFactory) Option {
	return func(sc *ServerContext) {
		sc.factory = f
	}
}

// WithServiceOptions adds options applied to every service created
func WithServiceOptions(opts ...graph.Option) Option {
	return func(sc *ServerContext) {
		sc.serviceOpts = append(sc.serviceOpts, opts...)
	}
}

// WithTokenStore sets the token store used by the authenticator
func WithTokenStore(s *auth.TokenStore) Option {
	return func(sc *ServerContext) {
		sc.store = s
	}
}

// WithLogger sets the logger handed to every service
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) {
		if l != nil {
			sc.logger = l
		}
	}
}

// AuthConfig maps the application configuration to the app registration
func AuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		TenantID:      cfg.TenantID,
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		RedirectURL:   cfg.RedirectURL,
		AuthorityHost: cfg.AuthorityHost,
	}
}

// NewServerContext creates a new server context.
//
// A missing client ID is not an error: services are still created but every
// Graph call fails with an authentication error until a token provider is
// available.
func NewServerContext(ctx context.Context, cfg *config.Config, opts ...Option) (*ServerContext, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   slog.Default(),
		services: make(map[string]*graph.Service),
	}
	for _, opt := range opts {
		opt(sc)
	}

	if sc.store == nil {
		if cfg.TokenDir != "" {
			sc.store = auth.NewTokenStore(cfg.TokenDir)
		} else {
			sc.store = auth.DefaultTokenStore()
		}
	}

	if cfg.ClientID != "" {
		authenticator, err := auth.NewAuthenticator(AuthConfig(cfg), sc.store)
		if err != nil {
			cancel()
			return nil, err
		}
		sc.authenticator = authenticator
		if sc.provider == nil {
			sc.provider = authenticator.Provider()
		}
	}

	if sc.factory == nil {
		var clientOpts []msgraph.Option
		if cfg.GraphBaseURL != "" {
			clientOpts = append(clientOpts, msgraph.WithBaseURL(cfg.GraphBaseURL))
		}
		sc.factory = graph.DefaultClientFactory(clientOpts...)
	}

	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the application configuration
func (sc *ServerContext) Config() *config.Config {
	return sc.cfg
}

// TokenStore returns the token store
func (sc *ServerContext) TokenStore() *auth.TokenStore {
	return sc.store
}

// Authenticator returns the sign-in flows, or an error when no client ID is configured.
func (sc *ServerContext) Authenticator() (*auth.Authenticator, error) {
	if sc.authenticator == nil {
		return nil, fmt.Errorf("client ID is required: set client_id in the config file or %s", config.EnvClientID)
	}
	return sc.authenticator, nil
}

// HasTokenForAccount reports whether a token is available for the account
func (sc *ServerContext) HasTokenForAccount(account string) bool {
	return sc.provider != nil && sc.provider.HasTokenForAccount(account)
}

// AuthenticationHelp explains how to authorize an account
func (sc *ServerContext) AuthenticationHelp(account string) string {
	if sc.authenticator == nil {
		return fmt.Sprintf("No client ID configured. Set client_id in %s or %s, then sign in with 'graphplanner auth login --account %s'.",
			config.DefaultPath(), config.EnvClientID, account)
	}
	return sc.authenticator.AuthenticationErrorMessage(account)
}

func (sc *ServerContext) tokenSource(account string) oauth2.TokenSource {
	if sc.provider == nil {
		return nil
	}
	return auth.TokenSource(sc.ctx, sc.provider, account)
}

func (sc *ServerContext) serviceConfig() graph.Config {
	return graph.Config{
		SiteID:    sc.cfg.SiteID,
		ListID:    sc.cfg.ListID,
		WeekStart: sc.cfg.WeekStartDay(),
	}
}

// ServiceForAccount returns the data-access service of an account.
// Creates and caches the service if it doesn't exist yet.
func (sc *ServerContext) ServiceForAccount(account string) (*graph.Service, error) {
	if account == "" {
		account = sc.cfg.Account
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, fmt.Errorf("server is shut down")
	}
	if svc, ok := sc.services[account]; ok {
		return svc, nil
	}

	opts := []graph.Option{
		graph.WithLogger(logging.WithAccount(sc.logger, account)),
		graph.WithMetrics(sc.metrics),
	}
	opts = append(opts, sc.serviceOpts...)

	svc := graph.NewService(
		graph.NewClientHolder(sc.factory),
		sc.tokenSource(account),
		sc.serviceConfig(),
		opts...,
	)
	sc.services[account] = svc
	return svc, nil
}

// Service returns the data-access service of the configured default account
func (sc *ServerContext) Service() (*graph.Service, error) {
	return sc.ServiceForAccount(sc.cfg.Account)
}

// Reauthenticate rebuilds the account's authenticated client from the
// current token. Call it after a new token has been saved.
func (sc *ServerContext) Reauthenticate(ctx context.Context, account string) error {
	if account == "" {
		account = sc.cfg.Account
	}

	sc.mu.RLock()
	svc, ok := sc.services[account]
	sc.mu.RUnlock()
	if !ok {
		// Created with the fresh token on first use
		return nil
	}
	return svc.Reauthenticate(ctx, sc.tokenSource(account))
}

// Accounts returns the services created so far, by account name
func (sc *ServerContext) Accounts() []string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	accounts := make([]string, 0, len(sc.services))
	for account := range sc.services {
		accounts = append(accounts, account)
	}
	return accounts
}

// SetMetrics sets the metrics recorder. Services created afterwards record
// Graph operations through it.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, which may be nil
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger for tool invocations
func (sc *ServerContext) SetAuditLogger(l *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = l
}

// AuditLogger returns the audit logger, which may be nil
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// Logger returns the logger
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
