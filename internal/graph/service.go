package graph

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/logging"
	"github.com/teemow/graphplanner/internal/msgraph"
)

// Config locates the task list and sets calendar conventions
type Config struct {
	// SiteID is the SharePoint site in "hostname,site-collection-id,web-id" form
	SiteID string
	// ListID is the list name or GUID, e.g. "ToDoList"
	ListID string
	// WeekStart is the first day of a calendar week
	WeekStart time.Weekday
}

// Service performs the data-access operations against Microsoft Graph
type Service struct {
	holder  *ClientHolder
	cfg     Config
	now     func() time.Time
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu           sync.RWMutex
	authProvider oauth2.TokenSource
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for calendar windows
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records graph_api_* metrics for every operation
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a service that obtains its client from holder, built
// with authProvider on first use.
func NewService(holder *ClientHolder, authProvider oauth2.TokenSource, cfg Config, opts ...Option) *Service {
	if holder == nil {
		holder = NewClientHolder(nil)
	}
	s := &Service{
		holder:       holder,
		authProvider: authProvider,
		cfg:          cfg,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Holder returns the client holder
func (s *Service) Holder() *ClientHolder {
	return s.holder
}

// Config returns the service configuration
func (s *Service) Config() Config {
	return s.cfg
}

// Now returns the current time as the service sees it
func (s *Service) Now() time.Time {
	return s.now()
}

// Reauthenticate binds the service to a new authentication provider and
// replaces the held client.
func (s *Service) Reauthenticate(ctx context.Context, authProvider oauth2.TokenSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.holder.Reauthenticate(ctx, authProvider); err != nil {
		return classify("reauthenticate", err)
	}
	s.authProvider = authProvider
	return nil
}

func (s *Service) provider() oauth2.TokenSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authProvider
}

// do runs one operation with a span, metrics and a debug log line
func (s *Service) do(ctx context.Context, service, operation string, fn func(ctx context.Context, c *msgraph.Client) error, attrs ...attribute.KeyValue) error {
	start := time.Now()
	ctx, span := instrumentation.StartGraphAPISpan(ctx, service, operation, attrs...)
	defer span.End()

	client, err := s.holder.Ensure(ctx, s.provider())
	if err == nil {
		err = fn(ctx, client)
	}
	err = classify(service+"."+operation, err)
	duration := time.Since(start)

	instrumentation.FinishSpan(span, err)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	s.metrics.RecordGraphAPIOperation(ctx, service, operation, status, duration)

	s.logger.LogAttrs(ctx, slog.LevelDebug, "graph operation",
		logging.Service(service),
		logging.Operation(operation),
		logging.Status(status),
		logging.Duration(duration),
		logging.Err(err))
	return err
}
