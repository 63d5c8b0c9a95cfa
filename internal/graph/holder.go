package graph

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/graphplanner/internal/msgraph"
)

// ClientFactory builds a Graph client bound to an authentication provider
type ClientFactory func(ctx context.Context, authProvider oauth2.TokenSource) (*msgraph.Client, error)

// DefaultClientFactory returns a factory producing bearer-token clients
func DefaultClientFactory(opts ...msgraph.Option) ClientFactory {
	return func(ctx context.Context, authProvider oauth2.TokenSource) (*msgraph.Client, error) {
		if authProvider == nil {
			return nil, &Error{Kind: KindAuth, Op: "create client", Err: errors.New("no authentication provider")}
		}
		client, err := msgraph.NewClient(ctx, authProvider, opts...)
		if err != nil {
			return nil, &Error{Kind: KindUnknown, Op: "create client", Err: err}
		}
		return client, nil
	}
}

// ClientHolder owns at most one Graph client. The first Ensure builds it;
// later calls return the same instance and ignore their provider argument.
//
// A provider that changes or expires after construction is not applied to the
// existing client. Call Reauthenticate to replace it.
type ClientHolder struct {
	mu      sync.Mutex
	factory ClientFactory
	client  *msgraph.Client
}

// NewClientHolder creates an empty holder. A nil factory means DefaultClientFactory().
func NewClientHolder(factory ClientFactory) *ClientHolder {
	if factory == nil {
		factory = DefaultClientFactory()
	}
	return &ClientHolder{factory: factory}
}

// Ensure returns the held client, creating it with authProvider if none exists.
// A factory error is returned as-is and nothing is stored.
func (h *ClientHolder) Ensure(ctx context.Context, authProvider oauth2.TokenSource) (*msgraph.Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.client != nil {
		return h.client, nil
	}

	client, err := h.factory(ctx, authProvider)
	if err != nil {
		return nil, err
	}
	h.client = client
	return client, nil
}

// Reauthenticate replaces the held client with one bound to authProvider.
// On error the previous client is kept.
func (h *ClientHolder) Reauthenticate(ctx context.Context, authProvider oauth2.TokenSource) (*msgraph.Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, err := h.factory(ctx, authProvider)
	if err != nil {
		return nil, err
	}
	h.client = client
	return client, nil
}

// Reset drops the held client
func (h *ClientHolder) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.client = nil
}
