package msgraph

import (
	"context"
	"errors"
	"net/http"
	"strings"

	abstractions "github.com/microsoft/kiota-abstractions-go"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Graph v1.0 endpoint of the global cloud.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "graphplanner"

// Client issues requests against Microsoft Graph through the Graph SDK and
// converts the SDK models to the plain types of this package.
type Client struct {
	sdk     *msgraphsdk.GraphServiceClient
	adapter abstractions.RequestAdapter
	baseURL string
}

type clientOptions struct {
	baseURL   string
	userAgent string
}

// Option configures a Client
type Option func(*clientOptions)

// WithBaseURL points the client at a different Graph root, e.g. a national
// cloud or a test server.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		if baseURL != "" {
			o.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// NewClient creates a client whose requests carry a bearer token from ts.
// Requests go through a plain otelhttp-traced transport: the SDK's retry and
// redirect middleware is not installed, so a failed call fails once.
//
// An *http.Client stored under oauth2.HTTPClient in ctx supplies the base
// transport.
func NewClient(ctx context.Context, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	if ts == nil {
		return nil, errors.New("token source is required")
	}
	o := clientOptions{baseURL: DefaultBaseURL, userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(&o)
	}

	base := http.DefaultTransport
	if hc, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && hc != nil && hc.Transport != nil {
		base = hc.Transport
	}
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(&userAgentTransport{base: base, userAgent: o.userAgent}),
	}

	adapter, err := msgraphsdk.NewGraphRequestAdapterWithParseNodeFactoryAndSerializationWriterFactoryAndHttpClient(
		&tokenAuthProvider{source: ts}, nil, nil, httpClient)
	if err != nil {
		return nil, err
	}
	// The service client copies the adapter's base URL when it is built.
	adapter.SetBaseUrl(o.baseURL)

	return &Client{
		sdk:     msgraphsdk.NewGraphServiceClient(adapter),
		adapter: adapter,
		baseURL: o.baseURL,
	}, nil
}

// BaseURL returns the Graph root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// tokenAuthProvider authenticates SDK requests with tokens from an oauth2
// token source.
type tokenAuthProvider struct {
	source oauth2.TokenSource
}

func (p *tokenAuthProvider) AuthenticateRequest(_ context.Context, request *abstractions.RequestInformation, _ map[string]interface{}) error {
	if request == nil {
		return errors.New("request is nil")
	}
	tok, err := p.source.Token()
	if err != nil {
		return &tokenError{err: err}
	}
	request.Headers.Add("Authorization", tok.Type()+" "+tok.AccessToken)
	return nil
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}
