package graph

import (
	"testing"

	"golang.org/x/oauth2"

	"github.com/teemow/graphplanner/internal/graph/graphtest"
	"github.com/teemow/graphplanner/internal/msgraph"
)

const testSiteID = graphtest.SiteID

type fakeGraph struct {
	*graphtest.Server
}

func newFakeGraph(t *testing.T) *fakeGraph {
	t.Helper()
	return &fakeGraph{Server: graphtest.NewServer(t)}
}

// factory returns a client factory pointing at the fake
func (f *fakeGraph) factory() ClientFactory {
	return DefaultClientFactory(msgraph.WithBaseURL(f.URL))
}

func (f *fakeGraph) service(opts ...Option) *Service {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	return NewService(NewClientHolder(f.factory()), ts, Config{SiteID: testSiteID, ListID: graphtest.ListID}, opts...)
}

func (f *fakeGraph) recorded() []graphtest.Request {
	return f.Requests()
}

func (f *fakeGraph) seedTask(fields map[string]any) string {
	return f.SeedTask(fields)
}
