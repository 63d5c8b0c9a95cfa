package msgraph

import (
	"context"
	"net/http"

	abstractions "github.com/microsoft/kiota-abstractions-go"
	msgraphcore "github.com/microsoftgraph/msgraph-sdk-go-core"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"
)

// Me returns the signed-in user with the given properties selected
func (c *Client) Me(ctx context.Context, fields ...string) (*User, error) {
	cfg := &users.UserItemRequestBuilderGetRequestConfiguration{
		QueryParameters: &users.UserItemRequestBuilderGetQueryParameters{Select: fields},
	}
	m, err := c.sdk.Me().Get(ctx, cfg)
	if err != nil {
		return nil, wrapError(http.MethodGet, "/me", err)
	}
	return userFromModel(m), nil
}

// CalendarViewQuery selects the events of a calendar view
type CalendarViewQuery struct {
	// Start and End bound the window, formatted as Graph timestamps
	Start string
	End   string
	// TimeZone, when set, is sent as the outlook.timezone preference so
	// event times come back in that zone. It is sent as given.
	TimeZone string
	Select   []string
	OrderBy  []string
	// Top is the page size; continuation pages keep it
	Top int32
}

// CalendarView returns every event in the window, following continuation
// pages in order. The Prefer header is repeated on every page.
func (c *Client) CalendarView(ctx context.Context, q CalendarViewQuery) ([]Event, error) {
	headers := abstractions.NewRequestHeaders()
	if q.TimeZone != "" {
		headers.Add("Prefer", `outlook.timezone="`+q.TimeZone+`"`)
	}
	params := &users.ItemCalendarViewRequestBuilderGetQueryParameters{
		StartDateTime: ptr(q.Start),
		EndDateTime:   ptr(q.End),
		Select:        q.Select,
		Orderby:       q.OrderBy,
	}
	if q.Top > 0 {
		params.Top = ptr(q.Top)
	}

	const path = "/me/calendarView"
	first, err := c.sdk.Me().CalendarView().Get(ctx, &users.ItemCalendarViewRequestBuilderGetRequestConfiguration{
		Headers:         headers,
		QueryParameters: params,
	})
	if err != nil {
		return nil, wrapError(http.MethodGet, path, err)
	}

	it, err := msgraphcore.NewPageIterator[models.Eventable](first, c.adapter, models.CreateEventCollectionResponseFromDiscriminatorValue)
	if err != nil {
		return nil, wrapError(http.MethodGet, path, err)
	}
	it.SetHeaders(headers)

	events := []Event{}
	err = it.Iterate(ctx, func(m models.Eventable) bool {
		if m != nil {
			events = append(events, eventFromModel(m))
		}
		return true
	})
	if err != nil {
		return nil, wrapError(http.MethodGet, path, err)
	}
	return events, nil
}

// CreateEvent creates ev in the user's default calendar and returns the
// server's representation of it.
func (c *Client) CreateEvent(ctx context.Context, ev *Event) (*Event, error) {
	body, err := eventToModel(ev)
	if err != nil {
		return nil, err
	}
	m, err := c.sdk.Me().Events().Post(ctx, body, nil)
	if err != nil {
		return nil, wrapError(http.MethodPost, "/me/events", err)
	}
	if m == nil {
		return &Event{}, nil
	}
	created := eventFromModel(m)
	return &created, nil
}
