package msgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testSite = "contoso.sharepoint.com,site-1,web-1"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	c, err := NewClient(context.Background(), ts, append([]Option{WithBaseURL(srv.URL + "/")}, opts...)...)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, c.BaseURL())
	return c
}

func TestNewClient_RequiresTokenSource(t *testing.T) {
	_, err := NewClient(context.Background(), nil)
	assert.Error(t, err)
}

func TestClient_Me(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/me", r.URL.Path)
		assert.Equal(t, "displayName,mailboxSettings", r.URL.Query().Get("$select"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "graphplanner-test", r.Header.Get("User-Agent"))
		writeJSON(w, http.StatusOK, map[string]any{
			"id":                "u1",
			"displayName":       "Ada Lovelace",
			"userPrincipalName": "ada@contoso.com",
			"mailboxSettings":   map[string]any{"timeZone": "W. Europe Standard Time", "dateFormat": "dd.MM.yyyy"},
		})
	}, WithUserAgent("graphplanner-test"))

	u, err := c.Me(context.Background(), "displayName", "mailboxSettings")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Ada Lovelace", u.DisplayName)
	assert.Equal(t, "ada@contoso.com", u.Email())
	require.NotNil(t, u.MailboxSettings)
	assert.Equal(t, "W. Europe Standard Time", u.MailboxSettings.TimeZone)
	assert.Equal(t, "dd.MM.yyyy", u.MailboxSettings.DateFormat)
}

func TestClient_CalendarViewFollowsPages(t *testing.T) {
	var baseURL string
	var prefers []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/calendarView", r.URL.Path)
		prefers = append(prefers, r.Header.Get("Prefer"))

		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, http.StatusOK, map[string]any{"value": []any{
				map[string]any{"id": "e3", "subject": "Retro", "isAllDay": true},
			}})
			return
		}

		q := r.URL.Query()
		assert.Equal(t, "2024-01-01T00:00:00.000Z", q.Get("startDateTime"))
		assert.Equal(t, "2024-01-07T23:59:59.999Z", q.Get("endDateTime"))
		assert.Equal(t, "subject,start", q.Get("$select"))
		assert.Equal(t, "start/dateTime", q.Get("$orderby"))
		assert.Equal(t, "25", q.Get("$top"))
		writeJSON(w, http.StatusOK, map[string]any{
			"value": []any{
				map[string]any{
					"id":        "e1",
					"subject":   "Standup",
					"organizer": map[string]any{"emailAddress": map[string]any{"name": "Ada", "address": "ada@contoso.com"}},
					"start":     map[string]any{"dateTime": "2024-01-02T09:00:00.0000000", "timeZone": "Europe/Berlin"},
					"end":       map[string]any{"dateTime": "2024-01-02T09:15:00.0000000", "timeZone": "Europe/Berlin"},
				},
				map[string]any{"id": "e2", "subject": "Planning"},
			},
			"@odata.nextLink": baseURL + "/me/calendarView?page=2",
		})
	})
	baseURL = c.BaseURL()

	events, err := c.CalendarView(context.Background(), CalendarViewQuery{
		Start:    "2024-01-01T00:00:00.000Z",
		End:      "2024-01-07T23:59:59.999Z",
		TimeZone: "Europe/Berlin",
		Select:   []string{"subject", "start"},
		OrderBy:  []string{"start/dateTime"},
		Top:      25,
	})
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, []string{"e1", "e2", "e3"}, []string{events[0].ID, events[1].ID, events[2].ID})
	assert.Equal(t, "ada@contoso.com", events[0].Organizer.EmailAddress.Address)
	assert.Equal(t, "2024-01-02T09:00:00.0000000", events[0].Start.DateTime)
	assert.Equal(t, "Europe/Berlin", events[0].End.TimeZone)
	assert.True(t, events[2].IsAllDay)

	assert.Equal(t, []string{`outlook.timezone="Europe/Berlin"`, `outlook.timezone="Europe/Berlin"`}, prefers)
}

func TestClient_CalendarViewEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"value": []any{}})
	})

	events, err := c.CalendarView(context.Background(), CalendarViewQuery{Start: "a", End: "b"})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestClient_CreateEvent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/me/events", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "Review", body["subject"])
		start := body["start"].(map[string]any)
		assert.Equal(t, "2024-01-02T10:00:00", start["dateTime"])
		assert.Equal(t, "UTC", start["timeZone"])
		assert.Equal(t, "text", body["body"].(map[string]any)["contentType"])

		attendees := body["attendees"].([]any)
		require.Len(t, attendees, 1)
		att := attendees[0].(map[string]any)
		assert.Equal(t, "required", att["type"])
		assert.Equal(t, "bob@contoso.com", att["emailAddress"].(map[string]any)["address"])

		body["id"] = "event-1"
		body["webLink"] = "https://outlook.example.com/event-1"
		writeJSON(w, http.StatusCreated, body)
	})

	created, err := c.CreateEvent(context.Background(), &Event{
		Subject:   "Review",
		Body:      &ItemBody{ContentType: "text", Content: "agenda"},
		Start:     &DateTimeTimeZone{DateTime: "2024-01-02T10:00:00", TimeZone: "UTC"},
		End:       &DateTimeTimeZone{DateTime: "2024-01-02T11:00:00", TimeZone: "UTC"},
		Attendees: []Attendee{{EmailAddress: EmailAddress{Address: "bob@contoso.com"}, Type: "required"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "event-1", created.ID)
	assert.Equal(t, "Review", created.Subject)
	assert.Equal(t, "https://outlook.example.com/event-1", created.WebLink)
	require.Len(t, created.Attendees, 1)
	assert.Equal(t, "required", created.Attendees[0].Type)
}

func TestClient_CreateEventRejectsUnknownAttendeeType(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.CreateEvent(context.Background(), &Event{
		Subject:   "Review",
		Attendees: []Attendee{{EmailAddress: EmailAddress{Address: "bob@contoso.com"}, Type: "spectator"}},
	})
	assert.Error(t, err)
}

func TestClient_ListItemsFollowsPages(t *testing.T) {
	var baseURL string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/"+testSite+"/lists/ToDoList/items", r.URL.Path)
		assert.Equal(t, "fields(select=Title,Status)", r.URL.Query().Get("$expand"))

		if r.URL.Query().Get("skip") == "1" {
			writeJSON(w, http.StatusOK, map[string]any{"value": []any{
				map[string]any{"id": "2", "fields": map[string]any{"Title": "Second"}},
			}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"value": []any{map[string]any{
				"id":          "1",
				"@odata.etag": `"etag,3"`,
				"webUrl":      "https://contoso.sharepoint.com/lists/ToDoList/1",
				"fields": map[string]any{
					"@odata.etag": `"etag,3"`,
					"id":          "1",
					"Title":       "First",
					"Status":      nil,
					"Priority":    2,
					"Tags":        []any{"a", "b"},
				},
			}},
			"@odata.nextLink": fmt.Sprintf("%s/sites/%s/lists/ToDoList/items?$expand=%s&skip=1", baseURL, testSite, "fields(select=Title,Status)"),
		})
	})
	baseURL = c.BaseURL()

	items, err := c.ListItems(context.Background(), ListRef{SiteID: testSite, ListID: "ToDoList"}, "fields(select=Title,Status)")
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, `"etag,3"`, first.ETag)
	assert.Equal(t, "https://contoso.sharepoint.com/lists/ToDoList/1", first.WebURL)
	assert.Equal(t, "First", first.Fields["Title"])
	assert.Equal(t, "1", first.Fields["id"])
	assert.Nil(t, first.Fields["Status"])
	assert.Equal(t, float64(2), first.Fields["Priority"])
	assert.Equal(t, []any{"a", "b"}, first.Fields["Tags"])
	assert.NotContains(t, first.Fields, "@odata.etag")

	assert.Equal(t, "Second", items[1].Fields["Title"])
}

func TestClient_ListItemWrites(t *testing.T) {
	ref := ListRef{SiteID: testSite, ListID: "ToDoList"}
	items := "/sites/" + testSite + "/lists/ToDoList/items"

	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == items:
			body := decodeBody(t, r)
			fields := body["fields"].(map[string]any)
			assert.Equal(t, "Write report", fields["Title"])
			writeJSON(w, http.StatusCreated, map[string]any{"id": "7", "fields": fields})
		case r.Method == http.MethodGet && r.URL.Path == items+"/7":
			assert.Equal(t, "fields", r.URL.Query().Get("$expand"))
			writeJSON(w, http.StatusOK, map[string]any{"id": "7", "fields": map[string]any{"Title": "Write report"}})
		case r.Method == http.MethodPatch && r.URL.Path == items+"/7/fields":
			body := decodeBody(t, r)
			assert.Contains(t, body, "Description")
			assert.Nil(t, body["Description"], "empty columns are written as null")
			writeJSON(w, http.StatusOK, map[string]any{"Title": "Renamed"})
		case r.Method == http.MethodDelete && r.URL.Path == items+"/7":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	created, err := c.CreateListItem(ctx, ref, FieldValueSet{"Title": "Write report"})
	require.NoError(t, err)
	assert.Equal(t, "7", created.ID)

	got, err := c.GetListItem(ctx, ref, "7", "fields")
	require.NoError(t, err)
	assert.Equal(t, "Write report", got.Fields["Title"])

	fields, err := c.UpdateListItemFields(ctx, ref, "7", FieldValueSet{"Title": "Renamed", "Description": nil})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fields["Title"])

	require.NoError(t, c.DeleteListItem(ctx, ref, "7"))

	assert.Equal(t, []string{
		"POST " + items,
		"GET " + items + "/7",
		"PATCH " + items + "/7/fields",
		"DELETE " + items + "/7",
	}, seen)
}

func TestClient_ODataErrorBecomesRemoteRequestError(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{
			"code":       "itemNotFound",
			"message":    "The resource could not be found.",
			"innerError": map[string]any{"request-id": "req-42"},
		}})
	})

	err := c.DeleteListItem(context.Background(), ListRef{SiteID: testSite, ListID: "ToDoList"}, "404")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "failed requests are not retried")

	var rre *RemoteRequestError
	require.ErrorAs(t, err, &rre)
	assert.Equal(t, http.MethodDelete, rre.Method)
	assert.Equal(t, "/sites/"+testSite+"/lists/ToDoList/items/404", rre.URL)
	assert.Equal(t, http.StatusNotFound, rre.StatusCode)
	assert.Equal(t, "itemNotFound", rre.Code)
	assert.Equal(t, "The resource could not be found.", rre.Message)
	assert.Equal(t, "req-42", rre.RequestID)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "returned 404 (itemNotFound)")
}

func TestClient_ServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": map[string]any{"code": "serviceNotAvailable", "message": "busy"}})
	})

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
	assert.False(t, IsNotFound(err))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	c, err := NewClient(context.Background(), ts, WithBaseURL(baseURL))
	require.NoError(t, err)

	_, err = c.Me(context.Background())
	var rre *RemoteRequestError
	require.ErrorAs(t, err, &rre)
	assert.Equal(t, 0, rre.StatusCode)
	assert.Equal(t, "/me", rre.URL)
	assert.Contains(t, err.Error(), "graph GET /me failed")
}

type failingSource struct{ err error }

func (f failingSource) Token() (*oauth2.Token, error) { return nil, f.err }

func TestClient_TokenErrorIsReturnedAsIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected without a token")
	}))
	t.Cleanup(srv.Close)

	tokenErr := errors.New("no stored token")
	c, err := NewClient(context.Background(), failingSource{err: tokenErr}, WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Me(context.Background())
	require.ErrorIs(t, err, tokenErr)
	var rre *RemoteRequestError
	assert.False(t, errors.As(err, &rre))
}

type stringNode struct{ v *string }

func (n *stringNode) GetValue() *string { return n.v }

func TestNormalizeValue(t *testing.T) {
	s := "text"
	f := 2.5
	b := true
	i32 := int32(4)
	var nilString *string

	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"nil", nil, nil},
		{"nil pointer", nilString, nil},
		{"string pointer", &s, "text"},
		{"float pointer", &f, 2.5},
		{"bool pointer", &b, true},
		{"int32 pointer", &i32, float64(4)},
		{"untyped node", &stringNode{v: &s}, "text"},
		{"slice of pointers", []*string{&s, nil}, []any{"text", nil}},
		{"nested map", map[string]any{"k": &f}, map[string]any{"k": 2.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeValue(tt.input))
		})
	}
}
