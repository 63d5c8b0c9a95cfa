// Package graphtest provides an in-memory Microsoft Graph server for tests.
//
// It implements the endpoints the data-access layer uses: the signed-in
// user, paged calendar views, event creation and the items of one
// SharePoint list.
package graphtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	// SiteID is the only site the server knows
	SiteID = "contoso.sharepoint.com,site-1,web-1"

	// ListID is the only list the server knows
	ListID = "ToDoList"
)

// Request is what the server saw of one request
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Prefer string
	Auth   string
	Body   map[string]any
}

// Server is a fake Graph endpoint backed by maps
type Server struct {
	// URL is the base URL to hand to msgraph.WithBaseURL
	URL string

	srv *httptest.Server

	mu       sync.Mutex
	requests []Request
	user     map[string]any
	events   [][]map[string]any
	items    map[string]map[string]any
	nextID   int
	pageSize int
}

// NewServer starts a server that is closed when the test ends
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		items: make(map[string]map[string]any),
		user: map[string]any{
			"displayName":       "Ada Lovelace",
			"mail":              "ada@contoso.com",
			"userPrincipalName": "ada@contoso.com",
			"mailboxSettings":   map[string]any{"timeZone": "W. Europe Standard Time"},
		},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)
	return s
}

// Requests returns the requests received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// SetEvents sets the calendar view result, one slice per page
func (s *Server) SetEvents(pages ...[]map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = pages
}

// SetPageSize limits list item pages. 0 returns all items in one page.
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// UpdateUser edits the /me resource in place
func (s *Server) UpdateUser(fn func(user map[string]any)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.user)
}

// SeedTask stores a list item with the given fields and returns its id
func (s *Server) SeedTask(fields map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := strconv.Itoa(s.nextID)
	s.items[id] = fields
	return id
}

// Item returns a copy of the stored fields of a list item
func (s *Server) Item(id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.items[id]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg string) {
	s.writeJSON(w, status, map[string]any{"error": map[string]any{"code": code, "message": msg}})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	rec := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Prefer: r.Header.Get("Prefer"),
		Auth:   r.Header.Get("Authorization"),
	}
	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPatch) {
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, rec)

	itemsPrefix := "/sites/" + SiteID + "/lists/" + ListID + "/items"

	switch {
	case r.URL.Path == "/me" && r.Method == http.MethodGet:
		s.writeJSON(w, http.StatusOK, s.user)

	case r.URL.Path == "/me/calendarView" && r.Method == http.MethodGet:
		page := 0
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}
		body := map[string]any{"value": []map[string]any{}}
		if page < len(s.events) {
			body["value"] = s.events[page]
		}
		if page+1 < len(s.events) {
			body["@odata.nextLink"] = fmt.Sprintf("%s/me/calendarView?page=%d", s.URL, page+1)
		}
		s.writeJSON(w, http.StatusOK, body)

	case r.URL.Path == "/me/events" && r.Method == http.MethodPost:
		created := map[string]any{}
		for k, v := range rec.Body {
			created[k] = v
		}
		created["id"] = "event-1"
		s.writeJSON(w, http.StatusCreated, created)

	case r.URL.Path == itemsPrefix && r.Method == http.MethodGet:
		s.listItems(w, r)

	case r.URL.Path == itemsPrefix && r.Method == http.MethodPost:
		fields, _ := rec.Body["fields"].(map[string]any)
		s.nextID++
		id := strconv.Itoa(s.nextID)
		stored := map[string]any{}
		for k, v := range fields {
			if v != nil && !isAnnotation(k) {
				stored[k] = v
			}
		}
		s.items[id] = stored
		s.writeJSON(w, http.StatusCreated, map[string]any{"id": id, "fields": s.itemFields(id)})

	case strings.HasPrefix(r.URL.Path, itemsPrefix+"/"):
		rest := strings.TrimPrefix(r.URL.Path, itemsPrefix+"/")
		id, sub, _ := strings.Cut(rest, "/")
		if _, ok := s.items[id]; !ok {
			s.writeError(w, http.StatusNotFound, "itemNotFound", "The resource could not be found.")
			return
		}
		switch {
		case sub == "" && r.Method == http.MethodGet:
			s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "fields": s.itemFields(id)})
		case sub == "" && r.Method == http.MethodDelete:
			delete(s.items, id)
			w.WriteHeader(http.StatusNoContent)
		case sub == "fields" && r.Method == http.MethodPatch:
			for k, v := range rec.Body {
				if isAnnotation(k) {
					continue
				}
				if v == nil {
					delete(s.items[id], k)
				} else {
					s.items[id][k] = v
				}
			}
			s.writeJSON(w, http.StatusOK, s.itemFields(id))
		default:
			s.writeError(w, http.StatusMethodNotAllowed, "invalidRequest", "unsupported")
		}

	default:
		s.writeError(w, http.StatusNotFound, "invalidRequest", "unknown path "+r.URL.Path)
	}
}

// isAnnotation reports whether k is an OData annotation such as @odata.type
func isAnnotation(k string) bool {
	return strings.HasPrefix(k, "@odata.")
}

// itemFields returns stored fields plus the system columns SharePoint adds
func (s *Server) itemFields(id string) map[string]any {
	out := map[string]any{"id": id, "@odata.etag": `"etag,1"`, "ContentType": "Item"}
	for k, v := range s.items[id] {
		out[k] = v
	}
	return out
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})

	start := 0
	if v := r.URL.Query().Get("skip"); v != "" {
		start, _ = strconv.Atoi(v)
	}
	end := len(ids)
	if s.pageSize > 0 && start+s.pageSize < end {
		end = start + s.pageSize
	}

	values := []map[string]any{}
	for _, id := range ids[start:end] {
		values = append(values, map[string]any{"id": id, "fields": s.itemFields(id)})
	}
	body := map[string]any{"value": values}
	if end < len(ids) {
		next := url.Values{"$expand": {r.URL.Query().Get("$expand")}, "skip": {strconv.Itoa(end)}}
		body["@odata.nextLink"] = s.URL + r.URL.Path + "?" + next.Encode()
	}
	s.writeJSON(w, http.StatusOK, body)
}
