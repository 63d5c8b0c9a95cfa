package graph

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/msgraph"
)

// calendarPageSize is the $top of calendar view requests
const calendarPageSize = 25

// graphTimeLayout is how window bounds are sent to calendarView
const graphTimeLayout = "2006-01-02T15:04:05.000Z"

// eventFields is the projection of the week calendar
var eventFields = []string{"subject", "organizer", "start", "end"}

// exportEventFields adds what an iCalendar export renders beyond eventFields
var exportEventFields = []string{"subject", "organizer", "start", "end", "isAllDay", "location", "attendees", "body", "webLink"}

// ResolveLocation resolves an IANA or Windows time zone name. "Local" is
// rejected: it names the host's zone, which Graph cannot interpret.
func ResolveLocation(timeZone string) (*time.Location, error) {
	timeZone = strings.TrimSpace(timeZone)
	if timeZone == "" {
		return nil, invalidArgument("resolve time zone", "time zone is required")
	}
	loc, err := msgraph.LoadLocation(timeZone)
	if err != nil {
		return nil, &Error{Kind: KindInvalidArgument, Op: "resolve time zone", Err: err}
	}
	return loc, nil
}

// WeekWindow returns the calendar week containing now, as observed in loc.
// start is midnight of the most recent weekStart day; end is the last
// millisecond before the following week starts.
func WeekWindow(now time.Time, loc *time.Location, weekStart time.Weekday) (start, end time.Time) {
	local := now.In(loc)
	offset := (int(local.Weekday()) - int(weekStart) + 7) % 7
	y, m, d := local.Date()
	start = time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	end = time.Date(y, m, d-offset+7, 0, 0, 0, 0, loc).Add(-time.Millisecond)
	return start, end
}

// FormatGraphTime formats t as a UTC timestamp with millisecond precision
func FormatGraphTime(t time.Time) string {
	return t.UTC().Format(graphTimeLayout)
}

// GetWeekCalendar returns the events of the current week in timeZone, ordered
// by start time. All result pages are fetched in order; event times are
// expressed in timeZone. Only subject, organizer, start and end are read.
func (s *Service) GetWeekCalendar(ctx context.Context, timeZone string) ([]msgraph.Event, error) {
	return s.weekEvents(ctx, timeZone, eventFields)
}

// ExportWeekCalendar is GetWeekCalendar with the properties an iCalendar
// export renders: all-day flag, location, attendees, body and web link.
func (s *Service) ExportWeekCalendar(ctx context.Context, timeZone string) ([]msgraph.Event, error) {
	return s.weekEvents(ctx, timeZone, exportEventFields)
}

func (s *Service) weekEvents(ctx context.Context, timeZone string, fields []string) ([]msgraph.Event, error) {
	timeZone = strings.TrimSpace(timeZone)
	loc, err := ResolveLocation(timeZone)
	if err != nil {
		return nil, err
	}
	start, end := WeekWindow(s.now(), loc, s.cfg.WeekStart)

	var events []msgraph.Event
	err = s.do(ctx, instrumentation.ServiceCalendar, instrumentation.OperationList, func(ctx context.Context, c *msgraph.Client) error {
		var err error
		events, err = c.CalendarView(ctx, msgraph.CalendarViewQuery{
			Start:    FormatGraphTime(start),
			End:      FormatGraphTime(end),
			TimeZone: timeZone,
			Select:   fields,
			OrderBy:  []string{"start/dateTime"},
			Top:      calendarPageSize,
		})
		return err
	}, instrumentation.TimeZoneAttr(timeZone))
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []msgraph.Event{}
	}
	return events, nil
}

// CreateEvent creates an event in the user's default calendar and returns
// the server's representation of it.
func (s *Service) CreateEvent(ctx context.Context, event *msgraph.Event) (*msgraph.Event, error) {
	if event == nil {
		return nil, invalidArgument("calendar.create", "event is required")
	}

	var created *msgraph.Event
	err := s.do(ctx, instrumentation.ServiceCalendar, instrumentation.OperationCreate, func(ctx context.Context, c *msgraph.Client) error {
		var err error
		created, err = c.CreateEvent(ctx, event)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// NewEvent is the input of an event creation form
type NewEvent struct {
	Subject   string
	Attendees []string
	Start     time.Time
	End       time.Time
	TimeZone  string
	Body      string
}

// Event converts the form input to a Graph event. Start and end are expressed
// as wall-clock times in TimeZone.
func (n NewEvent) Event() (*msgraph.Event, error) {
	var problems []string
	if strings.TrimSpace(n.Subject) == "" {
		problems = append(problems, "subject is required")
	}
	if n.Start.IsZero() || n.End.IsZero() {
		problems = append(problems, "start and end are required")
	} else if !n.End.After(n.Start) {
		problems = append(problems, "end must be after start")
	}
	if strings.TrimSpace(n.TimeZone) == "" {
		problems = append(problems, "time zone is required")
	}
	if len(problems) > 0 {
		return nil, &Error{Kind: KindInvalidArgument, Op: "build event", Err: errors.New(strings.Join(problems, "; "))}
	}

	ev := &msgraph.Event{
		Subject: n.Subject,
		Start:   msgraph.NewDateTimeTimeZone(n.Start, n.TimeZone),
		End:     msgraph.NewDateTimeTimeZone(n.End, n.TimeZone),
	}
	if n.Body != "" {
		ev.Body = &msgraph.ItemBody{ContentType: "text", Content: n.Body}
	}
	for _, addr := range n.Attendees {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		ev.Attendees = append(ev.Attendees, msgraph.Attendee{
			EmailAddress: msgraph.EmailAddress{Address: addr},
			Type:         "required",
		})
	}
	return ev, nil
}

// ParseAttendees splits a list of addresses separated by ';' or ','
func ParseAttendees(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// wallClockLayouts are the accepted forms of a date and time entered without zone
var wallClockLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseWallClock parses the named form value as a date and time without zone
func ParseWallClock(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, invalidArgument("parse "+field, "%s is required", field)
	}
	for _, layout := range wallClockLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalidArgument("parse "+field, "%s must look like 2006-01-02T15:04, got %q", field, value)
}
