// Package ics renders calendar events as iCalendar (RFC 5545) documents.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/teemow/graphplanner/internal/msgraph"
)

// ProductID identifies the producer in exported calendars
const ProductID = "-//graphplanner//calendar export//EN"

// Export builds a VCALENDAR with one VEVENT per event. stamp is written as
// DTSTAMP of every event.
func Export(events []msgraph.Event, stamp time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)

	for i, ev := range events {
		start, err := ev.Start.Time()
		if err != nil {
			return "", fmt.Errorf("event %s: start: %w", eventUID(ev, i), err)
		}
		end, err := ev.End.Time()
		if err != nil {
			return "", fmt.Errorf("event %s: end: %w", eventUID(ev, i), err)
		}

		vev := cal.AddEvent(eventUID(ev, i))
		vev.SetDtStampTime(stamp.UTC())
		vev.SetSummary(ev.Subject)
		if ev.IsAllDay {
			vev.SetAllDayStartAt(start)
			vev.SetAllDayEndAt(end)
		} else {
			vev.SetStartAt(start.UTC())
			vev.SetEndAt(end.UTC())
		}

		if ev.Organizer != nil && ev.Organizer.EmailAddress.Address != "" {
			addr := ev.Organizer.EmailAddress
			if addr.Name != "" {
				vev.SetOrganizer("mailto:"+addr.Address, ical.WithCN(addr.Name))
			} else {
				vev.SetOrganizer("mailto:" + addr.Address)
			}
		}
		for _, a := range ev.Attendees {
			if a.EmailAddress.Address == "" {
				continue
			}
			vev.AddAttendee("mailto:" + a.EmailAddress.Address)
		}
		if ev.Location != nil && ev.Location.DisplayName != "" {
			vev.SetLocation(ev.Location.DisplayName)
		}
		if ev.Body != nil && ev.Body.Content != "" && !strings.EqualFold(ev.Body.ContentType, "html") {
			vev.SetDescription(ev.Body.Content)
		}
		if ev.WebLink != "" {
			vev.SetURL(ev.WebLink)
		}
	}

	return cal.Serialize(), nil
}

func eventUID(ev msgraph.Event, i int) string {
	if ev.ID != "" {
		return ev.ID
	}
	return fmt.Sprintf("event-%d@graphplanner", i+1)
}
