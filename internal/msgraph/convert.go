package msgraph

import (
	"reflect"
	"strings"

	"github.com/microsoftgraph/msgraph-sdk-go/models"
)

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func ptr[T any](v T) *T {
	return &v
}

func userFromModel(m models.Userable) *User {
	if m == nil {
		return &User{}
	}
	u := &User{
		ID:                deref(m.GetId()),
		DisplayName:       deref(m.GetDisplayName()),
		Mail:              deref(m.GetMail()),
		UserPrincipalName: deref(m.GetUserPrincipalName()),
	}
	if ms := m.GetMailboxSettings(); ms != nil {
		u.MailboxSettings = &MailboxSettings{
			TimeZone:   deref(ms.GetTimeZone()),
			DateFormat: deref(ms.GetDateFormat()),
			TimeFormat: deref(ms.GetTimeFormat()),
		}
	}
	return u
}

func dateTimeFromModel(m models.DateTimeTimeZoneable) *DateTimeTimeZone {
	if m == nil {
		return nil
	}
	return &DateTimeTimeZone{DateTime: deref(m.GetDateTime()), TimeZone: deref(m.GetTimeZone())}
}

func dateTimeToModel(d *DateTimeTimeZone) models.DateTimeTimeZoneable {
	m := models.NewDateTimeTimeZone()
	m.SetDateTime(ptr(d.DateTime))
	m.SetTimeZone(ptr(d.TimeZone))
	return m
}

func emailFromModel(m models.EmailAddressable) EmailAddress {
	if m == nil {
		return EmailAddress{}
	}
	return EmailAddress{Name: deref(m.GetName()), Address: deref(m.GetAddress())}
}

func emailToModel(e EmailAddress) models.EmailAddressable {
	m := models.NewEmailAddress()
	if e.Name != "" {
		m.SetName(ptr(e.Name))
	}
	m.SetAddress(ptr(e.Address))
	return m
}

func eventFromModel(m models.Eventable) Event {
	ev := Event{
		ID:       deref(m.GetId()),
		Subject:  deref(m.GetSubject()),
		Start:    dateTimeFromModel(m.GetStart()),
		End:      dateTimeFromModel(m.GetEnd()),
		IsAllDay: deref(m.GetIsAllDay()),
		WebLink:  deref(m.GetWebLink()),
	}
	if b := m.GetBody(); b != nil {
		ev.Body = &ItemBody{Content: deref(b.GetContent())}
		if ct := b.GetContentType(); ct != nil {
			ev.Body.ContentType = ct.String()
		}
	}
	if o := m.GetOrganizer(); o != nil {
		ev.Organizer = &Recipient{EmailAddress: emailFromModel(o.GetEmailAddress())}
	}
	if l := m.GetLocation(); l != nil {
		ev.Location = &Location{DisplayName: deref(l.GetDisplayName())}
	}
	for _, a := range m.GetAttendees() {
		att := Attendee{EmailAddress: emailFromModel(a.GetEmailAddress())}
		if t := a.GetTypeEscaped(); t != nil {
			att.Type = t.String()
		}
		ev.Attendees = append(ev.Attendees, att)
	}
	return ev
}

func eventToModel(ev *Event) (models.Eventable, error) {
	m := models.NewEvent()
	if ev.Subject != "" {
		m.SetSubject(ptr(ev.Subject))
	}
	if ev.Start != nil {
		m.SetStart(dateTimeToModel(ev.Start))
	}
	if ev.End != nil {
		m.SetEnd(dateTimeToModel(ev.End))
	}
	if ev.IsAllDay {
		m.SetIsAllDay(ptr(true))
	}
	if ev.Body != nil {
		body := models.NewItemBody()
		body.SetContent(ptr(ev.Body.Content))
		if ev.Body.ContentType != "" {
			ct, err := models.ParseBodyType(strings.ToLower(ev.Body.ContentType))
			if err != nil {
				return nil, err
			}
			body.SetContentType(ct.(*models.BodyType))
		}
		m.SetBody(body)
	}
	if ev.Location != nil {
		loc := models.NewLocation()
		loc.SetDisplayName(ptr(ev.Location.DisplayName))
		m.SetLocation(loc)
	}
	if len(ev.Attendees) > 0 {
		attendees := make([]models.Attendeeable, 0, len(ev.Attendees))
		for _, a := range ev.Attendees {
			att := models.NewAttendee()
			att.SetEmailAddress(emailToModel(a.EmailAddress))
			if a.Type != "" {
				t, err := models.ParseAttendeeType(strings.ToLower(a.Type))
				if err != nil {
					return nil, err
				}
				att.SetTypeEscaped(t.(*models.AttendeeType))
			}
			attendees = append(attendees, att)
		}
		m.SetAttendees(attendees)
	}
	return m, nil
}

func listItemFromModel(m models.ListItemable) ListItem {
	item := ListItem{
		ID:                   deref(m.GetId()),
		ETag:                 deref(m.GetETag()),
		CreatedDateTime:      m.GetCreatedDateTime(),
		LastModifiedDateTime: m.GetLastModifiedDateTime(),
		WebURL:               deref(m.GetWebUrl()),
	}
	if item.ETag == "" {
		if etag, ok := normalizeValue(m.GetAdditionalData()["@odata.etag"]).(string); ok {
			item.ETag = etag
		}
	}
	if f := m.GetFields(); f != nil {
		item.Fields = fieldsFromModel(f)
	}
	return item
}

// fieldsFromModel returns the column values of a field set. OData
// annotations are not columns and are dropped.
func fieldsFromModel(m models.FieldValueSetable) FieldValueSet {
	out := FieldValueSet{}
	if m == nil {
		return out
	}
	if id := m.GetId(); id != nil {
		out["id"] = *id
	}
	for k, v := range m.GetAdditionalData() {
		if strings.HasPrefix(k, "@odata.") {
			continue
		}
		out[k] = normalizeValue(v)
	}
	return out
}

func fieldsToModel(fields FieldValueSet) models.FieldValueSetable {
	m := models.NewFieldValueSet()
	data := make(map[string]any, len(fields))
	for k, v := range fields {
		data[k] = v
	}
	m.SetAdditionalData(data)
	return m
}

// normalizeValue turns a deserialized additional-data value into the shape
// encoding/json would produce: pointers are dereferenced, numbers become
// float64, untyped nodes are unwrapped and nil stays nil.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool, float64:
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	if get := rv.MethodByName("GetValue"); get.IsValid() && get.Type().NumIn() == 0 && get.Type().NumOut() == 1 {
		return normalizeValue(get.Call(nil)[0].Interface())
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return normalizeValue(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32:
		return rv.Float()
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalizeValue(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalizeValue(rv.Index(i).Interface())
		}
		return out
	}
	return v
}
