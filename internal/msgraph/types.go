package msgraph

import (
	"fmt"
	"time"
)

// dateTimeLayout is how Graph writes dateTimeTimeZone.dateTime
const dateTimeLayout = "2006-01-02T15:04:05.9999999"

// User represents the subset of the Graph user resource graphplanner reads
type User struct {
	ID                string           `json:"id,omitempty"`
	DisplayName       string           `json:"displayName,omitempty"`
	Mail              string           `json:"mail,omitempty"`
	UserPrincipalName string           `json:"userPrincipalName,omitempty"`
	MailboxSettings   *MailboxSettings `json:"mailboxSettings,omitempty"`
}

// MailboxSettings holds the user's regional mailbox preferences
type MailboxSettings struct {
	TimeZone   string `json:"timeZone,omitempty"`
	DateFormat string `json:"dateFormat,omitempty"`
	TimeFormat string `json:"timeFormat,omitempty"`
}

// Email returns Mail, falling back to the user principal name
func (u *User) Email() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}

// DateTimeTimeZone is a wall-clock time plus the zone it is expressed in
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// NewDateTimeTimeZone expresses t as wall-clock time in tz
func NewDateTimeTimeZone(t time.Time, tz string) *DateTimeTimeZone {
	return &DateTimeTimeZone{
		DateTime: t.Format("2006-01-02T15:04:05"),
		TimeZone: tz,
	}
}

// Time parses the pair into an absolute time
func (d *DateTimeTimeZone) Time() (time.Time, error) {
	if d == nil || d.DateTime == "" {
		return time.Time{}, fmt.Errorf("empty dateTime")
	}
	loc, err := LoadLocation(d.TimeZone)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(dateTimeLayout, d.DateTime, loc)
	if err != nil {
		// Some callers send RFC 3339 with an explicit offset.
		if t2, err2 := time.Parse(time.RFC3339Nano, d.DateTime); err2 == nil {
			return t2, nil
		}
		return time.Time{}, fmt.Errorf("invalid dateTime %q: %w", d.DateTime, err)
	}
	return t, nil
}

// EmailAddress is a name/address pair
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// Recipient wraps an email address, as used for organizers
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// Attendee is an event participant
type Attendee struct {
	EmailAddress EmailAddress `json:"emailAddress"`
	Type         string       `json:"type,omitempty"`
}

// ItemBody is rich or plain text content
type ItemBody struct {
	ContentType string `json:"contentType,omitempty"`
	Content     string `json:"content,omitempty"`
}

// Location is where an event takes place
type Location struct {
	DisplayName string `json:"displayName,omitempty"`
}

// Event represents a calendar event
type Event struct {
	ID        string            `json:"id,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Body      *ItemBody         `json:"body,omitempty"`
	Organizer *Recipient        `json:"organizer,omitempty"`
	Start     *DateTimeTimeZone `json:"start,omitempty"`
	End       *DateTimeTimeZone `json:"end,omitempty"`
	Location  *Location         `json:"location,omitempty"`
	Attendees []Attendee        `json:"attendees,omitempty"`
	IsAllDay  bool              `json:"isAllDay,omitempty"`
	WebLink   string            `json:"webLink,omitempty"`
}

// FieldValueSet holds the column values of a SharePoint list item
type FieldValueSet map[string]any

// ListItem represents an item of a SharePoint list
type ListItem struct {
	ID                   string        `json:"id,omitempty"`
	ETag                 string        `json:"@odata.etag,omitempty"`
	CreatedDateTime      *time.Time    `json:"createdDateTime,omitempty"`
	LastModifiedDateTime *time.Time    `json:"lastModifiedDateTime,omitempty"`
	WebURL               string        `json:"webUrl,omitempty"`
	Fields               FieldValueSet `json:"fields,omitempty"`
}
