// Package normalize maps heterogeneous collector records onto domain.RawEvent.
package normalize

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"EventsDigest/internal/domain"
)

const (
	// UntitledEvent replaces a missing title.
	UntitledEvent = "Untitled Event"
	// UnknownOrganizer replaces a missing organizer name.
	UnknownOrganizer = "Unknown"

	lumaBaseURL = "https://lu.ma/"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("eventsdigest/raw-event"))

// Options carries the request context a record is normalized against.
type Options struct {
	City     string
	Country  string
	Location *time.Location
	// Now stands in for the Date string of records without a usable date,
	// so their fallback ID stays stable within a run. StartsAt stays zero.
	Now time.Time
}

// MeetupItem is the subset of a Meetup scraper record the digest reads.
type MeetupItem struct {
	ID               text   `json:"id"`
	EventID          text   `json:"eventId"`
	Name             text   `json:"name"`
	EventName        text   `json:"eventName"`
	Description      text   `json:"description"`
	EventDescription text   `json:"eventDescription"`
	Time             text   `json:"time"`
	DateTime         text   `json:"dateTime"`
	Date             text   `json:"date"`
	Venue            venue  `json:"venue"`
	Location         text   `json:"location"`
	Address          text   `json:"address"`
	Link             text   `json:"link"`
	URL              text   `json:"url"`
	EventURL         text   `json:"eventUrl"`
	EventType        text   `json:"eventType"`
	ActualAttendees  count  `json:"actualAttendees"`
	OrganizedByGroup text   `json:"organizedByGroup"`
	Topics           labels `json:"topics"`
}

// Physical reports whether the record describes an in-person event.
func (m MeetupItem) Physical() bool {
	return strings.EqualFold(m.EventType.String(), "PHYSICAL")
}

// LumaItem is the subset of a Luma scraper record the digest reads.
type LumaItem struct {
	ID               text       `json:"id"`
	EventID          text       `json:"eventId"`
	APIID            text       `json:"api_id"`
	Name             text       `json:"name"`
	Title            text       `json:"title"`
	Description      text       `json:"description"`
	StartAt          text       `json:"start_at"`
	DateTime         text       `json:"dateTime"`
	Date             text       `json:"date"`
	GeoAddress       geoAddress `json:"geo_address_json"`
	Location         text       `json:"location"`
	URL              text       `json:"url"`
	Tags             labels     `json:"tags"`
	GoingCount       count      `json:"going_count"`
	ActualAttendees  count      `json:"actualAttendees"`
	Host             host       `json:"host"`
	OrganizedByGroup text       `json:"organizedByGroup"`
}

// DecodeMeetup reads a raw record; malformed input yields an empty item.
func DecodeMeetup(raw []byte) MeetupItem {
	var item MeetupItem
	if !decodeObject(raw, &item) {
		return MeetupItem{}
	}
	return item
}

// DecodeLuma reads a raw record; malformed input yields an empty item.
func DecodeLuma(raw []byte) LumaItem {
	var item LumaItem
	if !decodeObject(raw, &item) {
		return LumaItem{}
	}
	return item
}

// Meetup converts a Meetup record into a RawEvent.
func Meetup(item MeetupItem, opts Options) domain.RawEvent {
	attendees := int(item.ActualAttendees)

	event := domain.RawEvent{
		ID:          first(item.ID, item.EventID),
		Title:       first(item.Name, item.EventName),
		Description: first(item.Description, item.EventDescription),
		Date:        first(item.Time, item.DateTime, item.Date),
		Location:    first(item.Venue.Address, item.Location, item.Address),
		City:        first(item.Venue.City, text(opts.City)),
		Country:     opts.Country,
		URL:         first(item.Link, item.URL, item.EventURL),
		Source:      domain.SourceMeetup,
		Tags:        item.Topics,
		Attendees:   attendees,
		Organizer:   item.OrganizedByGroup.String(),
	}
	return finish(event, opts)
}

// Luma converts a Luma record into a RawEvent.
func Luma(item LumaItem, opts Options) domain.RawEvent {
	attendees := int(item.GoingCount)
	if attendees == 0 {
		attendees = int(item.ActualAttendees)
	}

	link := item.URL.String()
	if link != "" && !strings.HasPrefix(link, "http") {
		link = lumaBaseURL + strings.TrimPrefix(link, "/")
	}

	event := domain.RawEvent{
		ID:          first(item.ID, item.EventID, item.APIID),
		Title:       first(item.Name, item.Title),
		Description: item.Description.String(),
		Date:        first(item.StartAt, item.DateTime, item.Date),
		Location:    first(item.GeoAddress.Address, item.GeoAddress.FullAddress, item.Location),
		City:        opts.City,
		Country:     opts.Country,
		URL:         link,
		Source:      domain.SourceLuma,
		Tags:        item.Tags,
		Attendees:   attendees,
		Organizer:   first(item.Host.Name, item.OrganizedByGroup),
	}
	return finish(event, opts)
}

func finish(event domain.RawEvent, opts Options) domain.RawEvent {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	if event.Title == "" {
		event.Title = UntitledEvent
	}
	if event.Organizer == "" {
		event.Organizer = UnknownOrganizer
	}
	if event.Attendees < 0 {
		event.Attendees = 0
	}
	if event.Tags == nil {
		event.Tags = []string{}
	}
	event.Description = plainText(event.Description)

	if startsAt, date, ok := ParseDate(event.Date, loc); ok {
		event.StartsAt = startsAt
		event.Date = date
	} else {
		event.StartsAt = time.Time{}
		event.Date = now.In(loc).Format(time.RFC3339)
	}

	if event.ID == "" {
		event.ID = FallbackID(event.Source, event.Title, event.Date)
	}

	return event
}

// FallbackID derives a stable identifier for records that carry none.
func FallbackID(source domain.Source, title, date string) string {
	key := string(source) + "|" + title + "|" + date
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

func plainText(value string) string {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, "<") || !strings.Contains(value, ">") {
		return value
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return value
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
