package digest

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"EventsDigest/internal/domain"
)

const (
	dayLayout       = "Jan 2"
	clockLayout     = "15:04"
	formattedLayout = "Mon, Jan 2, 15:04"
	fallbackPlace   = "TBA"
)

var (
	bracketed = regexp.MustCompile(`\[[^\]]*\]`)
	// Reserved characters of Telegram's legacy Markdown parse mode.
	markdownEscaper = strings.NewReplacer(
		`_`, `\_`,
		`*`, `\*`,
		`[`, `\[`,
		"`", "\\`",
	)
)

// CleanTitle removes bracketed annotations such as "[Sponsored]".
func CleanTitle(title string) string {
	return strings.TrimSpace(bracketed.ReplaceAllString(title, ""))
}

// EscapeMarkdown escapes characters the chat's Markdown parser would interpret.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// FormatDate renders an event start for ProcessedEvent.FormattedDate.
func FormatDate(t time.Time) string {
	return t.Format(formattedLayout)
}

// FormatEvent renders one event block, trailing blank line included.
func FormatEvent(event domain.ProcessedEvent, loc *time.Location) string {
	start := inLocation(event.StartsAt, loc)

	place := event.Location
	if place == "" {
		place = event.City
	}
	if place == "" {
		place = fallbackPlace
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s — %s\n", start.Format(dayLayout), EscapeMarkdown(CleanTitle(event.Title)))
	fmt.Fprintf(&b, "⏰ %s • %s %s\n", start.Format(clockLayout), event.Category.Glyph(), event.Category)
	fmt.Fprintf(&b, "📍 %s\n", EscapeMarkdown(place))
	fmt.Fprintf(&b, "🔗 %s\n\n", EscapeMarkdown(event.URL))
	return b.String()
}

// FormatEvents renders every event block in input order.
func FormatEvents(events []domain.ProcessedEvent, loc *time.Location) []string {
	blocks := make([]string, len(events))
	for i, e := range events {
		blocks[i] = FormatEvent(e, loc)
	}
	return blocks
}

// Header opens the first digest message for a city.
func Header(city domain.City, now time.Time, daysAhead int) string {
	end := now.AddDate(0, 0, daysAhead)
	return fmt.Sprintf("🤖 *%s AI Events %s - %s*\n\n",
		EscapeMarkdown(city.DisplayName()), now.Format(dayLayout), end.Format(dayLayout))
}

// ContinuationHeader opens every following digest message.
func ContinuationHeader(city domain.City) string {
	return fmt.Sprintf("🤖 *%s AI Events (continued)*\n\n", EscapeMarkdown(city.DisplayName()))
}

// NoEvents is posted when a city has nothing for the window.
func NoEvents(city domain.City, daysAhead int) string {
	return fmt.Sprintf("🔍 No %s AI events found for the next %d days.", EscapeMarkdown(city.DisplayName()), daysAhead)
}

// Messages renders a full city digest, or the no-events notice when events is empty.
func Messages(city domain.City, events []domain.ProcessedEvent, now time.Time, daysAhead, maxLength int) []string {
	if len(events) == 0 {
		return []string{NoEvents(city, daysAhead)}
	}
	loc := now.Location()
	return Chunk(FormatEvents(events, loc), Header(city, now, daysAhead), ContinuationHeader(city), maxLength)
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
