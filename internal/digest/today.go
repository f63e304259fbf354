package digest

import (
	"fmt"
	"strings"
	"time"

	"EventsDigest/internal/domain"
)

const todayFooter = "Have a great day building the future! 🚀🤖"

func todayLabel(now time.Time) string {
	return fmt.Sprintf("%s, %s", now.Format("Monday"), now.Format(dayLayout))
}

// NoEventsToday is the reminder posted when nothing happens today.
func NoEventsToday(now time.Time) string {
	return fmt.Sprintf(`📅 *%s* - No AI events scheduled for today.

💡 Perfect day to:
• 🔍 Explore AI tools and resources
• 📚 Catch up on AI research and articles
• 🤝 Connect with the AI community online
• 🛠️ Work on your AI projects

Check back tomorrow for more events! 🚀`, todayLabel(now))
}

// TodayHeader opens the reminder message.
func TodayHeader(count int, now time.Time) string {
	plural := ""
	if count != 1 {
		plural = "s"
	}
	return fmt.Sprintf("🎯 *%d AI event%s happening TODAY* - %s:\n\n", count, plural, todayLabel(now))
}

// FormatTodayEvent renders one compact reminder line pair.
func FormatTodayEvent(event domain.ProcessedEvent, loc *time.Location) string {
	start := inLocation(event.StartsAt, loc)
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ *%s* - %s\n", start.Format(clockLayout), EscapeMarkdown(CleanTitle(event.Title)))
	fmt.Fprintf(&b, "%s %s • [Join Event](%s)\n\n", event.Category.Glyph(), event.Category, event.URL)
	return b.String()
}

// TodayMessages renders the reminder, chunked like the digest, with the footer on the last message.
func TodayMessages(events []domain.ProcessedEvent, now time.Time, maxLength int) []string {
	if len(events) == 0 {
		return []string{NoEventsToday(now)}
	}

	blocks := make([]string, len(events))
	for i, e := range events {
		blocks[i] = FormatTodayEvent(e, now.Location())
	}

	continuation := fmt.Sprintf("🎯 *Today's AI events (continued)* - %s:\n\n", todayLabel(now))
	messages := Chunk(blocks, TodayHeader(len(events), now), continuation, maxLength)

	last := len(messages) - 1
	if Length(messages[last])+Length(todayFooter) <= maxLength {
		messages[last] += todayFooter
	} else {
		messages = append(messages, todayFooter)
	}
	return messages
}
