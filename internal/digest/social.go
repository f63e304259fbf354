package digest

import (
	"fmt"
	"strings"
	"time"

	"EventsDigest/internal/domain"
)

const (
	// SocialMaxLength keeps posts under LinkedIn's 3000 character cap.
	SocialMaxLength = 2800
	socialMore      = "\n... and more events! Check our website for the complete list."
	socialHashtags  = "\n#TechEvents #AI #MachineLearning #TechCommunity #Networking"
)

// FormatSocialEvent renders one event as plain text; social feeds do not parse Markdown.
func FormatSocialEvent(event domain.ProcessedEvent, loc *time.Location) string {
	start := inLocation(event.StartsAt, loc)
	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s — %s\n", start.Format(dayLayout), CleanTitle(event.Title))
	fmt.Fprintf(&b, "⏰ %s • %s %s\n", start.Format(clockLayout), event.Category.Glyph(), event.Category)
	fmt.Fprintf(&b, "🔗 %s\n\n", event.URL)
	return b.String()
}

// SocialPost builds a single post. Events that do not fit are replaced by a
// "more events" line; the hashtag footer is always appended.
func SocialPost(city domain.City, events []domain.ProcessedEvent, now time.Time, daysAhead int) string {
	end := now.AddDate(0, 0, daysAhead)

	var b strings.Builder
	fmt.Fprintf(&b, "🤖 %s Tech Events %s - %s\n\n", city.DisplayName(), now.Format(dayLayout), end.Format(dayLayout))

	size := Length(b.String())
	for _, e := range events {
		block := FormatSocialEvent(e, now.Location())
		if size+Length(block) > SocialMaxLength {
			b.WriteString(socialMore)
			break
		}
		b.WriteString(block)
		size += Length(block)
	}

	hashtags := socialHashtags
	if tag := strings.ReplaceAll(city.DisplayName(), " ", ""); tag != "" {
		hashtags += " #" + tag
	}
	b.WriteString(hashtags)
	return b.String()
}
