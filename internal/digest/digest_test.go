package digest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventsDigest/internal/domain"
)

func sampleEvent(t *testing.T, title string, at time.Time) domain.ProcessedEvent {
	t.Helper()
	return domain.ProcessedEvent{
		RawEvent: domain.RawEvent{
			ID:       title,
			Title:    title,
			StartsAt: at,
			Location: "Keizersgracht 1",
			City:     "Amsterdam",
			URL:      "https://meetup.com/e/1",
		},
		Category: domain.CategoryAI,
	}
}

func TestFormatEvent(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	e := sampleEvent(t, "[Sponsored] LLM_Ops *Night*", time.Date(2025, time.June, 1, 8, 30, 0, 0, time.UTC))
	got := FormatEvent(e, loc)

	want := "📅 Jun 1 — LLM\\_Ops \\*Night\\*\n" +
		"⏰ 10:30 • 🤖 AI\n" +
		"📍 Keizersgracht 1\n" +
		"🔗 https://meetup.com/e/1\n\n"
	assert.Equal(t, want, got)

	e.Location, e.City = "", ""
	assert.Contains(t, FormatEvent(e, loc), "📍 TBA\n")

	e.URL = "https://www.meetup.com/ai_builders_nl/events/305_1/"
	assert.Contains(t, FormatEvent(e, loc), "🔗 https://www.meetup.com/ai\\_builders\\_nl/events/305\\_1/\n\n")
}

func TestCleanTitleAndEscape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AI Night", CleanTitle("[Online] AI Night [Free]"))
	assert.Equal(t, "a\\_b \\*c\\* \\[d] \\`e\\`", EscapeMarkdown("a_b *c* [d] `e`"))
}

func TestChunkReproducesBlocksInOrder(t *testing.T) {
	t.Parallel()

	header := "HEADER\n\n"
	continuation := "MORE\n\n"
	maxLength := 120

	var blocks []string
	for i := 0; i < 25; i++ {
		blocks = append(blocks, fmt.Sprintf("block %02d %s\n\n", i, strings.Repeat("🤖", i%4)))
	}

	chunks := Chunk(blocks, header, continuation, maxLength)
	require.Greater(t, len(chunks), 1)

	var joined strings.Builder
	for i, c := range chunks {
		assert.LessOrEqual(t, Length(c), maxLength, "chunk %d", i)
		prefix := continuation
		if i == 0 {
			prefix = header
		}
		require.True(t, strings.HasPrefix(c, prefix), "chunk %d prefix", i)
		joined.WriteString(strings.TrimPrefix(c, prefix))
	}

	assert.Equal(t, strings.Join(blocks, ""), joined.String())
}

func TestChunkOversizedBlock(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("x", 50)
	chunks := Chunk([]string{"small\n", big, "tail\n"}, "H\n", "C\n", 20)

	require.Equal(t, []string{"H\nsmall\n", "C\n" + big, "C\ntail\n"}, chunks)
	assert.Equal(t, []int{1}, Oversized(chunks, 20))

	// An oversized first block does not leave a header-only message behind.
	chunks = Chunk([]string{big}, "H\n", "C\n", 20)
	assert.Equal(t, []string{"H\n" + big}, chunks)
}

func TestLengthCountsUTF16(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, Length("🤖"))
	assert.Equal(t, 1, Length("—"))
	assert.Equal(t, 3, Length("abc"))
}

func TestMessages(t *testing.T) {
	t.Parallel()

	city := domain.City{Name: "amsterdam"}
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

	empty := Messages(city, nil, now, 7, MaxLength)
	assert.Equal(t, []string{"🔍 No Amsterdam AI events found for the next 7 days."}, empty)

	msgs := Messages(city, []domain.ProcessedEvent{sampleEvent(t, "AI Night", now)}, now, 7, MaxLength)
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0], "🤖 *Amsterdam AI Events Jun 1 - Jun 8*\n\n"))
}

func TestTodayMessages(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)

	none := TodayMessages(nil, now, MaxLength)
	require.Len(t, none, 1)
	assert.Contains(t, none[0], "*Monday, Jun 2* - No AI events scheduled for today.")

	events := []domain.ProcessedEvent{
		sampleEvent(t, "Morning AI", now.Add(time.Hour)),
		sampleEvent(t, "Evening ML", now.Add(10*time.Hour)),
	}
	msgs := TodayMessages(events, now, MaxLength)
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0], "🎯 *2 AI events happening TODAY* - Monday, Jun 2:\n\n"))
	assert.Contains(t, msgs[0], "⏰ *09:00* - Morning AI\n🤖 AI • [Join Event](https://meetup.com/e/1)\n\n")
	assert.True(t, strings.HasSuffix(msgs[0], todayFooter))
	assert.Contains(t, TodayHeader(1, now), "1 AI event happening")
}

func TestSocialPost(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	city := domain.City{Name: "amsterdam"}

	var events []domain.ProcessedEvent
	for i := 0; i < 60; i++ {
		events = append(events, sampleEvent(t, fmt.Sprintf("Event %d", i), now))
	}

	post := SocialPost(city, events, now, 14)
	assert.True(t, strings.HasPrefix(post, "🤖 Amsterdam Tech Events Jun 1 - Jun 15\n\n"))
	assert.Contains(t, post, socialMore)
	assert.True(t, strings.HasSuffix(post, "#Networking #Amsterdam"))
	assert.LessOrEqual(t, Length(post), 3000)
	assert.NotContains(t, post, "📍", "social posts omit the venue line")
}
