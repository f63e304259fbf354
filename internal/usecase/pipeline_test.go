package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventsDigest/internal/categorize"
	"EventsDigest/internal/domain"
	"EventsDigest/internal/filter"
	"EventsDigest/internal/metrics"
)

type fakeSource struct {
	events map[string][]domain.RawEvent
	err    error
}

func (f fakeSource) FetchCity(_ context.Context, city domain.City, _ time.Time) ([]domain.RawEvent, error) {
	return f.events[city.Name], f.err
}

type sent struct {
	chatID string
	text   string
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sent
	failAt int
}

func (f *fakeNotifier) Send(_ context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt > 0 && len(f.sent)+1 == f.failAt {
		return errors.New("chat not found")
	}
	f.sent = append(f.sent, sent{chatID: chatID, text: text})
	return nil
}

type fakePublisher struct {
	posts []string
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.posts = append(f.posts, text)
	return nil
}

type labelClassifier map[string]string

func (l labelClassifier) Classify(_ context.Context, prompt string) (string, error) {
	for title, label := range l {
		if strings.Contains(prompt, title) {
			return label, nil
		}
	}
	return "unsure", nil
}

var (
	amsterdam = domain.City{Name: "amsterdam", Country: "netherlands", ChatID: "-100"}
	runAt     = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
)

func rawEvent(id, title string, at time.Time) domain.RawEvent {
	return domain.RawEvent{
		ID:       id,
		Title:    title,
		Date:     at.Format(time.RFC3339),
		StartsAt: at,
		URL:      "https://www.meetup.com/e/" + id,
		Source:   domain.SourceMeetup,
		City:     "Amsterdam",
	}
}

func newPipeline(source fakeSource, notifier *fakeNotifier, publisher *fakePublisher, rec *metrics.Recorder) *Pipeline {
	deps := PipelineDeps{
		Source: source,
		Policy: filter.NewStrongKeywordPolicy(nil),
		Categorizer: categorize.New(labelClassifier{
			"AI Builders":      "AI",
			"Machine Learning": "Engineering",
		}, categorize.Config{BatchSize: 5}, nil, rec),
		Notifier:  notifier,
		Metrics:   rec,
		Location:  time.UTC,
		Cities:    []domain.City{amsterdam},
		DaysAhead: 7,
		MaxLength: 3500,
	}
	if publisher != nil {
		deps.Publisher = publisher
	}
	p := NewPipeline(deps)
	p.sleep = func(context.Context, time.Duration) error { return nil }
	return p
}

func TestRunDigestEndToEnd(t *testing.T) {
	t.Parallel()

	day := runAt.Add(48 * time.Hour)
	source := fakeSource{events: map[string][]domain.RawEvent{
		"amsterdam": {
			rawEvent("3", "Machine Learning Night", day.Add(2*time.Hour)),
			rawEvent("1", "AI Builders", day),
			rawEvent("2", "AI Builders | Science Park", day),
			rawEvent("4", "Knitting Club", day),
			rawEvent("5", "AI Summit", runAt.AddDate(0, 0, 10)),
		},
	}}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	rec := metrics.New()

	require.NoError(t, newPipeline(source, notifier, publisher, rec).RunDigest(context.Background(), runAt))

	require.Len(t, notifier.sent, 1)
	msg := notifier.sent[0]
	assert.Equal(t, "-100", msg.chatID)
	assert.True(t, strings.HasPrefix(msg.text, "🤖 *Amsterdam AI Events Jun 1 - Jun 8*"), msg.text)
	assert.Equal(t, 1, strings.Count(msg.text, "AI Builders"))
	assert.NotContains(t, msg.text, "Knitting")
	assert.NotContains(t, msg.text, "AI Summit")
	assert.Less(t, strings.Index(msg.text, "AI Builders"), strings.Index(msg.text, "Machine Learning Night"))
	assert.Contains(t, msg.text, "🤖 AI")
	assert.Contains(t, msg.text, "⚡ Engineering")

	require.Len(t, publisher.posts, 1)
	assert.Contains(t, publisher.posts[0], "AI Builders")
}

func TestRunDigestSendsNoEventsNotice(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	require.NoError(t, newPipeline(fakeSource{}, notifier, publisher, nil).RunDigest(context.Background(), runAt))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "🔍 No Amsterdam AI events found for the next 7 days.", notifier.sent[0].text)
	assert.Empty(t, publisher.posts, "nothing to publish without events")
}

func TestRunDigestDeliveryFailureIsFatal(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{failAt: 1}
	err := newPipeline(fakeSource{}, notifier, nil, nil).RunDigest(context.Background(), runAt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Contains(t, err.Error(), "amsterdam")
}

func TestRunDigestSocialFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	source := fakeSource{events: map[string][]domain.RawEvent{
		"amsterdam": {rawEvent("1", "AI Builders", runAt.Add(time.Hour))},
	}}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{err: errors.New("token expired")}

	require.NoError(t, newPipeline(source, notifier, publisher, nil).RunDigest(context.Background(), runAt))
	assert.Len(t, notifier.sent, 1)
}

func TestRunDigestFetchErrorAborts(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	err := newPipeline(fakeSource{err: errors.New("unknown source")}, notifier, nil, nil).RunDigest(context.Background(), runAt)
	require.Error(t, err)
	assert.Empty(t, notifier.sent)
}

func TestUndatedEventsNeverReachChat(t *testing.T) {
	t.Parallel()

	undated := rawEvent("9", "AI Night", time.Time{})
	undated.Date = runAt.Format(time.RFC3339)
	source := fakeSource{events: map[string][]domain.RawEvent{
		"amsterdam": {undated, rawEvent("1", "AI Builders", runAt.Add(time.Hour))},
	}}

	notifier := &fakeNotifier{}
	rec := metrics.New()
	p := newPipeline(source, notifier, nil, rec)
	require.NoError(t, p.RunDigest(context.Background(), runAt))
	require.NoError(t, p.RunToday(context.Background(), runAt))

	require.Len(t, notifier.sent, 2)
	for _, msg := range notifier.sent {
		assert.Contains(t, msg.text, "AI Builders")
		assert.NotContains(t, msg.text, "AI Night")
	}

	expected := `
# HELP eventsdigest_events_dropped_total Events removed from the digest, by pipeline stage.
# TYPE eventsdigest_events_dropped_total counter
eventsdigest_events_dropped_total{stage="undated"} 2
`
	require.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "eventsdigest_events_dropped_total"))
}

func TestRunDigestChunksLargeDigest(t *testing.T) {
	t.Parallel()

	var events []domain.RawEvent
	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("%02d", i)
		events = append(events, rawEvent(id, "AI Builders session "+id, runAt.Add(time.Duration(i)*time.Hour)))
	}
	notifier := &fakeNotifier{}
	p := newPipeline(fakeSource{events: map[string][]domain.RawEvent{"amsterdam": events}}, notifier, nil, nil)
	p.maxLength = 1000

	require.NoError(t, p.RunDigest(context.Background(), runAt))
	require.Greater(t, len(notifier.sent), 1)
	assert.True(t, strings.HasPrefix(notifier.sent[1].text, "🤖 *Amsterdam AI Events (continued)*"))
}

func TestRunToday(t *testing.T) {
	t.Parallel()

	source := fakeSource{events: map[string][]domain.RawEvent{
		"amsterdam": {
			rawEvent("1", "AI Builders", runAt.Add(9*time.Hour)),
			rawEvent("2", "Machine Learning Night", runAt.Add(24*time.Hour)),
		},
	}}
	notifier := &fakeNotifier{}

	require.NoError(t, newPipeline(source, notifier, nil, nil).RunToday(context.Background(), runAt))
	require.Len(t, notifier.sent, 1)
	text := notifier.sent[0].text
	assert.True(t, strings.HasPrefix(text, "🎯 *1 AI event happening TODAY* - Sunday, Jun 1:"), text)
	assert.Contains(t, text, "AI Builders")
	assert.NotContains(t, text, "Machine Learning Night")
	assert.True(t, strings.HasSuffix(text, "Have a great day building the future! 🚀🤖"))
}

func TestRunTodayWithoutEvents(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	require.NoError(t, newPipeline(fakeSource{}, notifier, nil, nil).RunToday(context.Background(), runAt))
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0].text, "No AI events scheduled for today")
}

func TestSortByStartIsStable(t *testing.T) {
	t.Parallel()

	at := runAt.Add(time.Hour)
	events := []domain.ProcessedEvent{
		{RawEvent: rawEvent("b", "B", at)},
		{RawEvent: rawEvent("late", "Late", at.Add(time.Hour))},
		{RawEvent: rawEvent("a", "A", at)},
	}
	SortByStart(events)
	assert.Equal(t, []string{"b", "a", "late"}, []string{events[0].ID, events[1].ID, events[2].ID})
}
