// Package categorize assigns every event one digest category through an external classifier.
package categorize

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"EventsDigest/internal/domain"
	"EventsDigest/internal/metrics"
	"EventsDigest/internal/ports"
)

const (
	defaultBatchSize            = 5
	defaultMaxDescriptionLength = 500
	ellipsis                    = "..."
)

var leadingWord = regexp.MustCompile(`^[^A-Za-z]*([A-Za-z]+)`)

// Config tunes batching and prompt size.
type Config struct {
	BatchSize            int
	BatchDelay           time.Duration
	MaxDescriptionLength int
}

// Categorizer classifies events in sequential batches with concurrent calls inside a batch.
type Categorizer struct {
	classifier ports.Classifier
	cfg        Config
	logger     *slog.Logger
	metrics    *metrics.Recorder
	sleep      func(ctx context.Context, d time.Duration)
}

// New builds a categorizer around an explicitly provided classifier.
func New(classifier ports.Classifier, cfg Config, logger *slog.Logger, rec *metrics.Recorder) *Categorizer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxDescriptionLength <= 0 {
		cfg.MaxDescriptionLength = defaultMaxDescriptionLength
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Categorizer{
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
		metrics:    rec,
		sleep:      pause,
	}
}

// CategorizeBatch returns a copy of events, same length and order, each with a valid category.
func (c *Categorizer) CategorizeBatch(ctx context.Context, events []domain.ProcessedEvent) []domain.ProcessedEvent {
	out := make([]domain.ProcessedEvent, len(events))
	copy(out, events)

	size := c.cfg.BatchSize
	for start := 0; start < len(out); start += size {
		if start > 0 && c.cfg.BatchDelay > 0 {
			c.sleep(ctx, c.cfg.BatchDelay)
		}

		end := min(start+size, len(out))
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				out[i].Category = c.Categorize(ctx, out[i])
				return nil
			})
		}
		_ = g.Wait()

		c.logger.Debug("batch categorized", "from", start, "to", end, "total", len(out))
	}

	return out
}

// Categorize classifies one event. It never fails: any problem yields Other.
func (c *Categorizer) Categorize(ctx context.Context, event domain.ProcessedEvent) domain.Category {
	if c.classifier == nil {
		c.metrics.Classified(metrics.ResultError)
		c.logger.Warn("no classifier configured, defaulting category", "title", event.Title)
		return domain.CategoryOther
	}

	response, err := c.classifier.Classify(ctx, BuildPrompt(event.RawEvent, c.cfg.MaxDescriptionLength))
	if err != nil {
		c.metrics.Classified(metrics.ResultError)
		c.logger.Error("classify event", "title", event.Title, "error", err)
		return domain.CategoryOther
	}

	category, ok := ParseLabel(response)
	if !ok {
		c.metrics.Classified(metrics.ResultInvalid)
		c.logger.Warn("invalid category returned by classifier, defaulting to Other",
			"title", event.Title, "response", response)
		return domain.CategoryOther
	}

	c.metrics.Classified(metrics.ResultOK)
	c.logger.Debug("event categorized", "title", event.Title, "response", response, "category", category)
	return category
}

// BuildPrompt joins title, organizer and a truncated description.
func BuildPrompt(event domain.RawEvent, maxDescription int) string {
	parts := make([]string, 0, 3)

	if event.Title != "" {
		parts = append(parts, "Event Title: "+event.Title)
	}
	if event.Organizer != "" {
		parts = append(parts, "Organizing Group: "+event.Organizer)
	}
	if desc := strings.TrimSpace(event.Description); desc != "" {
		parts = append(parts, "Event Description: "+Truncate(desc, maxDescription))
	}

	return strings.Join(parts, "\n\n")
}

// Truncate cuts value to limit runes and appends an ellipsis when it had to cut.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + ellipsis
}

// ParseLabel extracts the leading word of a classifier response as a category.
// "ai: core topics" reads as AI; "Networking" or an empty response does not parse.
func ParseLabel(response string) (domain.Category, bool) {
	m := leadingWord.FindStringSubmatch(strings.TrimSpace(response))
	if m == nil {
		return "", false
	}
	return domain.ParseCategory(m[1])
}

func pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
