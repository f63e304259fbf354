package ports

import (
	"context"
	"encoding/json"
	"time"

	"EventsDigest/internal/domain"
)

// CollectRequest describes one scraper run.
type CollectRequest struct {
	ActorID string
	Input   map[string]any
	Timeout time.Duration
}

// EventCollector runs a scraper and returns its raw dataset items.
type EventCollector interface {
	Collect(ctx context.Context, req CollectRequest) ([]json.RawMessage, error)
}

// EventSource produces normalized events for one city from upstream platforms.
type EventSource interface {
	FetchCity(ctx context.Context, city domain.City, now time.Time) ([]domain.RawEvent, error)
}

// Classifier returns a short label for a bounded-length prompt.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// Notifier delivers a Markdown message to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}

// Publisher posts a plain-text digest to a social feed.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
