package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"EventsDigest/internal/dedupe"
	"EventsDigest/internal/digest"
	"EventsDigest/internal/domain"
	"EventsDigest/internal/filter"
	"EventsDigest/internal/metrics"
	"EventsDigest/internal/ports"
)

// Channels reported to metrics.
const (
	ChannelTelegram = "telegram"
	ChannelLinkedIn = "linkedin"
)

// EventCategorizer assigns a category to every event, preserving order and length.
type EventCategorizer interface {
	CategorizeBatch(ctx context.Context, events []domain.ProcessedEvent) []domain.ProcessedEvent
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source        ports.EventSource
	Policy        filter.Policy
	Categorizer   EventCategorizer
	Notifier      ports.Notifier
	Publisher     ports.Publisher
	Metrics       *metrics.Recorder
	Logger        *slog.Logger
	Location      *time.Location
	Cities        []domain.City
	DaysAhead     int
	MaxLength     int
	BetweenCities time.Duration
}

// Pipeline implements the weekly digest workflow.
type Pipeline struct {
	source        ports.EventSource
	policy        filter.Policy
	categorizer   EventCategorizer
	notifier      ports.Notifier
	publisher     ports.Publisher
	metrics       *metrics.Recorder
	logger        *slog.Logger
	loc           *time.Location
	cities        []domain.City
	daysAhead     int
	maxLength     int
	betweenCities time.Duration
	sleep         func(context.Context, time.Duration) error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxLength := deps.MaxLength
	if maxLength <= 0 {
		maxLength = digest.MaxLength
	}
	return &Pipeline{
		source:        deps.Source,
		policy:        deps.Policy,
		categorizer:   deps.Categorizer,
		notifier:      deps.Notifier,
		publisher:     deps.Publisher,
		metrics:       deps.Metrics,
		logger:        logger,
		loc:           deps.Location,
		cities:        deps.Cities,
		daysAhead:     deps.DaysAhead,
		maxLength:     maxLength,
		betweenCities: deps.BetweenCities,
		sleep:         sleepCtx,
	}
}

// RunDigest posts one digest per city, in order. A failed delivery aborts the run.
func (p *Pipeline) RunDigest(ctx context.Context, now time.Time) error {
	if p.source == nil || p.notifier == nil {
		return fmt.Errorf("pipeline misconfigured")
	}
	if p.loc != nil {
		now = now.In(p.loc)
	}

	for i, city := range p.cities {
		if i > 0 {
			if err := p.sleep(ctx, p.betweenCities); err != nil {
				return err
			}
		}
		if err := p.processCity(ctx, city, now); err != nil {
			return fmt.Errorf("city %s: %w", city.Name, err)
		}
	}
	return nil
}

func (p *Pipeline) processCity(ctx context.Context, city domain.City, now time.Time) error {
	log := p.logger.With("city", city.Name)

	raw, err := p.source.FetchCity(ctx, city, now)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}

	selected := p.selectEvents(raw, func(t time.Time) bool {
		return filter.InWindow(t, now, p.daysAhead)
	})
	events := p.finish(ctx, selected)
	log.Info("digest prepared", "fetched", len(raw), "selected", len(selected), "unique", len(events))

	messages := digest.Messages(city, events, now, p.daysAhead, p.maxLength)
	if err := p.deliver(ctx, log, city.ChatID, messages); err != nil {
		return err
	}

	if p.publisher != nil && len(events) > 0 {
		if err := p.publisher.Publish(ctx, digest.SocialPost(city, events, now, p.daysAhead)); err != nil {
			log.Error("social post failed", "error", err)
		} else {
			p.metrics.MessageSent(ChannelLinkedIn)
		}
	}
	return nil
}

// selectEvents applies the relevance policy and the date predicate, then annotates the survivors.
// Events without a start time never match a date predicate.
func (p *Pipeline) selectEvents(raw []domain.RawEvent, keep func(time.Time) bool) []domain.ProcessedEvent {
	var irrelevant, undated, outside int
	out := make([]domain.ProcessedEvent, 0, len(raw))
	for _, e := range raw {
		if p.policy != nil && !p.policy.IsRelevant(e) {
			irrelevant++
			continue
		}
		if !e.Dated() {
			undated++
			continue
		}
		if !keep(e.StartsAt) {
			outside++
			continue
		}
		start := e.StartsAt
		if p.loc != nil {
			start = start.In(p.loc)
		}
		out = append(out, domain.ProcessedEvent{
			RawEvent:      e,
			Category:      domain.CategoryOther,
			FormattedDate: digest.FormatDate(start),
			InWindow:      true,
		})
	}
	p.metrics.Dropped(metrics.StageRelevance, irrelevant)
	p.metrics.Dropped(metrics.StageUndated, undated)
	p.metrics.Dropped(metrics.StageWindow, outside)
	return out
}

// finish categorizes, collapses near-duplicates and orders by start time.
func (p *Pipeline) finish(ctx context.Context, events []domain.ProcessedEvent) []domain.ProcessedEvent {
	if len(events) == 0 {
		return events
	}
	if p.categorizer != nil {
		events = p.categorizer.CategorizeBatch(ctx, events)
	}
	unique := dedupe.Dedupe(events)
	p.metrics.Dropped(metrics.StageDuplicate, len(events)-len(unique))
	SortByStart(unique)
	return unique
}

func (p *Pipeline) deliver(ctx context.Context, log *slog.Logger, chatID string, messages []string) error {
	for _, idx := range digest.Oversized(messages, p.maxLength) {
		log.Warn("message exceeds length budget", "index", idx, "length", digest.Length(messages[idx]), "max", p.maxLength)
	}
	for i, msg := range messages {
		if err := p.notifier.Send(ctx, chatID, msg); err != nil {
			return fmt.Errorf("send message %d/%d: %w", i+1, len(messages), err)
		}
		p.metrics.MessageSent(ChannelTelegram)
	}
	log.Info("digest delivered", "messages", len(messages))
	return nil
}

// SortByStart orders events by start time; ties keep their input order.
func SortByStart(events []domain.ProcessedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
