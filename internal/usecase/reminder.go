package usecase

import (
	"context"
	"fmt"
	"time"

	"EventsDigest/internal/digest"
	"EventsDigest/internal/domain"
	"EventsDigest/internal/filter"
)

// RunToday posts a reminder of the events starting today to each city's chat.
func (p *Pipeline) RunToday(ctx context.Context, now time.Time) error {
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
		if err := p.remindCity(ctx, city, now); err != nil {
			return fmt.Errorf("city %s: %w", city.Name, err)
		}
	}
	return nil
}

func (p *Pipeline) remindCity(ctx context.Context, city domain.City, now time.Time) error {
	log := p.logger.With("city", city.Name, "job", "today")

	raw, err := p.source.FetchCity(ctx, city, now)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}

	selected := p.selectEvents(raw, func(t time.Time) bool {
		return filter.IsToday(t, now)
	})
	events := p.finish(ctx, selected)
	log.Info("reminder prepared", "fetched", len(raw), "today", len(events))

	return p.deliver(ctx, log, city.ChatID, digest.TodayMessages(events, now, p.maxLength))
}
