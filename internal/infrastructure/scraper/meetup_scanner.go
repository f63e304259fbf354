package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"EventsDigest/internal/domain"
	"EventsDigest/internal/filter"
	"EventsDigest/internal/metrics"
	"EventsDigest/internal/normalize"
	"EventsDigest/internal/ports"
	"EventsDigest/internal/scanner"
)

// MeetupOptions configures the Meetup scraper actor.
type MeetupOptions struct {
	ActorID      string
	Timeout      time.Duration
	Input        map[string]any
	MinAttendees int
	PhysicalOnly bool
}

// MeetupScanner runs the Meetup actor and keeps in-person events above the attendee threshold.
type MeetupScanner struct {
	collector ports.EventCollector
	opts      MeetupOptions
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

var _ scanner.Scanner = (*MeetupScanner)(nil)

// NewMeetupScanner wires the collector with actor options.
func NewMeetupScanner(collector ports.EventCollector, opts MeetupOptions, log *slog.Logger, rec *metrics.Recorder) *MeetupScanner {
	return &MeetupScanner{collector: collector, opts: opts, logger: log, metrics: rec}
}

// Name identifies the strategy inside the registry.
func (m *MeetupScanner) Name() domain.Source {
	return domain.SourceMeetup
}

// Scan collects, normalizes and threshold-filters Meetup events for one city.
func (m *MeetupScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawEvent, error) {
	if m.collector == nil {
		return nil, fmt.Errorf("meetup scanner has no collector")
	}

	input := make(map[string]any, len(m.opts.Input)+2)
	maps.Copy(input, m.opts.Input)
	input["city"] = req.City.Name
	input["country"] = req.City.Country

	items, err := m.collector.Collect(ctx, ports.CollectRequest{
		ActorID: m.opts.ActorID,
		Input:   input,
		Timeout: m.opts.Timeout,
	})
	if err != nil {
		return nil, err
	}
	m.metrics.Collected(string(domain.SourceMeetup), len(items))

	opts := normalize.Options{
		City:     req.City.Name,
		Country:  req.City.Country,
		Location: req.Location,
		Now:      req.Now,
	}

	events := make([]domain.RawEvent, 0, len(items))
	var notPhysical, fewAttendees int
	for _, raw := range items {
		item := normalize.DecodeMeetup(raw)
		if m.opts.PhysicalOnly && !item.Physical() {
			notPhysical++
			continue
		}
		event := normalize.Meetup(item, opts)
		if !filter.AboveAttendees(event, m.opts.MinAttendees) {
			fewAttendees++
			continue
		}
		events = append(events, event)
	}

	m.metrics.Dropped(metrics.StageNotPhysical, notPhysical)
	m.metrics.Dropped(metrics.StageAttendees, fewAttendees)
	m.debug("meetup scan done", "city", req.City.Name, "raw", len(items),
		"not_physical", notPhysical, "few_attendees", fewAttendees, "kept", len(events))

	return events, nil
}

func (m *MeetupScanner) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
