package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"EventsDigest/internal/domain"
	"EventsDigest/internal/filter"
	"EventsDigest/internal/metrics"
	"EventsDigest/internal/normalize"
	"EventsDigest/internal/ports"
	"EventsDigest/internal/scanner"
)

const apiDateLayout = "2006-01-02"

// LumaOptions configures the Luma scraper actor. A negative MinAttendees disables the threshold.
type LumaOptions struct {
	ActorID      string
	Timeout      time.Duration
	MaxResults   int
	Query        string
	MinAttendees int
}

// LumaScanner runs the Luma actor for the digest window.
type LumaScanner struct {
	collector ports.EventCollector
	opts      LumaOptions
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

var _ scanner.Scanner = (*LumaScanner)(nil)

// NewLumaScanner wires the collector with actor options.
func NewLumaScanner(collector ports.EventCollector, opts LumaOptions, log *slog.Logger, rec *metrics.Recorder) *LumaScanner {
	return &LumaScanner{collector: collector, opts: opts, logger: log, metrics: rec}
}

// Name identifies the strategy inside the registry.
func (l *LumaScanner) Name() domain.Source {
	return domain.SourceLuma
}

// Scan collects and normalizes Luma events between now and the window end.
func (l *LumaScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawEvent, error) {
	if l.collector == nil {
		return nil, fmt.Errorf("luma scanner has no collector")
	}

	input := map[string]any{
		"location":   req.City.DisplayName(),
		"maxResults": l.opts.MaxResults,
		"startDate":  req.Now.Format(apiDateLayout),
		"endDate":    req.WindowEnd().Format(apiDateLayout),
	}
	if l.opts.Query != "" {
		input["query"] = l.opts.Query
	}

	items, err := l.collector.Collect(ctx, ports.CollectRequest{
		ActorID: l.opts.ActorID,
		Input:   input,
		Timeout: l.opts.Timeout,
	})
	if err != nil {
		return nil, err
	}
	l.metrics.Collected(string(domain.SourceLuma), len(items))

	opts := normalize.Options{
		City:     req.City.Name,
		Country:  req.City.Country,
		Location: req.Location,
		Now:      req.Now,
	}

	events := make([]domain.RawEvent, 0, len(items))
	fewAttendees := 0
	for _, raw := range items {
		event := normalize.Luma(normalize.DecodeLuma(raw), opts)
		if l.opts.MinAttendees >= 0 && !filter.AboveAttendees(event, l.opts.MinAttendees) {
			fewAttendees++
			continue
		}
		events = append(events, event)
	}

	l.metrics.Dropped(metrics.StageAttendees, fewAttendees)
	if l.logger != nil {
		l.logger.Debug("luma scan done", "city", req.City.Name, "raw", len(items), "kept", len(events))
	}

	return events, nil
}
