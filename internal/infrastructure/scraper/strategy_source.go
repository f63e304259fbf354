package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"EventsDigest/internal/domain"
	"EventsDigest/internal/metrics"
	"EventsDigest/internal/ports"
	"EventsDigest/internal/scanner"
)

// StrategySource implements EventSource via registered scanner strategies.
type StrategySource struct {
	registry  *scanner.Registry
	sources   []domain.Source
	daysAhead int
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

var _ ports.EventSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the sources to query for every city.
func NewStrategySource(reg *scanner.Registry, sources []domain.Source, daysAhead int, log *slog.Logger, rec *metrics.Recorder) *StrategySource {
	return &StrategySource{
		registry:  reg,
		sources:   sources,
		daysAhead: daysAhead,
		logger:    log,
		metrics:   rec,
	}
}

// FetchCity runs every configured scanner in turn. A failing scanner is logged
// and contributes no events; only a misconfigured source is returned as an error.
func (s *StrategySource) FetchCity(ctx context.Context, city domain.City, now time.Time) ([]domain.RawEvent, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	req := scanner.Request{
		City:      city,
		Now:       now,
		DaysAhead: s.daysAhead,
		Location:  now.Location(),
	}

	var aggregated []domain.RawEvent
	for _, name := range s.sources {
		strategy, err := s.registry.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("city %s: %w", city.Name, err)
		}

		s.debug("scan source", "city", city.Name, "source", name)
		results, err := strategy.Scan(ctx, req)
		if err != nil {
			s.metrics.CollectorFailed(string(name))
			if s.logger != nil {
				s.logger.Error("collector failed, treating as empty", "city", city.Name, "source", name, "error", err)
			}
			continue
		}

		s.debug("source produced events", "city", city.Name, "source", name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("strategy source done", "city", city.Name, "total_events", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
