package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"EventsDigest/internal/domain"
)

// Request carries all parameters required to scan one city.
type Request struct {
	City      domain.City
	Now       time.Time
	DaysAhead int
	Location  *time.Location
}

// WindowEnd is the last day the scan should cover.
func (r Request) WindowEnd() time.Time {
	return r.Now.AddDate(0, 0, r.DaysAhead)
}

// Scanner captures a single platform implementation (Meetup, Luma).
type Scanner interface {
	Name() domain.Source
	Scan(ctx context.Context, req Request) ([]domain.RawEvent, error)
}

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	scanners map[domain.Source]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[domain.Source]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[domain.Source]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name domain.Source) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Names lists registered sources in a stable order.
func (r *Registry) Names() []domain.Source {
	names := make([]domain.Source, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
