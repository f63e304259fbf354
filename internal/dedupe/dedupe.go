// Package dedupe collapses listings of the same event published more than once.
package dedupe

import (
	"regexp"
	"strings"

	"EventsDigest/internal/domain"
)

var (
	trailingPunct = regexp.MustCompile(`[.,:;!?]+$`)
	titleSplit    = regexp.MustCompile(`[|,]`)
)

// Dedupe keeps the first of every group of similar events, preserving order.
// It compares each candidate against every accepted event, so it is meant for
// per-city batches of tens of events.
func Dedupe(events []domain.ProcessedEvent) []domain.ProcessedEvent {
	accepted := make([]domain.ProcessedEvent, 0, len(events))
	titles := make([]string, 0, len(events))

	for _, candidate := range events {
		title := NormalizeTitle(candidate.Title)
		duplicate := false
		for i, existing := range accepted {
			if similar(candidate.Date, title, existing.Date, titles[i]) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		accepted = append(accepted, candidate)
		titles = append(titles, title)
	}

	return accepted
}

// similar reports whether two events share a time slot and overlapping normalized titles.
func similar(dateA, titleA, dateB, titleB string) bool {
	if dateA != dateB {
		return false
	}
	return strings.Contains(titleA, titleB) || strings.Contains(titleB, titleA)
}

// NormalizeTitle drops the venue suffix and cosmetic differences from a title.
func NormalizeTitle(title string) string {
	title = strings.ToLower(title)
	title = titleSplit.Split(title, 2)[0]
	title = strings.Join(strings.Fields(title), " ")
	return trailingPunct.ReplaceAllString(title, "")
}
