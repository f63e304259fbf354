package domain

import (
	"strings"
	"time"
)

// Source tags the platform an event was scraped from.
type Source string

const (
	SourceMeetup Source = "meetup"
	SourceLuma   Source = "luma"
)

// Valid reports whether s belongs to the closed set of known origins.
func (s Source) Valid() bool {
	switch s {
	case SourceMeetup, SourceLuma:
		return true
	default:
		return false
	}
}

// RawEvent is the canonical shape of one scraped event before classification.
type RawEvent struct {
	ID          string
	Title       string
	Description string
	// Date keeps the source's ISO-8601 string verbatim; dedup compares it as-is.
	Date      string
	// StartsAt is zero when the record carried no usable date.
	StartsAt  time.Time
	Location  string
	City      string
	Country   string
	URL       string
	Source    Source
	Tags      []string
	Attendees int
	Organizer string
}

// Dated reports whether the source supplied a parseable start time.
func (e RawEvent) Dated() bool {
	return !e.StartsAt.IsZero()
}

// ProcessedEvent is a RawEvent annotated for the digest.
type ProcessedEvent struct {
	RawEvent
	Category      Category
	FormattedDate string
	InWindow      bool
}

// Category is one of the fixed topical labels assigned by the categorizer.
type Category string

const (
	CategoryAI          Category = "AI"
	CategoryProduct     Category = "Product"
	CategoryEngineering Category = "Engineering"
	CategoryBusiness    Category = "Business"
	CategoryUX          Category = "UX"
	CategoryLifestyle   Category = "Lifestyle"
	CategoryOther       Category = "Other"
)

var categories = []Category{
	CategoryAI,
	CategoryProduct,
	CategoryEngineering,
	CategoryBusiness,
	CategoryUX,
	CategoryLifestyle,
	CategoryOther,
}

var glyphs = map[Category]string{
	CategoryAI:          "🤖",
	CategoryProduct:     "📦",
	CategoryEngineering: "⚡",
	CategoryBusiness:    "💼",
	CategoryUX:          "🎨",
	CategoryLifestyle:   "🏃",
	CategoryOther:       "📌",
}

// ParseCategory resolves a label case-insensitively and returns it with canonical casing.
func ParseCategory(value string) (Category, bool) {
	value = strings.TrimSpace(value)
	for _, c := range categories {
		if strings.EqualFold(value, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	_, ok := glyphs[c]
	return ok
}

// Glyph returns the emoji used for c in chat messages.
func (c Category) Glyph() string {
	if g, ok := glyphs[c]; ok {
		return g
	}
	return glyphs[CategoryOther]
}
