// Package filter decides which normalized events belong in a digest.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"EventsDigest/internal/domain"
)

// Relevance policy names accepted in configuration.
const (
	PolicyStrong         = "strong"
	PolicyIncludeExclude = "include_exclude"
)

// Policy decides whether an event is on-topic.
type Policy interface {
	IsRelevant(event domain.RawEvent) bool
}

// DefaultStrongKeywords avoids generic words like "data" that match half of all meetups.
var DefaultStrongKeywords = []string{
	"artificial intelligence", "machine learning", "deep learning",
	"neural networks", "llm", "llms", "gpt", "chatgpt", "openai",
	"generative ai", "computer vision", "natural language processing",
	"prompt engineering", "ai tools", "ai art", "ai drawing",
	"midjourney", "stable diffusion", "ai startup", "ai product",
	"ai development", "tensorflow", "pytorch", "hugging face",
	"transformers", "bert", "gpt-3", "gpt-4", "claude", "anthropic",
	"ai ethics", "agi", "artificial general intelligence", "ai native",
	"ai-powered", "ai-driven", "ai workshop", "ai meetup", "ai conference",
}

var standaloneAI = regexp.MustCompile(`\b(ai|ml)\b`)

// SearchText is the lowercase haystack every policy matches against.
func SearchText(event domain.RawEvent) string {
	return strings.ToLower(event.Title + " " + event.Description + " " + event.Organizer)
}

// StrongKeywordPolicy matches curated phrases or the whole words "ai"/"ml".
type StrongKeywordPolicy struct {
	keywords []string
}

// NewStrongKeywordPolicy lowercases keywords; an empty list uses DefaultStrongKeywords.
func NewStrongKeywordPolicy(keywords []string) *StrongKeywordPolicy {
	if len(keywords) == 0 {
		keywords = DefaultStrongKeywords
	}
	return &StrongKeywordPolicy{keywords: lowered(keywords)}
}

// IsRelevant implements Policy.
func (p *StrongKeywordPolicy) IsRelevant(event domain.RawEvent) bool {
	text := SearchText(event)
	return containsAny(text, p.keywords) || standaloneAI.MatchString(text)
}

// IncludeExcludePolicy requires an include hit and no exclude hit.
type IncludeExcludePolicy struct {
	include []string
	exclude []string
}

// NewIncludeExcludePolicy builds the policy; include must not be empty.
func NewIncludeExcludePolicy(include, exclude []string) (*IncludeExcludePolicy, error) {
	include = lowered(include)
	if len(include) == 0 {
		return nil, fmt.Errorf("include_exclude policy needs at least one include keyword")
	}
	return &IncludeExcludePolicy{include: include, exclude: lowered(exclude)}, nil
}

// IsRelevant implements Policy. A single exclude hit wins over any include hit.
func (p *IncludeExcludePolicy) IsRelevant(event domain.RawEvent) bool {
	text := SearchText(event)
	if containsAny(text, p.exclude) {
		return false
	}
	return containsAny(text, p.include)
}

// NewPolicy resolves a configured policy by name.
func NewPolicy(name string, strong, include, exclude []string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyStrong:
		return NewStrongKeywordPolicy(strong), nil
	case PolicyIncludeExclude:
		return NewIncludeExcludePolicy(include, exclude)
	default:
		return nil, fmt.Errorf("unknown relevance policy %q", name)
	}
}

// AboveAttendees applies the attendee threshold that runs before relevance.
func AboveAttendees(event domain.RawEvent, minAttendees int) bool {
	return event.Attendees > minAttendees
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func lowered(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
