package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// text accepts JSON strings, numbers and booleans. Null, objects and arrays
// leave it empty so a single malformed field never rejects the whole record.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*t = text(s)
	case '{', '[', 'n':
		// object, array or null
	default:
		*t = text(b)
	}
	return nil
}

func (t text) String() string {
	return strings.TrimSpace(string(t))
}

// count accepts integers, floats and numeric strings; anything else reads as zero.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	var v text
	_ = v.UnmarshalJSON(b)
	s := v.String()
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*c = count(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		*c = count(int(f))
	}
	return nil
}

// labels accepts an array of strings or of objects carrying a "name".
type labels []string

func (l *labels) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, raw := range items {
		var s text
		_ = s.UnmarshalJSON(raw)
		if s.String() == "" {
			var named struct {
				Name text `json:"name"`
			}
			if err := json.Unmarshal(raw, &named); err == nil {
				s = named.Name
			}
		}
		if v := s.String(); v != "" {
			out = append(out, v)
		}
	}
	*l = out
	return nil
}

// decodeObject fills v from a JSON object and reports whether it did. Other
// JSON values and malformed objects leave v untouched.
func decodeObject(b []byte, v any) bool {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return false
	}
	return json.Unmarshal(b, v) == nil
}

type venue struct {
	Address text `json:"address"`
	City    text `json:"city"`
}

func (v *venue) UnmarshalJSON(b []byte) error {
	type plain venue
	decodeObject(b, (*plain)(v))
	return nil
}

type geoAddress struct {
	Address     text `json:"address"`
	FullAddress text `json:"full_address"`
	City        text `json:"city"`
}

func (g *geoAddress) UnmarshalJSON(b []byte) error {
	type plain geoAddress
	decodeObject(b, (*plain)(g))
	return nil
}

type host struct {
	Name text `json:"name"`
}

func (h *host) UnmarshalJSON(b []byte) error {
	type plain host
	decodeObject(b, (*plain)(h))
	return nil
}

func first(values ...text) string {
	for _, v := range values {
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}
