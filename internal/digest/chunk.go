// Package digest renders curated events into chat-sized messages.
package digest

import "unicode/utf16"

// TelegramLimit is the Bot API payload cap; MaxLength leaves room for markup the server counts differently.
const (
	TelegramLimit = 4096
	MaxLength     = 3500
)

// Length counts UTF-16 code units, the unit the Bot API limit is expressed in.
func Length(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Chunk packs pre-formatted blocks into messages of at most maxLength.
//
// The first message starts with header, later ones with continuation. A
// message is flushed only once it holds at least one block, so a block that
// alone exceeds maxLength is emitted in its own oversized message rather than
// truncated or split.
func Chunk(blocks []string, header, continuation string, maxLength int) []string {
	var (
		messages []string
		current  = header
		size     = Length(header)
		filled   bool
	)

	for _, block := range blocks {
		blockSize := Length(block)
		if filled && size+blockSize > maxLength {
			messages = append(messages, current)
			current, size, filled = continuation, Length(continuation), false
		}
		current += block
		size += blockSize
		filled = true
	}

	if current != "" {
		messages = append(messages, current)
	}
	return messages
}

// Oversized returns the indexes of messages longer than maxLength.
func Oversized(messages []string, maxLength int) []int {
	var out []int
	for i, m := range messages {
		if Length(m) > maxLength {
			out = append(out, i)
		}
	}
	return out
}
