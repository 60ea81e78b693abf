package model

import "strings"

// TranscriptEntry is a single timed caption line, sourced externally.
type TranscriptEntry struct {
	Text     string  `json:"text" validate:"required"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// TranscriptChunk is an ordered, possibly overlapping slice of the transcript
// processed as one unit through the per-chunk sub-graph. Index is 1-based.
type TranscriptChunk struct {
	Index   int               `json:"index"`
	Entries []TranscriptEntry `json:"entries"`
}

// Text joins the chunk's entry texts into the prompt text for the chunk.
func (c TranscriptChunk) Text() string {
	parts := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, " ")
}
