package pipeline

import (
	"errors"
	"log"

	"github.com/vidscribe/api/internal/model"
)

// ErrChunkPolicy is returned when neither a token budget nor a chunk count
// is supplied.
var ErrChunkPolicy = errors.New("either max tokens or num chunks must be provided")

// Policy controls how a transcript is split. MaxTokens and NumChunks are
// mutually exclusive; MaxTokens takes precedence when both are set.
type Policy struct {
	MaxTokens    int
	NumChunks    int
	OverlapItems int
}

// EstimateTokens approximates the token count of a text at roughly four
// characters per token, close enough to cl100k for budget-based chunking.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// Chunk splits a transcript into ordered, possibly overlapping chunks
// according to the policy. Chunk indexes are 1-based.
func Chunk(transcript []model.TranscriptEntry, policy Policy) ([]model.TranscriptChunk, error) {
	if policy.MaxTokens <= 0 && policy.NumChunks == 0 {
		return nil, ErrChunkPolicy
	}

	if policy.MaxTokens > 0 && policy.NumChunks > 0 {
		log.Printf("Warning: both max tokens and num chunks provided; max tokens takes precedence")
	}

	if policy.MaxTokens > 0 {
		return chunkByMaxTokens(transcript, policy.MaxTokens, policy.OverlapItems), nil
	}
	return chunkByNumChunks(transcript, policy.NumChunks, policy.OverlapItems), nil
}

// chunkByMaxTokens greedily accumulates entries until the next entry would
// exceed the budget, then closes the chunk and carries the trailing
// OverlapItems entries into the next one.
func chunkByMaxTokens(transcript []model.TranscriptEntry, maxTokens, overlapItems int) []model.TranscriptChunk {
	var chunks []model.TranscriptChunk
	var current []model.TranscriptEntry
	currentTokens := 0

	for _, entry := range transcript {
		tokens := EstimateTokens(entry.Text)

		if currentTokens+tokens > maxTokens && len(current) > 0 {
			chunks = append(chunks, model.TranscriptChunk{Index: len(chunks) + 1, Entries: current})

			// Start the next chunk with the overlap carried over and
			// recompute its running token count.
			var carried []model.TranscriptEntry
			if overlapItems > 0 && overlapItems < len(current) {
				carried = append(carried, current[len(current)-overlapItems:]...)
			} else if overlapItems > 0 {
				carried = append(carried, current...)
			}
			current = carried
			currentTokens = 0
			for _, e := range current {
				currentTokens += EstimateTokens(e.Text)
			}
		}

		current = append(current, entry)
		currentTokens += tokens
	}

	if len(current) > 0 {
		chunks = append(chunks, model.TranscriptChunk{Index: len(chunks) + 1, Entries: current})
	}
	return chunks
}

// chunkByNumChunks splits into numChunks segments of floor(total/numChunks)
// entries, the final chunk taking the remainder, each boundary overlapping
// backward by overlapItems entries.
func chunkByNumChunks(transcript []model.TranscriptEntry, numChunks, overlapItems int) []model.TranscriptChunk {
	total := len(transcript)
	if numChunks <= 0 || total == 0 {
		return nil
	}

	if numChunks == 1 {
		return []model.TranscriptChunk{{Index: 1, Entries: transcript}}
	}

	if numChunks > total {
		log.Printf("Warning: requested %d chunks exceeds %d entries; reducing to %d", numChunks, total, total)
		numChunks = total
	}

	baseSize := total / numChunks
	var chunks []model.TranscriptChunk
	start := 0

	for i := 0; i < numChunks; i++ {
		end := start + baseSize
		if i == numChunks-1 {
			end = total
		}

		chunks = append(chunks, model.TranscriptChunk{Index: i + 1, Entries: transcript[start:end]})

		start = end - overlapItems
		if start < 0 {
			start = 0
		}
		if start >= total {
			break
		}
	}
	return chunks
}
