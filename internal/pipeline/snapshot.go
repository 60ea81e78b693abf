package pipeline

import (
	"encoding/json"

	"github.com/vidscribe/api/internal/model"
)

const maxSnapshotDepth = 3

// MergeSnapshot folds an arbitrary decoded-JSON value into a state. Event
// payloads arrive in several shapes, a flat snapshot, a map of node name to
// partial state, or lists of either, so recognized keys are harvested from
// any nesting level up to maxSnapshotDepth. Later values win.
func MergeSnapshot(obj any, s *model.PipelineState) {
	mergeSnapshot(obj, s, 0)
}

func mergeSnapshot(obj any, s *model.PipelineState, depth int) {
	if depth > maxSnapshotDepth {
		return
	}
	switch v := obj.(type) {
	case map[string]any:
		for key, value := range v {
			if applyStateKey(key, value, s) {
				continue
			}
			mergeSnapshot(value, s, depth+1)
		}
	case []any:
		for _, item := range v {
			mergeSnapshot(item, s, depth+1)
		}
	}
}

// applyStateKey assigns value to the state field the key names. Values with
// the wrong shape are ignored rather than failing the merge.
func applyStateKey(key string, value any, s *model.PipelineState) bool {
	var dst any
	switch key {
	case "chunks":
		dst = &s.Chunks
	case "chunk_notes":
		dst = &s.ChunkNotes
	case "timestamps_output":
		dst = &s.Timestamps
	case "image_insertions_output":
		dst = &s.ImageInsertions
	case "extracted_images_output":
		dst = &s.ExtractedImages
	case "image_integrated_notes":
		dst = &s.IntegratedNotes
	case "formatted_notes":
		dst = &s.FormattedNotes
	case "collected_notes":
		dst = &s.CollectedNote
	case "summary":
		dst = &s.Summary
	default:
		return false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return true
	}
	_ = json.Unmarshal(raw, dst)
	return true
}
