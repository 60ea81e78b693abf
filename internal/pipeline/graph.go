package pipeline

import (
	"context"
	"fmt"
)

// StageKind names one step of the per-chunk stage sequence.
type StageKind int

const (
	StageRawNote StageKind = iota
	StageTimestamps
	StageInsertionPlan
	StageExtractFrames
	StageIntegrateImages
	StageFormat
)

func (k StageKind) String() string {
	switch k {
	case StageRawNote:
		return "raw_note"
	case StageTimestamps:
		return "timestamps"
	case StageInsertionPlan:
		return "insertion_plan"
	case StageExtractFrames:
		return "extract_frames"
	case StageIntegrateImages:
		return "integrate_images"
	case StageFormat:
		return "format"
	}
	return fmt.Sprintf("stage(%d)", int(k))
}

// chunkStages returns the ordered stage sequence every chunk runs through.
// Without images the note goes straight from generation to formatting.
func chunkStages(withImages bool) []StageKind {
	if withImages {
		return []StageKind{
			StageRawNote,
			StageTimestamps,
			StageInsertionPlan,
			StageExtractFrames,
			StageIntegrateImages,
			StageFormat,
		}
	}
	return []StageKind{StageRawNote, StageFormat}
}

func (rc *runContext) runStage(ctx context.Context, kind StageKind, cs *chunkState) error {
	switch kind {
	case StageRawNote:
		return rc.stageRawNote(ctx, cs)
	case StageTimestamps:
		return rc.stageTimestamps(ctx, cs)
	case StageInsertionPlan:
		return rc.stageInsertionPlan(ctx, cs)
	case StageExtractFrames:
		return rc.stageExtractFrames(ctx, cs)
	case StageIntegrateImages:
		return rc.stageIntegrateImages(ctx, cs)
	case StageFormat:
		return rc.stageFormat(ctx, cs)
	}
	return fmt.Errorf("unknown stage %v", kind)
}
