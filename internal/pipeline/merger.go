package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vidscribe/api/internal/model"
)

// MergeInsertions places markdown image references into a note at the
// 1-indexed lines the insertions target. Insertions are applied from the
// highest line downward so earlier inserts never shift later targets, which
// makes the result independent of the input order. Targets outside the note
// are appended at the end.
func MergeInsertions(note string, insertions []model.ResolvedInsertion) string {
	if len(insertions) == 0 {
		return note
	}

	ordered := make([]model.ResolvedInsertion, len(insertions))
	copy(ordered, insertions)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].TargetLine != ordered[j].TargetLine {
			return ordered[i].TargetLine > ordered[j].TargetLine
		}
		if ordered[i].Time != ordered[j].Time {
			return ordered[i].Time > ordered[j].Time
		}
		return ordered[i].Caption > ordered[j].Caption
	})

	lines := strings.Split(note, "\n")
	for _, ins := range ordered {
		image := fmt.Sprintf("![%s](%s)", ins.Caption, ins.FramePath)
		if ins.TargetLine >= 1 && ins.TargetLine <= len(lines) {
			idx := ins.TargetLine - 1
			lines = append(lines[:idx], append([]string{image}, lines[idx:]...)...)
		} else {
			lines = append(lines, image)
		}
	}
	return strings.Join(lines, "\n")
}

// resolveInsertions joins planned insertions with extracted frames on exact
// timestamp equality. Insertions without a matching frame are dropped.
func resolveInsertions(insertions []model.ImageInsertion, frames []model.FrameExtraction) []model.ResolvedInsertion {
	byTime := make(map[string]string, len(frames))
	for _, f := range frames {
		byTime[f.Time] = f.FramePath
	}

	var resolved []model.ResolvedInsertion
	for _, ins := range insertions {
		framePath, ok := byTime[ins.Time]
		if !ok {
			continue
		}
		resolved = append(resolved, model.ResolvedInsertion{
			Time:       ins.Time,
			TargetLine: ins.TargetLine,
			Caption:    ins.Caption,
			FramePath:  framePath,
		})
	}
	return resolved
}
