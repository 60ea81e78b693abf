package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/vidscribe/api/internal/model"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var obj any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		t.Fatalf("bad test payload: %v", err)
	}
	return obj
}

func TestMergeSnapshot_FlatState(t *testing.T) {
	var s model.PipelineState
	MergeSnapshot(decode(t, `{
		"chunks": ["one", "two"],
		"chunk_notes": ["note one", "note two"],
		"summary": "tl;dr"
	}`), &s)

	if len(s.Chunks) != 2 || s.Chunks[1] != "two" {
		t.Errorf("chunks not merged: %v", s.Chunks)
	}
	if len(s.ChunkNotes) != 2 {
		t.Errorf("chunk notes not merged: %v", s.ChunkNotes)
	}
	if s.Summary != "tl;dr" {
		t.Errorf("summary not merged: %q", s.Summary)
	}
}

func TestMergeSnapshot_NestedNodeOutput(t *testing.T) {
	var s model.PipelineState
	MergeSnapshot(decode(t, `{
		"collect": {"collected_notes": "merged document"},
		"summarize": {"summary": "overview"}
	}`), &s)

	if s.CollectedNote != "merged document" {
		t.Errorf("collected note not merged: %q", s.CollectedNote)
	}
	if s.Summary != "overview" {
		t.Errorf("summary not merged: %q", s.Summary)
	}
}

func TestMergeSnapshot_ListOfPartials(t *testing.T) {
	var s model.PipelineState
	MergeSnapshot(decode(t, `[
		{"chunk_notes": ["a"]},
		{"formatted_notes": ["b"]}
	]`), &s)

	if len(s.ChunkNotes) != 1 || s.ChunkNotes[0] != "a" {
		t.Errorf("chunk notes not merged: %v", s.ChunkNotes)
	}
	if len(s.FormattedNotes) != 1 || s.FormattedNotes[0] != "b" {
		t.Errorf("formatted notes not merged: %v", s.FormattedNotes)
	}
}

func TestMergeSnapshot_StructuredCollections(t *testing.T) {
	var s model.PipelineState
	MergeSnapshot(decode(t, `{
		"timestamps_output": [[{"timestamp": "00:00:05", "reason": "code on screen"}]],
		"image_insertions_output": [[{"timestamp": "00:00:05", "line_number": 3, "caption": "snippet"}]]
	}`), &s)

	if len(s.Timestamps) != 1 || s.Timestamps[0][0].Time != "00:00:05" {
		t.Errorf("timestamps not merged: %v", s.Timestamps)
	}
	if len(s.ImageInsertions) != 1 || s.ImageInsertions[0][0].TargetLine != 3 {
		t.Errorf("insertions not merged: %v", s.ImageInsertions)
	}
}

func TestMergeSnapshot_LaterValuesWin(t *testing.T) {
	var s model.PipelineState
	MergeSnapshot(decode(t, `{"summary": "first"}`), &s)
	MergeSnapshot(decode(t, `{"summary": "second"}`), &s)
	if s.Summary != "second" {
		t.Errorf("expected later value to win, got %q", s.Summary)
	}
}

func TestMergeSnapshot_DepthLimit(t *testing.T) {
	var s model.PipelineState
	MergeSnapshot(decode(t, `{"a": {"b": {"c": {"summary": "within reach"}}}}`), &s)
	if s.Summary != "within reach" {
		t.Errorf("expected key three levels deep to merge, got %q", s.Summary)
	}

	var deep model.PipelineState
	MergeSnapshot(decode(t, `{"a": {"b": {"c": {"d": {"summary": "too deep"}}}}}`), &deep)
	if deep.Summary != "" {
		t.Errorf("expected key past the depth limit to be ignored, got %q", deep.Summary)
	}
}

func TestMergeSnapshot_WrongShapeIgnored(t *testing.T) {
	s := model.PipelineState{Summary: "kept"}
	MergeSnapshot(decode(t, `{"summary": 42, "chunks": "not a list"}`), &s)
	if s.Summary != "kept" {
		t.Errorf("wrong-shaped value overwrote the field: %q", s.Summary)
	}
	if s.Chunks != nil {
		t.Errorf("wrong-shaped chunks merged: %v", s.Chunks)
	}
}

func TestMergeSnapshot_NonContainerIgnored(t *testing.T) {
	var s model.PipelineState
	MergeSnapshot("just a string", &s)
	MergeSnapshot(nil, &s)
	if s.Summary != "" || s.Chunks != nil {
		t.Error("scalar payloads must leave the state untouched")
	}
}
