package model

import "testing"

func TestArtifactKeyObjectKey(t *testing.T) {
	id := RunIdentity{ContentID: "video-1"}
	versioned := RunIdentity{ContentID: "video-1", RunID: "run-9"}

	tests := []struct {
		name string
		key  ArtifactKey
		want string
	}{
		{
			name: "chunk artifact",
			key:  ArtifactKey{Identity: id, Kind: KindRawNote, ChunkIndex: 3},
			want: "notes/video-1/partial/raw_note_chunk_3.md",
		},
		{
			name: "json artifact",
			key:  ArtifactKey{Identity: id, Kind: KindTimestamps, ChunkIndex: 1},
			want: "notes/video-1/partial/timestamps_chunk_1.json",
		},
		{
			name: "collected note",
			key:  ArtifactKey{Identity: id, Kind: KindCollectedNote},
			want: "notes/video-1/final_notes.md",
		},
		{
			name: "summary",
			key:  ArtifactKey{Identity: id, Kind: KindSummary},
			want: "notes/video-1/summary.md",
		},
		{
			name: "pdf export",
			key:  ArtifactKey{Identity: id, Kind: KindExportPDF},
			want: "notes/video-1/final_notes.pdf",
		},
		{
			name: "versioned run",
			key:  ArtifactKey{Identity: versioned, Kind: KindFormattedNote, ChunkIndex: 2},
			want: "notes/video-1/run-9/partial/formatted_note_chunk_2.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.ObjectKey(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestArtifactKindContentType(t *testing.T) {
	tests := []struct {
		kind ArtifactKind
		want string
	}{
		{KindRawNote, "text/markdown"},
		{KindTimestamps, "application/json"},
		{KindExtractedImages, "application/json"},
		{KindExportPDF, "application/pdf"},
		{KindSummary, "text/markdown"},
	}
	for _, tt := range tests {
		if got := tt.kind.ContentType(); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.kind, tt.want, got)
		}
	}
}

func TestPipelineStateClone(t *testing.T) {
	s := &PipelineState{
		Chunks:     []string{"a"},
		ChunkNotes: []string{"note"},
		Summary:    "sum",
	}
	c := s.Clone()

	s.ChunkNotes[0] = "changed"
	if c.ChunkNotes[0] != "note" {
		t.Error("clone shares chunk note storage with the original")
	}
	if c.Summary != "sum" {
		t.Errorf("unexpected summary: %q", c.Summary)
	}

	var nilState *PipelineState
	if nilState.Clone() != nil {
		t.Error("cloning a nil state should return nil")
	}
}
