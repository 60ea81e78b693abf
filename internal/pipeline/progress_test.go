package pipeline

import (
	"errors"
	"testing"

	"github.com/vidscribe/api/internal/model"
)

func TestTrackerCompute_Bands(t *testing.T) {
	tests := []struct {
		name        string
		state       model.PipelineState
		wantPercent int
		wantPhase   model.Phase
	}{
		{
			name:      "empty state",
			state:     model.PipelineState{},
			wantPhase: model.PhaseStarting,
		},
		{
			name:        "chunks only",
			state:       model.PipelineState{Chunks: []string{"a", "b"}},
			wantPercent: 20,
			wantPhase:   model.PhaseChunks,
		},
		{
			name: "half the chunk notes",
			state: model.PipelineState{
				Chunks:     []string{"a", "b"},
				ChunkNotes: []string{"note", ""},
			},
			wantPercent: 35,
			wantPhase:   model.PhaseChunkNotes,
		},
		{
			name: "all chunk notes",
			state: model.PipelineState{
				Chunks:     []string{"a", "b"},
				ChunkNotes: []string{"note", "note"},
			},
			wantPercent: 50,
			wantPhase:   model.PhaseChunkNotes,
		},
		{
			name: "half formatted",
			state: model.PipelineState{
				Chunks:         []string{"a", "b"},
				ChunkNotes:     []string{"note", "note"},
				FormattedNotes: []string{"fmt", ""},
			},
			wantPercent: 65,
			wantPhase:   model.PhaseFormatDocs,
		},
		{
			name: "all formatted",
			state: model.PipelineState{
				Chunks:         []string{"a", "b"},
				ChunkNotes:     []string{"note", "note"},
				FormattedNotes: []string{"fmt", "fmt"},
			},
			wantPercent: 80,
			wantPhase:   model.PhaseFormatDocs,
		},
		{
			name: "collected",
			state: model.PipelineState{
				Chunks:        []string{"a", "b"},
				CollectedNote: "doc",
			},
			wantPercent: 90,
			wantPhase:   model.PhaseCollectNotes,
		},
		{
			name: "summary",
			state: model.PipelineState{
				Chunks:        []string{"a", "b"},
				CollectedNote: "doc",
				Summary:       "tl;dr",
			},
			wantPercent: 100,
			wantPhase:   model.PhaseSummary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(2)
			percent, phase := tracker.Compute(&tt.state)
			if percent != tt.wantPercent {
				t.Errorf("expected percent %d, got %d", tt.wantPercent, percent)
			}
			if phase != tt.wantPhase {
				t.Errorf("expected phase %s, got %s", tt.wantPhase, phase)
			}
		})
	}
}

func TestTrackerEvent_Monotonic(t *testing.T) {
	tracker := NewTracker(2)

	advanced := &model.PipelineState{
		Chunks:         []string{"a", "b"},
		ChunkNotes:     []string{"note", "note"},
		FormattedNotes: []string{"fmt", "fmt"},
	}
	ev := tracker.Event(advanced, "")
	if ev.Percent != 80 {
		t.Fatalf("expected 80, got %d", ev.Percent)
	}

	// A stale snapshot must not walk the percent backwards.
	behind := &model.PipelineState{Chunks: []string{"a", "b"}}
	ev = tracker.Event(behind, "")
	if ev.Percent != 80 {
		t.Errorf("expected percent clamped at 80, got %d", ev.Percent)
	}
}

func TestTrackerEvent_DefaultMessage(t *testing.T) {
	tracker := NewTracker(1)
	ev := tracker.Event(&model.PipelineState{Chunks: []string{"a"}}, "")
	if ev.Message != phaseMessages[model.PhaseChunks] {
		t.Errorf("expected default phase message, got %q", ev.Message)
	}

	ev = tracker.Event(&model.PipelineState{Chunks: []string{"a"}}, "custom")
	if ev.Message != "custom" {
		t.Errorf("expected custom message, got %q", ev.Message)
	}
}

func TestTrackerEvent_ClonesState(t *testing.T) {
	tracker := NewTracker(1)
	state := &model.PipelineState{Chunks: []string{"a"}, ChunkNotes: []string{""}}
	ev := tracker.Event(state, "")

	state.ChunkNotes[0] = "mutated after the event"
	if ev.Data.ChunkNotes[0] != "" {
		t.Error("event data shares storage with the live state")
	}
}

func TestTrackerTerminalEvents(t *testing.T) {
	tracker := NewTracker(2)
	state := &model.PipelineState{
		Chunks:     []string{"a", "b"},
		ChunkNotes: []string{"note", ""},
	}
	tracker.Event(state, "")

	errEv := tracker.ErrorEvent(state, errors.New("boom"))
	if errEv.Phase != model.PhaseError {
		t.Errorf("expected error phase, got %s", errEv.Phase)
	}
	if errEv.Percent != 35 {
		t.Errorf("error event should carry last good percent, got %d", errEv.Percent)
	}
	if errEv.Message != "boom" {
		t.Errorf("expected error message, got %q", errEv.Message)
	}

	cancelEv := tracker.CancelledEvent(state)
	if cancelEv.Phase != model.PhaseCancelled {
		t.Errorf("expected cancelled phase, got %s", cancelEv.Phase)
	}

	doneEv := tracker.DoneEvent(state)
	if doneEv.Phase != model.PhaseDone || doneEv.Percent != 100 {
		t.Errorf("expected done at 100, got %s/%d", doneEv.Phase, doneEv.Percent)
	}
}

func TestTrackerCounters(t *testing.T) {
	tracker := NewTracker(2)
	state := &model.PipelineState{
		Chunks:     []string{"a", "b"},
		ChunkNotes: []string{"note", ""},
		Timestamps: [][]model.Timestamp{
			{{Time: "00:00:05"}, {Time: "00:00:10"}},
			nil,
		},
		CollectedNote: "",
	}

	counters := tracker.Counters(state)

	raw := counters[model.KindRawNote]
	if raw.ChunksCompleted != 1 || raw.ChunksExpected != 2 {
		t.Errorf("unexpected raw note counter: %+v", raw)
	}

	ts := counters[model.KindTimestamps]
	if ts.ItemsProduced != 2 || ts.ChunksCompleted != 1 || ts.ChunksExpected != 2 {
		t.Errorf("unexpected timestamps counter: %+v", ts)
	}

	collected := counters[model.KindCollectedNote]
	if collected.ChunksCompleted != 0 || collected.ChunksExpected != 1 {
		t.Errorf("unexpected collected counter: %+v", collected)
	}

	if _, ok := counters[model.KindImageInsertions]; ok {
		t.Error("image insertions counter should be absent for a text-only state")
	}
}
