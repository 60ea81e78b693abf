package pipeline

import (
	"strings"
	"testing"

	"github.com/vidscribe/api/internal/model"
)

func TestMergeInsertions_NoInsertions(t *testing.T) {
	note := "# Title\ncontent"
	if got := MergeInsertions(note, nil); got != note {
		t.Errorf("expected note unchanged, got %q", got)
	}
}

func TestMergeInsertions_FirstLine(t *testing.T) {
	note := "# Title\ncontent"
	got := MergeInsertions(note, []model.ResolvedInsertion{
		{Time: "00:00:05", TargetLine: 1, Caption: "diagram", FramePath: "frames/a.jpg"},
	})
	want := "![diagram](frames/a.jpg)\n# Title\ncontent"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestMergeInsertions_OutOfRangeAppends(t *testing.T) {
	note := "line one\nline two"
	got := MergeInsertions(note, []model.ResolvedInsertion{
		{Time: "00:01:00", TargetLine: 99, Caption: "late", FramePath: "a.jpg"},
		{Time: "00:02:00", TargetLine: 0, Caption: "zero", FramePath: "b.jpg"},
	})
	lines := strings.Split(got, "\n")
	if lines[0] != "line one" || lines[1] != "line two" {
		t.Fatalf("original lines disturbed: %q", got)
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), got)
	}
}

func TestMergeInsertions_OrderIndependent(t *testing.T) {
	note := "a\nb\nc\nd"
	ins := []model.ResolvedInsertion{
		{Time: "00:00:10", TargetLine: 3, Caption: "third", FramePath: "3.jpg"},
		{Time: "00:00:01", TargetLine: 1, Caption: "first", FramePath: "1.jpg"},
		{Time: "00:00:20", TargetLine: 4, Caption: "fourth", FramePath: "4.jpg"},
	}
	want := MergeInsertions(note, ins)

	permuted := []model.ResolvedInsertion{ins[2], ins[0], ins[1]}
	if got := MergeInsertions(note, permuted); got != want {
		t.Errorf("result depends on input order:\n%q\nvs\n%q", want, got)
	}

	wantText := "![first](1.jpg)\na\nb\n![third](3.jpg)\nc\n![fourth](4.jpg)\nd"
	if want != wantText {
		t.Errorf("expected %q, got %q", wantText, want)
	}
}

func TestMergeInsertions_SameLineDeterministic(t *testing.T) {
	note := "a\nb"
	ins := []model.ResolvedInsertion{
		{Time: "00:00:01", TargetLine: 2, Caption: "x", FramePath: "x.jpg"},
		{Time: "00:00:02", TargetLine: 2, Caption: "y", FramePath: "y.jpg"},
	}
	want := MergeInsertions(note, ins)
	got := MergeInsertions(note, []model.ResolvedInsertion{ins[1], ins[0]})
	if got != want {
		t.Errorf("same-line insertions not deterministic:\n%q\nvs\n%q", want, got)
	}
}

func TestResolveInsertions(t *testing.T) {
	insertions := []model.ImageInsertion{
		{Time: "00:00:05", TargetLine: 1, Caption: "matched"},
		{Time: "00:00:30", TargetLine: 2, Caption: "no frame"},
	}
	frames := []model.FrameExtraction{
		{Time: "00:00:05", FramePath: "/frames/a.jpg"},
		{Time: "00:01:00", FramePath: "/frames/b.jpg"},
	}

	resolved := resolveInsertions(insertions, frames)
	if len(resolved) != 1 {
		t.Fatalf("expected 1 resolved insertion, got %d", len(resolved))
	}
	if resolved[0].Caption != "matched" || resolved[0].FramePath != "/frames/a.jpg" {
		t.Errorf("unexpected resolution: %+v", resolved[0])
	}
}
