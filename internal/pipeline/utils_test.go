package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/vidscribe/api/internal/model"
)

func TestStripMarkdownFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", "# Title\ncontent", "# Title\ncontent"},
		{"plain fence", "```\n# Title\n```", "# Title"},
		{"markdown tag", "```markdown\n# Title\ncontent\n```", "# Title\ncontent"},
		{"json tag", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  ```\nbody\n```  ", "body"},
		{"list body", "```\n1. first item\n2. second\n```", "1. first item\n2. second"},
		{"non-alpha first line kept", "```1,2\n3\n```", "1,2\n3"},
		{"fence markers inside text", "before ``` middle ``` after", "before ``` middle ``` after"},
		{"too short", "``````", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdownFence(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRewriteImageLinks(t *testing.T) {
	fromDir := filepath.Join("/outputs", "notes", "video-1", "partial")
	toDir := filepath.Join("/outputs", "notes", "video-1")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "relative path re-anchored",
			in:   "text ![cap](../../../frames/video-1/frame_00-00-05.jpg) more",
			want: "text ![cap](../../frames/video-1/frame_00-00-05.jpg) more",
		},
		{
			name: "url untouched",
			in:   "![cap](https://example.com/a.jpg)",
			want: "![cap](https://example.com/a.jpg)",
		},
		{
			name: "absolute path untouched",
			in:   "![cap](/outputs/frames/a.jpg)",
			want: "![cap](/outputs/frames/a.jpg)",
		},
		{
			name: "no images",
			in:   "plain text",
			want: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewriteImageLinks(tt.in, fromDir, toDir); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTimedTranscript(t *testing.T) {
	got := timedTranscript([]model.TranscriptEntry{
		{Text: "hello", Start: 0},
		{Text: "world", Start: 3661},
	})
	want := "[00:00:00] hello\n[01:01:01] world\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNumberedLines(t *testing.T) {
	got := numberedLines("first\nsecond")
	want := "1: first\n2: second\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSafeTimestamp(t *testing.T) {
	if got := safeTimestamp("01:23:45"); got != "01-23-45" {
		t.Errorf("expected 01-23-45, got %q", got)
	}
}
