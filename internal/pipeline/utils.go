package pipeline

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/vidscribe/api/internal/model"
)

var imageLinkRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

// StripMarkdownFence removes a surrounding triple-backtick fence, including
// a language tag on the opening line, from a model response. Text without a
// surrounding fence is returned unchanged.
func StripMarkdownFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 6 || !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") {
		return text
	}
	body := trimmed[3 : len(trimmed)-3]
	if idx := strings.Index(body, "\n"); idx != -1 {
		firstLine := strings.TrimSpace(body[:idx])
		if firstLine == "" || isAlpha(firstLine) {
			body = body[idx+1:]
		}
	}
	return strings.TrimSpace(body)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// RewriteImageLinks re-anchors relative markdown image paths from one
// directory to another. Absolute paths and URLs pass through untouched.
func RewriteImageLinks(text, fromDir, toDir string) string {
	return imageLinkRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := imageLinkRe.FindStringSubmatch(m)
		p := parts[2]
		if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") || filepath.IsAbs(p) {
			return m
		}
		abs := filepath.Join(fromDir, filepath.FromSlash(p))
		rel, err := filepath.Rel(toDir, abs)
		if err != nil {
			return m
		}
		return fmt.Sprintf("![%s](%s)", parts[1], filepath.ToSlash(rel))
	})
}

// timedTranscript renders entries one per line, prefixed with the start time.
func timedTranscript(entries []model.TranscriptEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "[%s] %s\n", formatSeconds(e.Start), e.Text)
	}
	return b.String()
}

// numberedLines prefixes every line of text with its 1-based line number.
func numberedLines(text string) string {
	var b strings.Builder
	for i, line := range strings.Split(text, "\n") {
		fmt.Fprintf(&b, "%d: %s\n", i+1, line)
	}
	return b.String()
}

func formatSeconds(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// safeTimestamp makes an HH:MM:SS timestamp usable in a filename.
func safeTimestamp(ts string) string {
	return strings.ReplaceAll(ts, ":", "-")
}
