package render

import (
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	docxFont     = "Calibri"
	docxFontSize = 12
)

var (
	reHeading = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reBold    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet  = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reOrdered = regexp.MustCompile(`^\d+\.\s+(.+)$`)
	reImage   = regexp.MustCompile(`^!\[[^\]]*\]\([^)]*\)$`)
)

// DocxRenderer writes markdown documents as styled DOCX files.
type DocxRenderer struct{}

func NewDocxRenderer() *DocxRenderer {
	return &DocxRenderer{}
}

// WriteDocx converts markdown to a DOCX document at outPath. Image links are
// skipped; everything else maps to headings, bullets and body paragraphs.
func (r *DocxRenderer) WriteDocx(title, markdown, outPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	writeStyled(doc.AddParagraph(""), title, true, 16)

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || trimmed == "---" || reImage.MatchString(trimmed) {
			continue
		}

		if m := reHeading.FindStringSubmatch(trimmed); m != nil {
			writeStyled(doc.AddParagraph(""), m[2], true, headingSize(len(m[1])))
			continue
		}

		if m := reBullet.FindStringSubmatch(trimmed); m != nil {
			writeRich(doc.AddParagraph(""), "• "+m[1])
			continue
		}

		if reOrdered.MatchString(trimmed) {
			writeRich(doc.AddParagraph(""), trimmed)
			continue
		}

		writeRich(doc.AddParagraph(""), trimmed)
	}

	return doc.SaveTo(outPath)
}

func headingSize(level int) uint64 {
	switch level {
	case 1:
		return 16
	case 2:
		return 14
	case 3:
		return 13
	}
	return docxFontSize
}

func writeStyled(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(stripInlineMarkdown(text)).Font(docxFont).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

// writeRich splits a line on bold spans so **text** renders bold.
func writeRich(p *docx.Paragraph, text string) {
	plain := reBold.Split(text, -1)
	bold := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range plain {
		if part != "" {
			p.AddText(stripInlineMarkdown(part)).Font(docxFont).Size(docxFontSize).Color("000000")
		}
		if i < len(bold) {
			p.AddText(stripInlineMarkdown(bold[i][1])).Font(docxFont).Size(docxFontSize).Color("000000").Bold(true)
		}
	}
}

func stripInlineMarkdown(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
