package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidscribe/api/internal/model"
	"github.com/vidscribe/api/internal/store"
)

// chunkState is the working state of one chunk as it moves through its
// stage sequence. It is owned by a single worker goroutine; snapshots sent
// to the coordinator are copies.
type chunkState struct {
	Index          int
	Entries        []model.TranscriptEntry
	Text           string
	Note           string
	Timestamps     []model.Timestamp
	Insertions     []model.ImageInsertion
	Extracted      []model.FrameExtraction
	IntegratedNote string
	FormattedNote  string
}

// runContext bundles everything the stages of one run share.
type runContext struct {
	llm       LLM
	frames    FrameExtractor
	renderer  Renderer
	docx      DocxWriter
	local     *store.Local
	remote    store.Store
	runner    *Runner
	framesDir string
	id        model.RunIdentity
	cfg       model.RunConfig
}

func (rc *runContext) key(kind model.ArtifactKind, chunkIndex int) model.ArtifactKey {
	return model.ArtifactKey{Identity: rc.id, Kind: kind, ChunkIndex: chunkIndex}
}

func (rc *runContext) localPath(key model.ArtifactKey) string {
	return rc.local.Path(key.ObjectKey())
}

// withFeedback appends run-level user guidance to a system prompt.
func (rc *runContext) withFeedback(system string) string {
	if rc.cfg.Feedback == "" {
		return system
	}
	return system + "\n\nAdditional instructions from the user:\n" + rc.cfg.Feedback
}

func (rc *runContext) complete(ctx context.Context, system, user string) (string, error) {
	return rc.llm.Complete(ctx, []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	})
}

// structuredJSON runs a schema-constrained completion with a plain-text
// fallback. A response that yields no parseable JSON leaves out at its zero
// value so the run degrades to an empty result instead of failing.
func (rc *runContext) structuredJSON(ctx context.Context, system, user string, out any) error {
	msgs := []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
	err := rc.llm.CompleteStructured(ctx, msgs, out)
	if err == nil {
		return nil
	}
	log.Printf("Warning: structured output failed, falling back to plain completion: %v", err)

	msgs[0].Content = system + jsonFallbackInstruction
	text, err := rc.llm.Complete(ctx, msgs)
	if err != nil {
		return err
	}
	raw, ok := ExtractJSON(text)
	if !ok {
		log.Printf("Warning: no JSON found in model output, continuing with empty result")
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("Warning: failed to decode model JSON, continuing with empty result: %v", err)
	}
	return nil
}

func (rc *runContext) stageRawNote(ctx context.Context, cs *chunkState) error {
	key := rc.key(model.KindRawNote, cs.Index)
	data, _, err := rc.runner.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		text, err := rc.complete(ctx, rc.withFeedback(chunkNotesSystemPrompt), cs.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to generate notes: %w", err)
		}
		return []byte(StripMarkdownFence(text)), nil
	})
	if err != nil {
		return err
	}
	cs.Note = string(data)
	return nil
}

func (rc *runContext) stageTimestamps(ctx context.Context, cs *chunkState) error {
	key := rc.key(model.KindTimestamps, cs.Index)
	data, _, err := rc.runner.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		list := model.TimestampList{Timestamps: []model.Timestamp{}}
		if err := rc.structuredJSON(ctx, timestampSystemPrompt, timedTranscript(cs.Entries), &list); err != nil {
			return nil, fmt.Errorf("failed to generate timestamps: %w", err)
		}
		if list.Timestamps == nil {
			list.Timestamps = []model.Timestamp{}
		}
		return json.Marshal(list)
	})
	if err != nil {
		return err
	}
	var list model.TimestampList
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to decode cached timestamps: %w", err)
	}
	cs.Timestamps = list.Timestamps
	return nil
}

func (rc *runContext) stageInsertionPlan(ctx context.Context, cs *chunkState) error {
	key := rc.key(model.KindImageInsertions, cs.Index)
	data, _, err := rc.runner.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		list := model.ImageInsertionList{ImageInsertions: []model.ImageInsertion{}}
		if len(cs.Timestamps) > 0 {
			timestamps, err := json.Marshal(model.TimestampList{Timestamps: cs.Timestamps})
			if err != nil {
				return nil, err
			}
			user := fmt.Sprintf("Notes:\n%s\nCaptured timestamps:\n%s", numberedLines(cs.Note), timestamps)
			if err := rc.structuredJSON(ctx, imageInsertionSystemPrompt, user, &list); err != nil {
				return nil, fmt.Errorf("failed to plan image insertions: %w", err)
			}
			if list.ImageInsertions == nil {
				list.ImageInsertions = []model.ImageInsertion{}
			}
		}
		return json.Marshal(list)
	})
	if err != nil {
		return err
	}
	var list model.ImageInsertionList
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to decode cached image insertions: %w", err)
	}
	cs.Insertions = list.ImageInsertions
	return nil
}

// stageExtractFrames pulls one frame per proposed timestamp. Individual
// extraction failures are logged and omitted rather than failing the chunk.
func (rc *runContext) stageExtractFrames(ctx context.Context, cs *chunkState) error {
	key := rc.key(model.KindExtractedImages, cs.Index)
	data, _, err := rc.runner.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		list := model.FrameExtractionList{ExtractedImages: []model.FrameExtraction{}}
		for _, ts := range cs.Timestamps {
			outPath := filepath.Join(rc.framesDir, rc.id.ContentID, "frame_"+safeTimestamp(ts.Time)+".jpg")
			if err := rc.frames.ExtractFrame(ctx, rc.cfg.VideoPath, ts.Time, outPath); err != nil {
				log.Printf("Warning: failed to extract frame at %s: %v", ts.Time, err)
				continue
			}
			list.ExtractedImages = append(list.ExtractedImages, model.FrameExtraction{Time: ts.Time, FramePath: outPath})
		}
		return json.Marshal(list)
	})
	if err != nil {
		return err
	}
	var list model.FrameExtractionList
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to decode cached frame extractions: %w", err)
	}
	cs.Extracted = list.ExtractedImages
	return nil
}

func (rc *runContext) stageIntegrateImages(ctx context.Context, cs *chunkState) error {
	key := rc.key(model.KindIntegratedNote, cs.Index)
	data, _, err := rc.runner.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		resolved := resolveInsertions(cs.Insertions, cs.Extracted)
		// Frame paths are absolute; the note references them relative to
		// its own directory.
		partialDir := filepath.Dir(rc.localPath(key))
		for i := range resolved {
			if rel, err := filepath.Rel(partialDir, resolved[i].FramePath); err == nil {
				resolved[i].FramePath = filepath.ToSlash(rel)
			}
		}
		return []byte(MergeInsertions(cs.Note, resolved)), nil
	})
	if err != nil {
		return err
	}
	cs.IntegratedNote = string(data)
	return nil
}

func (rc *runContext) stageFormat(ctx context.Context, cs *chunkState) error {
	source := cs.IntegratedNote
	if source == "" {
		source = cs.Note
	}
	key := rc.key(model.KindFormattedNote, cs.Index)
	data, _, err := rc.runner.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		text, err := rc.complete(ctx, formatterSystemPrompt, source)
		if err != nil {
			return nil, fmt.Errorf("failed to format notes: %w", err)
		}
		return []byte(StripMarkdownFence(text)), nil
	})
	if err != nil {
		return err
	}
	cs.FormattedNote = string(data)
	return nil
}

// collectNotes merges the formatted per-chunk notes into one document and
// re-anchors image links from the partial directory to the final one.
func (rc *runContext) collectNotes(ctx context.Context, formatted []string) (string, error) {
	key := rc.key(model.KindCollectedNote, 0)
	data, _, err := rc.runner.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		var b strings.Builder
		b.WriteString("<notes>\n")
		for _, note := range formatted {
			b.WriteString("<note>\n")
			b.WriteString(note)
			b.WriteString("\n</note>\n")
		}
		b.WriteString("</notes>")

		text, err := rc.complete(ctx, rc.withFeedback(collectorSystemPrompt), b.String())
		if err != nil {
			return nil, fmt.Errorf("failed to collect notes: %w", err)
		}
		text = StripMarkdownFence(text)

		partialDir := filepath.Dir(rc.localPath(rc.key(model.KindFormattedNote, 1)))
		finalDir := filepath.Dir(rc.localPath(key))
		return []byte(RewriteImageLinks(text, partialDir, finalDir)), nil
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (rc *runContext) summarize(ctx context.Context, collected string) (string, error) {
	key := rc.key(model.KindSummary, 0)
	data, _, err := rc.runner.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		text, err := rc.complete(ctx, summarizerSystemPrompt, collected)
		if err != nil {
			return nil, fmt.Errorf("failed to generate summary: %w", err)
		}
		return []byte(StripMarkdownFence(text)), nil
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// export renders the final documents to PDF and DOCX. Export problems are
// logged, not fatal; the markdown artifacts already exist at this point.
func (rc *runContext) export(ctx context.Context, s *model.PipelineState) {
	if rc.renderer != nil {
		notesMD := rc.localPath(rc.key(model.KindCollectedNote, 0))
		notesPDFKey := rc.key(model.KindExportPDF, 0)
		notesPDF := rc.localPath(notesPDFKey)
		if err := rc.renderer.RenderPDF(ctx, notesMD, notesPDF); err != nil {
			log.Printf("Warning: failed to render notes PDF: %v", err)
		} else {
			s.NotesPDFPath = notesPDF
			rc.uploadFile(ctx, notesPDFKey.ObjectKey(), notesPDF, "application/pdf")
		}

		summaryKey := rc.key(model.KindSummary, 0)
		summaryMD := rc.localPath(summaryKey)
		summaryPDF := strings.TrimSuffix(summaryMD, ".md") + ".pdf"
		if err := rc.renderer.RenderPDF(ctx, summaryMD, summaryPDF); err != nil {
			log.Printf("Warning: failed to render summary PDF: %v", err)
		} else {
			s.SummaryPDFPath = summaryPDF
			rc.uploadFile(ctx, strings.TrimSuffix(summaryKey.ObjectKey(), ".md")+".pdf", summaryPDF, "application/pdf")
		}
	}

	if rc.docx != nil && s.Summary != "" {
		summaryKey := rc.key(model.KindSummary, 0)
		docxPath := strings.TrimSuffix(rc.localPath(summaryKey), ".md") + ".docx"
		if err := rc.docx.WriteDocx("Summary", s.Summary, docxPath); err != nil {
			log.Printf("Warning: failed to write summary DOCX: %v", err)
		} else {
			s.SummaryDocxPath = docxPath
			rc.uploadFile(ctx, strings.TrimSuffix(summaryKey.ObjectKey(), ".md")+".docx", docxPath,
				"application/vnd.openxmlformats-officedocument.wordprocessingml.document")
		}
	}
}

func (rc *runContext) uploadFile(ctx context.Context, objectKey, path, contentType string) {
	if rc.remote == nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: failed to read %s for upload: %v", path, err)
		return
	}
	if err := rc.remote.Put(ctx, objectKey, data, contentType); err != nil {
		log.Printf("Warning: failed to upload %s: %v", objectKey, err)
	}
}
