package model

// Timestamp is a model-proposed point of interest within a chunk.
type Timestamp struct {
	Time   string `json:"timestamp"` // HH:MM:SS
	Reason string `json:"reason"`
}

// TimestampList is the structured-output envelope for the timestamp stage.
type TimestampList struct {
	Timestamps []Timestamp `json:"timestamps"`
}

// ImageInsertion is a decision to place an image at a specific line of the
// chunk's notes.
type ImageInsertion struct {
	Time       string `json:"timestamp"` // HH:MM:SS
	TargetLine int    `json:"line_number"`
	Caption    string `json:"caption"`
}

// ImageInsertionList is the structured-output envelope for the planning stage.
type ImageInsertionList struct {
	ImageInsertions []ImageInsertion `json:"image_insertions"`
}

// FrameExtraction records a frame successfully pulled from the video.
type FrameExtraction struct {
	Time      string `json:"timestamp"`
	FramePath string `json:"frame_path"`
}

// FrameExtractionList is the cached envelope for the extraction stage.
type FrameExtractionList struct {
	ExtractedImages []FrameExtraction `json:"extracted_images"`
}

// ResolvedInsertion is an ImageInsertion joined with its extracted frame.
// Only insertions whose timestamp matched an extracted frame survive the join.
type ResolvedInsertion struct {
	Time       string `json:"timestamp"`
	TargetLine int    `json:"line_number"`
	Caption    string `json:"caption"`
	FramePath  string `json:"frame_path"`
}

// RunConfig is the shared configuration passed to every stage of a run.
type RunConfig struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	NumChunks    int    `json:"numChunks"`
	MaxTokens    int    `json:"maxTokens"`
	OverlapItems int    `json:"overlapItems"`
	AddImages    bool   `json:"addImages"`
	VideoPath    string `json:"videoPath,omitempty"`
	RefreshNotes bool   `json:"refreshNotes"`
	Feedback     string `json:"feedback,omitempty"`
}

// PipelineState accumulates per-kind collections across a run. Collections
// are ordered by chunk index, never by completion order. It is owned by the
// coordinating goroutine and discarded once the terminal event is emitted.
type PipelineState struct {
	Chunks          []string            `json:"chunks"`
	ChunkNotes      []string            `json:"chunk_notes"`
	Timestamps      [][]Timestamp       `json:"timestamps_output,omitempty"`
	ImageInsertions [][]ImageInsertion  `json:"image_insertions_output,omitempty"`
	ExtractedImages [][]FrameExtraction `json:"extracted_images_output,omitempty"`
	IntegratedNotes []string            `json:"image_integrated_notes,omitempty"`
	FormattedNotes  []string            `json:"formatted_notes"`
	CollectedNote   string              `json:"collected_notes"`
	Summary         string              `json:"summary"`
	NotesPDFPath    string              `json:"collected_notes_pdf_path,omitempty"`
	SummaryPDFPath  string              `json:"summary_pdf_path,omitempty"`
	SummaryDocxPath string              `json:"summary_docx_path,omitempty"`
}

// Clone returns a snapshot safe to hand to concurrent readers. Top-level
// collections are copied; element slices are never mutated after assignment
// so they can be shared.
func (s *PipelineState) Clone() *PipelineState {
	if s == nil {
		return nil
	}
	c := *s
	c.Chunks = append([]string(nil), s.Chunks...)
	c.ChunkNotes = append([]string(nil), s.ChunkNotes...)
	c.Timestamps = append([][]Timestamp(nil), s.Timestamps...)
	c.ImageInsertions = append([][]ImageInsertion(nil), s.ImageInsertions...)
	c.ExtractedImages = append([][]FrameExtraction(nil), s.ExtractedImages...)
	c.IntegratedNotes = append([]string(nil), s.IntegratedNotes...)
	c.FormattedNotes = append([]string(nil), s.FormattedNotes...)
	return &c
}
