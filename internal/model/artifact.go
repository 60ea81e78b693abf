package model

import (
	"fmt"
	"path"
)

// ArtifactKind names a cacheable stage output.
type ArtifactKind string

const (
	KindRawNote         ArtifactKind = "raw_note"
	KindTimestamps      ArtifactKind = "timestamps"
	KindImageInsertions ArtifactKind = "image_insertions"
	KindExtractedImages ArtifactKind = "extracted_images"
	KindIntegratedNote  ArtifactKind = "integrated_note"
	KindFormattedNote   ArtifactKind = "formatted_note"
	KindCollectedNote   ArtifactKind = "collected_note"
	KindSummary         ArtifactKind = "summary"
	KindExportPDF       ArtifactKind = "export_pdf"
)

// ChunkScoped reports whether artifacts of this kind carry a chunk index.
func (k ArtifactKind) ChunkScoped() bool {
	switch k {
	case KindCollectedNote, KindSummary, KindExportPDF:
		return false
	}
	return true
}

// ContentType returns the MIME type used when persisting this kind.
func (k ArtifactKind) ContentType() string {
	switch k {
	case KindTimestamps, KindImageInsertions, KindExtractedImages:
		return "application/json"
	case KindExportPDF:
		return "application/pdf"
	}
	return "text/markdown"
}

func (k ArtifactKind) ext() string {
	switch k.ContentType() {
	case "application/json":
		return ".json"
	case "application/pdf":
		return ".pdf"
	}
	return ".md"
}

// RunIdentity identifies one pipeline execution for caching and versioning.
// TenantID is optional; when empty the run is local-only and nothing is
// uploaded to the remote tier. RunID distinguishes repeated executions over
// the same ContentID so artifacts version instead of clobbering.
type RunIdentity struct {
	TenantID  string `json:"tenantId,omitempty"`
	ContentID string `json:"contentId" validate:"required"`
	RunID     string `json:"runId,omitempty"`
}

// ArtifactKey addresses one authoritative artifact in the store.
// ChunkIndex is 1-based and only meaningful for chunk-scoped kinds.
type ArtifactKey struct {
	Identity   RunIdentity
	Kind       ArtifactKind
	ChunkIndex int
}

// ObjectKey renders the store key, mirroring the on-disk notes layout:
// notes/{content_id}[/{run_id}]/partial/{kind}_chunk_{i}.{ext} for chunk
// artifacts and notes/{content_id}[/{run_id}]/{name}.{ext} for run artifacts.
func (k ArtifactKey) ObjectKey() string {
	base := path.Join("notes", k.Identity.ContentID)
	if k.Identity.RunID != "" {
		base = path.Join(base, k.Identity.RunID)
	}
	switch k.Kind {
	case KindCollectedNote:
		return path.Join(base, "final_notes.md")
	case KindSummary:
		return path.Join(base, "summary.md")
	case KindExportPDF:
		return path.Join(base, "final_notes.pdf")
	}
	return path.Join(base, "partial", fmt.Sprintf("%s_chunk_%d%s", k.Kind, k.ChunkIndex, k.Kind.ext()))
}
