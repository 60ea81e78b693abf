package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vidscribe/api/internal/config"
)

// PDFRenderer converts markdown files to PDF by shelling out to an external
// converter binary (md-to-pdf compatible: takes the markdown path and writes
// the PDF next to it unless an output path is given).
type PDFRenderer struct {
	converterBin string
}

// NewPDFRenderer creates a renderer using the configured converter binary.
func NewPDFRenderer(cfg *config.RenderConfig) *PDFRenderer {
	return &PDFRenderer{converterBin: cfg.ConverterBin}
}

// RenderPDF converts markdownPath into pdfPath.
func (r *PDFRenderer) RenderPDF(ctx context.Context, markdownPath, pdfPath string) error {
	if _, err := os.Stat(markdownPath); err != nil {
		return fmt.Errorf("markdown not found at %s: %w", markdownPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(pdfPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.converterBin, markdownPath, pdfPath)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return fmt.Errorf("command '%s' failed: %w\nstderr: %s", r.converterBin, err, stderrStr)
		}
		return fmt.Errorf("command '%s' failed: %w", r.converterBin, err)
	}

	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("converter produced no output at %s: %w", pdfPath, err)
	}
	return nil
}
