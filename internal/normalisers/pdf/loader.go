// Package pdf provides a page loader for PDF filings backed by pdftotext.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
	"github.com/custodia-labs/debtscan/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.PageLoader = (*Loader)(nil)

// toolName is the poppler binary used for text extraction.
const toolName = "pdftotext"

// pageBreak separates pages in pdftotext output.
const pageBreak = "\f"

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH; " + InstallInstructions())

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

// Run executes the command, resolving it on PATH first.
func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, ErrPDFToolNotFound
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Loader reads PDF documents page by page.
type Loader struct {
	runner CommandRunner
}

// New creates a loader that shells out to pdftotext.
func New() *Loader {
	return &Loader{runner: execRunner{}}
}

// NewWithRunner creates a loader with a custom command runner.
func NewWithRunner(runner CommandRunner) *Loader {
	return &Loader{runner: runner}
}

// CheckAvailable returns ErrPDFToolNotFound if pdftotext is not installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns how to install pdftotext on common platforms.
func InstallInstructions() string {
	return "install poppler: 'brew install poppler' (macOS) or 'apt install poppler-utils' (Debian/Ubuntu)"
}

// LoadPages extracts the text of every page in physical order.
// Page numbers are 1-based. Pages without text yield an empty string.
func (l *Loader) LoadPages(ctx context.Context, path string) ([]domain.Page, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}

	if err := checkReadable(path); err != nil {
		return nil, err
	}

	logger.Debug("Extracting text from %s", path)
	out, err := l.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s failed on %s: %w", toolName, path, err)
	}

	pages := splitPages(path, string(out))
	logger.Debug("Read %d pages from %s", len(pages), path)
	return pages, nil
}

// checkReadable verifies the file opens and carries a PDF header.
func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSourceUnreadable, err)
	}
	defer f.Close()

	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("%w: %s: too short to be a PDF", domain.ErrSourceUnreadable, path)
	}
	if !bytes.Equal(header, pdfMagic) {
		return fmt.Errorf("%w: %s: not a PDF file", domain.ErrSourceUnreadable, path)
	}
	return nil
}

// splitPages cuts pdftotext output on form feeds.
// pdftotext terminates every page with a form feed, so the segment after
// the last one is not a page.
func splitPages(source, text string) []domain.Page {
	if text == "" {
		return []domain.Page{}
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	segments := strings.Split(text, pageBreak)
	if len(segments) > 1 && segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}

	pages := make([]domain.Page, len(segments))
	for i, seg := range segments {
		pages[i] = domain.Page{
			SourceID:   source,
			PageNumber: i + 1,
			Text:       seg,
		}
	}
	return pages
}
