package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spiffcs/evidence-collector/internal/log"
	"github.com/spiffcs/evidence-collector/internal/model"
)

// Writer saves evidence documents under a local directory.
// A Writer with an empty directory saves nothing.
type Writer struct {
	dir string
}

// NewWriter returns a Writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Enabled reports whether documents are saved.
func (w *Writer) Enabled() bool {
	return w != nil && w.dir != ""
}

// Save writes doc to <dir>/<doc.LocalName> and returns the path.
// The file is closed before Save returns.
func (w *Writer) Save(doc *model.Document) (string, error) {
	if !w.Enabled() {
		return "", nil
	}
	if doc.LocalName == "" {
		return "", fmt.Errorf("document has no local name")
	}

	if err := os.MkdirAll(w.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}

	path := filepath.Join(w.dir, filepath.Base(doc.LocalName))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(doc.Data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	log.Debug("saved evidence document", "path", path, "bytes", doc.Size())
	return path, nil
}
