package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/umputun/newsfeeder/pkg/domain"
)

// LocalWriter stores records as files in a folder
type LocalWriter struct {
	Dir string
}

// Write stores the record under a fresh unique name, creating the folder if needed.
// Returns full path of the written file.
func (w *LocalWriter) Write(_ context.Context, rec domain.ArticleRecord) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o750); err != nil {
		return "", fmt.Errorf("create folder %s: %w", w.Dir, err)
	}
	return writeFile(w.Dir, fileName(), rec)
}
