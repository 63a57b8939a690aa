// Package storage persists article records as json documents, either to a local folder
// or to an object-storage bucket.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/umputun/newsfeeder/pkg/domain"
)

// Marshal serializes a record as pretty-printed json, html and unicode kept as is
func Marshal(rec domain.ArticleRecord) ([]byte, error) {
	buf := bytes.Buffer{}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}
	return buf.Bytes(), nil
}

// fileName makes a fresh unique file name for a record
func fileName() string {
	return uuid.NewString() + ".json"
}

// writeFile marshals the record into dir/name
func writeFile(dir, name string, rec domain.ArticleRecord) (string, error) {
	data, err := Marshal(rec)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
