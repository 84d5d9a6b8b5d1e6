// Package store persists whole collections as JSON documents and allocates ids.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"storefront/internal/apperr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is one JSON file holding one collection. Every Save rewrites the whole file.
type Document[T any] struct {
	path string
	log  zerolog.Logger
}

func NewDocument[T any](path string, log zerolog.Logger) *Document[T] {
	return &Document[T]{
		path: path,
		log:  log.With().Str("document", path).Logger(),
	}
}

func (d *Document[T]) Path() string { return d.path }

// Load reads the document. A missing or unreadable document yields the zero value;
// the condition is logged, never returned.
func (d *Document[T]) Load() T {
	var v T
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		d.log.Info().Msg("document not found, starting empty")
		return v
	}
	if err != nil {
		d.log.Error().Err(err).Msg("read document")
		return v
	}
	if err := json.Unmarshal(data, &v); err != nil {
		d.log.Error().Err(err).Msg("parse document, starting empty")
		var zero T
		return zero
	}
	return v
}

// Save writes v to a temp file next to the target and renames it into place,
// so the previous document survives any failure.
func (d *Document[T]) Save(v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperr.IO("encode document", err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.IO("create document dir", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return apperr.IO("create temp document", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperr.IO("write temp document", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperr.IO("sync temp document", err)
	}
	if err := tmp.Close(); err != nil {
		return apperr.IO("close temp document", err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		return apperr.IO(fmt.Sprintf("replace %s", d.path), err)
	}

	d.log.Debug().Int("bytes", len(data)).Msg("document saved")
	return nil
}
