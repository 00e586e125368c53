// Package source reads the calculator's data tables from a location: a local
// directory, an http(s) URL or an s3:// bucket prefix.
package source

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
)

// ErrNotFound is returned when a named file does not exist at the source.
var ErrNotFound = errors.New("file not found")

// Source reads named files relative to a base location.
type Source interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	Location() string
}

// Options configures Open.
type Options struct {
	S3 S3Config
}

// Open picks the adapter for location: s3:// goes to S3, everything else
// (plain paths, file://, http(s)://) goes through afs.
func Open(ctx context.Context, location string, opts Options) (Source, error) {
	if strings.HasPrefix(location, s3Scheme) {
		bucket, prefix, err := splitS3(location)
		if err != nil {
			return nil, err
		}
		cfg := opts.S3
		cfg.Bucket = bucket
		cfg.Prefix = prefix
		return NewS3(ctx, cfg)
	}
	return NewFiles(location)
}

// Files reads through viant/afs, which covers local paths and URLs.
type Files struct {
	fs   afs.Service
	base string
}

// NewFiles returns a Files source rooted at base. Relative local paths are
// made absolute.
func NewFiles(base string) (*Files, error) {
	if base == "" {
		base = "."
	}
	if !strings.Contains(base, "://") {
		abs, err := filepath.Abs(base)
		if err != nil {
			return nil, fmt.Errorf("resolving data directory %q: %w", base, err)
		}
		base = abs
	}
	return &Files{fs: afs.New(), base: strings.TrimRight(base, "/")}, nil
}

// Location returns the base location.
func (f *Files) Location() string {
	return f.base
}

// ReadFile downloads base/name.
func (f *Files) ReadFile(ctx context.Context, name string) ([]byte, error) {
	location := f.base + "/" + path.Clean(name)
	ok, err := f.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", location, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", location, ErrNotFound)
	}
	data, err := f.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}
	return data, nil
}
