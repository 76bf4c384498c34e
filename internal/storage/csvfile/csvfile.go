// Package csvfile reads replay telemetry from CSV files in a directory,
// optionally gzipped.
package csvfile

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/carnagereport/theater/internal/storage"
	"github.com/carnagereport/theater/internal/telemetry"
)

var extensions = []string{".csv", ".csv.gz"}

// Source loads feeds from <dir>/<replayID>.csv or .csv.gz.
type Source struct {
	dir    string
	logger zerolog.Logger
}

var (
	_ storage.Source = (*Source)(nil)
	_ storage.Lister = (*Source)(nil)
)

// New creates a CSV source rooted at dir.
func New(dir string, logger zerolog.Logger) *Source {
	return &Source{dir: dir, logger: logger}
}

// Open checks that the directory exists.
func (s *Source) Open(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("csv source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("csv source: %s is not a directory", s.dir)
	}
	s.logger.Debug().Str("dir", s.dir).Msg("CSV source opened")
	return nil
}

// Close is a no-op.
func (s *Source) Close() error { return nil }

// LoadFeed reads the replay file. replayID may name the file with or without
// its extension but must not contain a path.
func (s *Source) LoadFeed(ctx context.Context, replayID string) (telemetry.Feed, error) {
	if replayID == "" || filepath.Base(replayID) != replayID || replayID == "." || replayID == ".." {
		return telemetry.Feed{}, fmt.Errorf("%w: invalid replay id %q", storage.ErrReplayNotFound, replayID)
	}

	path, err := s.resolve(replayID)
	if err != nil {
		return telemetry.Feed{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return telemetry.Feed{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return telemetry.Feed{}, fmt.Errorf("opening gzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	feed, err := ReadFeed(r)
	if err != nil {
		return telemetry.Feed{}, fmt.Errorf("reading %s: %w", path, err)
	}
	s.logger.Info().Str("path", path).Int("rows", len(feed.Rows)).Msg("Loaded CSV feed")
	return feed, nil
}

func (s *Source) resolve(replayID string) (string, error) {
	candidates := []string{replayID}
	if !hasExtension(replayID) {
		candidates = candidates[:0]
		for _, ext := range extensions {
			candidates = append(candidates, replayID+ext)
		}
	}
	for _, name := range candidates {
		path := filepath.Join(s.dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", storage.ErrReplayNotFound, replayID, s.dir)
}

// ListReplays returns replay ids, without extension, sorted.
func (s *Source) ListReplays(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !hasExtension(e.Name()) {
			continue
		}
		ids = append(ids, trimExtension(e.Name()))
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadFeed parses a CSV table. The first record is the header. Blank lines
// are skipped and rows may have fewer cells than the header.
func ReadFeed(r io.Reader) (telemetry.Feed, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return telemetry.Feed{}, &telemetry.FormatError{Column: "header", Reason: "empty feed"}
	}
	if err != nil {
		return telemetry.Feed{}, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	feed := telemetry.Feed{Header: header}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return telemetry.Feed{}, err
		}
		feed.Rows = append(feed.Rows, row)
	}
	return feed, nil
}

func hasExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func trimExtension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range []string{".csv.gz", ".csv"} {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
