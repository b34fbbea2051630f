// Package ingest loads per-second cycling recordings into session series.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dynbike/dynbike/schema"
)

// Errors returned while loading input files.
var (
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrNoSessions        = errors.New("input holds no sessions")
	ErrUnknownSession    = errors.New("session not found in input")
)

// Options controls how an input file is interpreted.
type Options struct {
	// SessionKey names the session of a single-session input such as a FIT file.
	// When empty, the key is derived from the file name.
	SessionKey string
}

// Load reads every session in the file at path. The format follows the file extension:
// .csv for combined raw or pre-cleaned tables and .fit for a single FIT activity.
func Load(path string, opts Options) ([]schema.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var series []schema.Series
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		series, err = ReadCSV(f)
	case ".fit":
		key := opts.SessionKey
		if key == "" {
			key = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		var s schema.Series
		s, err = ReadFIT(f, schema.ParseSessionKey(key))
		series = []schema.Series{s}
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSessions)
	}
	return series, nil
}

// Select returns the series whose key matches key. An empty key selects the only series
// of a single-session input.
func Select(series []schema.Series, key string) (schema.Series, error) {
	if key == "" {
		if len(series) == 1 {
			return series[0], nil
		}
		return schema.Series{}, fmt.Errorf("input holds %d sessions (%s); choose one with --session-key", len(series), strings.Join(Keys(series), ", "))
	}
	want := schema.ParseSessionKey(key).String()
	for _, s := range series {
		if s.Key.String() == want {
			return s, nil
		}
	}
	return schema.Series{}, fmt.Errorf("%s: %w", key, ErrUnknownSession)
}

// Keys lists the session keys in input order.
func Keys(series []schema.Series) []string {
	keys := make([]string, len(series))
	for i, s := range series {
		keys[i] = s.Key.String()
	}
	return keys
}
