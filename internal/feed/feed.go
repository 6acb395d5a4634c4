// Package feed reads the raw session log, either over HTTP from the published
// CSV export or from a local snapshot file.
package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/lcrespin/towerstats/internal/model"
)

// ErrMissingColumn is returned when the CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Source yields the raw rows of the session log.
type Source interface {
	Rows(ctx context.Context) ([]model.RawRow, error)
}

// HTTPSource fetches the log with a single GET.
type HTTPSource struct {
	URL  string
	http *http.Client
}

// NewHTTPSource returns a source reading url with the given request timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		URL:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Rows performs the GET and parses the CSV body.
func (s *HTTPSource) Rows(ctx context.Context) ([]model.RawRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	// Setting the header ourselves disables the transport's transparent
	// decompression, so the body is decoded below.
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept", "text/csv")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", s.URL, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		defer gz.Close()
		body = gz
	}
	return ParseCSV(body)
}

// FileSource reads a local snapshot. Files ending in .gz or .zst are
// decompressed; anything else is read as plain CSV.
type FileSource struct {
	Path string
}

// Rows reads and parses the file.
func (s FileSource) Rows(_ context.Context) ([]model.RawRow, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open feed file: %w", err)
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(s.Path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", s.Path, err)
		}
		defer gz.Close()
		return ParseCSV(gz)
	case strings.HasSuffix(s.Path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", s.Path, err)
		}
		defer dec.Close()
		return ParseCSV(dec)
	default:
		return ParseCSV(f)
	}
}

// ParseCSV reads a CSV document whose header names the id, date and value
// columns (in any order). Rows are returned as-is; empty values are left for
// the builder to skip.
func ParseCSV(r io.Reader) ([]model.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{"id": -1, "date": -1, "value": -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := idx[name]; ok {
			idx[name] = i
		}
	}
	for _, col := range []string{"date", "value"} {
		if idx[col] < 0 {
			return nil, fmt.Errorf("%w %q in header %v", ErrMissingColumn, col, header)
		}
	}

	var rows []model.RawRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, model.RawRow{
			ID:    field(rec, idx["id"]),
			Date:  strings.TrimSpace(field(rec, idx["date"])),
			Value: field(rec, idx["value"]),
		})
	}
	return rows, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// WriteSnapshot stores rows as CSV at path, compressed according to the
// extension the same way FileSource reads it back.
func WriteSnapshot(path string, rows []model.RawRow) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz := gzip.NewWriter(f)
		defer func() {
			if cerr := gz.Close(); err == nil {
				err = cerr
			}
		}()
		w = gz
	case strings.HasSuffix(path, ".zst"):
		enc, zerr := zstd.NewWriter(f)
		if zerr != nil {
			return fmt.Errorf("zstd %s: %w", path, zerr)
		}
		defer func() {
			if cerr := enc.Close(); err == nil {
				err = cerr
			}
		}()
		w = enc
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "date", "value"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.ID, r.Date, r.Value}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
