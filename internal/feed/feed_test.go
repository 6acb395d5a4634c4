package feed

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const sampleCSV = `id,date,value
A-B,2025-01-10-23,"{""todayWin"":{""A"":2,""B"":1},""totalWin"":{""A"":10,""B"":5}}"
A-B,2025-01-11-02,"{""todayWin"":{""A"":1,""B"":0},""totalWin"":{""A"":13,""B"":6}}"
,2025-01-12,
`

func TestParseCSV(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Date != "2025-01-10-23" || rows[0].ID != "A-B" {
		t.Errorf("row 0: %+v", rows[0])
	}
	if !strings.Contains(rows[1].Value, `"totalWin":{"A":13`) {
		t.Errorf("row 1 value not unquoted: %s", rows[1].Value)
	}
	if rows[2].Value != "" {
		t.Errorf("row 2: expected empty value, got %q", rows[2].Value)
	}
}

func TestParseCSV_ColumnOrderAndMissingID(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader("value,date\n{},2025-02-01\n"))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(rows) != 1 || rows[0].Date != "2025-02-01" || rows[0].Value != "{}" || rows[0].ID != "" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestParseCSV_MissingValueColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("id,date\nx,2025-01-01\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn, got %v", err)
	}
}

func TestParseCSV_Empty(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(""))
	if err != nil || len(rows) != 0 {
		t.Errorf("expected no rows and no error, got %d rows, err=%v", len(rows), err)
	}
}

func TestHTTPSource_Plain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	rows, err := NewHTTPSource(srv.URL, 5*time.Second).Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(rows))
	}
}

func TestHTTPSource_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte(sampleCSV))
	gz.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") != "gzip" {
			t.Errorf("expected gzip to be accepted, got %q", r.Header.Get("Accept-Encoding"))
		}
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	rows, err := NewHTTPSource(srv.URL, 5*time.Second).Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(rows))
	}
}

func TestHTTPSource_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, 5*time.Second).Rows(context.Background())
	if err == nil || !strings.Contains(err.Error(), "HTTP 503") {
		t.Errorf("expected HTTP 503 error, got %v", err)
	}
}

func TestHTTPSource_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHTTPSource(srv.URL, 5*time.Second).Rows(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "feed.csv")
	if err := os.WriteFile(plain, []byte(sampleCSV), 0644); err != nil {
		t.Fatal(err)
	}

	var gzBuf bytes.Buffer
	gz := gzip.NewWriter(&gzBuf)
	gz.Write([]byte(sampleCSV))
	gz.Close()
	gzPath := filepath.Join(dir, "feed.csv.gz")
	if err := os.WriteFile(gzPath, gzBuf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	zstPath := filepath.Join(dir, "feed.csv.zst")
	if err := os.WriteFile(zstPath, enc.EncodeAll([]byte(sampleCSV), nil), 0644); err != nil {
		t.Fatal(err)
	}
	enc.Close()

	for _, path := range []string{plain, gzPath, zstPath} {
		rows, err := FileSource{Path: path}.Rows(context.Background())
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if len(rows) != 3 {
			t.Errorf("%s: expected 3 rows, got %d", path, len(rows))
		}
	}

	if _, err := (FileSource{Path: filepath.Join(dir, "missing.csv")}).Rows(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteSnapshotRoundTrip(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	dir := t.TempDir()
	for _, name := range []string{"snap.csv", "snap.csv.gz", filepath.Join("nested", "snap.csv.zst")} {
		path := filepath.Join(dir, name)
		if err := WriteSnapshot(path, rows); err != nil {
			t.Fatalf("WriteSnapshot(%s): %v", name, err)
		}
		got, err := FileSource{Path: path}.Rows(context.Background())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(got) != len(rows) {
			t.Fatalf("%s: %d rows, want %d", name, len(got), len(rows))
		}
		for i := range rows {
			if got[i] != rows[i] {
				t.Errorf("%s row %d = %+v, want %+v", name, i, got[i], rows[i])
			}
		}
	}
}
