package etl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.csv")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCSVExtractorStripsBOM(t *testing.T) {
	src := writeSource(t, []byte("\uFEFF"+"Año Comercial,Comuna\n2022,VALDIVIA\n"))

	e := NewCSVExtractor(ExtractorOptions{Encoding: "utf-8"})
	tbl, err := e.Extract(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Columns[0] != "Año Comercial" {
		t.Errorf("first column = %q, BOM not stripped", tbl.Columns[0])
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("rows = %d", len(tbl.Rows))
	}
}

func TestCSVExtractorEmptyCellsAreNull(t *testing.T) {
	src := writeSource(t, []byte("a,b,c\n1,,3\n"))

	e := NewCSVExtractor(ExtractorOptions{})
	tbl, err := e.Extract(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	row := tbl.Rows[0]
	if row["a"] != "1" || row["b"] != nil || row["c"] != "3" {
		t.Errorf("row = %v", row)
	}
}

func TestCSVExtractorLatin1(t *testing.T) {
	// One column, one row holding "año" with the ñ encoded as latin-1 0xF1.
	src := writeSource(t, []byte{'c', 'o', 'l', '\n', 'a', 0xF1, 'o', '\n'})

	e := NewCSVExtractor(ExtractorOptions{Encoding: "latin-1"})
	tbl, err := e.Extract(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Rows[0]["col"] != "año" {
		t.Errorf("decoded value = %q", tbl.Rows[0]["col"])
	}
}

func TestCSVExtractorCustomDelimiter(t *testing.T) {
	src := writeSource(t, []byte("a;b\n1;2\n"))

	e := NewCSVExtractor(ExtractorOptions{Delimiter: ";"})
	tbl, err := e.Extract(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Columns) != 2 || tbl.Rows[0]["b"] != "2" {
		t.Errorf("columns = %v, row = %v", tbl.Columns, tbl.Rows[0])
	}
}

func TestCSVExtractorMissingFile(t *testing.T) {
	e := NewCSVExtractor(ExtractorOptions{})
	if _, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestCSVExtractorUnsupportedEncoding(t *testing.T) {
	src := writeSource(t, []byte("a\n1\n"))
	e := NewCSVExtractor(ExtractorOptions{Encoding: "ebcdic"})
	if _, err := e.Extract(context.Background(), src); err == nil {
		t.Error("expected error for unsupported encoding")
	}
}

func TestNewExtractorRejectsUnknownKind(t *testing.T) {
	_, err := NewExtractor("xml", ExtractorOptions{})
	if !errors.Is(err, ErrUnsupportedSource) {
		t.Errorf("err = %v, want ErrUnsupportedSource", err)
	}
}
