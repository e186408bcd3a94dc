package etl

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/parquet-go/parquet-go"

	"github.com/ObservaLosRios/sii-empresas-etl/internal/config"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/storage"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/tables"
)

func loadFixture() *tables.Table {
	t := tables.New([]string{"año_comercial", "comuna", "ventas_anuales_uf"})
	t.Rows = []tables.Row{
		{"año_comercial": int64(2022), "comuna": "VALDIVIA", "ventas_anuales_uf": float64(1500.5)},
		{"año_comercial": int64(2023), "comuna": "OSORNO", "ventas_anuales_uf": nil},
	}
	return t
}

func TestLoadAllWritesCSVAndManifest(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	meta := NewRunMetadata()

	results, err := NewLoader(store, meta).LoadAll(context.Background(), loadFixture(), []config.Destination{
		{Name: "main", Format: "csv", Path: "out/data.csv"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !results["main"] {
		t.Fatalf("results = %v", results)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "data.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv lines = %d:\n%s", len(lines), data)
	}
	if lines[0] != "año_comercial,comuna,ventas_anuales_uf" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "2023,OSORNO," {
		t.Errorf("null cell not empty: %q", lines[2])
	}

	manifest, err := os.ReadFile(filepath.Join(dir, "out", "data.csv.manifest.json"))
	if err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	if !strings.Contains(string(manifest), `"row_count": 2`) {
		t.Errorf("manifest = %s", manifest)
	}
	if !storage.VerifyChecksum(data, extractChecksum(t, manifest)) {
		t.Error("manifest checksum does not match written file")
	}
}

func extractChecksum(t *testing.T, manifest []byte) string {
	t.Helper()
	const marker = `"checksum": "`
	idx := strings.Index(string(manifest), marker)
	if idx < 0 {
		t.Fatalf("no checksum in manifest: %s", manifest)
	}
	rest := string(manifest)[idx+len(marker):]
	return rest[:strings.Index(rest, `"`)]
}

func TestLoadAllIsolatesDestinationFailure(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the bad destination needs a directory.
	if err := os.WriteFile(filepath.Join(dir, "blocked"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewLocalStore(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	meta := NewRunMetadata()

	results, err := NewLoader(store, meta).LoadAll(context.Background(), loadFixture(), []config.Destination{
		{Name: "bad", Format: "csv", Path: "blocked/out.csv"},
		{Name: "good", Format: "csv", Path: "out.csv"},
	})
	if err != nil {
		t.Fatalf("LoadAll should not fail for a single destination: %v", err)
	}
	if results["bad"] || !results["good"] {
		t.Errorf("results = %v", results)
	}
	if len(meta.Errors) != 1 || !strings.Contains(meta.Errors[0], "load bad") {
		t.Errorf("metadata errors = %v", meta.Errors)
	}
}

func TestEncodeCSVGzip(t *testing.T) {
	tbl := loadFixture()
	plain, err := encodeCSV(tbl, config.Destination{Format: "csv"})
	if err != nil {
		t.Fatal(err)
	}
	compressed, err := encodeCSV(tbl, config.Destination{Format: "csv", Compression: "gzip"})
	if err != nil {
		t.Fatal(err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatal(err)
	}
	defer gz.Close()
	inflated, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(inflated, plain) {
		t.Error("gzip roundtrip does not match plain encoding")
	}
}

func TestEncodeParquetRoundtrip(t *testing.T) {
	data, err := encodeParquet(loadFixture(), config.Destination{Format: "parquet"})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := parquet.Read[tables.EmpresaRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Comuna == nil || *rows[0].Comuna != "VALDIVIA" {
		t.Errorf("comuna = %v", rows[0].Comuna)
	}
	if rows[0].AñoComercial == nil || *rows[0].AñoComercial != 2022 {
		t.Errorf("año = %v", rows[0].AñoComercial)
	}
	if rows[1].VentasAnualesUF != nil {
		t.Errorf("null cell survived as %v", *rows[1].VentasAnualesUF)
	}
}

func TestEncodeParquetEmptyTable(t *testing.T) {
	empty := tables.New([]string{"comuna"})
	data, err := encodeParquet(empty, config.Destination{Format: "parquet"})
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("empty table should still produce a valid parquet file")
	}
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	meta := NewRunMetadata()

	results, err := NewLoader(store, meta).LoadAll(context.Background(), loadFixture(), []config.Destination{
		{Name: "x", Format: "xml", Path: "out.xml"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if results["x"] {
		t.Error("unsupported format should fail the destination")
	}
}
