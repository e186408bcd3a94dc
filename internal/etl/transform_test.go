package etl

import (
	"errors"
	"testing"

	"github.com/ObservaLosRios/sii-empresas-etl/internal/tables"
)

func TestColumnStandardizerRenamesMappedHeaders(t *testing.T) {
	bomYear := "\uFEFF" + "Año Comercial"
	in := tables.New([]string{bomYear, "Comuna del domicilio o casa matriz", "custom"})
	in.Rows = []tables.Row{{
		bomYear:                              "2022",
		"Comuna del domicilio o casa matriz": "VALDIVIA",
		"custom":                             "x",
	}}

	out, err := (&ColumnStandardizer{}).Transform(in)
	if err != nil {
		t.Fatal(err)
	}
	if !out.HasColumn("año_comercial") || !out.HasColumn("comuna") {
		t.Errorf("columns = %v", out.Columns)
	}
	if !out.HasColumn("custom") {
		t.Error("unmapped column should pass through")
	}
	if out.Rows[0]["año_comercial"] != "2022" {
		t.Errorf("year cell = %v", out.Rows[0]["año_comercial"])
	}
}

func TestTypeConverterCoercesNumericsAndYear(t *testing.T) {
	in := tables.New([]string{"año_comercial", "numero_empresas", "comuna"})
	in.Rows = []tables.Row{
		{"año_comercial": "2022", "numero_empresas": "1.234", "comuna": "  VALDIVIA  "},
		{"año_comercial": "2023", "numero_empresas": "*", "comuna": "nan"},
		{"año_comercial": nil, "numero_empresas": nil, "comuna": nil},
	}

	tc := &TypeConverter{Parser: tables.NewNumericParser(",", ".")}
	out, err := tc.Transform(in)
	if err != nil {
		t.Fatal(err)
	}

	if out.Rows[0]["año_comercial"] != int64(2022) {
		t.Errorf("year = %v (%T)", out.Rows[0]["año_comercial"], out.Rows[0]["año_comercial"])
	}
	if out.Rows[0]["numero_empresas"] != float64(1234) {
		t.Errorf("numero_empresas = %v", out.Rows[0]["numero_empresas"])
	}
	// The unknown marker converts to null, never to zero.
	if out.Rows[1]["numero_empresas"] != nil {
		t.Errorf("unknown marker = %v, want nil", out.Rows[1]["numero_empresas"])
	}
	if out.Rows[0]["comuna"] != "VALDIVIA" {
		t.Errorf("comuna = %q", out.Rows[0]["comuna"])
	}
	if out.Rows[1]["comuna"] != nil {
		t.Errorf("nan comuna = %v, want nil", out.Rows[1]["comuna"])
	}
}

func TestCleanerDropsEmptyAndKeylessRows(t *testing.T) {
	in := tables.New([]string{"comuna", "numero_empresas"})
	in.Rows = []tables.Row{
		{"comuna": "VALDIVIA", "numero_empresas": float64(5)},
		{"comuna": nil, "numero_empresas": nil},          // fully empty
		{"comuna": nil, "numero_empresas": float64(3)},   // no key fields
		{"comuna": "*", "numero_empresas": float64(2)},   // marker nulls the only key
		{"comuna": "LA  UNION ", "numero_empresas": nil}, // kept, whitespace collapsed
	}

	out, err := (&Cleaner{}).Transform(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("rows after clean = %d, want 2", len(out.Rows))
	}
	if out.Rows[1]["comuna"] != "LA UNION" {
		t.Errorf("whitespace not normalized: %q", out.Rows[1]["comuna"])
	}
}

func TestCleanerIsIdempotent(t *testing.T) {
	in := tables.New([]string{"comuna", "numero_empresas"})
	in.Rows = []tables.Row{
		{"comuna": "OSORNO", "numero_empresas": float64(1)},
		{"comuna": "*", "numero_empresas": nil},
	}

	c := &Cleaner{}
	once, err := c.Transform(in)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := c.Transform(once)
	if err != nil {
		t.Fatal(err)
	}
	if len(once.Rows) != len(twice.Rows) {
		t.Errorf("second pass changed row count: %d vs %d", len(once.Rows), len(twice.Rows))
	}
}

func TestCleanerNeverAddsRows(t *testing.T) {
	in := tables.New([]string{"comuna"})
	for _, comuna := range []string{"A", "B", "*", "C"} {
		in.Rows = append(in.Rows, tables.Row{"comuna": comuna})
	}
	out, err := (&Cleaner{}).Transform(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Rows) > len(in.Rows) {
		t.Errorf("cleaner grew the table: %d > %d", len(out.Rows), len(in.Rows))
	}
}

func TestFeatureEngineerDerivations(t *testing.T) {
	in := tables.New([]string{
		"renta_neta_uf", "numero_trabajadores_dependientes",
		"numero_trabajadores_femenino", "numero_trabajadores_masculino",
		"rubro_economico",
	})
	in.Rows = []tables.Row{
		{
			"renta_neta_uf":                    float64(1000),
			"numero_trabajadores_dependientes": float64(20),
			"numero_trabajadores_femenino":     float64(6),
			"numero_trabajadores_masculino":    float64(4),
			"rubro_economico":                  "A - Agricultura, ganadería",
		},
		{
			"renta_neta_uf":                    float64(500),
			"numero_trabajadores_dependientes": float64(0), // zero denominator
			"numero_trabajadores_femenino":     float64(3),
			"numero_trabajadores_masculino":    nil, // null treated as zero
			"rubro_economico":                  "sin clasificar",
		},
		{
			"renta_neta_uf":                    nil,
			"numero_trabajadores_dependientes": float64(300),
			"numero_trabajadores_femenino":     nil,
			"numero_trabajadores_masculino":    float64(5),
			"rubro_economico":                  nil,
		},
	}

	out, err := (&FeatureEngineer{}).Transform(in)
	if err != nil {
		t.Fatal(err)
	}

	if got := out.Rows[0][tables.ColSalarioPromedioUF]; got != float64(50) {
		t.Errorf("salario_promedio_uf = %v, want 50", got)
	}
	if got := out.Rows[1][tables.ColSalarioPromedioUF]; got != nil {
		t.Errorf("zero denominator salary = %v, want nil", got)
	}
	if got := out.Rows[2][tables.ColSalarioPromedioUF]; got != nil {
		t.Errorf("null numerator salary = %v, want nil", got)
	}

	if got := out.Rows[0][tables.ColRatioFemenino]; got != float64(0.6) {
		t.Errorf("ratio_femenino = %v, want 0.6", got)
	}
	if got := out.Rows[1][tables.ColRatioFemenino]; got != float64(1) {
		t.Errorf("ratio with null male count = %v, want 1", got)
	}
	if got := out.Rows[2][tables.ColRatioFemenino]; got != nil {
		t.Errorf("ratio with null female count = %v, want nil", got)
	}

	if got := out.Rows[0][tables.ColCategoriaEmpresa]; got != SizePequena {
		t.Errorf("categoria for 20 workers = %v, want %s", got, SizePequena)
	}
	if got := out.Rows[1][tables.ColCategoriaEmpresa]; got != SizeMicro {
		t.Errorf("categoria for 0 workers = %v, want %s", got, SizeMicro)
	}
	if got := out.Rows[2][tables.ColCategoriaEmpresa]; got != SizeGrande {
		t.Errorf("categoria for 300 workers = %v, want %s", got, SizeGrande)
	}

	if got := out.Rows[0][tables.ColCodigoSector]; got != "A" {
		t.Errorf("codigo_sector = %v, want A", got)
	}
	if got := out.Rows[1][tables.ColCodigoSector]; got != nil {
		t.Errorf("lowercase rubro sector = %v, want nil", got)
	}
	if got := out.Rows[2][tables.ColCodigoSector]; got != nil {
		t.Errorf("null rubro sector = %v, want nil", got)
	}
}

func TestSizeCategoryBoundaries(t *testing.T) {
	cases := []struct {
		workers float64
		want    any
	}{
		{0, SizeMicro},
		{10, SizeMicro},
		{11, SizePequena},
		{50, SizePequena},
		{51, SizeMediana},
		{200, SizeMediana},
		{201, SizeGrande},
	}
	for _, c := range cases {
		if got := sizeCategory(c.workers); got != c.want {
			t.Errorf("sizeCategory(%v) = %v, want %v", c.workers, got, c.want)
		}
	}
	if got := sizeCategory(float64(-1)); got != nil {
		t.Errorf("negative workers = %v, want nil", got)
	}
	if got := sizeCategory(nil); got != nil {
		t.Errorf("null workers = %v, want nil", got)
	}
}

func TestChainRecordsStageError(t *testing.T) {
	meta := NewRunMetadata()
	chain := NewChain(failingStage{}).WithMetadata(meta)

	_, err := chain.Run(tables.New([]string{"a"}))
	if err == nil {
		t.Fatal("expected stage error to propagate")
	}
	if len(meta.Errors) != 1 {
		t.Errorf("metadata errors = %v", meta.Errors)
	}
}

type failingStage struct{}

func (failingStage) Name() string { return "boom" }
func (failingStage) Transform(*tables.Table) (*tables.Table, error) {
	return nil, errors.New("stage exploded")
}
