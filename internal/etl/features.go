package etl

import (
	"regexp"

	"github.com/ObservaLosRios/sii-empresas-etl/internal/tables"
)

var sectorCode = regexp.MustCompile(`^([A-Z])`)

// Size-category labels for the dependent-worker buckets
// [0,10] (10,50] (50,200] (200,inf).
const (
	SizeMicro   = "Micro"
	SizePequena = "Pequeña"
	SizeMediana = "Mediana"
	SizeGrande  = "Grande"
)

// FeatureEngineer derives analytic columns from the cleaned table. Every
// derivation is independent: missing prerequisite columns skip that
// derivation, and a zero denominator yields null, never infinity.
type FeatureEngineer struct{}

func (*FeatureEngineer) Name() string { return "engineer_features" }

func (fe *FeatureEngineer) Transform(t *tables.Table) (*tables.Table, error) {
	out := t.Clone()

	if out.HasColumn("renta_neta_uf") && out.HasColumn("numero_trabajadores_dependientes") {
		out.AddColumn(tables.ColSalarioPromedioUF)
		for _, row := range out.Rows {
			row[tables.ColSalarioPromedioUF] = safeDivide(row["renta_neta_uf"], row["numero_trabajadores_dependientes"])
		}
	}

	if out.HasColumn("numero_trabajadores_femenino") && out.HasColumn("numero_trabajadores_masculino") {
		out.AddColumn(tables.ColRatioFemenino)
		for _, row := range out.Rows {
			row[tables.ColRatioFemenino] = femaleRatio(row["numero_trabajadores_femenino"], row["numero_trabajadores_masculino"])
		}
	}

	if out.HasColumn("numero_trabajadores_dependientes") {
		out.AddColumn(tables.ColCategoriaEmpresa)
		for _, row := range out.Rows {
			row[tables.ColCategoriaEmpresa] = sizeCategory(row["numero_trabajadores_dependientes"])
		}
	}

	if out.HasColumn("rubro_economico") {
		out.AddColumn(tables.ColCodigoSector)
		for _, row := range out.Rows {
			row[tables.ColCodigoSector] = extractSectorCode(row["rubro_economico"])
		}
	}

	return out, nil
}

// safeDivide returns num/den as a float64 cell, or nil when either side is
// null or the denominator is zero.
func safeDivide(num, den any) any {
	n, ok := tables.AsFloat(num)
	if !ok {
		return nil
	}
	d, ok := tables.AsFloat(den)
	if !ok || d == 0 {
		return nil
	}
	return n / d
}

// femaleRatio computes female / (female + male). A null male count is
// treated as zero; a null female count or a zero denominator yields null.
func femaleRatio(female, male any) any {
	f, ok := tables.AsFloat(female)
	if !ok {
		return nil
	}
	m, _ := tables.AsFloat(male)
	den := f + m
	if den == 0 {
		return nil
	}
	return f / den
}

// sizeCategory buckets the dependent-worker count. Values below zero fall
// outside every bucket and yield null.
func sizeCategory(v any) any {
	n, ok := tables.AsFloat(v)
	if !ok || n < 0 {
		return nil
	}
	switch {
	case n <= 10:
		return SizeMicro
	case n <= 50:
		return SizePequena
	case n <= 200:
		return SizeMediana
	default:
		return SizeGrande
	}
}

// extractSectorCode pulls the leading sector letter from a description of
// the form "<code> - <description>".
func extractSectorCode(v any) any {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	match := sectorCode.FindString(s)
	if match == "" {
		return nil
	}
	return match
}
