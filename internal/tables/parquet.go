package tables

// EmpresaRow is the parquet row shape for a processed (year, commune,
// sector) observation. Every field is optional: upstream cleaning
// guarantees the key fields are present, but the parquet schema mirrors
// the nullable table model one to one.
type EmpresaRow struct {
	AñoComercial   *int64  `parquet:"año_comercial,optional"`
	Comuna         *string `parquet:"comuna,optional"`
	Provincia      *string `parquet:"provincia,optional"`
	Region         *string `parquet:"region,optional"`
	RubroEconomico *string `parquet:"rubro_economico,optional"`

	NumeroEmpresas                 *float64 `parquet:"numero_empresas,optional"`
	VentasAnualesUF                *float64 `parquet:"ventas_anuales_uf,optional"`
	NumeroTrabajadoresDependientes *float64 `parquet:"numero_trabajadores_dependientes,optional"`
	RentaNetaUF                    *float64 `parquet:"renta_neta_uf,optional"`
	TrabajadoresPonderadosMeses    *float64 `parquet:"trabajadores_ponderados_meses,optional"`

	NumeroTrabajadoresFemenino     *float64 `parquet:"numero_trabajadores_femenino,optional"`
	RentaNetaFemeninoUF            *float64 `parquet:"renta_neta_femenino_uf,optional"`
	TrabajadoresFemeninoPonderados *float64 `parquet:"trabajadores_femenino_ponderados,optional"`

	NumeroTrabajadoresMasculino     *float64 `parquet:"numero_trabajadores_masculino,optional"`
	RentaNetaMasculinoUF            *float64 `parquet:"renta_neta_masculino_uf,optional"`
	TrabajadoresMasculinoPonderados *float64 `parquet:"trabajadores_masculino_ponderados,optional"`

	NumeroTrabajadoresHonorarios     *float64 `parquet:"numero_trabajadores_honorarios,optional"`
	HonorariosPagadosUF              *float64 `parquet:"honorarios_pagados_uf,optional"`
	TrabajadoresHonorariosPonderados *float64 `parquet:"trabajadores_honorarios_ponderados,optional"`

	NumeroTrabajadoresHonorariosFemenino     *float64 `parquet:"numero_trabajadores_honorarios_femenino,optional"`
	HonorariosFemeninoUF                     *float64 `parquet:"honorarios_femenino_uf,optional"`
	TrabajadoresHonorariosFemeninoPonderados *float64 `parquet:"trabajadores_honorarios_femenino_ponderados,optional"`

	NumeroTrabajadoresHonorariosMasculino     *float64 `parquet:"numero_trabajadores_honorarios_masculino,optional"`
	HonorariosMasculinoUF                     *float64 `parquet:"honorarios_masculino_uf,optional"`
	TrabajadoresHonorariosMasculinoPonderados *float64 `parquet:"trabajadores_honorarios_masculino_ponderados,optional"`

	SalarioPromedioUF *float64 `parquet:"salario_promedio_uf,optional"`
	RatioFemenino     *float64 `parquet:"ratio_femenino,optional"`
	CategoriaEmpresa  *string  `parquet:"categoria_empresa,optional"`
	CodigoSector      *string  `parquet:"codigo_sector,optional"`
}

// numericFieldByColumn maps canonical column names to setters on
// EmpresaRow, so RowsFromTable stays a single loop instead of a 24-way
// switch per row.
var numericFieldByColumn = map[string]func(*EmpresaRow, *float64){
	"numero_empresas":                              func(r *EmpresaRow, v *float64) { r.NumeroEmpresas = v },
	"ventas_anuales_uf":                            func(r *EmpresaRow, v *float64) { r.VentasAnualesUF = v },
	"numero_trabajadores_dependientes":             func(r *EmpresaRow, v *float64) { r.NumeroTrabajadoresDependientes = v },
	"renta_neta_uf":                                func(r *EmpresaRow, v *float64) { r.RentaNetaUF = v },
	"trabajadores_ponderados_meses":                func(r *EmpresaRow, v *float64) { r.TrabajadoresPonderadosMeses = v },
	"numero_trabajadores_femenino":                 func(r *EmpresaRow, v *float64) { r.NumeroTrabajadoresFemenino = v },
	"renta_neta_femenino_uf":                       func(r *EmpresaRow, v *float64) { r.RentaNetaFemeninoUF = v },
	"trabajadores_femenino_ponderados":             func(r *EmpresaRow, v *float64) { r.TrabajadoresFemeninoPonderados = v },
	"numero_trabajadores_masculino":                func(r *EmpresaRow, v *float64) { r.NumeroTrabajadoresMasculino = v },
	"renta_neta_masculino_uf":                      func(r *EmpresaRow, v *float64) { r.RentaNetaMasculinoUF = v },
	"trabajadores_masculino_ponderados":            func(r *EmpresaRow, v *float64) { r.TrabajadoresMasculinoPonderados = v },
	"numero_trabajadores_honorarios":               func(r *EmpresaRow, v *float64) { r.NumeroTrabajadoresHonorarios = v },
	"honorarios_pagados_uf":                        func(r *EmpresaRow, v *float64) { r.HonorariosPagadosUF = v },
	"trabajadores_honorarios_ponderados":           func(r *EmpresaRow, v *float64) { r.TrabajadoresHonorariosPonderados = v },
	"numero_trabajadores_honorarios_femenino":      func(r *EmpresaRow, v *float64) { r.NumeroTrabajadoresHonorariosFemenino = v },
	"honorarios_femenino_uf":                       func(r *EmpresaRow, v *float64) { r.HonorariosFemeninoUF = v },
	"trabajadores_honorarios_femenino_ponderados":  func(r *EmpresaRow, v *float64) { r.TrabajadoresHonorariosFemeninoPonderados = v },
	"numero_trabajadores_honorarios_masculino":     func(r *EmpresaRow, v *float64) { r.NumeroTrabajadoresHonorariosMasculino = v },
	"honorarios_masculino_uf":                      func(r *EmpresaRow, v *float64) { r.HonorariosMasculinoUF = v },
	"trabajadores_honorarios_masculino_ponderados": func(r *EmpresaRow, v *float64) { r.TrabajadoresHonorariosMasculinoPonderados = v },
	ColSalarioPromedioUF:                           func(r *EmpresaRow, v *float64) { r.SalarioPromedioUF = v },
	ColRatioFemenino:                               func(r *EmpresaRow, v *float64) { r.RatioFemenino = v },
}

var textFieldByColumn = map[string]func(*EmpresaRow, *string){
	"comuna":            func(r *EmpresaRow, v *string) { r.Comuna = v },
	"provincia":         func(r *EmpresaRow, v *string) { r.Provincia = v },
	"region":            func(r *EmpresaRow, v *string) { r.Region = v },
	"rubro_economico":   func(r *EmpresaRow, v *string) { r.RubroEconomico = v },
	ColCategoriaEmpresa: func(r *EmpresaRow, v *string) { r.CategoriaEmpresa = v },
	ColCodigoSector:     func(r *EmpresaRow, v *string) { r.CodigoSector = v },
}

// RowsFromTable maps a table onto the parquet row shape. Columns outside
// the canonical and derived set are not representable in the fixed parquet
// schema and are skipped.
func RowsFromTable(t *Table) []EmpresaRow {
	out := make([]EmpresaRow, len(t.Rows))
	for i, row := range t.Rows {
		er := &out[i]

		if v, ok := row[YearColumn]; ok && v != nil {
			switch y := v.(type) {
			case int64:
				er.AñoComercial = &y
			case float64:
				n := int64(y)
				er.AñoComercial = &n
			}
		}

		for col, set := range textFieldByColumn {
			if v, ok := row[col]; ok && v != nil {
				if s, ok := v.(string); ok {
					set(er, &s)
				}
			}
		}

		for col, set := range numericFieldByColumn {
			if v, ok := row[col]; ok && v != nil {
				if f, ok := AsFloat(v); ok {
					set(er, &f)
				}
			}
		}
	}
	return out
}
