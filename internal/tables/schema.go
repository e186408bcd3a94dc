package tables

// ColumnMapping maps SII source column headers to canonical snake_case
// field names. Only headers present here are renamed; anything else passes
// through untouched.
var ColumnMapping = map[string]string{
	"Año Comercial":                                                                 "año_comercial",
	"Comuna del domicilio o casa matriz":                                            "comuna",
	"Provincia del domicilio o casa matriz":                                         "provincia",
	"Region del domicilio o casa matriz":                                            "region",
	"Rubro economico":                                                               "rubro_economico",
	"Número de empresas":                                                            "numero_empresas",
	"Ventas anuales en UF":                                                          "ventas_anuales_uf",
	"Número de trabajadores dependientes informados":                                "numero_trabajadores_dependientes",
	"Renta neta informada en UF":                                                    "renta_neta_uf",
	"Trabajadores ponderados por meses trabajados":                                  "trabajadores_ponderados_meses",
	"Número de trabajadores dependientes de género femenino informados":             "numero_trabajadores_femenino",
	"Renta neta informada en UF, trabajadores de género femenino":                   "renta_neta_femenino_uf",
	"Trabajadores de género femenino ponderados por meses trabajados":               "trabajadores_femenino_ponderados",
	"Número de trabajadores dependientes de género masculino informados":            "numero_trabajadores_masculino",
	"Renta neta informada en UF, trabajadores de género masculino":                  "renta_neta_masculino_uf",
	"Trabajadores de género masculino ponderados por meses trabajados":              "trabajadores_masculino_ponderados",
	"Número de trabajadores a honorarios informados":                                "numero_trabajadores_honorarios",
	"Honorarios pagados informados en UF":                                           "honorarios_pagados_uf",
	"Trabajadores a honorarios ponderados por meses trabajados":                     "trabajadores_honorarios_ponderados",
	"Número de trabajadores a honorarios de género femenino informados":             "numero_trabajadores_honorarios_femenino",
	"Honorarios pagados informados a trabajadores de género femenino en UF":         "honorarios_femenino_uf",
	"Trabajadores a honorarios de género femenino ponderados por meses trabajados":  "trabajadores_honorarios_femenino_ponderados",
	"Número de trabajadores a honorarios de género masculino informados":            "numero_trabajadores_honorarios_masculino",
	"Honorarios pagados informados a trabajadores de género masculino en UF":        "honorarios_masculino_uf",
	"Trabajadores a honorarios de género masculino ponderados por meses trabajados": "trabajadores_honorarios_masculino_ponderados",
}

// YearColumn is the commercial-year column.
const YearColumn = "año_comercial"

// NumericColumns are coerced to float64 by the type-conversion stage.
var NumericColumns = []string{
	"numero_empresas", "ventas_anuales_uf", "numero_trabajadores_dependientes",
	"renta_neta_uf", "trabajadores_ponderados_meses", "numero_trabajadores_femenino",
	"renta_neta_femenino_uf", "trabajadores_femenino_ponderados",
	"numero_trabajadores_masculino", "renta_neta_masculino_uf",
	"trabajadores_masculino_ponderados", "numero_trabajadores_honorarios",
	"honorarios_pagados_uf", "trabajadores_honorarios_ponderados",
	"numero_trabajadores_honorarios_femenino", "honorarios_femenino_uf",
	"trabajadores_honorarios_femenino_ponderados",
	"numero_trabajadores_honorarios_masculino", "honorarios_masculino_uf",
	"trabajadores_honorarios_masculino_ponderados",
}

// CategoricalColumns are the geography and sector key fields.
var CategoricalColumns = []string{"comuna", "provincia", "region", "rubro_economico"}

// RequiredFields must not be empty after cleaning. A row is dropped only
// when all of them are null.
var RequiredFields = CategoricalColumns

// ExpectedColumns is the canonical column set checked by the schema
// validator.
var ExpectedColumns = []string{
	"año_comercial", "comuna", "provincia", "region", "rubro_economico",
	"numero_empresas", "ventas_anuales_uf", "numero_trabajadores_dependientes",
	"renta_neta_uf", "trabajadores_ponderados_meses",
}

// Derived column names produced by feature engineering.
const (
	ColSalarioPromedioUF = "salario_promedio_uf"
	ColRatioFemenino     = "ratio_femenino"
	ColCategoriaEmpresa  = "categoria_empresa"
	ColCodigoSector      = "codigo_sector"
)
