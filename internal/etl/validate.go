package etl

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ObservaLosRios/sii-empresas-etl/internal/logging"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/metrics"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/tables"
)

// Validator inspects a table and reports findings. Validators never modify
// the table and never abort the run; a returned error is absorbed into the
// report as an issue.
type Validator interface {
	Name() string
	Validate(t *tables.Table) (Result, error)
}

// Result is one validator's verdict.
type Result struct {
	Validator string
	Passed    bool
	Issues    []string
	Details   any
}

// SchemaDetails describes the schema delta against the canonical column
// set.
type SchemaDetails struct {
	Missing []string `json:"missing_columns"`
	Extra   []string `json:"extra_columns"`
}

// QualityDetails carries the per-column null ratios and duplicate count.
type QualityDetails struct {
	NullRatios    map[string]float64 `json:"null_ratios"`
	DuplicateRows int                `json:"duplicate_rows"`
}

// BusinessDetails carries domain-rule violations.
type BusinessDetails struct {
	InvalidYears   []int64        `json:"invalid_years"`
	NegativeValues map[string]int `json:"negative_values"`
	EmptyRequired  map[string]int `json:"empty_required"`
}

// SchemaValidator checks the table against the canonical column set.
type SchemaValidator struct{}

func (*SchemaValidator) Name() string { return "schema" }

func (*SchemaValidator) Validate(t *tables.Table) (Result, error) {
	present := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = true
	}
	expected := make(map[string]bool, len(tables.ExpectedColumns))
	for _, c := range tables.ExpectedColumns {
		expected[c] = true
	}

	var details SchemaDetails
	for _, c := range tables.ExpectedColumns {
		if !present[c] {
			details.Missing = append(details.Missing, c)
		}
	}
	for _, c := range t.Columns {
		if !expected[c] {
			details.Extra = append(details.Extra, c)
		}
	}

	res := Result{Validator: "schema", Passed: true, Details: details}
	if len(details.Missing) > 0 {
		res.Passed = false
		res.Issues = append(res.Issues,
			fmt.Sprintf("missing columns: %s", strings.Join(details.Missing, ", ")))
	}
	if len(details.Extra) > 0 {
		res.Passed = false
		res.Issues = append(res.Issues,
			fmt.Sprintf("extra columns: %s", strings.Join(details.Extra, ", ")))
	}
	return res, nil
}

// QualityValidator flags columns whose null ratio exceeds the threshold and
// counts duplicate rows.
type QualityValidator struct {
	MaxNullRatio float64
}

func (*QualityValidator) Name() string { return "quality" }

func (v *QualityValidator) Validate(t *tables.Table) (Result, error) {
	details := QualityDetails{NullRatios: make(map[string]float64, len(t.Columns))}
	res := Result{Validator: "quality", Passed: true}

	if len(t.Rows) == 0 {
		res.Passed = false
		res.Issues = append(res.Issues, "table is empty")
		res.Details = details
		return res, nil
	}

	for _, col := range t.Columns {
		details.NullRatios[col] = float64(t.NullsInColumn(col)) / float64(len(t.Rows))
	}
	details.DuplicateRows = t.DuplicateRows()

	for _, col := range tables.SortedKeys(details.NullRatios) {
		if ratio := details.NullRatios[col]; ratio > v.MaxNullRatio {
			res.Passed = false
			res.Issues = append(res.Issues,
				fmt.Sprintf("column %s is %.1f%% null (threshold %.1f%%)",
					col, ratio*100, v.MaxNullRatio*100))
		}
	}
	if details.DuplicateRows > 0 {
		res.Passed = false
		res.Issues = append(res.Issues,
			fmt.Sprintf("%d duplicate rows", details.DuplicateRows))
	}

	res.Details = details
	return res, nil
}

// BusinessRuleValidator enforces domain rules: commercial years inside the
// configured range, no negative counts or amounts, and non-empty key
// fields.
type BusinessRuleValidator struct {
	MinYear int
	MaxYear int
}

func (*BusinessRuleValidator) Name() string { return "business_rules" }

// negative-scan column prefixes; covers worker counts and UF amounts.
var negativeScanPrefixes = []string{"numero_", "ventas_", "renta_", "honorarios_"}

func (v *BusinessRuleValidator) Validate(t *tables.Table) (Result, error) {
	details := BusinessDetails{
		NegativeValues: make(map[string]int),
		EmptyRequired:  make(map[string]int),
	}
	res := Result{Validator: "business_rules", Passed: true}

	if t.HasColumn(tables.YearColumn) {
		seen := make(map[int64]bool)
		for _, row := range t.Rows {
			year, ok := row[tables.YearColumn].(int64)
			if !ok {
				continue
			}
			if (year < int64(v.MinYear) || year > int64(v.MaxYear)) && !seen[year] {
				seen[year] = true
				details.InvalidYears = append(details.InvalidYears, year)
			}
		}
		if len(details.InvalidYears) > 0 {
			res.Passed = false
			res.Issues = append(res.Issues,
				fmt.Sprintf("years outside [%d, %d]: %v", v.MinYear, v.MaxYear, details.InvalidYears))
		}
	}

	for _, col := range t.Columns {
		if !hasAnyPrefix(col, negativeScanPrefixes) {
			continue
		}
		count := 0
		for _, row := range t.Rows {
			if f, ok := tables.AsFloat(row[col]); ok && f < 0 {
				count++
			}
		}
		if count > 0 {
			details.NegativeValues[col] = count
		}
	}
	for _, col := range tables.SortedKeys(details.NegativeValues) {
		res.Passed = false
		res.Issues = append(res.Issues,
			fmt.Sprintf("column %s has %d negative values", col, details.NegativeValues[col]))
	}

	for _, col := range tables.RequiredFields {
		if !t.HasColumn(col) {
			continue
		}
		count := 0
		for _, row := range t.Rows {
			switch x := row[col].(type) {
			case nil:
				count++
			case string:
				if strings.TrimSpace(x) == "" {
					count++
				}
			}
		}
		if count > 0 {
			details.EmptyRequired[col] = count
		}
	}
	for _, col := range tables.SortedKeys(details.EmptyRequired) {
		res.Passed = false
		res.Issues = append(res.Issues,
			fmt.Sprintf("required field %s empty in %d rows", col, details.EmptyRequired[col]))
	}

	res.Details = details
	return res, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// QualityReport is the aggregated verdict over all validators.
type QualityReport struct {
	TotalRecords     int      `json:"total_records"`
	ValidRecords     int      `json:"valid_records"`
	InvalidRecords   int      `json:"invalid_records"`
	NullPercentage   float64  `json:"null_percentage"`
	DuplicateRecords int      `json:"duplicate_records"`
	QualityScore     float64  `json:"quality_score"`
	Issues           []string `json:"issues"`
}

// ValidationChain runs every validator and aggregates the findings into a
// quality report. A validator failure becomes an issue; the chain itself
// never fails.
type ValidationChain struct {
	validators []Validator
	log        *slog.Logger
}

// NewValidationChain builds a chain over the given validators.
func NewValidationChain(validators ...Validator) *ValidationChain {
	return &ValidationChain{
		validators: validators,
		log:        logging.Component("validator"),
	}
}

// StandardValidators returns the canonical validator set.
func StandardValidators(maxNullRatio float64, minYear, maxYear int) []Validator {
	return []Validator{
		&SchemaValidator{},
		&QualityValidator{MaxNullRatio: maxNullRatio},
		&BusinessRuleValidator{MinYear: minYear, MaxYear: maxYear},
	}
}

// Run executes all validators unconditionally and builds the report.
func (c *ValidationChain) Run(t *tables.Table) *QualityReport {
	report := &QualityReport{
		TotalRecords: len(t.Rows),
		Issues:       []string{},
	}

	for _, v := range c.validators {
		res, err := v.Validate(t)
		if err != nil {
			c.log.Warn("validator failed", "validator", v.Name(), "error", err)
			report.Issues = append(report.Issues,
				fmt.Sprintf("validator %s failed: %v", v.Name(), err))
			continue
		}
		report.Issues = append(report.Issues, res.Issues...)
		c.log.Info("validator complete",
			"validator", v.Name(), "passed", res.Passed, "issues", len(res.Issues))
	}

	total := len(t.Rows)
	dups := t.DuplicateRows()
	report.DuplicateRecords = dups
	report.ValidRecords = total - dups
	report.InvalidRecords = dups
	if total > 0 && len(t.Columns) > 0 {
		report.NullPercentage = float64(t.NullCells()) / float64(total*len(t.Columns))
	}
	report.QualityScore = qualityScore(total, t.NullCells(), dups, len(report.Issues))

	if m := metrics.Get(); m != nil {
		m.ValidationIssues.Add(float64(len(report.Issues)))
		m.QualityScore.Set(report.QualityScore)
	}

	return report
}

// qualityScore derives a 0..1 score from nulls, duplicates and issue count.
// Each penalty is capped so a single dimension cannot zero the score on its
// own; an empty table scores zero outright.
func qualityScore(total, nullCells, duplicates, issues int) float64 {
	if total == 0 {
		return 0
	}
	score := 1.0
	score -= min(0.20, float64(nullCells)/float64(total)*0.5)
	score -= min(0.15, float64(duplicates)/float64(total)*0.3)
	score -= min(0.30, float64(issues)*0.05)
	if score < 0 {
		return 0
	}
	return score
}
