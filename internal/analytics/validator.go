package analytics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row is a fully validated equipment row.
type Row struct {
	EquipmentName string
	EquipmentType string
	Flowrate      float64
	Pressure      float64
	Temperature   float64
}

// ValidateRows coerces the numeric fields of each raw row. Rows with missing,
// unparseable or non-finite numeric values are dropped, never fatal; drops are
// reported as aggregate warnings. Equipment name may be empty after trimming.
// Returns a *SchemaError only when no valid rows remain.
func ValidateRows(raw []RawRow) ([]Row, []string, error) {
	var (
		rows            []Row
		missingCount    int
		nonNumericCount int
		negFlowrate     bool
		negPressure     bool
	)

	for _, rr := range raw {
		missing := false
		invalid := false
		values := make(map[string]float64, 3)
		for _, field := range []string{FieldFlowrate, FieldPressure, FieldTemperature} {
			text := strings.TrimSpace(rr.Fields[field])
			if text == "" {
				missing = true
				continue
			}
			v, err := strconv.ParseFloat(text, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				invalid = true
				continue
			}
			values[field] = v
		}

		if missing {
			missingCount++
			continue
		}
		if invalid {
			nonNumericCount++
			continue
		}

		if values[FieldFlowrate] < 0 {
			negFlowrate = true
		}
		if values[FieldPressure] < 0 {
			negPressure = true
		}

		rows = append(rows, Row{
			EquipmentName: strings.TrimSpace(rr.Fields[FieldEquipmentName]),
			EquipmentType: strings.ToLower(strings.TrimSpace(rr.Fields[FieldEquipmentType])),
			Flowrate:      values[FieldFlowrate],
			Pressure:      values[FieldPressure],
			Temperature:   values[FieldTemperature],
		})
	}

	var warnings []string
	if missingCount > 0 {
		warnings = append(warnings, fmt.Sprintf("Dropped %d rows with missing numeric values.", missingCount))
	}
	if nonNumericCount > 0 {
		warnings = append(warnings, fmt.Sprintf("Dropped %d rows with non-numeric values.", nonNumericCount))
	}
	if negFlowrate {
		warnings = append(warnings, "Some flowrate values are negative.")
	}
	if negPressure {
		warnings = append(warnings, "Some pressure values are negative.")
	}

	if len(rows) == 0 {
		return nil, warnings, &SchemaError{
			Message: "no valid data rows remain after removing rows with missing values",
		}
	}

	return rows, warnings, nil
}
