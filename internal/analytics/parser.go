package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Canonical field names for a normalized equipment row.
const (
	FieldEquipmentName = "equipment_name"
	FieldEquipmentType = "equipment_type"
	FieldFlowrate      = "flowrate"
	FieldPressure      = "pressure"
	FieldTemperature   = "temperature"
)

// columnAliases maps each canonical field to the header spellings accepted
// for it. Matching is case-insensitive after trimming surrounding space.
var columnAliases = map[string][]string{
	FieldEquipmentName: {"equipment name", "equipment_name", "name", "equipmentname"},
	FieldEquipmentType: {"equipment type", "equipment_type", "type", "equipmenttype"},
	FieldFlowrate:      {"flowrate", "flow_rate", "flow rate", "flow"},
	FieldPressure:      {"pressure", "press"},
	FieldTemperature:   {"temperature", "temp"},
}

// SchemaError is a fatal upload rejection: the header is unusable or no data
// survives validation. Row-level defects never produce one.
type SchemaError struct {
	Message        string
	MissingColumns []string
}

func (e *SchemaError) Error() string {
	return e.Message
}

// RawRow is one data row keyed by canonical field name, values still
// unparsed text.
type RawRow struct {
	Fields map[string]string
}

// NormalizeColumn maps a CSV header cell to its canonical field name, or ""
// when the column is not recognized.
func NormalizeColumn(col string) string {
	lowered := strings.ToLower(strings.TrimSpace(col))
	for canonical, aliases := range columnAliases {
		for _, alias := range aliases {
			if lowered == alias {
				return canonical
			}
		}
	}
	return ""
}

// ParseCSV reads comma-delimited text with a header row and returns rows
// with canonical field names. Unrecognized columns are ignored. Returns a
// *SchemaError when any required field has no matching header column or the
// file contains no data rows.
func ParseCSV(r io.Reader) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &SchemaError{Message: "CSV file is empty or contains no data rows"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV header: %w", err)
	}

	// Column index -> canonical field. First match wins for duplicates.
	mapping := make(map[int]string, len(header))
	found := make(map[string]bool, len(columnAliases))
	for i, col := range header {
		canonical := NormalizeColumn(col)
		if canonical == "" || found[canonical] {
			continue
		}
		mapping[i] = canonical
		found[canonical] = true
	}

	var missing []string
	for canonical := range columnAliases {
		if !found[canonical] {
			missing = append(missing, canonical)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &SchemaError{
			Message: fmt.Sprintf(
				"missing required columns: %s (found columns: %s)",
				strings.Join(missing, ", "),
				strings.Join(header, ", "),
			),
			MissingColumns: missing,
		}
	}

	var rows []RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV row %d: %w", len(rows)+1, err)
		}

		fields := make(map[string]string, len(mapping))
		for i, canonical := range mapping {
			if i < len(record) {
				fields[canonical] = record[i]
			} else {
				fields[canonical] = ""
			}
		}
		rows = append(rows, RawRow{Fields: fields})
	}

	if len(rows) == 0 {
		return nil, &SchemaError{Message: "CSV file is empty or contains no data rows"}
	}

	return rows, nil
}
