package analytics

import "io"

// ProcessCSV runs the full ingestion pipeline: parse, validate, compute.
// The returned warnings describe rows that were dropped without failing the
// upload.
func ProcessCSV(r io.Reader) ([]Row, *Summary, []string, error) {
	raw, err := ParseCSV(r)
	if err != nil {
		return nil, nil, nil, err
	}

	rows, warnings, err := ValidateRows(raw)
	if err != nil {
		return nil, nil, warnings, err
	}

	summary, err := Compute(rows)
	if err != nil {
		return nil, nil, warnings, err
	}

	return rows, summary, warnings, nil
}
