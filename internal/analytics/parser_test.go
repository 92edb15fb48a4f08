package analytics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		name string
		col  string
		want string
	}{
		{"exact match", "flowrate", FieldFlowrate},
		{"alias with space", "Flow Rate", FieldFlowrate},
		{"alias with underscore", "flow_rate", FieldFlowrate},
		{"short alias", "flow", FieldFlowrate},
		{"mixed case with padding", "  Equipment Name ", FieldEquipmentName},
		{"name shorthand", "NAME", FieldEquipmentName},
		{"type shorthand", "Type", FieldEquipmentType},
		{"pressure shorthand", "press", FieldPressure},
		{"temperature shorthand", "TEMP", FieldTemperature},
		{"unknown column", "serial_number", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeColumn(tt.col))
		})
	}
}

func TestParseCSV(t *testing.T) {
	t.Run("canonical header", func(t *testing.T) {
		input := "Equipment Name,Equipment Type,Flowrate,Pressure,Temperature\n" +
			"Pump-A1,pump,150.5,3.2,45.8\n" +
			"Valve-B2,valve,75.0,2.1,38.5\n"

		rows, err := ParseCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "Pump-A1", rows[0].Fields[FieldEquipmentName])
		assert.Equal(t, "150.5", rows[0].Fields[FieldFlowrate])
		assert.Equal(t, "38.5", rows[1].Fields[FieldTemperature])
	})

	t.Run("aliased header", func(t *testing.T) {
		input := "name,type,flow,press,temp\nPump-A1,pump,1,2,3\n"

		rows, err := ParseCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Pump-A1", rows[0].Fields[FieldEquipmentName])
		assert.Equal(t, "3", rows[0].Fields[FieldTemperature])
	})

	t.Run("unrecognized columns are ignored", func(t *testing.T) {
		input := "name,type,flow,press,temp,serial_number\nPump-A1,pump,1,2,3,XYZ\n"

		rows, err := ParseCSV(strings.NewReader(input))
		require.NoError(t, err)
		assert.NotContains(t, rows[0].Fields, "serial_number")
	})

	t.Run("missing required column", func(t *testing.T) {
		input := "name,type,flow,press\nPump-A1,pump,1,2\n"

		_, err := ParseCSV(strings.NewReader(input))
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"temperature"}, schemaErr.MissingColumns)
		assert.Contains(t, schemaErr.Error(), "temperature")
	})

	t.Run("multiple missing columns sorted", func(t *testing.T) {
		input := "name,temp\nPump-A1,3\n"

		_, err := ParseCSV(strings.NewReader(input))
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"equipment_type", "flowrate", "pressure"}, schemaErr.MissingColumns)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader(""))
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
	})

	t.Run("header only", func(t *testing.T) {
		input := "name,type,flow,press,temp\n"
		_, err := ParseCSV(strings.NewReader(input))
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Contains(t, schemaErr.Error(), "no data rows")
	})

	t.Run("short row pads empty fields", func(t *testing.T) {
		input := "name,type,flow,press,temp\nPump-A1,pump,1\n"

		rows, err := ParseCSV(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, "", rows[0].Fields[FieldTemperature])
	})
}
