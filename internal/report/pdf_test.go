package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nydv01/chemviz-analytics/internal/analytics"
	"github.com/Nydv01/chemviz-analytics/internal/entity"
)

func testDataset() (*entity.Dataset, *analytics.Summary, []entity.Record) {
	id := uuid.New()
	dataset := &entity.Dataset{
		ID:         id,
		Filename:   "plant_a.csv",
		UploadedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	records := []entity.Record{
		{ID: uuid.New(), DatasetID: id, EquipmentName: "Pump-A1", EquipmentType: "pump", Flowrate: 150.5, Pressure: 3.2, Temperature: 45.8},
		{ID: uuid.New(), DatasetID: id, EquipmentName: "Valve-B2", EquipmentType: "valve", Flowrate: 75.0, Pressure: 2.1, Temperature: 38.5},
	}
	rows := []analytics.Row{
		{EquipmentName: "Pump-A1", EquipmentType: "pump", Flowrate: 150.5, Pressure: 3.2, Temperature: 45.8},
		{EquipmentName: "Valve-B2", EquipmentType: "valve", Flowrate: 75.0, Pressure: 2.1, Temperature: 38.5},
	}
	summary, _ := analytics.Compute(rows)
	return dataset, summary, records
}

func TestGenerate(t *testing.T) {
	dataset, summary, records := testDataset()

	pdfBytes, err := Generate(dataset, summary, records)
	require.NoError(t, err)
	require.NotEmpty(t, pdfBytes)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")), "output should be a PDF document")
}

func TestGenerateManyRecordsPaginates(t *testing.T) {
	dataset, _, _ := testDataset()

	var rows []analytics.Row
	var records []entity.Record
	for i := 0; i < 200; i++ {
		rows = append(rows, analytics.Row{EquipmentName: "Pump", EquipmentType: "pump", Flowrate: 1, Pressure: 1, Temperature: 1})
		records = append(records, entity.Record{EquipmentName: "Pump", EquipmentType: "pump", Flowrate: 1, Pressure: 1, Temperature: 1})
	}
	summary, err := analytics.Compute(rows)
	require.NoError(t, err)

	pdfBytes, err := Generate(dataset, summary, records)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")))
}

func TestGenerateNoRecords(t *testing.T) {
	dataset, summary, _ := testDataset()

	_, err := Generate(dataset, summary, nil)
	assert.ErrorIs(t, err, ErrNoRecords)
}
