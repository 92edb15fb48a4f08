package analytics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyDataset is returned when statistics are requested over zero rows.
var ErrEmptyDataset = errors.New("dataset contains no records")

// Summary holds aggregate statistics for one dataset. Standard deviations use
// the population formula (N divisor, no sample correction).
type Summary struct {
	TotalEquipment int `json:"total_equipment"`

	AvgFlowrate    float64 `json:"avg_flowrate"`
	AvgPressure    float64 `json:"avg_pressure"`
	AvgTemperature float64 `json:"avg_temperature"`

	MinFlowrate    float64 `json:"min_flowrate"`
	MaxFlowrate    float64 `json:"max_flowrate"`
	MinPressure    float64 `json:"min_pressure"`
	MaxPressure    float64 `json:"max_pressure"`
	MinTemperature float64 `json:"min_temperature"`
	MaxTemperature float64 `json:"max_temperature"`

	StdFlowrate    float64 `json:"std_flowrate"`
	StdPressure    float64 `json:"std_pressure"`
	StdTemperature float64 `json:"std_temperature"`

	TypeDistribution map[string]int `json:"type_distribution"`
}

// Compute derives the summary statistics for a set of validated rows.
// Deterministic for a given multiset of rows; ordering does not matter.
func Compute(rows []Row) (*Summary, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}

	flowrates := make([]float64, len(rows))
	pressures := make([]float64, len(rows))
	temperatures := make([]float64, len(rows))
	distribution := make(map[string]int)

	for i, row := range rows {
		flowrates[i] = row.Flowrate
		pressures[i] = row.Pressure
		temperatures[i] = row.Temperature
		distribution[row.EquipmentType]++
	}

	return &Summary{
		TotalEquipment: len(rows),

		AvgFlowrate:    round4(stat.Mean(flowrates, nil)),
		AvgPressure:    round4(stat.Mean(pressures, nil)),
		AvgTemperature: round4(stat.Mean(temperatures, nil)),

		MinFlowrate:    round4(floats.Min(flowrates)),
		MaxFlowrate:    round4(floats.Max(flowrates)),
		MinPressure:    round4(floats.Min(pressures)),
		MaxPressure:    round4(floats.Max(pressures)),
		MinTemperature: round4(floats.Min(temperatures)),
		MaxTemperature: round4(floats.Max(temperatures)),

		StdFlowrate:    round4(stat.PopStdDev(flowrates, nil)),
		StdPressure:    round4(stat.PopStdDev(pressures, nil)),
		StdTemperature: round4(stat.PopStdDev(temperatures, nil)),

		TypeDistribution: distribution,
	}, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
