package config

import (
	"context"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/Nydv01/chemviz-analytics/internal/analytics"
	"github.com/Nydv01/chemviz-analytics/internal/appcontext"
)

func seedDataset(ctx *appcontext.Context, ownerID, filename string, seed []analyticsRow) error {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return err
	}

	rows := make([]analytics.Row, len(seed))
	for i, r := range seed {
		rows[i] = analytics.Row{
			EquipmentName: r.name,
			EquipmentType: r.kind,
			Flowrate:      r.flowrate,
			Pressure:      r.pressure,
			Temperature:   r.temp,
		}
	}

	summary, err := analytics.Compute(rows)
	if err != nil {
		return err
	}

	_, err = ctx.Datasets.Create(context.Background(), owner, filename, rows, summary)
	return err
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
