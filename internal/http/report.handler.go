package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nydv01/chemviz-analytics/internal/analytics"
	"github.com/Nydv01/chemviz-analytics/internal/appcontext"
	"github.com/Nydv01/chemviz-analytics/internal/report"
)

// DownloadReport streams a PDF report for the dataset. Statistics are
// recomputed from the stored records at request time.
func DownloadReport(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, datasetID, ok := datasetParams(ctx, c)
		if !ok {
			return
		}

		dataset, err := ctx.Datasets.Get(c.Request.Context(), datasetID, userID)
		if err != nil {
			respondDatasetError(ctx, c, err)
			return
		}

		records, err := ctx.Datasets.Records(c.Request.Context(), datasetID, userID)
		if err != nil {
			respondDatasetError(ctx, c, err)
			return
		}

		if len(records) == 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Dataset has no records to report"})
			return
		}

		summary, err := analytics.Compute(recordsToRows(records))
		if err != nil {
			ctx.Logger.Error("Failed to compute report statistics", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF report"})
			return
		}

		pdfBytes, err := report.Generate(dataset, summary, records)
		if err != nil {
			if errors.Is(err, report.ErrNoRecords) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Dataset has no records to report"})
				return
			}
			ctx.Logger.Error("Failed to generate PDF report",
				zap.String("dataset_id", datasetID.String()),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF report"})
			return
		}

		filename := fmt.Sprintf("equipment_report_%s_%s.pdf", safeFilename(dataset.Filename), dataset.ID)

		ctx.Logger.Info("PDF report generated",
			zap.String("dataset_id", datasetID.String()),
			zap.Int("bytes", len(pdfBytes)),
		)

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
		c.Data(http.StatusOK, "application/pdf", pdfBytes)
	}
}

func safeFilename(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "\"", "_")
	return replacer.Replace(strings.TrimSuffix(name, ".csv"))
}
