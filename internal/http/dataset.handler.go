package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nydv01/chemviz-analytics/internal/analytics"
	"github.com/Nydv01/chemviz-analytics/internal/appcontext"
	"github.com/Nydv01/chemviz-analytics/internal/entity"
	"github.com/Nydv01/chemviz-analytics/internal/store"
	"github.com/Nydv01/chemviz-analytics/internal/utils"
)

type summaryResponse struct {
	DatasetID  uuid.UUID `json:"dataset_id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	*analytics.Summary
}

// datasetParams resolves the authenticated caller and the :datasetID path
// parameter. A malformed id is treated as not found so the response shape
// never distinguishes absent, invalid and not-owned.
func datasetParams(ctx *appcontext.Context, c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := utils.GetUserIDFromClaims(c)
	if err != nil {
		ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}

	datasetID, err := uuid.Parse(c.Param("datasetID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		return uuid.Nil, uuid.Nil, false
	}

	return userID, datasetID, true
}

func GetHistory(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		datasets, err := ctx.Datasets.List(c.Request.Context(), userID)
		if err != nil {
			ctx.Logger.Error("Failed to list datasets", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch upload history"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"count":    len(datasets),
			"datasets": datasets,
		})
	}
}

// GetSummary recomputes statistics from the stored records rather than the
// cached averages, so the response always reflects what is persisted.
func GetSummary(ctx *appcontext.Context) gin.HandlerFunc {
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

		summary, err := analytics.Compute(recordsToRows(records))
		if err != nil {
			if errors.Is(err, analytics.ErrEmptyDataset) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Dataset has no records"})
				return
			}
			ctx.Logger.Error("Failed to compute summary", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
			return
		}

		c.JSON(http.StatusOK, summaryResponse{
			DatasetID:  dataset.ID,
			Filename:   dataset.Filename,
			UploadedAt: dataset.UploadedAt,
			Summary:    summary,
		})
	}
}

func GetDataset(ctx *appcontext.Context) gin.HandlerFunc {
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

		c.JSON(http.StatusOK, gin.H{
			"dataset": dataset,
			"records": records,
		})
	}
}

func DeleteDataset(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, datasetID, ok := datasetParams(ctx, c)
		if !ok {
			return
		}

		if err := ctx.Datasets.Delete(c.Request.Context(), datasetID, userID); err != nil {
			respondDatasetError(ctx, c, err)
			return
		}

		ctx.Logger.Info("Dataset deleted",
			zap.String("dataset_id", datasetID.String()),
			zap.String("user_id", userID.String()),
		)
		c.Status(http.StatusNoContent)
	}
}

func respondDatasetError(ctx *appcontext.Context, c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		return
	}
	ctx.Logger.Error("Dataset store failure", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to access dataset"})
}

func recordsToRows(records []entity.Record) []analytics.Row {
	rows := make([]analytics.Row, len(records))
	for i, record := range records {
		rows[i] = analytics.Row{
			EquipmentName: record.EquipmentName,
			EquipmentType: record.EquipmentType,
			Flowrate:      record.Flowrate,
			Pressure:      record.Pressure,
			Temperature:   record.Temperature,
		}
	}
	return rows
}
