package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"net/http"

	"github.com/Nydv01/chemviz-analytics/internal/analytics"
	"github.com/Nydv01/chemviz-analytics/internal/appcontext"
	"github.com/Nydv01/chemviz-analytics/internal/utils"
)

// UploadCSV ingests one CSV upload: parse, validate, compute statistics,
// persist atomically with retention pruning, then archive the raw bytes to
// GCS best-effort when a bucket is configured.
func UploadCSV(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided, expected multipart field \"file\""})
			return
		}

		if !isCSVFile(file) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type, only CSV files are allowed"})
			return
		}

		if file.Size > ctx.MaxUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("CSV file must be under %dMB", ctx.MaxUploadBytes/(1024*1024)),
			})
			return
		}

		src, err := file.Open()
		if err != nil {
			ctx.Logger.Error("Failed to open uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open file"})
			return
		}
		defer src.Close()

		content, err := io.ReadAll(io.LimitReader(src, ctx.MaxUploadBytes+1))
		if err != nil {
			ctx.Logger.Error("Failed to read uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
			return
		}
		if int64(len(content)) > ctx.MaxUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("CSV file must be under %dMB", ctx.MaxUploadBytes/(1024*1024)),
			})
			return
		}
		if !utf8.Valid(content) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File encoding error, please upload a UTF-8 encoded CSV"})
			return
		}

		rows, summary, warnings, err := analytics.ProcessCSV(bytes.NewReader(content))
		if err != nil {
			var schemaErr *analytics.SchemaError
			if errors.As(err, &schemaErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "CSV validation failed", "details": schemaErr.Message})
				return
			}
			ctx.Logger.Error("Failed to process CSV", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "CSV validation failed", "details": err.Error()})
			return
		}

		dataset, err := ctx.Datasets.Create(c.Request.Context(), userID, file.Filename, rows, summary)
		if err != nil {
			ctx.Logger.Error("Failed to persist dataset", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while processing the file"})
			return
		}

		if ctx.GCSClient != nil {
			archiveUpload(ctx, userID.String(), dataset.ID.String(), content)
		}

		ctx.Logger.Info("Upload successful",
			zap.String("filename", dataset.Filename),
			zap.String("dataset_id", dataset.ID.String()),
			zap.Int("records", summary.TotalEquipment),
		)

		response := gin.H{
			"message":           "Upload successful",
			"dataset":           dataset,
			"records_processed": summary.TotalEquipment,
			"summary":           summary,
		}
		if len(warnings) > 0 {
			response["warnings"] = warnings
		}
		c.JSON(http.StatusCreated, response)
	}
}

// archiveUpload writes the raw CSV to GCS and records the object path.
// Best-effort: failures are logged and never fail the committed upload.
func archiveUpload(ctx *appcontext.Context, userID, datasetID string, content []byte) {
	objectPath := userID + "/" + datasetID + ".csv"

	w := ctx.GCSClient.Bucket(ctx.GCSBucketName).Object(objectPath).NewWriter(context.Background())
	if _, err := w.Write(content); err != nil {
		// Close abandons the upload session; ignore its error, the write
		// failure is what matters.
		_ = w.Close()
		ctx.Logger.Warn("Failed to archive CSV to GCS", zap.String("object", objectPath), zap.Error(err))
		return
	}
	if err := w.Close(); err != nil {
		ctx.Logger.Warn("Failed to close GCS writer", zap.String("object", objectPath), zap.Error(err))
		return
	}

	id, err := uuid.Parse(datasetID)
	if err != nil {
		return
	}
	if err := ctx.Datasets.SetStoragePath(context.Background(), id, objectPath); err != nil {
		ctx.Logger.Warn("Failed to record storage path", zap.String("object", objectPath), zap.Error(err))
	}
}

func isCSVFile(file *multipart.FileHeader) bool {
	return strings.ToLower(filepath.Ext(file.Filename)) == ".csv"
}
