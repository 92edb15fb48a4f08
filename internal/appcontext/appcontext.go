package appcontext

import (
	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nydv01/chemviz-analytics/internal/store"
)

// Context carries the process-wide dependencies injected into every handler.
// Exactly one dataset/user store strategy is selected at boot; DB is nil when
// the in-memory fallback is active.
type Context struct {
	DB     *gorm.DB
	Logger *zap.Logger

	Datasets store.DatasetStore
	Users    store.UserStore

	GCSClient     *storage.Client
	GCSBucketName string

	MaxUploadBytes int64
	RetentionLimit int
}
