package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/eleven-am/dicom-viewer/internal/health"
)

func ProvideHealthHandler(db *gorm.DB, redisClient *redis.Client) *health.Handler {
	return health.NewHandler(db, redisClient, version)
}
