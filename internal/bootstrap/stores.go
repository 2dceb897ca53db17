package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/eleven-am/dicom-viewer/internal/session"
)

func ProvideSessionStore(redisClient *redis.Client) *session.Store {
	return session.NewStore(redisClient)
}

func ProvideArchiveStore(db *gorm.DB) *session.ArchiveStore {
	return session.NewArchiveStore(db)
}

func RunMigrations(archiveStore *session.ArchiveStore) error {
	return archiveStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideSessionStore,
		ProvideArchiveStore,
	),
	fx.Invoke(RunMigrations),
)
