package server

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"faqchat/internal/config"
	"faqchat/internal/db"
	"faqchat/internal/store"
)

// OpenCatalog returns the catalogue selected by cfg: a DatabaseStore when
// DatabaseURL is set, otherwise a MemoryStore. The seed file, when given, is
// applied to either. The returned *db.DB is nil for the memory store.
func OpenCatalog(ctx context.Context, cfg config.Config) (store.Catalog, *db.DB, error) {
	var (
		catalog  store.Catalog
		database *db.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		database, err = db.New(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to initialize database")
		}
		log.Info().Str("driver", cfg.DatabaseDriver).Msg("database connection established")

		if cfg.MigrateOnStart {
			if err := database.RunMigrations(ctx); err != nil {
				database.Close()
				return nil, nil, errors.Wrap(err, "failed to run migrations")
			}
			log.Info().Msg("database migrations completed")
		}
		catalog = store.NewDatabaseStore(database)
	} else {
		log.Warn().Msg("DB_URL not provided, keeping the catalogue in memory")
		catalog = store.NewMemoryStore()
	}

	if cfg.SeedFile != "" {
		n, err := SeedFrom(ctx, catalog, cfg.SeedFile)
		if err != nil {
			if database != nil {
				database.Close()
			}
			return nil, nil, errors.Wrap(err, "failed to seed catalogue")
		}
		log.Info().Int("questions", n).Str("file", cfg.SeedFile).Msg("catalogue seeded")
	}
	return catalog, database, nil
}

// SeedFrom loads the seed file at path into c.
func SeedFrom(ctx context.Context, c store.Catalog, path string) (int, error) {
	seed, err := store.LoadSeedFile(path)
	if err != nil {
		return 0, err
	}
	return store.Apply(ctx, c, seed)
}
