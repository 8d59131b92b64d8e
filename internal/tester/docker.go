package tester

import (
	"fmt"
	"os"
	"time"

	"github.com/emrgen/ingest/internal/model"
	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DockerEnabled reports whether the docker backed integration tests should run.
func DockerEnabled() bool {
	return os.Getenv("INGEST_DOCKER_TESTS") == "1"
}

// SetupPostgres starts a throwaway postgres container and returns a migrated connection
// together with a purge function that removes the container.
func SetupPostgres() (*gorm.DB, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, fmt.Errorf("could not construct pool: %w", err)
	}

	// uses pool to try to connect to Docker
	err = pool.Client.Ping()
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to docker: %w", err)
	}

	resource, err := pool.Run("postgres", "16", []string{
		"POSTGRES_USER=emrgen",
		"POSTGRES_PASSWORD=emrgen",
		"POSTGRES_DB=ingest",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not start resource: %w", err)
	}

	purge := func() {
		if err := pool.Purge(resource); err != nil {
			logrus.Errorf("could not purge resource: %s", err)
		}
	}

	dsn := fmt.Sprintf("host=localhost port=%s user=emrgen password=emrgen dbname=ingest sslmode=disable",
		resource.GetPort("5432/tcp"))

	var pg *gorm.DB
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		pg, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err != nil {
			return err
		}
		sqlDB, err := pg.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})
	if err != nil {
		purge()
		return nil, nil, fmt.Errorf("could not connect to postgres: %w", err)
	}

	if err := model.Migrate(pg); err != nil {
		purge()
		return nil, nil, err
	}

	return pg, purge, nil
}
