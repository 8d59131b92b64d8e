package tester

import (
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/emrgen/ingest/internal/model"
	redis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testPath = "../../.test/"
)

var (
	db *gorm.DB
)

// Setup recreates the sqlite test database and migrates it.
func Setup() {
	RemoveDBFile()

	_ = os.Setenv("ENV", "test")

	err := os.MkdirAll(testPath+"/db", os.ModePerm)
	if err != nil {
		panic(err)
	}

	db, err = gorm.Open(sqlite.Open(testPath+"db/ingest.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	err = model.Migrate(db)
	if err != nil {
		panic(err)
	}
}

func TestDB() *gorm.DB {
	return db
}

func RemoveDBFile() {
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		db = nil
	}

	err := os.RemoveAll(testPath)
	if err != nil {
		panic(err)
	}
}

// Redis starts an in-process redis server that lives as long as the test.
func Redis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:     server.Addr(),
		Protocol: 2,
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, server
}
