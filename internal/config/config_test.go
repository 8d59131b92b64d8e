package config

import (
	"context"
	"testing"
	"time"

	"github.com/emrgen/ingest/internal/compress"
	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "4021", cfg.HTTPPort)
	assert.Equal(t, "4020", cfg.GRPCPort)
	assert.Equal(t, store.DriverSqlite, cfg.DB.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Preview.TTL)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, 10, cfg.Upload.Burst)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("INGEST_HTTP_PORT", "9000")
	t.Setenv("INGEST_DB_DRIVER", "memory")
	t.Setenv("INGEST_PREVIEW_TTL", "30s")
	t.Setenv("INGEST_COMPRESSION", "brotli")
	t.Setenv("INGEST_AUTH_TOKEN", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, store.DriverMemory, cfg.DB.Driver)
	assert.Equal(t, 30*time.Second, cfg.Preview.TTL)
	assert.Equal(t, "secret", cfg.Auth.Token)

	codec, err := cfg.Codec()
	require.NoError(t, err)
	assert.Equal(t, compress.BrotliName, codec.Name())
}

func TestGetStore(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{DB: DBConfig{Driver: store.DriverSqlite, DSN: dir + "/ingest.db"}, Compression: compress.GZipName}
	st, err := GetStore(cfg)
	require.NoError(t, err)

	record := model.NewRecord("Lab", "Ada", model.KindActivity, `{"type":"activity"}`)
	require.NoError(t, st.AppendRecord(context.TODO(), record))
	got, err := st.GetRecord(context.TODO(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Content, got.Content)

	_, err = GetStore(&Config{DB: DBConfig{Driver: "oracle"}})
	assert.ErrorIs(t, err, store.ErrUnknownDriver)

	_, err = GetStore(&Config{DB: DBConfig{Driver: store.DriverMemory}, Compression: "zip"})
	assert.ErrorIs(t, err, compress.ErrUnknownCodec)
}

func TestConfigureLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	ConfigureLogging(&Config{Log: LogConfig{Level: "debug"}})
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	ConfigureLogging(&Config{Log: LogConfig{Level: "loud"}})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
