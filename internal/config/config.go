package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/emrgen/ingest/internal/compress"
	"github.com/emrgen/ingest/internal/store"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const envPrefix = "INGEST"

type Config struct {
	HTTPPort    string        `mapstructure:"http_port"`
	GRPCPort    string        `mapstructure:"grpc_port"`
	Compression string        `mapstructure:"compression"`
	DB          DBConfig      `mapstructure:"db"`
	Redis       RedisConfig   `mapstructure:"redis"`
	Preview     PreviewConfig `mapstructure:"preview"`
	Kafka       KafkaConfig   `mapstructure:"kafka"`
	Upload      UploadConfig  `mapstructure:"upload"`
	Auth        AuthConfig    `mapstructure:"auth"`
	Log         LogConfig     `mapstructure:"log"`
	Jobs        JobsConfig    `mapstructure:"jobs"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	// Addr is empty when preview hand-offs stay in process.
	Addr string `mapstructure:"addr"`
}

type PreviewConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

type UploadConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type AuthConfig struct {
	// Token is the bearer token required on write routes; empty disables the check.
	Token string `mapstructure:"token"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type JobsConfig struct {
	PreviewSweep string `mapstructure:"preview_sweep"`
	LibraryStats string `mapstructure:"library_stats"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", "4021")
	v.SetDefault("grpc_port", "4020")
	v.SetDefault("compression", compress.NopName)
	v.SetDefault("db.driver", store.DriverSqlite)
	v.SetDefault("db.dsn", "ingest.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("preview.ttl", 10*time.Minute)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "ingest.records")
	v.SetDefault("upload.rps", 5)
	v.SetDefault("upload.burst", 10)
	v.SetDefault("auth.token", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("jobs.preview_sweep", "@every 1m")
	v.SetDefault("jobs.library_stats", "@every 30s")
}

// LoadConfig reads the configuration from the environment, a .env file and an optional
// ingest.yaml in the working directory. Environment variables win.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("ingest")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Codec returns the configured content compression codec.
func (c *Config) Codec() (compress.Compress, error) {
	return compress.New(c.Compression)
}

// ConfigureLogging applies the configured log level to logrus.
func ConfigureLogging(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// GetDb opens the sql database of the configured driver. The memory driver has none.
func GetDb(cfg *Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch cfg.DB.Driver {
	case store.DriverMemory:
		return nil, nil
	case store.DriverSqlite:
		return gorm.Open(sqlite.Open(cfg.DB.DSN), gormConfig)
	case store.DriverPostgres:
		return gorm.Open(postgres.Open(cfg.DB.DSN), gormConfig)
	}

	return nil, fmt.Errorf("%w: %q", store.ErrUnknownDriver, cfg.DB.Driver)
}

// GetStore opens the configured store and migrates it.
func GetStore(cfg *Config) (store.Store, error) {
	db, err := GetDb(cfg)
	if err != nil {
		return nil, err
	}

	codec, err := cfg.Codec()
	if err != nil {
		return nil, err
	}

	st, err := store.Provide(cfg.DB.Driver, db, codec)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(); err != nil {
		return nil, err
	}

	return st, nil
}
