package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/emrgen/ingest/internal/cache"
	"github.com/emrgen/ingest/internal/config"
	"github.com/emrgen/ingest/internal/jobs"
	"github.com/emrgen/ingest/internal/metrics"
	"github.com/emrgen/ingest/internal/module"
	"github.com/emrgen/ingest/internal/preview"
	"github.com/emrgen/ingest/internal/queue"
	"github.com/emrgen/ingest/internal/service"
	grpcmiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthMethodPrefix = "/grpc.health.v1.Health/"

// Server represents the server
type Server struct {
	cfg *config.Config
}

// NewServer creates a new server
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Start starts the server
func (s *Server) Start() {
	if err := Start(s.cfg); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// components are the long lived parts of a running server.
type components struct {
	library  *service.LibraryService
	previews preview.Channel
	events   queue.RecordQueue
	executor *jobs.TaskExecutor
}

func (c *components) Close() {
	c.executor.Stop()
	if err := c.events.Close(); err != nil {
		logrus.Errorf("error closing record queue: %v", err)
	}
}

func build(cfg *config.Config) (*components, error) {
	st, err := config.GetStore(cfg)
	if err != nil {
		return nil, err
	}

	var events queue.RecordQueue = queue.NewNop()
	if cfg.Kafka.Brokers != "" {
		events, err = queue.NewKafkaQueue(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
	}

	var previews preview.Channel
	var cronJobs []jobs.CronJob
	if cfg.Redis.Addr != "" {
		client := cache.NewRedisClient(cfg.Redis.Addr)
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("error connecting to redis: %w", err)
		}
		codec, err := cfg.Codec()
		if err != nil {
			return nil, err
		}
		st = cache.NewCachedStore(st, cache.NewRedisRecordCache(client, codec))
		previews = cache.NewRedisChannel(client, cfg.Preview.TTL)
	} else {
		channel := preview.NewMemoryChannel(cfg.Preview.TTL)
		previews = channel
		cronJobs = append(cronJobs, jobs.NewPreviewSweepTask(cfg.Jobs.PreviewSweep, channel))
	}
	cronJobs = append(cronJobs, jobs.NewLibraryStatsTask(cfg.Jobs.LibraryStats, st))

	return &components{
		library:  service.NewLibraryService(st, events),
		previews: previews,
		events:   events,
		executor: jobs.NewTaskExecutor(nil, cronJobs),
	}, nil
}

// newGrpcServer serves the standard health service. Everything else needs a token.
func newGrpcServer(verifier module.TokenVerifier) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(grpcmiddleware.ChainUnaryServer(
			// log the request time
			UnaryGrpcRequestTimeInterceptor(),
			module.UnaryServerAuthTokenInterceptor(verifier, healthMethodPrefix),
		)),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return grpcServer, healthServer
}

// Start starts the grpc and http servers
func Start(cfg *config.Config) error {
	grpcPort := ":" + cfg.GRPCPort
	httpPort := ":" + cfg.HTTPPort

	c, err := build(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	gl, err := net.Listen("tcp", grpcPort)
	if err != nil {
		return err
	}

	rl, err := net.Listen("tcp", httpPort)
	if err != nil {
		return err
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	verifier := module.NewTokenVerifier(cfg.Auth.Token)

	grpcServer, healthServer := newGrpcServer(verifier)

	handler := NewHandler(c.library, c.previews,
		WithTokenVerifier(verifier),
		WithUploadLimit(cfg.Upload.RPS, cfg.Upload.Burst),
	)

	restServer := &http.Server{
		Addr:              httpPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := c.executor.Run(); err != nil {
		return err
	}

	// make sure to wait for the servers to stop before exiting
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting rest server on: ", httpPort)
		if err := restServer.Serve(rl); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting rest server: %v", err)
			}
		}
		logrus.Infof("rest server stopped")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting grpc server on: ", grpcPort)
		if err := grpcServer.Serve(gl); err != nil {
			logrus.Infof("grpc failed to start: %v", err)
		}
		logrus.Infof("grpc server stopped")
	}()

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	logrus.Infof("serving %s records with %s compression", cfg.DB.Driver, cfg.Compression)
	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	healthServer.Shutdown()
	grpcServer.GracefulStop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := restServer.Shutdown(ctx); err != nil {
		logrus.Errorf("error stopping rest server: %v", err)
	}

	wg.Wait()

	return nil
}
