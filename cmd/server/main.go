// Command intakedesk-server starts the intake record gRPC server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	intakev1 "github.com/and161185/intakedesk/internal/api/intakev1"
	"github.com/and161185/intakedesk/internal/limiter"
	"github.com/and161185/intakedesk/internal/live"
	"github.com/and161185/intakedesk/internal/migrate"
	"github.com/and161185/intakedesk/internal/repository"
	"github.com/and161185/intakedesk/internal/repository/postgres"
	"github.com/and161185/intakedesk/internal/repository/sqlite"
	grpcserver "github.com/and161185/intakedesk/internal/server/grpc"
	"github.com/and161185/intakedesk/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// stores groups the backend-specific repositories and limiter.
type stores struct {
	users   repository.UserRepository
	records repository.RecordRepository
	lim     limiter.Limiter
	close   func()
}

// openStores migrates and opens the configured backend.
func openStores(ctx context.Context, cfg config) (*stores, error) {
	switch cfg.Store {
	case storeSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:   sqlite.NewUserRepo(db),
			records: sqlite.NewRecordRepo(db),
			lim:     limiter.NewMemory(limiter.DefaultPolicy),
			close:   func() { _ = db.Close() },
		}, nil
	default:
		if err := migrate.Postgres(ctx, cfg.DSN); err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &stores{
			users:   postgres.NewUserRepo(db),
			records: postgres.NewRecordRepo(db),
			lim:     limiter.NewPG(db.Pool, limiter.DefaultPolicy),
			close:   db.Close,
		}, nil
	}
}

// run wires storage, services and transport, then serves until a signal arrives.
func run(cfg config, logger *zap.Logger) error {
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
	)

	creds := insecure.NewCredentials()
	if !cfg.Insecure {
		tlsCreds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		creds = tlsCreds
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	hub := live.NewHub()
	authSvc := service.NewAuthService(st.users, []byte(cfg.JWTKey), cfg.AccessTTL, st.lim)
	recordSvc := service.NewRecordService(st.records, hub, logger.Named("records"))

	opts := append([]grpc.ServerOption{grpc.Creds(creds)}, grpcserver.Interceptors(logger, []byte(cfg.JWTKey))...)
	s := grpc.NewServer(opts...)
	intakev1.RegisterIntakeServer(s, grpcserver.New(authSvc, recordSvc, logger))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(intakev1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	if cfg.Dev {
		reflection.Register(s)
	}

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", lis.Addr().String()), zap.Bool("tls", !cfg.Insecure))
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		hs.Shutdown()
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			// watch streams hold GracefulStop open until clients leave
			s.Stop()
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}
}
