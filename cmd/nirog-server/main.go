package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"google.golang.org/grpc"

	"nirog/backend/internal/config"
	"nirog/backend/internal/service/directory"
	"nirog/backend/internal/store"
	"nirog/backend/internal/store/memory"
	"nirog/backend/internal/store/postgres"
	"nirog/backend/internal/store/sqlite"
	grpcTransport "nirog/backend/internal/transport/grpc"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "nirog-server"),
	)
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("dotenv load failed", slog.Any("err", err))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "nirog-server"),
	)
	slog.SetDefault(log)

	source, err := directory.ParseAppointmentSource(cfg.AppointmentSource)
	if err != nil {
		log.Error("config invalid", slog.Any("err", err))
		os.Exit(1)
	}
	slotPolicy, err := directory.ParseSlotPolicy(cfg.SlotPolicy)
	if err != nil {
		log.Error("config invalid", slog.Any("err", err))
		os.Exit(1)
	}
	ordering, err := directory.ParseOrdering(cfg.Ordering)
	if err != nil {
		log.Error("config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info(
		"starting",
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("log_level", cfg.LogLevel),
		slog.String("appointment_source", string(source)),
		slog.String("slot_policy", string(slotPolicy)),
		slog.String("ordering", string(ordering)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionDB, err := sqlite.Open(ctx, cfg.SessionDSN)
	if err != nil {
		log.Error("session cache open failed", slog.Any("err", err), slog.String("session_dsn", cfg.SessionDSN))
		os.Exit(1)
	}
	defer closeDB(log, "session cache", sessionDB)

	var (
		ledger store.AppointmentRepository
		slots  store.SlotReservations
	)
	needsLedger := source == directory.SourceLedger || slotPolicy == directory.SlotPolicyConsume
	if needsLedger && cfg.DatabaseURL != "" {
		db, err := openLedger(ctx, log, cfg)
		if err != nil {
			os.Exit(1)
		}
		defer func() {
			if err := postgres.Close(db); err != nil {
				log.Warn("database close failed", slog.Any("err", err))
			}
		}()
		repo := postgres.NewAppointmentRepo(db)
		ledger, slots = repo, repo
	} else if needsLedger {
		log.Info("no database url; appointment ledger kept in memory")
		ledger, slots = memory.NewAppointmentRepo(), memory.NewSlotReservations()
	}

	st, err := directory.New(ctx, directory.Options{
		Latency: directory.Latency{
			Load:   cfg.LoadLatency,
			Search: cfg.SearchLatency,
			Book:   cfg.BookLatency,
		},
		Session:    sqlite.NewSessionCache(sessionDB),
		Ledger:     ledger,
		Slots:      slots,
		Source:     source,
		SlotPolicy: slotPolicy,
		Ordering:   ordering,
		Log:        log,
	})
	if err != nil {
		log.Error("directory store init failed", slog.Any("err", err))
		os.Exit(1)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(defaultRequestTimeoutInterceptor(cfg.GRPCRequestTimeout)),
	)
	grpcTransport.RegisterDirectoryServiceServer(grpcServer, grpcTransport.NewDirectoryServer(st, log))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr))
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()

	log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, grpcServer, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("grpc server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func openLedger(ctx context.Context, log *slog.Logger, cfg config.Config) (*bun.DB, error) {
	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("database migration failed", slog.Any("err", err))
		_ = postgres.Close(db)
		return nil, err
	}
	return db, nil
}

func closeDB(log *slog.Logger, name string, db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Warn("close failed", slog.String("db", name), slog.Any("err", err))
	}
}

func defaultRequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

func shutdown(log *slog.Logger, s *grpc.Server, timeout time.Duration) {
	log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-timer.C:
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
