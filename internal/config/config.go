package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	GRPCHost           string
	GRPCPort           int
	GRPCAddr           string
	ShutdownTimeout    time.Duration
	LogLevel           string
	GRPCRequestTimeout time.Duration

	LoadLatency   time.Duration
	SearchLatency time.Duration
	BookLatency   time.Duration

	SessionDSN        string
	AppointmentSource string
	SlotPolicy        string
	Ordering          string

	// DatabaseURL is optional; without it the appointment ledger and slot
	// reservations stay in memory.
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
}

func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NIROG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)
	v.SetDefault("grpc.addr", "")
	v.SetDefault("grpc.request_timeout", "10s")
	v.SetDefault("shutdown.timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("latency.load", "1s")
	v.SetDefault("latency.search", "500ms")
	v.SetDefault("latency.book", "1500ms")
	v.SetDefault("session.dsn", "file:nirog-session.db")
	v.SetDefault("appointments.source", "mock")
	v.SetDefault("slots.policy", "reuse")
	v.SetDefault("ordering", "last_write_wins")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")

	_ = v.BindEnv("grpc.host", "NIROG_GRPC_HOST", "GRPC_HOST")
	_ = v.BindEnv("grpc.port", "NIROG_GRPC_PORT", "GRPC_PORT", "PORT")
	_ = v.BindEnv("grpc.addr", "NIROG_GRPC_ADDR", "GRPC_ADDR")
	_ = v.BindEnv("grpc.request_timeout", "NIROG_GRPC_REQUEST_TIMEOUT")
	_ = v.BindEnv("shutdown.timeout", "NIROG_SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("log.level", "NIROG_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("database.url", "NIROG_DATABASE_URL", "DATABASE_URL")

	var cfg Config
	durations := map[string]*time.Duration{
		"shutdown.timeout":            &cfg.ShutdownTimeout,
		"grpc.request_timeout":        &cfg.GRPCRequestTimeout,
		"latency.load":                &cfg.LoadLatency,
		"latency.search":              &cfg.SearchLatency,
		"latency.book":                &cfg.BookLatency,
		"database.conn_max_lifetime":  &cfg.DBConnMaxLifetime,
		"database.conn_max_idle_time": &cfg.DBConnMaxIdleTime,
	}
	for key, dst := range durations {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", key, err)
		}
		if d < 0 {
			return Config{}, fmt.Errorf("%s: must not be negative", key)
		}
		*dst = d
	}

	if addr := strings.TrimSpace(v.GetString("grpc.addr")); addr != "" {
		host, portStr, err := net.SplitHostPort(addr)
		if err == nil {
			if host != "" {
				v.Set("grpc.host", host)
			}
			if port, err := strconv.Atoi(portStr); err == nil {
				v.Set("grpc.port", port)
			}
		}
	}

	cfg.GRPCHost = strings.TrimSpace(v.GetString("grpc.host"))
	cfg.GRPCPort = v.GetInt("grpc.port")
	cfg.GRPCAddr = net.JoinHostPort(cfg.GRPCHost, strconv.Itoa(cfg.GRPCPort))
	cfg.LogLevel = v.GetString("log.level")
	cfg.SessionDSN = strings.TrimSpace(v.GetString("session.dsn"))
	cfg.AppointmentSource = strings.TrimSpace(v.GetString("appointments.source"))
	cfg.SlotPolicy = strings.TrimSpace(v.GetString("slots.policy"))
	cfg.Ordering = strings.TrimSpace(v.GetString("ordering"))
	cfg.DatabaseURL = strings.TrimSpace(v.GetString("database.url"))
	cfg.DBMaxOpenConns = v.GetInt("database.max_open_conns")
	cfg.DBMaxIdleConns = v.GetInt("database.max_idle_conns")

	return cfg, nil
}
