package app

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/go-task-tracker/internal/config"
	"github.com/adanyl0v/go-task-tracker/internal/services"
	"github.com/adanyl0v/go-task-tracker/internal/storage/memory"
	"github.com/adanyl0v/go-task-tracker/internal/storage/postgres"
)

type storage interface {
	services.TaskRepository
	services.UserRepository
	Ping(ctx context.Context) error
}

var (
	globalPostgresPool *pgxpool.Pool
	globalStorage      storage
)

func MustInitStorage() {
	switch driver := config.Global().Storage.Driver; driver {
	case config.StorageDriverMemory:
		globalStorage = memory.New()
		globalLogger.Warn().Msg("using in-memory storage, data is lost on exit")
	case config.StorageDriverPostgres:
		mustConnectPostgres()
		pgStorage := postgres.New(globalPostgresPool)

		ctx, cancel := context.WithTimeout(context.Background(), config.Global().Postgres.PingTimeout)
		defer cancel()

		err := pgStorage.EnsureSchema(ctx)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Msg("failed to ensure postgres schema")
			panic(err)
		}
		globalLogger.Info().Msg("ensured postgres schema")
		globalStorage = pgStorage
	default:
		panic(fmt.Errorf("unknown storage driver: %s", driver))
	}
}

func CloseStorage() {
	if globalPostgresPool != nil {
		globalPostgresPool.Close()
		globalLogger.Info().Msg("disconnected from postgres")
	}
}

func postgresConnURL(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   cfg.Database,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func mustConnectPostgres() {
	cfg := config.Global().Postgres

	poolCfg, err := pgxpool.ParseConfig(postgresConnURL(cfg))
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to parse postgres config")
		panic(err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	globalPostgresPool, err = pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to postgres")
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = globalPostgresPool.Ping(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping postgres")
		panic(err)
	}
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("connected to postgres")
}
