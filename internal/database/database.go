// Package database contains the logic for establishing
// connections to the PostgreSQL database.
//
// It handles:
//   - building a DSN from config
//   - opening a database/sql pool backed by the pgx driver
//   - wiring query tracing/logging (pgx tracelog, optional New Relic)
//   - acquiring request-scoped sessions (one connection + one transaction)
//   - running embedded tern migrations
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/deppfellow/produto-service/internal/config"
	loggerConfig "github.com/deppfellow/produto-service/internal/logger"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
)

// Database wraps the shared connection pool.
//
// The pool is the only state shared across invocations. Handlers never
// touch it directly; they receive a Session from Acquire.
type Database struct {
	DB             *sql.DB
	log            *zerolog.Logger
	acquireTimeout time.Duration
}

// multiTracer chains several pgx query tracers.
//
// pgx.ConnConfig has a single Tracer slot; this adapter lets the New Relic
// tracer and the local SQL logger both observe every query.
type multiTracer struct {
	tracers []pgx.QueryTracer
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, t := range mt.tracers {
		ctx = t.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, t := range mt.tracers {
		t.TraceQueryEnd(ctx, conn, data)
	}
}

// DatabasePingTimeout is how long New waits for the first ping.
const DatabasePingTimeout = 10 * time.Second

// New opens the connection pool with instrumentation and pings it.
//
// Behavior:
//   - New Relic tracer when the agent is running
//   - SQL trace logging in the local env (chained with New Relic if both exist)
//   - pool sizing from config; connections are opened lazily
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	connConfig, err := pgx.ParseConfig(DSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	connConfig.Tracer = buildTracer(cfg, logger, loggerService)

	db := stdlib.OpenDB(*connConfig)
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second)

	database := NewWithDB(db, logger, cfg.Database.AcquireTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("connected to the database")

	return database, nil
}

// NewWithDB wraps an already opened pool.
func NewWithDB(db *sql.DB, logger *zerolog.Logger, acquireTimeout time.Duration) *Database {
	return &Database{
		DB:             db,
		log:            logger,
		acquireTimeout: acquireTimeout,
	}
}

func buildTracer(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) pgx.QueryTracer {
	var tracers []pgx.QueryTracer

	if loggerService.GetApplication() != nil {
		tracers = append(tracers, nrpgx5.NewTracer())
	}

	// Query logging is noisy, so it only runs locally.
	if cfg.IsLocal() {
		globalLevel := logger.GetLevel()
		tracers = append(tracers, &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(loggerConfig.NewPgxLogger(globalLevel)),
			LogLevel: loggerConfig.GetPgxTraceLogLevel(globalLevel),
		})
	}

	switch len(tracers) {
	case 0:
		return nil
	case 1:
		return tracers[0]
	default:
		return &multiTracer{tracers: tracers}
	}
}

// Ping checks that a connection can be obtained.
func (db *Database) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

// Close closes the connection pool.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")
	return db.DB.Close()
}
