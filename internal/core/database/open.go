package database

import (
	"fmt"
	"log/slog"

	"github.com/frahmantamala/correspondence-management/internal"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Handles is one connection pool seen through both the ORM and sqlx.
type Handles struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
}

func (h *Handles) Close() error {
	if h == nil || h.SQLX == nil {
		return nil
	}
	return h.SQLX.Close()
}

// Open connects with cfg.Driver ("pgx" or "sqlite") and sizes the pool.
func Open(cfg internal.DatabaseConfig, logger *slog.Logger) (*Handles, error) {
	switch cfg.Driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg)
	default:
		return openPostgres(cfg, logger)
	}
}

func openPostgres(cfg internal.DatabaseConfig, logger *slog.Logger) (*Handles, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	applyPool(dbConn, cfg)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	logger.Info("database connected", "driver", driver, "max_open_conns", cfg.MaxOpenConns)
	return &Handles{Gorm: gdb, SQLX: dbConn}, nil
}

func openSQLite(cfg internal.DatabaseConfig) (*Handles, error) {
	gdb, err := gorm.Open(sqlite.Open(cfg.Source), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	// a single connection keeps in-memory databases coherent
	sqlDB.SetMaxOpenConns(1)

	return &Handles{Gorm: gdb, SQLX: sqlx.NewDb(sqlDB, "sqlite3")}, nil
}

func applyPool(db *sqlx.DB, cfg internal.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}
