package postgres

import (
	"ai-nexus/internal/config"
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Ensure PostgresDB implements db.Database interface
var _ db.Database = (*PostgresDB)(nil)

const uniqueViolation = "23505"

// PostgresDB implements the db.Database interface
type PostgresDB struct {
	conn *sql.DB
}

// NewPostgresDB opens a connection, verifies it and applies migrations
func NewPostgresDB(dbConfig config.DatabaseConfig) (*PostgresDB, error) {
	logger.Log.WithFields(logrus.Fields{
		"host": dbConfig.Host,
		"name": dbConfig.Name,
	}).Info("Connecting to PostgreSQL")

	conn, err := sql.Open("postgres", dbConfig.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	logger.Log.Info("Successfully connected to PostgreSQL")

	p := &PostgresDB{conn: conn}

	if err = p.RunMigrations(dbConfig.MigrationsPath); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	return p, nil
}

// Close closes the database connection
func (p *PostgresDB) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// RunMigrations applies pending migrations from sourceURL
func (p *PostgresDB) RunMigrations(sourceURL string) error {
	driver, err := postgres.WithInstance(p.conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("error creating migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("error creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}

	logger.Log.Info("Database migrations applied successfully")
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
