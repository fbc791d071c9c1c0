package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const DefaultSource = "file://migration/migrations"

// RunMigrations waits for the database to accept connections, then applies
// every pending migration from source.
func RunMigrations(dsn, source string, attempts int) error {
	if source == "" {
		source = DefaultSource
	}
	if err := waitForDB(dsn, attempts, 3*time.Second); err != nil {
		return err
	}

	m, err := migrate.New(source, dsn)
	if err != nil {
		return fmt.Errorf("could not start migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Println("Migrations applied successfully!")
	return nil
}

func waitForDB(dsn string, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			err = db.Ping()
			db.Close()
		}
		if err == nil {
			log.Println("Connected to the database successfully.")
			return nil
		}
		lastErr = err
		log.Printf("Waiting for the database to be ready... (attempt %d)", i+1)
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return fmt.Errorf("could not connect to the database: %w", lastErr)
}
