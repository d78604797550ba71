package migrations

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	pg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	sourceDir     = "migrations"
	metadataTable = "schema_migrations_migrate"
)

// RunMigrations applies the file-based migrations under ./migrations.
// Databases that predate the migration metadata table are baselined to
// the newest on-disk version before Up runs, so a deploy onto an
// existing schema does not replay the init migration.
func RunMigrations(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open DB: %w", err)
	}
	defer sqlDB.Close()

	driver, err := pg.WithInstance(sqlDB, &pg.Config{MigrationsTable: metadataTable})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	mig, err := migrate.NewWithDatabaseInstance("file://"+sourceDir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if needsBaseline(sqlDB) {
		if latest := latestVersionOnDisk(sourceDir); latest > 0 {
			log.Printf("[MIGRATE] Baselining existing schema to version %d", latest)
			if err := mig.Force(int(latest)); err != nil {
				log.Printf("[MIGRATE] Force to version %d failed: %v", latest, err)
			}
		}
	}

	if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}

	log.Printf("[MIGRATE] Schema up to date")
	return nil
}

// needsBaseline reports whether the application schema exists while
// migrate's own metadata table does not.
func needsBaseline(db *sql.DB) bool {
	return tableExists(db, "users") && !tableExists(db, metadataTable)
}

func tableExists(db *sql.DB, name string) bool {
	var exists bool
	row := db.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)", name)
	if err := row.Scan(&exists); err != nil {
		return false
	}
	return exists
}

// latestVersionOnDisk returns the highest numeric version prefix
// (e.g. 000002_) among migration files, or 0 if none are found.
func latestVersionOnDisk(dir string) int64 {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	re := regexp.MustCompile(`^0*([0-9]+)_`)
	var max int64
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		parts := re.FindStringSubmatch(f.Name())
		if len(parts) < 2 {
			continue
		}
		v, _ := strconv.ParseInt(parts[1], 10, 64)
		if v > max {
			max = v
		}
	}
	return max
}
