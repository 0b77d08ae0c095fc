package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"resto-be/internal/auth"
	"resto-be/internal/config"
	"resto-be/internal/db"
	"resto-be/internal/logger"
	"resto-be/internal/user"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

func main() {
	mode := flag.String("mode", "up", "mode: up, down, status or create-user")
	dir := flag.String("dir", "./migrations", "directory holding the *.sql migrations")
	email := flag.String("email", "", "create-user: account email")
	password := flag.String("password", "", "create-user: account password")
	role := flag.String("role", auth.RoleStaff, "create-user: admin, staff or customer")
	flag.Parse()

	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		logger.L().Fatal("failed to connect db", zap.Error(err))
	}
	defer database.Close()

	if *mode == "create-user" {
		svc := user.NewService(user.NewRepository(database), cfg.JWTSecret)
		if err := createUser(context.Background(), svc, *email, *password, *role, os.Stdout); err != nil {
			logger.L().Fatal("failed to create user", zap.String("email", *email), zap.Error(err))
		}
		return
	}

	if err := run(database, *mode, *dir, os.Stdout); err != nil {
		logger.L().Fatal("migration failed", zap.String("mode", *mode), zap.Error(err))
	}
}

func run(db *sql.DB, mode, migrationsDir string, out io.Writer) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	files, err := migrationFiles(migrationsDir)
	if err != nil {
		return err
	}

	switch mode {
	case "up":
		return runMigrationsUp(db, files)
	case "down":
		return runMigrationsDown(db, files)
	case "status":
		return printStatus(db, files, out)
	default:
		return fmt.Errorf("unknown mode: %s (use 'up', 'down' or 'status')", mode)
	}
}

// migrationFiles lists *.sql in lexical order, which is apply order.
func migrationFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func runMigrationsUp(db *sql.DB, files []string) error {
	log := logger.L().With(zap.String("mode", "up"))
	applied := 0

	for _, file := range files {
		version := filepath.Base(file)

		var exists bool
		err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			log.Debug("skipping applied migration", zap.String("version", version))
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		log.Info("applying migration", zap.String("version", version))
		err = inTx(db, func(tx *sql.Tx) error {
			if _, err := tx.Exec(extractMigrationPart(string(content), "Up")); err != nil {
				return fmt.Errorf("migration failed (%s): %w", version, err)
			}
			if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
				return fmt.Errorf("failed to record migration version: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		applied++
	}

	log.Info("migrations up to date", zap.Int("applied", applied))
	return nil
}

func runMigrationsDown(db *sql.DB, files []string) error {
	log := logger.L().With(zap.String("mode", "down"))

	var lastVersion string
	err := db.QueryRow(`SELECT version FROM schema_migrations ORDER BY applied_at DESC, version DESC LIMIT 1`).Scan(&lastVersion)
	if err == sql.ErrNoRows {
		log.Info("no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get last applied migration: %w", err)
	}

	filePath := ""
	for _, f := range files {
		if filepath.Base(f) == lastVersion {
			filePath = f
			break
		}
	}
	if filePath == "" {
		return fmt.Errorf("migration file not found for version: %s", lastVersion)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	log.Info("rolling back migration", zap.String("version", lastVersion))
	return inTx(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(extractMigrationPart(string(content), "Down")); err != nil {
			return fmt.Errorf("rollback failed (%s): %w", lastVersion, err)
		}
		if _, err := tx.Exec(`DELETE FROM schema_migrations WHERE version = $1`, lastVersion); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	})
}

func inTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func printStatus(db *sql.DB, files []string, out io.Writer) error {
	rows, err := db.Query(`SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var (
			version string
			at      time.Time
		)
		if err := rows.Scan(&version, &at); err != nil {
			return err
		}
		applied[version] = at
	}
	if err := rows.Err(); err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header("Version", "Status", "Applied At")
	for _, f := range files {
		version := filepath.Base(f)
		row := []string{version, "pending", ""}
		if at, ok := applied[version]; ok {
			row[1] = "applied"
			row[2] = at.Format(time.DateTime)
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

type registrar interface {
	Register(ctx context.Context, email, password, role string) (user.User, error)
}

const minPasswordLen = 8

// createUser bootstraps accounts; the API has no sign-up endpoint.
func createUser(ctx context.Context, svc registrar, email, password, role string, out io.Writer) error {
	if email == "" {
		return errors.New("-email is required")
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("-password must be at least %d characters", minPasswordLen)
	}

	u, err := svc.Register(ctx, email, password, role)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "created user #%d %s (%s)\n", u.ID, u.Email, u.Role)
	return err
}

func extractMigrationPart(content string, section string) string {
	lines := strings.Split(content, "\n")
	var part strings.Builder
	var inPart bool

	for _, line := range lines {
		if strings.Contains(line, "-- +migrate "+section) {
			inPart = true
			continue
		}
		if inPart && strings.HasPrefix(line, "-- +migrate") {
			break
		}
		if inPart {
			part.WriteString(line + "\n")
		}
	}
	return part.String()
}
