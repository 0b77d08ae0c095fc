package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"resto-be/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExtractMigrationPart(t *testing.T) {
	content := `
-- +migrate Up
CREATE TABLE users (id int);
ALTER TABLE users ADD COLUMN name text;

-- +migrate Down
DROP TABLE users;
`
	t.Run("Extract Up", func(t *testing.T) {
		up := extractMigrationPart(content, "Up")
		assert.Contains(t, up, "CREATE TABLE users")
		assert.Contains(t, up, "ALTER TABLE users")
		assert.NotContains(t, up, "DROP TABLE users")
		assert.NotContains(t, up, "-- +migrate Up")
	})

	t.Run("Extract Down", func(t *testing.T) {
		down := extractMigrationPart(content, "Down")
		assert.Contains(t, down, "DROP TABLE users")
		assert.NotContains(t, down, "CREATE TABLE users")
	})
}

func writeMigration(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "0002_b.sql", "")
	writeMigration(t, dir, "0001_a.sql", "")
	writeMigration(t, dir, "notes.txt", "")

	files, err := migrationFiles(dir)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, "0001_a.sql", filepath.Base(files[0]))
	assert.Equal(t, "0002_b.sql", filepath.Base(files[1]))
}

func TestRunMigrationsUp(t *testing.T) {
	t.Run("Applies pending in a transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		dir := t.TempDir()
		applied := writeMigration(t, dir, "0001_init.sql", "-- +migrate Up\nCREATE TABLE a (id int);")
		pending := writeMigration(t, dir, "0002_more.sql", "-- +migrate Up\nCREATE TABLE test (id int);\n-- +migrate Down\nDROP TABLE test;")

		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("0001_init.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("0002_more.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE test").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO schema_migrations").
			WithArgs("0002_more.sql").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, runMigrationsUp(db, []string{applied, pending}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failed statement rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		file := writeMigration(t, t.TempDir(), "0001_init.sql", "-- +migrate Up\nCREATE TABLE broken (;")

		mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
			WithArgs("0001_init.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE broken").WillReturnError(errors.New("syntax error"))
		mock.ExpectRollback()

		err = runMigrationsUp(db, []string{file})
		assert.ErrorContains(t, err, "0001_init.sql")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRunMigrationsDown(t *testing.T) {
	t.Run("Rolls back the latest", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		file := writeMigration(t, t.TempDir(), "0001_init.sql", "-- +migrate Up\nCREATE TABLE a (id int);\n-- +migrate Down\nDROP TABLE a;")

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0001_init.sql"))
		mock.ExpectBegin()
		mock.ExpectExec("DROP TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM schema_migrations").
			WithArgs("0001_init.sql").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, runMigrationsDown(db, []string{file}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing applied", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))

		assert.NoError(t, runMigrationsDown(db, nil))
	})

	t.Run("Missing file", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0009_gone.sql"))

		assert.ErrorContains(t, runMigrationsDown(db, nil), "0009_gone.sql")
	})
}

func TestRun_Status(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dir := t.TempDir()
	writeMigration(t, dir, "0001_init.sql", "")
	writeMigration(t, dir, "0002_more.sql", "")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version", "applied_at"}).
			AddRow("0001_init.sql", time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)))

	var out bytes.Buffer
	require.NoError(t, run(db, "status", dir, &out))

	assert.Contains(t, out.String(), "0001_init.sql")
	assert.Contains(t, out.String(), "2024-05-01 09:30:00")
	assert.Contains(t, out.String(), "0002_more.sql")
	assert.Contains(t, out.String(), "pending")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_UnknownMode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorContains(t, run(db, "sideways", t.TempDir(), &bytes.Buffer{}), "unknown mode")
}

func TestSchemaMigration(t *testing.T) {
	files, err := migrationFiles(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)

	up := extractMigrationPart(string(content), "Up")
	for _, table := range []string{
		"users", "menu_items", "supplements", "item_supplements", "breakfasts",
		"breakfast_option_groups", "breakfast_options", "promotions", "restaurant_tables",
		"orders", "order_items", "order_breakfast_options", "notifications",
	} {
		assert.Contains(t, up, "CREATE TABLE "+table+" (", table)
	}
	assert.Contains(t, extractMigrationPart(string(content), "Down"), "DROP TABLE IF EXISTS orders")

	// Range filters and promotion windows compare against zoned Go times.
	assert.Empty(t, regexp.MustCompile(`\bTIMESTAMP\b`).FindAllString(up, -1), "timestamp columns must be TIMESTAMPTZ")
	assert.Contains(t, up, "created_at TIMESTAMPTZ NOT NULL")
	assert.Contains(t, up, "end_date TIMESTAMPTZ NOT NULL")
}

type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) Register(ctx context.Context, email, password, role string) (user.User, error) {
	args := m.Called(ctx, email, password, role)
	return args.Get(0).(user.User), args.Error(1)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc := new(MockRegistrar)
		svc.On("Register", ctx, "chef@resto.test", "pa55word!", "staff").
			Return(user.User{ID: 3, Email: "chef@resto.test", Role: "staff", Active: true}, nil)

		var out bytes.Buffer
		require.NoError(t, createUser(ctx, svc, "chef@resto.test", "pa55word!", "staff", &out))
		assert.Equal(t, "created user #3 chef@resto.test (staff)\n", out.String())
	})

	t.Run("Short password", func(t *testing.T) {
		svc := new(MockRegistrar)

		err := createUser(ctx, svc, "chef@resto.test", "short", "staff", &bytes.Buffer{})
		assert.ErrorContains(t, err, "at least 8")
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing email", func(t *testing.T) {
		err := createUser(ctx, new(MockRegistrar), "", "pa55word!", "staff", &bytes.Buffer{})
		assert.ErrorContains(t, err, "-email")
	})

	t.Run("Email taken", func(t *testing.T) {
		svc := new(MockRegistrar)
		svc.On("Register", ctx, "chef@resto.test", "pa55word!", "admin").Return(user.User{}, user.ErrEmailExists)

		err := createUser(ctx, svc, "chef@resto.test", "pa55word!", "admin", &bytes.Buffer{})
		assert.ErrorIs(t, err, user.ErrEmailExists)
	})
}
