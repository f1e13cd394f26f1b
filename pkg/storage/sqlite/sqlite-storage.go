package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
)

var ErrSchemaMismatch = errors.New("schema mismatch")

// DriverName is the go-sqlite3 driver extended with the casefold SQL function.
const DriverName = "sqlite3_casefold"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("casefold", Fold, true)
		},
	})
}

// Fold returns the Unicode case folding of s. SQLite's own lower() only folds ASCII letters, so queries comparing
// text case-insensitively fold both sides with this, available in SQL as casefold().
func Fold(s string) string {
	// casers keep state and can't be shared between goroutines
	return cases.Fold().String(s)
}

// Storage owns the single connection pool shared by every store.
type Storage struct {
	Connection *sql.DB
	logger     logrus.FieldLogger
}

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// New opens the database at path. Empty databases receive the schema, while existing ones must match it.
func New(logger logrus.FieldLogger, path string) (*Storage, error) {
	logger.WithField("path", path).Info("initialising SQLite DB")

	connection, err := open(path)
	if err != nil {
		return nil, err
	}

	// opening the DB will fail silently when the package is compiled without CGO_ENABLED
	if err = connection.Ping(); err != nil {
		_ = connection.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	actualTables, err := mapSchema(connection)
	if err != nil {
		_ = connection.Close()
		return nil, err
	}

	if len(actualTables) == 0 {
		if err = ApplySchema(context.Background(), connection); err != nil {
			logger.WithError(err).Error("error while building database schema")
			_ = connection.Close()
			return nil, err
		}
	} else if err = verifySchema(actualTables); err != nil {
		logger.WithError(err).Error("error while verifying existing database")
		_ = connection.Close()
		return nil, err
	}

	return &Storage{Connection: connection, logger: logger}, nil
}

// ApplySchema creates missing tables and indexes; existing data is left untouched.
func ApplySchema(ctx context.Context, ex Execer) error {
	if _, err := ex.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	s.logger.Debug("database stopping")
	return s.Connection.Close()
}

func open(path string) (*sql.DB, error) {
	connection, err := sql.Open(DriverName, getConnectionString(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// every connection to an in-memory database would otherwise get a private, empty database
	if path == ":memory:" {
		connection.SetMaxOpenConns(1)
	}
	return connection, nil
}

func verifySchema(actualTables map[string]string) error {
	// read the schema as defined in the storage package
	desired, err := open(":memory:")
	if err != nil {
		return err
	}
	defer func() { _ = desired.Close() }()

	if err = ApplySchema(context.Background(), desired); err != nil {
		return err
	}

	desiredTables, err := mapSchema(desired)
	if err != nil {
		return err
	}

	// the database already exists and its schema matches the desired one
	if sameSchemaMap(desiredTables, actualTables) {
		return nil
	}
	return ErrSchemaMismatch
}

func mapSchema(connection *sql.DB) (tables map[string]string, err error) {

	rows, err := connection.Query(`SELECT name, sql FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	// for some reason in memory and on file sqlite schemas differ, possibly due to the hosting platform
	var replacer = strings.NewReplacer(
		"\n\t\t", "",
		"\r\n\t\t", "",
		"\r\n", "",
		"\n", "",
	)

	tables = make(map[string]string)
	var name, sqlCode string
	for rows.Next() {
		err = rows.Scan(&name, &sqlCode)
		if err != nil {
			return tables, err
		}
		tables[name] = replacer.Replace(sqlCode)
	}

	return tables, rows.Err()
}

func sameSchemaMap(first, second map[string]string) bool {
	// the second map might be larger than the first, hence the additional length check
	if len(first) != len(second) {
		return false
	}
	for firstKey, firstValue := range first {
		if secondValue, found := second[firstKey]; !found || secondValue != firstValue {
			return false
		}
	}
	return true
}

// getConnectionString enables foreign keys constraints and makes concurrent writers queue rather than fail:
// transactions take the write lock on BEGIN and wait up to the busy timeout for it.
func getConnectionString(path string) string {
	return path + "?_fk=on&_busy_timeout=5000&_txlock=immediate"
}

// IsUniqueViolation detects UNIQUE and PRIMARY KEY constraint failures, even when wrapped.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
