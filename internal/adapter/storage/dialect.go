package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/rl1809/storefront/internal/core/domain"
)

type Dialect int

const (
	DialectMySQL Dialect = iota
	DialectPostgres
)

const (
	mysqlDuplicateEntry     = 1062
	postgresUniqueViolation = "23505"
)

// ParseDialect maps a database/sql driver name onto a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "mysql":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	}
	return 0, fmt.Errorf("unsupported database driver %q", driver)
}

func (d Dialect) DriverName() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "mysql"
}

// rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == postgresUniqueViolation
	}
	return false
}

// classify turns a driver error into the domain taxonomy.
func (d Dialect) classify(err error, op, table string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s %s: %w", op, table, domain.ErrNotFound)
	case d.isUniqueViolation(err):
		return &conflictError{op: op, table: table, cause: err}
	}
	return fmt.Errorf("%s %s: %w: %w", op, table, domain.ErrStore, err)
}

// conflictError reports a unique violation without the driver message, which
// names indexes and echoes the offending values. The driver error stays
// reachable through errors.As.
type conflictError struct {
	op, table string
	cause     error
}

func (e *conflictError) Error() string {
	return e.op + " " + e.table + ": " + domain.ErrConflict.Error()
}

func (e *conflictError) Unwrap() []error {
	return []error{domain.ErrConflict, e.cause}
}

// NormalizeMySQLDSN forces the options the stores rely on: time columns
// scanned as time.Time and UPDATE reporting matched rather than changed rows.
func NormalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}
