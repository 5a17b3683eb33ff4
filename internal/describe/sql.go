package describe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // for sqlserver
	_ "github.com/go-sql-driver/mysql"   // for mysql
	_ "github.com/lib/pq"                // for postgres
	_ "modernc.org/sqlite"               // for sqlite
)

// DefaultTable is the table queried when none is configured
const DefaultTable = "parameter_descriptions"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DBConfig holds database connection configuration
type DBConfig struct {
	Type     string `yaml:"type" validate:"omitempty,oneof=postgres mysql sqlserver sqlite"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Table    string `yaml:"table"`
}

// DSN builds the driver specific connection string
func (c DBConfig) DSN() (string, error) {
	switch c.Type {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.User, c.Password, c.Database), nil
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			c.User, c.Password, c.Host, c.Port, c.Database), nil
	case "sqlserver":
		return fmt.Sprintf("server=%s;port=%d;user id=%s;password=%s;database=%s",
			c.Host, c.Port, c.User, c.Password, c.Database), nil
	case "sqlite":
		return c.Database, nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", c.Type)
	}
}

// SQLSource looks descriptions up in a table with the columns
// (method, route, location, pointer, description). Operation-level rows use
// empty location and pointer.
type SQLSource struct {
	db      *sql.DB
	dialect string
	query   string
	owned   bool
}

// OpenSQLSource connects to the configured database
func OpenSQLSource(ctx context.Context, config DBConfig) (*SQLSource, error) {
	dsn, err := config.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(config.Type, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	src, err := NewSQLSource(db, config.Type, config.Table)
	if err != nil {
		db.Close()
		return nil, err
	}
	src.owned = true
	return src, nil
}

// NewSQLSource wraps an open database. dialect selects the placeholder style.
func NewSQLSource(db *sql.DB, dialect, table string) (*SQLSource, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	query := fmt.Sprintf(
		"SELECT description FROM %s WHERE method = ? AND route = ? AND location = ? AND pointer = ?", table)
	return &SQLSource{db: db, dialect: dialect, query: rebind(dialect, query)}, nil
}

func (s *SQLSource) Describe(ctx context.Context, target Target) (*string, error) {
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, s.query,
		target.Method, target.Route, string(target.Location), target.Pointer(),
	).Scan(&description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query descriptions: %w", ErrUnavailable, err)
	}
	if !description.Valid {
		return nil, nil
	}
	return textOrNil(description.String), nil
}

// Close releases the connection pool if this source opened it
func (s *SQLSource) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}

// rebind rewrites '?' placeholders for dialects that number them
func rebind(dialect, query string) string {
	var prefix string
	switch dialect {
	case "postgres":
		prefix = "$"
	case "sqlserver":
		prefix = "@p"
	default:
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "%s%d", prefix, n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
