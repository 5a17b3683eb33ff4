package describe

import (
	"context"
	"database/sql"
	"testing"

	"api-doc-explorer/internal/disclosure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	base := DBConfig{Host: "db", Port: 5432, Database: "docs", User: "u", Password: "p"}

	tests := []struct {
		dbType string
		want   string
	}{
		{"postgres", "host=db port=5432 user=u password=p dbname=docs sslmode=disable"},
		{"mysql", "u:p@tcp(db:5432)/docs"},
		{"sqlserver", "server=db;port=5432;user id=u;password=p;database=docs"},
		{"sqlite", "docs"},
	}
	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			cfg := base
			cfg.Type = tt.dbType
			got, err := cfg.DSN()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DBConfig{Type: "oracle"}.DSN()
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestRebind(t *testing.T) {
	q := "a = ? AND b = ?"
	assert.Equal(t, "a = $1 AND b = $2", rebind("postgres", q))
	assert.Equal(t, "a = @p1 AND b = @p2", rebind("sqlserver", q))
	assert.Equal(t, q, rebind("mysql", q))
	assert.Equal(t, q, rebind("sqlite", q))
}

func TestNewSQLSourceRejectsBadTable(t *testing.T) {
	_, err := NewSQLSource(nil, "sqlite", "docs; DROP TABLE x")
	assert.ErrorContains(t, err, "invalid table name")
}

func TestSQLSource(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE parameter_descriptions (
		method TEXT, route TEXT, location TEXT, pointer TEXT, description TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO parameter_descriptions VALUES
		('PUT', '/pets', 'body', '/owner/email', 'Owner contact address'),
		('PUT', '/pets', 'body', '/owner/name', NULL),
		('PUT', '/pets', '', '', 'Replace a pet')`)
	require.NoError(t, err)

	src, err := NewSQLSource(db, "sqlite", "")
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()
	field := func(name string) Target {
		return Target{Method: "PUT", Route: "/pets", Location: disclosure.BodyParam, Path: []string{"owner"}, Name: name}
	}

	got, err := src.Describe(ctx, field("email"))
	require.NoError(t, err)
	assert.Equal(t, "Owner contact address", *got)

	got, err = src.Describe(ctx, field("name"))
	require.NoError(t, err)
	assert.Nil(t, got, "NULL description")

	got, err = src.Describe(ctx, field("phone"))
	require.NoError(t, err)
	assert.Nil(t, got, "missing row")

	got, err = src.Describe(ctx, Target{Method: "PUT", Route: "/pets"})
	require.NoError(t, err)
	assert.Equal(t, "Replace a pet", *got)
}

func TestSQLSourceQueryFailure(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	src, err := NewSQLSource(db, "sqlite", "absent")
	require.NoError(t, err)
	_, err = src.Describe(context.Background(), Target{Method: "GET", Route: "/"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenSQLSource(t *testing.T) {
	path := t.TempDir() + "/docs.db"
	src, err := OpenSQLSource(context.Background(), DBConfig{Type: "sqlite", Database: path})
	require.NoError(t, err)
	require.NoError(t, src.Close())

	_, err = OpenSQLSource(context.Background(), DBConfig{Type: "oracle"})
	assert.Error(t, err)
}
