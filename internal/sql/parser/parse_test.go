package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_CreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE foo (x INT, y TEXT, z BOOLEAN)")
	require.NoError(t, err)

	ct, ok := stmt.(*CreateTableStmt)
	require.True(t, ok)
	require.Equal(t, "foo", ct.Table)
	require.False(t, ct.IfNotExists)
	require.Equal(t, []ColumnDef{
		{Name: "x", Type: "INT"},
		{Name: "y", Type: "TEXT"},
		{Name: "z", Type: "BOOLEAN"},
	}, ct.Columns)
}

func TestParse_CreateTableIfNotExists(t *testing.T) {
	stmt, err := Parse("create table if not exists foo (x int)")
	require.NoError(t, err)

	ct := stmt.(*CreateTableStmt)
	require.Equal(t, "foo", ct.Table)
	require.True(t, ct.IfNotExists)
}

func TestParse_CreateTableBad(t *testing.T) {
	for _, sql := range []string{
		"CREATE TABLE foo",
		"CREATE TABLE foo ()",
		"CREATE TABLE (x INT)",
		"CREATE TABLE foo (x FLOAT)",
		"CREATE TABLE foo (x)",
		"CREATE TABLE 1foo (x INT)",
	} {
		_, err := Parse(sql)
		require.Error(t, err, sql)
	}
}

func TestParse_DropTable(t *testing.T) {
	stmt, err := Parse("DROP TABLE foo;")
	require.NoError(t, err)
	require.Equal(t, &DropTableStmt{Table: "foo"}, stmt)
}

func TestParse_CreateIndex(t *testing.T) {
	stmt, err := Parse("CREATE INDEX i1 ON foo USING BTREE (x)")
	require.NoError(t, err)
	require.Equal(t, &CreateIndexStmt{
		Index: "i1", Table: "foo", Using: "BTREE", Columns: []string{"x"},
	}, stmt)

	stmt, err = Parse("CREATE INDEX i2 ON foo USING HASH (x, y)")
	require.NoError(t, err)
	require.Equal(t, &CreateIndexStmt{
		Index: "i2", Table: "foo", Using: "HASH", Columns: []string{"x", "y"},
	}, stmt)

	// index type defaults to BTREE
	stmt, err = Parse("CREATE INDEX i3 ON foo (y)")
	require.NoError(t, err)
	require.Equal(t, &CreateIndexStmt{
		Index: "i3", Table: "foo", Using: "BTREE", Columns: []string{"y"},
	}, stmt)
}

func TestParse_CreateIndexBad(t *testing.T) {
	for _, sql := range []string{
		"CREATE INDEX i1 ON foo USING RTREE (x)",
		"CREATE INDEX i1 foo (x)",
		"CREATE INDEX i1 ON foo ()",
		"CREATE INDEX ON foo (x)",
	} {
		_, err := Parse(sql)
		require.Error(t, err, sql)
	}
}

func TestParse_DropIndex(t *testing.T) {
	stmt, err := Parse("DROP INDEX i1 ON foo")
	require.NoError(t, err)
	require.Equal(t, &DropIndexStmt{Index: "i1", Table: "foo"}, stmt)

	_, err = Parse("DROP INDEX i1")
	require.Error(t, err)
}

func TestParse_Show(t *testing.T) {
	stmt, err := Parse("SHOW TABLES")
	require.NoError(t, err)
	require.IsType(t, &ShowTablesStmt{}, stmt)

	stmt, err = Parse("SHOW COLUMNS FROM foo")
	require.NoError(t, err)
	require.Equal(t, &ShowColumnsStmt{Table: "foo"}, stmt)

	stmt, err = Parse("SHOW INDEX FROM foo")
	require.NoError(t, err)
	require.Equal(t, &ShowIndexStmt{Table: "foo"}, stmt)
}

func TestParse_Unsupported(t *testing.T) {
	for _, sql := range []string{
		"",
		";",
		"SELECT * FROM foo",
		"INSERT INTO foo VALUES (1)",
		"EXPLAIN SHOW TABLES",
	} {
		_, err := Parse(sql)
		require.Error(t, err, sql)
	}
}

func TestParseAll(t *testing.T) {
	stmts, err := ParseAll("SHOW TABLES; DROP TABLE foo;")
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	require.IsType(t, &ShowTablesStmt{}, stmts[0])
	require.Equal(t, &DropTableStmt{Table: "foo"}, stmts[1])

	stmts, err = ParseAll("  ;  ;")
	require.NoError(t, err)
	require.Empty(t, stmts)
}
