package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "simple",
			script: "CREATE TABLE a (x INT);\nINSERT INTO a VALUES (1);",
			want:   []string{"CREATE TABLE a (x INT)", "INSERT INTO a VALUES (1)"},
		},
		{
			name:   "no trailing semicolon",
			script: "SELECT 1;\nSELECT 2",
			want:   []string{"SELECT 1", "SELECT 2"},
		},
		{
			name:   "semicolon in string",
			script: "INSERT INTO t VALUES ('a;b');SELECT 1;",
			want:   []string{"INSERT INTO t VALUES ('a;b')", "SELECT 1"},
		},
		{
			name:   "escaped quote",
			script: "INSERT INTO t VALUES ('it''s; fine');",
			want:   []string{"INSERT INTO t VALUES ('it''s; fine')"},
		},
		{
			name:   "quoted identifier",
			script: `SELECT "odd;name" FROM t;`,
			want:   []string{`SELECT "odd;name" FROM t`},
		},
		{
			name:   "line comment",
			script: "-- setup; ignore me\nSELECT 1; -- trailing;\n",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "block comment",
			script: "/* header;\n more; */ SELECT /* inline; */ 1;",
			want:   []string{"SELECT   1"},
		},
		{
			name:   "dollar quoted body",
			script: "CREATE FUNCTION f() RETURNS int AS $fn$ BEGIN RETURN 1; END; $fn$ LANGUAGE plpgsql;\nSELECT 2;",
			want: []string{
				"CREATE FUNCTION f() RETURNS int AS $fn$ BEGIN RETURN 1; END; $fn$ LANGUAGE plpgsql",
				"SELECT 2",
			},
		},
		{
			name:   "positional parameter is not a dollar quote",
			script: "SELECT $1; SELECT 2;",
			want:   []string{"SELECT $1", "SELECT 2"},
		},
		{
			name:   "only comments and blanks",
			script: "-- nothing\n;;\n/* here */",
			want:   nil,
		},
		{
			name:   "unicode text",
			script: "INSERT INTO t VALUES ('héllo; wörld');",
			want:   []string{"INSERT INTO t VALUES ('héllo; wörld')"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.script))
		})
	}
}

func TestDefaultScriptSplits(t *testing.T) {
	stmts := SplitStatements(defaultScript)
	assert.Len(t, stmts, 3)
}
