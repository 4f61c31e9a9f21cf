package migration

import (
	"bytes"
	"database/sql"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseDatabaseType(t *testing.T) {
	tests := []struct {
		input    string
		expected DatabaseType
		wantErr  bool
	}{
		{"postgres", DatabaseTypePostgres, false},
		{"postgresql", DatabaseTypePostgres, false},
		{"pg", DatabaseTypePostgres, false},
		{"mysql", DatabaseTypeMySQL, false},
		{"mariadb", DatabaseTypeMySQL, false},
		{"sqlite", DatabaseTypeSQLite, false},
		{"sqlite3", DatabaseTypeSQLite, false},
		{"POSTGRES", DatabaseTypePostgres, false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseDatabaseType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestAvailableMigrations_AllDialects(t *testing.T) {
	for _, dir := range []string{"migrations/postgres", "migrations/mysql", "migrations/sqlite"} {
		files, err := availableMigrations(dir)
		require.NoError(t, err, dir)
		require.Len(t, files, 1, dir)
		assert.Equal(t, uint(1), files[0].version)
		assert.Equal(t, "create_tool_call_audit", files[0].name)
	}

	_, err := availableMigrations("migrations/oracle")
	assert.Error(t, err)
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接独立，固定单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	require.NoError(t, err)
	return count > 0
}

func TestMigrator_UpDownSQLite(t *testing.T) {
	db := openSQLite(t)

	m, err := New(db, DatabaseTypeSQLite, nil)
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	assert.True(t, tableExists(t, db, "tg_tool_call_audit"))

	// 重复执行不报错
	require.NoError(t, m.Up())

	info, err := m.Info()
	require.NoError(t, err)
	assert.Equal(t, uint(1), info.CurrentVersion)
	assert.Equal(t, 1, info.AppliedMigrations)
	assert.Equal(t, 0, info.PendingMigrations)

	require.NoError(t, m.Down())
	assert.False(t, tableExists(t, db, "tg_tool_call_audit"))

	statuses, err := m.Status()
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Applied)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, DatabaseTypeSQLite, nil)
	assert.Error(t, err)

	_, err = New(openSQLite(t), DatabaseType("oracle"), nil)
	assert.Error(t, err)
}

func TestCLI_Run(t *testing.T) {
	m, err := New(openSQLite(t), DatabaseTypeSQLite, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	cli := NewCLI(m)
	cli.SetOutput(&out)

	require.NoError(t, cli.Run("version"))
	assert.Contains(t, out.String(), "No migrations applied yet.")

	out.Reset()
	require.NoError(t, cli.Run("up"))
	assert.Contains(t, out.String(), "Current version: 1")

	out.Reset()
	require.NoError(t, cli.Run("status"))
	assert.Contains(t, out.String(), "create_tool_call_audit")
	assert.Contains(t, out.String(), "Applied")

	out.Reset()
	require.NoError(t, cli.Run("down"))
	assert.Contains(t, out.String(), "Current version: 0")

	assert.Error(t, cli.Run("sideways"))
}
