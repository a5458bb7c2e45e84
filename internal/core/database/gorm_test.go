package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		name, in, user, pass, want string
	}{
		{"empty", "", "", "", ""},
		{"native dsn untouched", "root:pw@tcp(127.0.0.1:3306)/app?parseTime=true", "", "", "root:pw@tcp(127.0.0.1:3306)/app?parseTime=true"},
		{"url form", "mysql://root:pw@db:3306/app", "", "", "root:pw@tcp(db:3306)/app?charset=utf8mb4&parseTime=true"},
		{"jdbc with overrides", "jdbc:mysql://db:3306/app?useSSL=false&serverTimezone=UTC", "u", "p", "u:p@tcp(db:3306)/app?charset=utf8mb4&loc=UTC&parseTime=true&tls=false"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeMySQLDSN(tc.in, tc.user, tc.pass))
		})
	}
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:****@tcp(db:3306)/app", maskDSN("root:secret@tcp(db:3306)/app"))
	assert.Equal(t, "tcp(db:3306)/app", maskDSN("tcp(db:3306)/app"))
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "sqlite"}, zap.NewNop())
	require.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestMigrationDir(t *testing.T) {
	dir, err := migrationDir("postgres")
	require.NoError(t, err)
	assert.Equal(t, "migrations/postgres", dir)

	_, err = migrationDir("oracle")
	require.ErrorIs(t, err, ErrUnsupportedDriver)

	for _, d := range []string{"migrations/postgres/00001_init.sql", "migrations/mysql/00001_init.sql"} {
		b, err := migrations.ReadFile(d)
		require.NoError(t, err)
		assert.Contains(t, string(b), "-- +goose Up")
	}
}
