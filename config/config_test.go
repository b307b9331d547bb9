package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", "test.db")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 1, cfg.Database.MaxOpenConns)
	assert.Equal(t, 1, cfg.Database.MaxIdleConns)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL())
	assert.Equal(t, 200*time.Millisecond, cfg.HTTP.SlowRequest)
	assert.Equal(t, "0 20 * * *", cfg.Digest.Cron)
}

func TestLoadPostgresPool(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_URL", "postgres://localhost/dental")
	t.Setenv("DB_MAX_OPEN_CONNS", "")
	t.Setenv("DB_MAX_IDLE_CONNS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")
		_, err := Load()
		assert.ErrorContains(t, err, "DB_DRIVER")
	})

	t.Run("pool", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("DB_URL", "postgres://localhost/dental")
		t.Setenv("DB_MAX_OPEN_CONNS", "2")
		t.Setenv("DB_MAX_IDLE_CONNS", "4")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestJWTValidate(t *testing.T) {
	assert.Error(t, JWTConfig{}.Validate())
	assert.Error(t, JWTConfig{Secret: "short"}.Validate())
	assert.NoError(t, JWTConfig{Secret: "0123456789abcdef"}.Validate())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a, ,http://b "))
	assert.Empty(t, splitList(""))
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "dental.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN("dental.db"))
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN("file::memory:?cache=shared"))
}

func TestPing(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	mock.ExpectPing()
	assert.NoError(t, Ping(context.Background(), db))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, Ping(context.Background(), db))

	assert.NoError(t, mock.ExpectationsWereMet())
}
