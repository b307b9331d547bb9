package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"dentalclinic-backend/config"
	"dentalclinic-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setTestEnv(t *testing.T, dbURL string) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", dbURL)
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_PHONE_NUMBER", "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDigestCommand_EmptyDatabase(t *testing.T) {
	setTestEnv(t, "file::memory:?_foreign_keys=on")

	out, err := execute(t, "digest", "--date", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "sent 0 digests for 2024-03-15\n", out)
}

func TestDigestCommand_InvalidDate(t *testing.T) {
	setTestEnv(t, "file::memory:?_foreign_keys=on")

	_, err := execute(t, "digest", "--date", "15/03/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestDigestCommand_SendsToOptedInClinics(t *testing.T) {
	dbURL := filepath.Join(t.TempDir(), "cli.db")
	setTestEnv(t, dbURL)

	cfg, err := config.Load()
	require.NoError(t, err)
	db, err := config.ConnectDB(cfg.Database, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	require.NoError(t, db.Create(&models.User{
		Email: "a@clinic.test", Password: "password123", Name: "Dr A",
		ClinicName: "Smile Clinic", Phone: "+213555000111", DigestEnabled: true,
	}).Error)
	require.NoError(t, db.Create(&models.User{
		Email: "b@clinic.test", Password: "password123", Name: "Dr B",
	}).Error)
	require.NoError(t, config.CloseDB(db))

	out, err := execute(t, "digest", "--date", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "sent 1 digests for 2024-03-15\n", out)

	db, err = config.ConnectDB(cfg.Database, zap.NewNop())
	require.NoError(t, err)
	defer config.CloseDB(db) //nolint:errcheck

	var logs []models.DigestLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "2024-03-15", logs[0].Day)
	assert.Equal(t, "Smile Clinic: 0 visits, expected 0, collected 0, unpaid 0", logs[0].Message)
}

func TestMigrateCommand(t *testing.T) {
	setTestEnv(t, "file::memory:?_foreign_keys=on")

	_, err := execute(t, "migrate")
	require.NoError(t, err)
}

func TestMigrateCommand_UnsupportedDriver(t *testing.T) {
	setTestEnv(t, "file::memory:")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := execute(t, "migrate")
	require.Error(t, err)
}

func TestSecretCommand(t *testing.T) {
	first, err := execute(t, "secret")
	require.NoError(t, err)
	first = strings.TrimSpace(first)
	assert.Len(t, first, 44)

	second, err := execute(t, "secret")
	require.NoError(t, err)
	assert.NotEqual(t, first, strings.TrimSpace(second))

	long, err := execute(t, "secret", "--bytes", "48")
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(long), 64)

	_, err = execute(t, "secret", "--bytes", "8")
	require.Error(t, err)
}
