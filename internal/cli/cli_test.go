package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Database = config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "cli.db"),
	}
	cfg.Auth.BcryptCost = bcrypt.MinCost
	return cfg
}

func countRows(t *testing.T, cfg *config.Config, model any) int64 {
	t.Helper()
	db, err := database.NewSilentDatabase(cfg.Database)
	require.NoError(t, err)
	defer db.Close()

	var n int64
	require.NoError(t, db.DB.Model(model).Count(&n).Error)
	return n
}

func TestSeedCommand(t *testing.T) {
	cfg := testConfig(t)
	cmd := NewSeedCommand(cfg)
	require.NoError(t, cmd.ParseFlags(nil))
	assert.Equal(t, cfg.Database.Path, cmd.DatabasePath)

	require.NoError(t, cmd.Run())
	require.NoError(t, cmd.Run())

	assert.Equal(t, int64(2), countRows(t, cfg, &entities.User{}))
	assert.Equal(t, int64(4), countRows(t, cfg, &entities.Book{}))
}

func TestCreateUserCommand_ParseFlags(t *testing.T) {
	cfg := testConfig(t)

	err := NewCreateUserCommand(cfg).ParseFlags([]string{"-email", "a@example.com"})
	assert.EqualError(t, err, "required flag -name not provided")

	err = NewCreateUserCommand(cfg).ParseFlags([]string{"-name", "Ann"})
	assert.EqualError(t, err, "required flag -email not provided")
}

func TestCreateUserCommand_Run(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	cmd := NewCreateUserCommand(cfg)
	cmd.stdin = strings.NewReader("correct-horse\n")
	cmd.out = &out
	require.NoError(t, cmd.ParseFlags([]string{"-name", "Ann", "-email", "Ann@Example.com", "-password-stdin"}))
	require.NoError(t, cmd.Run())

	assert.Contains(t, out.String(), "Created user Ann <ann@example.com>")
	assert.Equal(t, int64(1), countRows(t, cfg, &entities.User{}))

	again := NewCreateUserCommand(cfg)
	again.stdin = strings.NewReader("correct-horse\n")
	again.out = &out
	require.NoError(t, again.ParseFlags([]string{"-name", "Ann", "-email", "ann@example.com", "-password-stdin"}))
	err := again.Run()
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateUserCommand_RejectsShortPassword(t *testing.T) {
	cfg := testConfig(t)

	cmd := NewCreateUserCommand(cfg)
	cmd.stdin = strings.NewReader("short")
	cmd.out = &bytes.Buffer{}
	require.NoError(t, cmd.ParseFlags([]string{"-name", "Ann", "-email", "ann@example.com", "-password-stdin"}))

	err := cmd.Run()
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
