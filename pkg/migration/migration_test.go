package migration_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/pkg/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunner_DefaultLogger(t *testing.T) {
	r := migration.NewRunner(&migration.Config{
		MigrationsPath: "../../migrations",
		DatabaseURL:    "postgres://invalid",
	})
	require.NotNil(t, r)
}

func TestRunnerMethods_InvalidConfig(t *testing.T) {
	logger := zerolog.Nop()
	r := migration.NewRunner(&migration.Config{
		MigrationsPath: "../../migrations",
		DatabaseURL:    "bad://url",
		Logger:         &logger,
	})

	assert.Error(t, r.Up())
	assert.Error(t, r.Down())
	assert.Error(t, r.Force(1))
	_, _, err := r.Version()
	assert.Error(t, err)
}

func TestAutoMigrate_InvalidURL(t *testing.T) {
	err := migration.AutoMigrate("bad://url", "../../migrations", zerolog.Nop())
	assert.Error(t, err)
}
