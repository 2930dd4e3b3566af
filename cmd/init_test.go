package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/prodpal/prodpal/prodpal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestInitCommand(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")
	dataDir := filepath.Join(tempDir, "data")

	viper.Reset()

	os.Setenv("PP_DATABASE_TYPE", "sqlite")
	os.Setenv("PP_DATABASE", dbPath)
	os.Setenv("PP_DATA_DIR", dataDir)
	t.Cleanup(
		func() {
			os.Unsetenv("PP_DATABASE_TYPE")
			os.Unsetenv("PP_DATABASE")
			os.Unsetenv("PP_DATA_DIR")
		},
	)

	currentOut := rootCmd.OutOrStdout()
	currentErr := rootCmd.OutOrStderr()
	t.Cleanup(
		func() {
			rootCmd.SetOut(currentOut)
			rootCmd.SetErr(currentErr)
		},
	)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)

	rootCmd.SetArgs([]string{"init"})
	err := rootCmd.Execute()
	require.NoError(t, err)

	dirInfo, err := os.Stat(dataDir)
	require.NoError(t, err, "Data directory should exist")
	assert.True(t, dirInfo.IsDir())

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")

	// Verify the output
	output := out.String()
	t.Logf("output: %s", output)
	assert.Contains(t, output, "Initialization complete")

	// Verify the database contents
	db, err := gorm.Open(sqlite.Open(dbPath))
	require.NoError(t, err)

	t.Cleanup(
		func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				_ = sqlDB.Close()
			}
		},
	)

	mg := db.Migrator()

	assert.True(t, mg.HasTable(&prodpal.RuntimeConfig{}))
	assert.True(t, mg.HasTable(&prodpal.ReminderLog{}))
	assert.True(t, mg.HasTable(&prodpal.CheckIn{}))
	assert.True(t, mg.HasTable(&prodpal.JobApplication{}))
	assert.True(t, mg.HasTable(&prodpal.CoachLog{}))
	assert.True(t, mg.HasTable(&prodpal.DiscordMessage{}))

	var runtimeConfig prodpal.RuntimeConfig
	err = db.First(&runtimeConfig).Error
	require.NoError(t, err)

	assert.True(t, runtimeConfig.ReminderEnabled)
	assert.True(t, runtimeConfig.CheckInEnabled)
	assert.True(t, runtimeConfig.JobTrackerEnabled)
	assert.NotEmpty(t, runtimeConfig.CoachStatusInstructions)
	assert.NotEmpty(t, runtimeConfig.CoachJobInstructions)
}

func TestInitCommandIdempotent(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")
	dataDir := filepath.Join(tempDir, "data")

	viper.Reset()

	os.Setenv("PP_DATABASE_TYPE", "sqlite")
	os.Setenv("PP_DATABASE", dbPath)
	os.Setenv("PP_DATA_DIR", dataDir)
	t.Cleanup(
		func() {
			os.Unsetenv("PP_DATABASE_TYPE")
			os.Unsetenv("PP_DATABASE")
			os.Unsetenv("PP_DATA_DIR")
		},
	)

	rootCmd.SetArgs([]string{"init"})
	require.NoError(t, rootCmd.Execute())
	require.NoError(t, rootCmd.Execute())

	db, err := gorm.Open(sqlite.Open(dbPath))
	require.NoError(t, err)

	t.Cleanup(
		func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				_ = sqlDB.Close()
			}
		},
	)

	var count int64
	require.NoError(t, db.Model(&prodpal.RuntimeConfig{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
