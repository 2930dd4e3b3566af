package prodpal

import (
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	assert.Equal(t, DefaultDatabaseType, cfg.DatabaseType)
	assert.Equal(t, DefaultDatabase, cfg.Database)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, DefaultRuntimeConfigTTL, cfg.RuntimeConfigTTL)

	require.NotNil(t, cfg.Reminder)
	assert.Equal(t, 3*time.Hour, cfg.Reminder.Interval)
	assert.Equal(t, 20, cfg.Reminder.JobCheckHour)
	assert.Equal(t, 30*time.Minute, cfg.Reminder.ReplyWindow)

	require.NotNil(t, cfg.Status)
	assert.Equal(t, 10000, cfg.Status.Port)
	assert.Equal(t, "tcp", cfg.Status.ListenNetwork)

	require.NotNil(t, cfg.KeepAlive)
	assert.Empty(t, cfg.KeepAlive.URL)
	assert.Equal(t, 14*time.Minute, cfg.KeepAlive.Interval)

	require.NotNil(t, cfg.Coach)
	assert.Equal(t, DefaultCoachModel, cfg.Coach.Model)
	assert.Equal(t, 1, cfg.Coach.MaxRequestsPerSecond)

	require.NotNil(t, cfg.Discord)
	assert.Equal(t, DefaultDiscordGatewayIntent, cfg.Discord.GatewayIntents)
	assert.Equal(t, slog.LevelWarn, cfg.Discord.DiscordGoLogLevel.Level())
}

// Reply collection depends on message bodies, which the gateway only
// sends when the message content intent is enabled.
func TestDefaultGatewayIntentsIncludeMessageContent(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	assert.NotZero(t, cfg.Discord.GatewayIntents&discordgo.IntentMessageContent)
	assert.NotZero(t, cfg.Discord.GatewayIntents&discordgo.IntentGuildMessages)
}

func TestConfigLogValueRedactsSecrets(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Discord.Token = "super-secret-token"
	cfg.Coach.Token = "super-secret-openai"

	logged := cfg.LogValue().String()
	assert.NotContains(t, logged, "super-secret-token")
	assert.NotContains(t, logged, "super-secret-openai")
	assert.Contains(t, logged, "[redacted]")
}

func TestDefaultCORSConfigCopies(t *testing.T) {
	t.Parallel()
	a := DefaultCORSConfig()
	b := DefaultCORSConfig()
	a.AllowMethods[0] = "mutated"
	assert.NotEqual(t, a.AllowMethods[0], b.AllowMethods[0])
}

func TestCORSConfigGINConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://example.com"}
	ginCfg := cfg.GINConfig()
	assert.Equal(t, cfg.AllowOrigins, ginCfg.AllowOrigins)
	assert.Equal(t, cfg.MaxAge, ginCfg.MaxAge)
	assert.Contains(t, strings.Join(ginCfg.AllowHeaders, " "), xRequestIDHeader)
}

func TestDefaultRuntimeConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultRuntimeConfig()

	assert.False(t, cfg.Paused)
	assert.True(t, cfg.ReminderEnabled)
	assert.True(t, cfg.CheckInEnabled)
	assert.True(t, cfg.JobTrackerEnabled)
	assert.Equal(t, DefaultDiscordCustomStatus, cfg.DiscordCustomStatus)
	assert.Contains(t, cfg.CoachStatusInstructions, "supportive team leader")
	assert.Contains(t, cfg.CoachJobInstructions, "job search coach")
	assert.Equal(t, DBLogLevelInfo, cfg.LogLevel)
	assert.Equal(t, DBLogLevelWarn, cfg.DiscordGoLogLevel)
}

func TestRuntimeConfigTableName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "config", RuntimeConfig{}.TableName())
}
