//nolint:lll // struct tags can't be split
package prodpal

import (
	"github.com/bwmarrin/discordgo"
	"github.com/gin-contrib/cors"
	"log/slog"
	"net/http"
	"time"
)

const (
	EnvvarSetEnvPrefix = "PRODPAL_ENV_PREFIX"
	DefaultEnvPrefix   = "PP"

	DefaultDatabaseType = "sqlite"
	DefaultDatabase     = "prodpal.sqlite3"
	DefaultDataDir      = "./data"
	DefaultLogLevel     = slog.LevelInfo

	DefaultStartupTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 60 * time.Second

	DefaultReadTimeout       = 5 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 30 * time.Second

	// DefaultStatusPort is the health check port used when the hosting
	// platform doesn't assign one via PORT.
	DefaultStatusPort     = 10000
	DefaultStatusLogLevel = slog.LevelInfo
	defaultListenNetwork  = "tcp"

	DefaultReminderInterval = 3 * time.Hour

	// DefaultJobCheckHour is the hour of day (local time) the job
	// application tracker opens for entries.
	DefaultJobCheckHour = 20

	// DefaultReplyWindow is how long checkin/job prompts wait for a
	// reply before giving up.
	DefaultReplyWindow = 30 * time.Minute

	// DefaultKeepAliveInterval is how often the bot pings its own
	// status server. Free hosting tiers commonly idle out a service
	// after 15 minutes without traffic.
	DefaultKeepAliveInterval = 14 * time.Minute

	DefaultCoachModel                = "gpt-4o-mini"
	DefaultCoachMaxRequestsPerSecond = 1
	DefaultCoachLogLevel             = slog.LevelInfo

	DiscordSlashCommandRemind   = "remind"
	DiscordSlashCommandCheckIn  = "checkin"
	DiscordSlashCommandJobs     = "jobs"
	DiscordSlashCommandHelp     = "help"
	DiscordSlashCommandDiagnose = "diagnose"
	DiscordSlashCommandWelcome  = "welcome"
	DiscordSlashCommandPause    = "pause"

	// DefaultDiscordGatewayIntent includes the privileged message content
	// intent. Reply collection reads message bodies, so without it the
	// gateway delivers MessageCreate events with empty Content.
	DefaultDiscordGatewayIntent = discordgo.IntentsAllWithoutPrivileged |
		discordgo.IntentMessageContent
	DefaultDiscordLogLevel     = slog.LevelWarn
	DefaultDiscordgoLogLevel   = slog.LevelWarn
	DefaultDiscordCustomStatus = "keeping you on track"
	discordMaxMessageLength    = 2000

	DefaultDatabaseSlowThreshold = 200 * time.Millisecond
	DefaultDatabaseLogLevel      = slog.LevelInfo

	DefaultRuntimeConfigTTL = 5 * time.Minute
)

var (
	DefaultCORSAllowMethods = []string{
		http.MethodGet,
		http.MethodHead,
		http.MethodOptions,
	}
	DefaultCORSAllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Accept",
		"Cache-Control",
		xRequestIDHeader,
	}
	DefaultCORSExposeHeaders = []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		xRequestIDHeader,
	}
	DefaultCORSMaxAge = 12 * time.Hour
)

type Config struct {
	// Database connection string
	Database string `yaml:"database" mapstructure:"database" json:"database"`

	// DatabaseType specifies the type of database, either 'sqlite' or 'postgres'
	DatabaseType string `yaml:"database_type" mapstructure:"database_type" json:"database_type" binding:"oneof=sqlite postgres"`

	// DatabaseLogLevel sets the log level for database operations
	DatabaseLogLevel *slog.LevelVar `yaml:"database_log_level" mapstructure:"database_log_level" json:"database_log_level"`

	// DatabaseSlowThreshold is the duration threshold for identifying slow database queries
	DatabaseSlowThreshold time.Duration `yaml:"database_slow_threshold" mapstructure:"database_slow_threshold" json:"database_slow_threshold"`

	// DataDir is the directory used for persistent bot data. It's created
	// on startup if missing. Relative SQLite paths are placed under it.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir" json:"data_dir" binding:"required"`

	// Reminder configures the productivity reminder and check-in schedules
	Reminder *ReminderConfig `yaml:"reminder" mapstructure:"reminder" json:"reminder"`

	// Coach holds the configuration for the OpenAI-backed coach
	Coach *CoachConfig `yaml:"coach" mapstructure:"coach" json:"coach"`

	// Status configures the health/status HTTP server
	Status *StatusServerConfig `yaml:"status" mapstructure:"status" json:"status"`

	// Discord configures aspects of the Discord bot itself
	Discord *DiscordConfig `yaml:"discord" mapstructure:"discord" json:"discord"`

	// KeepAlive configures the self-ping that keeps free-tier hosts
	// from idling the bot out
	KeepAlive *KeepAliveConfig `yaml:"keep_alive" mapstructure:"keep_alive" json:"keep_alive"`

	// LogLevel is the base log level, for the default logger
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// StartupTimeout sets a limit on the amount of time the bot has to
	// initialize. If this is passed, the bot will abort startup.
	StartupTimeout time.Duration `yaml:"startup_timeout" mapstructure:"startup_timeout" json:"startup_timeout"`

	// ShutdownTimeout is the time to allow for a graceful shutdown. After this
	// elapses, the bot will force close all connections and exit.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" json:"shutdown_timeout"`

	// RuntimeConfigTTL sets the time-to-live for the RuntimeConfig cache.
	// By default, RuntimeConfig is loaded on start, and refreshed with each
	// update. When running multiple instances, though, the config may become
	// 'stale' if updated from another instance. If this TTL is set above 0,
	// the config will be refreshed from the database at least every TTL duration.
	// If using PostgreSQL, LISTEN/NOTIFY will be used to announce updates in
	// addition to this.
	RuntimeConfigTTL time.Duration `yaml:"runtime_config_ttl" mapstructure:"runtime_config_ttl" json:"runtime_config_ttl"`

	// Development enables pprof endpoints and permissive CORS on the
	// status server
	Development bool `yaml:"development" mapstructure:"development" json:"development"`

	HTTPClient *http.Client `log:"[redacted]"`
}

func (c Config) LogValue() slog.Value {
	return structToSlogValue(c)
}

// ReminderConfig configures the periodic reminder, check-in and job
// tracker schedules.
type ReminderConfig struct {
	// Interval between productivity reminders. Check-ins fire once at a
	// random minute inside each interval-sized slot of the day.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" json:"interval" binding:"min=1m"`

	// Hour of day (0-23, local time) the job application tracker opens
	JobCheckHour int `yaml:"job_check_hour" mapstructure:"job_check_hour" json:"job_check_hour" binding:"min=0,max=23"`

	// How long a check-in or job tracker prompt waits for replies
	ReplyWindow time.Duration `yaml:"reply_window" mapstructure:"reply_window" json:"reply_window" binding:"min=1s"`
}

// DiscordConfig configures the discord bot itself.
//
//nolint:lll // can't break tags
type DiscordConfig struct {
	// Discord bot token (from the 'Bot' tab in the discord dev portal)
	Token string `yaml:"token" mapstructure:"token" json:"token" log:"[redacted]" binding:"required"`

	// Discord application ID (from the 'General Information' tab in the discord dev portal)
	ApplicationID string `yaml:"application_id" mapstructure:"application_id" json:"application_id" binding:"required"`

	// GuildID specifies the guild ID used when registering slash commands.
	// Leave empty for commands to be registered as global.
	GuildID string `yaml:"guild_id" mapstructure:"guild_id" json:"guild_id"`

	// ReminderChannelID is where productivity reminders are posted
	ReminderChannelID string `yaml:"reminder_channel_id" mapstructure:"reminder_channel_id" json:"reminder_channel_id" binding:"required"`

	// StatusChannelID is where check-in prompts are posted
	StatusChannelID string `yaml:"status_channel_id" mapstructure:"status_channel_id" json:"status_channel_id" binding:"required"`

	// JobChannelID is where the job application tracker runs
	JobChannelID string `yaml:"job_channel_id" mapstructure:"job_channel_id" json:"job_channel_id" binding:"required"`

	// Base discord logging level
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Log level for the `discordgo` library's logger
	DiscordGoLogLevel *slog.LevelVar `yaml:"discordgo_log_level" mapstructure:"discordgo_log_level" json:"discordgo_log_level"`

	// Discord gateway intents. See: https://discord.com/developers/docs/topics/gateway#gateway-intents
	GatewayIntents discordgo.Intent `yaml:"gateway_intents" mapstructure:"gateway_intents" json:"gateway_intents"`

	httpClient *http.Client
}

// CoachConfig configures OpenAI API integration for the coaching
// responses.
type CoachConfig struct {
	// OpenAI API token
	Token string `yaml:"token" mapstructure:"token" json:"token" log:"[redacted]" binding:"required"`

	// Chat completion model used for coaching responses
	Model string `yaml:"model" mapstructure:"model" json:"model" binding:"required"`

	// Coach base log level
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Rate limit for chat completion requests
	MaxRequestsPerSecond int `yaml:"max_requests_per_second" mapstructure:"max_requests_per_second" json:"max_requests_per_second" binding:"min=1"`
}

// StatusServerConfig configures the health/status HTTP server.
type StatusServerConfig struct {
	// Port the server listens on (all interfaces). Hosting platforms
	// usually assign this via the PORT environment variable.
	Port int `yaml:"port" mapstructure:"port" json:"port" binding:"min=1,max=65535"`

	// The network type for listening (e.g., "tcp", "tcp4", "tcp6").
	ListenNetwork string `yaml:"listen_network" mapstructure:"listen_network" json:"listen_network" binding:"oneof=tcp tcp4 tcp6"`

	// The logging level for the status server.
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Cross-origin configuration
	CORS CORSConfig `yaml:"cors" mapstructure:"cors" json:"cors"`

	// Maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" json:"read_timeout" binding:"min=1s"`

	// Amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" mapstructure:"read_header_timeout" json:"read_header_timeout" binding:"min=1s"`

	// Maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" json:"write_timeout" binding:"min=1s"`

	// Maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" json:"idle_timeout" binding:"min=1s"`
}

// KeepAliveConfig configures the periodic self-ping.
type KeepAliveConfig struct {
	// URL to ping. Empty disables the pinger. Hosting platforms
	// usually provide this as the service's external URL.
	URL string `yaml:"url" mapstructure:"url" json:"url" binding:"omitempty,url"`

	// Interval between pings
	Interval time.Duration `yaml:"interval" mapstructure:"interval" json:"interval" binding:"min=1m"`
}

// CORSConfig specifies cross-origin resource sharing settings
type CORSConfig struct {
	AllowOrigins  []string      `yaml:"allow_origins" mapstructure:"allow_origins" json:"allow_origins"`
	AllowMethods  []string      `yaml:"allow_methods" mapstructure:"allow_methods" json:"allow_methods"`
	AllowHeaders  []string      `yaml:"allow_headers" mapstructure:"allow_headers" json:"allow_headers"`
	ExposeHeaders []string      `yaml:"expose_headers" mapstructure:"expose_headers" json:"expose_headers"`
	MaxAge        time.Duration `yaml:"max_age" mapstructure:"max_age" json:"max_age"`
}

func (c CORSConfig) GINConfig() cors.Config {
	return cors.Config{
		AllowOrigins:  c.AllowOrigins,
		AllowMethods:  c.AllowMethods,
		AllowHeaders:  c.AllowHeaders,
		MaxAge:        c.MaxAge,
		ExposeHeaders: c.ExposeHeaders,
	}
}

func DefaultCORSConfig() CORSConfig {
	defaultMethods := make([]string, len(DefaultCORSAllowMethods))
	copy(defaultMethods, DefaultCORSAllowMethods)

	defaultHeaders := make([]string, len(DefaultCORSAllowHeaders))
	copy(defaultHeaders, DefaultCORSAllowHeaders)

	defaultExpose := make([]string, len(DefaultCORSExposeHeaders))
	copy(defaultExpose, DefaultCORSExposeHeaders)

	return CORSConfig{
		AllowOrigins:  []string{},
		AllowMethods:  defaultMethods,
		AllowHeaders:  defaultHeaders,
		ExposeHeaders: defaultExpose,
		MaxAge:        DefaultCORSMaxAge,
	}
}

// DefaultConfig returns a Config with all default settings populated
func DefaultConfig() *Config {
	mainLogLevel := &slog.LevelVar{}
	coachLogLevel := &slog.LevelVar{}
	discordLogLevel := &slog.LevelVar{}
	discordgoLogLevel := &slog.LevelVar{}
	dbLogLevel := &slog.LevelVar{}
	statusLogLevel := &slog.LevelVar{}

	mainLogLevel.Set(DefaultLogLevel)
	coachLogLevel.Set(DefaultCoachLogLevel)
	discordLogLevel.Set(DefaultDiscordLogLevel)
	discordgoLogLevel.Set(DefaultDiscordgoLogLevel)
	dbLogLevel.Set(DefaultDatabaseLogLevel)
	statusLogLevel.Set(DefaultStatusLogLevel)

	return &Config{
		DatabaseType:          DefaultDatabaseType,
		Database:              DefaultDatabase,
		DatabaseLogLevel:      dbLogLevel,
		DatabaseSlowThreshold: DefaultDatabaseSlowThreshold,
		DataDir:               DefaultDataDir,
		LogLevel:              mainLogLevel,
		StartupTimeout:        DefaultStartupTimeout,
		ShutdownTimeout:       DefaultShutdownTimeout,
		RuntimeConfigTTL:      DefaultRuntimeConfigTTL,
		Reminder: &ReminderConfig{
			Interval:     DefaultReminderInterval,
			JobCheckHour: DefaultJobCheckHour,
			ReplyWindow:  DefaultReplyWindow,
		},
		Coach: &CoachConfig{
			Model:                DefaultCoachModel,
			LogLevel:             coachLogLevel,
			MaxRequestsPerSecond: DefaultCoachMaxRequestsPerSecond,
		},
		Discord: &DiscordConfig{
			GatewayIntents:    DefaultDiscordGatewayIntent,
			LogLevel:          discordLogLevel,
			DiscordGoLogLevel: discordgoLogLevel,
		},
		Status: &StatusServerConfig{
			Port:              DefaultStatusPort,
			ListenNetwork:     defaultListenNetwork,
			LogLevel:          statusLogLevel,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			ReadTimeout:       DefaultReadTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
			CORS:              DefaultCORSConfig(),
		},
		KeepAlive: &KeepAliveConfig{
			Interval: DefaultKeepAliveInterval,
		},
	}
}
