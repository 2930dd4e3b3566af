package cmd

import (
	"context"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/prodpal/prodpal/prodpal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
)

var (
	cfg        = prodpal.DefaultConfig()
	configFile string
)

var rootCmd = &cobra.Command{
	Use: "prodpal [flags]",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		err := viper.Unmarshal(
			cfg,
			viper.DecodeHook(
				mapstructure.ComposeDecodeHookFunc(
					mapstructure.StringToTimeDurationHookFunc(),
					LevelToStringHookFunc(),
				),
			),
		)
		if err != nil {
			log.Fatalln(err)
		}
	},
}

func getLogLevel(level string) (slog.Level, error) {
	switch level {
	case slog.LevelDebug.String():
		return slog.LevelDebug, nil
	case slog.LevelInfo.String():
		return slog.LevelInfo, nil
	case slog.LevelWarn.String():
		return slog.LevelWarn, nil
	case slog.LevelError.String():
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

func LevelToStringHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data any,
	) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t.Kind() != reflect.Ptr {
			return data, nil
		}

		typ := t.Elem()

		if typ != reflect.TypeOf(slog.LevelVar{}) {
			return data, nil
		}
		lvl, err := getLogLevel(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %s", data)
		}
		lvlVar := &slog.LevelVar{}
		lvlVar.Set(lvl)
		return lvlVar, nil
	}
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	rootCmd.SetContext(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(
		signals,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer func() {
		signal.Stop(signals)
		cancel()
	}()
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
			//
		}
	}()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func initConfig() {
	if configFile == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found")
		}
	} else {
		fmt.Println("loading env from file", configFile)
		if err := godotenv.Load(configFile); err != nil {
			log.Println("No .env file found")
		}
	}

	viper.SetDefault("database", prodpal.DefaultDatabase)
	viper.SetDefault("database_type", prodpal.DefaultDatabaseType)
	viper.SetDefault(
		"database_slow_threshold",
		prodpal.DefaultDatabaseSlowThreshold,
	)
	viper.SetDefault(
		"database_log_level",
		prodpal.DefaultDatabaseLogLevel.String(),
	)
	viper.SetDefault("data_dir", prodpal.DefaultDataDir)
	viper.SetDefault("development", false)

	viper.SetDefault("runtime_config_ttl", prodpal.DefaultRuntimeConfigTTL)

	viper.SetDefault("log_level", prodpal.DefaultLogLevel.String())

	viper.SetDefault("startup_timeout", prodpal.DefaultStartupTimeout)
	viper.SetDefault("shutdown_timeout", prodpal.DefaultShutdownTimeout)

	// Reminder schedule
	viper.SetDefault("reminder.interval", prodpal.DefaultReminderInterval)
	viper.SetDefault("reminder.job_check_hour", prodpal.DefaultJobCheckHour)
	viper.SetDefault("reminder.reply_window", prodpal.DefaultReplyWindow)

	// Coach (OpenAI) config
	viper.SetDefault("coach.log_level", prodpal.DefaultCoachLogLevel.String())
	viper.SetDefault("coach.token", "")
	viper.SetDefault("coach.model", prodpal.DefaultCoachModel)
	viper.SetDefault(
		"coach.max_requests_per_second",
		prodpal.DefaultCoachMaxRequestsPerSecond,
	)

	// Discord config
	viper.SetDefault("discord.token", "")
	viper.SetDefault("discord.application_id", "")
	viper.SetDefault("discord.guild_id", "")
	viper.SetDefault("discord.reminder_channel_id", "")
	viper.SetDefault("discord.status_channel_id", "")
	viper.SetDefault("discord.job_channel_id", "")
	viper.SetDefault(
		"discord.log_level",
		prodpal.DefaultDiscordLogLevel.String(),
	)
	viper.SetDefault(
		"discord.discordgo_log_level",
		prodpal.DefaultDiscordgoLogLevel.String(),
	)
	viper.SetDefault(
		"discord.gateway_intents",
		prodpal.DefaultDiscordGatewayIntent,
	)

	// Status/health server
	viper.SetDefault("status.port", prodpal.DefaultStatusPort)
	viper.SetDefault("status.listen_network", "tcp")
	viper.SetDefault("status.log_level", prodpal.DefaultStatusLogLevel.String())
	viper.SetDefault("status.read_timeout", prodpal.DefaultReadTimeout)
	viper.SetDefault(
		"status.read_header_timeout",
		prodpal.DefaultReadHeaderTimeout,
	)
	viper.SetDefault("status.write_timeout", prodpal.DefaultWriteTimeout)
	viper.SetDefault("status.idle_timeout", prodpal.DefaultIdleTimeout)

	// Status server: CORS config
	viper.SetDefault(
		"status.cors.allow_headers",
		prodpal.DefaultCORSAllowHeaders,
	)
	viper.SetDefault(
		"status.cors.allow_methods",
		prodpal.DefaultCORSAllowMethods,
	)
	viper.SetDefault(
		"status.cors.expose_headers",
		prodpal.DefaultCORSExposeHeaders,
	)
	viper.SetDefault(
		"status.cors.allow_origins",
		[]string{},
	)
	viper.SetDefault("status.cors.max_age", prodpal.DefaultCORSMaxAge)

	// Keep-alive self-ping
	viper.SetDefault("keep_alive.url", "")
	viper.SetDefault("keep_alive.interval", prodpal.DefaultKeepAliveInterval)

	fatalErr := func(err error) {
		if err != nil {
			log.Fatalf("error: %v", err)
		}
	}

	envPrefix := os.Getenv(prodpal.EnvvarSetEnvPrefix)
	if envPrefix == "" {
		envPrefix = prodpal.DefaultEnvPrefix
	}
	viper.SetEnvPrefix(envPrefix)

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	// Hosting platforms assign the health check port via the bare
	// PORT environment variable, so it's bound alongside the
	// prefixed name.
	fatalErr(
		viper.BindEnv(
			"status.port",
			fmt.Sprintf("%s_STATUS_PORT", envPrefix),
			"PORT",
		),
	)
	fatalErr(
		viper.BindEnv(
			"keep_alive.url",
			fmt.Sprintf("%s_KEEP_ALIVE_URL", envPrefix),
			"RENDER_EXTERNAL_URL",
			"RENDER_URL",
		),
	)

	// Convert values to correct types
	viper.Set(
		"status.cors.allow_headers",
		viper.GetStringSlice("status.cors.allow_headers"),
	)
	viper.Set(
		"status.cors.allow_origins",
		viper.GetStringSlice("status.cors.allow_origins"),
	)
	viper.Set(
		"status.cors.allow_methods",
		viper.GetStringSlice("status.cors.allow_methods"),
	)
	viper.Set(
		"status.cors.expose_headers",
		viper.GetStringSlice("status.cors.expose_headers"),
	)

	for _, key := range []string{
		"log_level",
		"database_log_level",
		"discord.log_level",
		"discord.discordgo_log_level",
		"coach.log_level",
		"status.log_level",
	} {
		logLevelVar, err := levelStringToLevelVar(viper.GetString(key))
		if err != nil {
			log.Fatalf("error parsing %s: %v", key, err)
		}
		viper.Set(key, logLevelVar)
	}
}

func levelStringToLevelVar(lvl string) (*slog.LevelVar, error) {
	level := &slog.LevelVar{}
	err := level.UnmarshalText([]byte(lvl))
	return level, err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"Env file to load before reading the environment",
	)
}
