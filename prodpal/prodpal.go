package prodpal

import (
	"context"
	"errors"
	"fmt"
	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"gorm.io/gorm"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	// Version is the bot's release version, set at build time
	Version = "dev"
	// CommitSHA is the git commit the binary was built from
	CommitSHA = ""
	// BuildTime is when the binary was built
	BuildTime = ""
)

// ProdPal is the top-level type for the ProductivityPal bot. It owns the
// Discord session, the database, the OpenAI-backed coach, the status HTTP
// server, and the scheduled reminder/check-in/job-tracker loops.
type ProdPal struct {
	config  *Config
	db      *gorm.DB
	writeDB DBI

	logger *slog.Logger

	discord      *Discord
	coach        *Coach
	statusServer *StatusServer
	reminder     *Reminder
	checkIns     *CheckInRunner
	jobTracker   *JobTracker
	keepAlive    *keepAlivePinger
	dbNotifier   DBNotifier

	pendingReplies *replyRegistry

	runtimeConfig *RuntimeConfig
	cfgMu         sync.RWMutex

	// triggerRuntimeConfigRefreshCh forces a runtime config reload from
	// the database when a value is sent
	triggerRuntimeConfigRefreshCh chan bool

	// signalStop stops the bot when a value is sent
	signalStop chan struct{}

	// signalReady is closed when startup has finished
	signalReady chan struct{}

	startedAt time.Time
	runtimeWG sync.WaitGroup
}

// New validates the given config and returns a new ProdPal instance.
// The database isn't opened and no connections are made until Run.
func New(config *Config) (*ProdPal, error) {
	if config == nil {
		return nil, errors.New("nil config")
	}
	if err := structValidator.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &ProdPal{
		config:                        config,
		signalStop:                    make(chan struct{}, 1),
		signalReady:                   make(chan struct{}),
		triggerRuntimeConfigRefreshCh: make(chan bool, 1),
	}
	p.logger = slog.New(
		tint.NewHandler(
			os.Stdout, &tint.Options{
				Level:     config.LogLevel,
				AddSource: true,
			},
		),
	).With(loggerNameKey, "prodpal")
	slog.SetDefault(p.logger)

	p.pendingReplies = newReplyRegistry(p.logger)

	discord, err := newDiscord(config.Discord)
	if err != nil {
		return nil, err
	}
	discord.logger = slog.New(
		tint.NewHandler(
			os.Stdout, &tint.Options{
				Level:     config.Discord.LogLevel,
				AddSource: true,
			},
		),
	).With(loggerNameKey, "discord")
	p.discord = discord

	coach := newCoach(p, config.Coach)
	coach.logger = slog.New(
		tint.NewHandler(
			os.Stdout, &tint.Options{
				Level:     config.Coach.LogLevel,
				AddSource: true,
			},
		),
	).With(loggerNameKey, "coach")
	p.coach = coach

	p.reminder = newReminder(p)
	p.reminder.logger = p.logger.With(loggerNameKey, "reminder")

	p.checkIns = newCheckInRunner(p)
	p.checkIns.logger = p.logger.With(loggerNameKey, "check_in")

	p.jobTracker = newJobTracker(p)
	p.jobTracker.logger = p.logger.With(loggerNameKey, "job_tracker")

	p.keepAlive = newKeepAlivePinger(config.KeepAlive, config.HTTPClient)
	p.keepAlive.logger = p.logger.With(loggerNameKey, "keep_alive")

	statusServer, err := newStatusServer(p, config.Status)
	if err != nil {
		return nil, err
	}
	p.statusServer = statusServer

	return p, nil
}

// databasePath returns the database connection string, with relative
// SQLite paths placed under the data directory.
func (p *ProdPal) databasePath() string {
	if p.config.DatabaseType == dbTypeSQLite && !filepath.IsAbs(p.config.Database) {
		return filepath.Join(p.config.DataDir, p.config.Database)
	}
	return p.config.Database
}

// Run starts the bot and blocks until the context is canceled or a stop
// signal is received.
func (p *ProdPal) Run(ctx context.Context) error {
	p.startedAt = time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := p.initRun(ctx); err != nil {
		return err
	}

	p.runtimeWG.Add(1)
	go func() {
		defer p.runtimeWG.Done()
		if serveErr := p.statusServer.Serve(ctx); serveErr != nil &&
			!errors.Is(serveErr, http.ErrServerClosed) {
			p.logger.ErrorContext(ctx, "status server error", tint.Err(serveErr))
			p.signalShutdown()
		}
	}()

	for _, loop := range []func(context.Context){
		p.reminder.run,
		p.checkIns.run,
		p.jobTracker.run,
		p.keepAlive.run,
		p.runtimeConfigRefresher,
	} {
		p.runtimeWG.Add(1)
		go func(run func(context.Context)) {
			defer p.runtimeWG.Done()
			run(ctx)
		}(loop)
	}

	if p.dbNotifier != nil && p.config.DatabaseType == dbTypePostgres {
		for _, channel := range []string{
			p.dbNotifier.RuntimeConfigChannelName(),
			p.dbNotifier.StopChannelName(),
		} {
			p.runtimeWG.Add(1)
			go func(ch string) {
				defer p.runtimeWG.Done()
				if listenErr := p.dbNotifier.Listen(ctx, ch); listenErr != nil {
					p.logger.ErrorContext(
						ctx, "db listener error", tint.Err(listenErr),
					)
				}
			}(channel)
		}
	}

	close(p.signalReady)
	p.logger.InfoContext(ctx, "startup complete", "version", Version)

	select {
	case <-ctx.Done():
		p.logger.Info("context canceled, shutting down")
	case <-p.signalStop:
		p.logger.Info("stop signal received, shutting down")
	}
	cancel()
	return p.shutdown()
}

// initRun opens the database, loads the runtime config, and connects the
// Discord session. Startup is bounded by Config.StartupTimeout.
func (p *ProdPal) initRun(ctx context.Context) error {
	startupCtx, startupCancel := context.WithTimeout(ctx, p.config.StartupTimeout)
	defer startupCancel()

	if err := os.MkdirAll(p.config.DataDir, 0o755); err != nil {
		return fmt.Errorf("error creating data directory: %w", err)
	}

	db, err := CreateDB(startupCtx, p.config.DatabaseType, p.databasePath())
	if err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}
	p.db = db
	p.db.Logger = newGORMLogger(
		tint.NewHandler(
			os.Stdout, &tint.Options{
				Level:     p.config.DatabaseLogLevel,
				AddSource: true,
			},
		),
		p.config.DatabaseSlowThreshold,
	)
	p.writeDB = NewDatabase(
		db,
		p.logger,
		p.config.DatabaseType == dbTypePostgres,
	)

	if err = p.loadRuntimeConfig(startupCtx); err != nil {
		return err
	}

	notifier, err := newDBNotifier(p)
	if err != nil {
		return fmt.Errorf("error creating db notifier: %w", err)
	}
	p.dbNotifier = notifier

	if err = p.reminder.restoreSequence(startupCtx); err != nil {
		return err
	}

	return p.initDiscordSession(startupCtx)
}

// loadRuntimeConfig loads the most recent runtime config record, creating
// one with default values if none exists.
func (p *ProdPal) loadRuntimeConfig(ctx context.Context) error {
	var cfg RuntimeConfig
	rv := p.db.WithContext(ctx).Last(&cfg)
	if rv.Error != nil {
		if !errors.Is(rv.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("error loading runtime config: %w", rv.Error)
		}
		cfg = DefaultRuntimeConfig()
		if _, err := p.writeDB.Create(ctx, &cfg); err != nil {
			return fmt.Errorf("error creating runtime config: %w", err)
		}
	}
	p.cfgMu.Lock()
	p.runtimeConfig = &cfg
	p.cfgMu.Unlock()
	p.setRuntimeLevels(cfg)
	return nil
}

// RuntimeConfig returns a copy of the current runtime configuration.
func (p *ProdPal) RuntimeConfig() RuntimeConfig {
	p.cfgMu.RLock()
	defer p.cfgMu.RUnlock()
	if p.runtimeConfig == nil {
		return DefaultRuntimeConfig()
	}
	return *p.runtimeConfig
}

// setRuntimeLevels applies the runtime config's log levels to the
// component level vars.
func (p *ProdPal) setRuntimeLevels(cfg RuntimeConfig) {
	p.config.LogLevel.Set(cfg.LogLevel.Level())
	p.config.Discord.LogLevel.Set(cfg.DiscordLogLevel.Level())
	p.config.Discord.DiscordGoLogLevel.Set(cfg.DiscordGoLogLevel.Level())
	p.config.DatabaseLogLevel.Set(cfg.DatabaseLogLevel.Level())
	p.config.Status.LogLevel.Set(cfg.StatusServerLogLevel.Level())
	p.config.Coach.LogLevel.Set(cfg.CoachLogLevel.Level())
}

// refreshRuntimeConfig reloads the runtime config from the database and
// applies any changed log levels and custom status.
func (p *ProdPal) refreshRuntimeConfig(ctx context.Context) {
	previous := p.RuntimeConfig()

	var cfg RuntimeConfig
	rv := p.db.WithContext(ctx).Last(&cfg)
	if rv.Error != nil {
		p.logger.ErrorContext(
			ctx, "error refreshing runtime config", tint.Err(rv.Error),
		)
		return
	}

	p.cfgMu.Lock()
	p.runtimeConfig = &cfg
	p.cfgMu.Unlock()
	p.setRuntimeLevels(cfg)

	if cfg.DiscordCustomStatus != previous.DiscordCustomStatus {
		if err := p.discord.updateCustomStatus(cfg.DiscordCustomStatus); err != nil {
			p.logger.ErrorContext(
				ctx, "error updating custom status", tint.Err(err),
			)
		}
	}
	p.logger.DebugContext(ctx, "runtime config refreshed")
}

// runtimeConfigRefresher reloads the runtime config whenever a refresh is
// triggered, and at least every RuntimeConfigTTL if one is set.
func (p *ProdPal) runtimeConfigRefresher(ctx context.Context) {
	var tickerCh <-chan time.Time
	if p.config.RuntimeConfigTTL > 0 {
		ticker := time.NewTicker(p.config.RuntimeConfigTTL)
		defer ticker.Stop()
		tickerCh = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-tickerCh:
			p.refreshRuntimeConfig(ctx)
		case <-p.triggerRuntimeConfigRefreshCh:
			p.refreshRuntimeConfig(ctx)
		}
	}
}

// initDiscordSession creates and opens the Discord gateway session,
// registers handlers and slash commands, and posts the welcome messages.
func (p *ProdPal) initDiscordSession(ctx context.Context) error {
	discordgoHandler := tint.NewHandler(
		os.Stdout, &tint.Options{
			Level:     p.config.Discord.DiscordGoLogLevel,
			AddSource: false,
		},
	)
	discordgo.Logger = discordgoLoggerFunc(ctx, discordgoHandler)

	session, err := p.discord.newSession()
	if err != nil {
		return err
	}
	p.discord.session = session

	p.discord.discordgoRemoveHandlerFuncs = []func(){
		session.AddHandler(p.discord.handlerConnect()),
		session.AddHandler(p.discord.handlerDisconnect()),
		session.AddHandler(p.handleDiscordMessage),
		session.AddHandler(p.handleInteraction),
	}

	if err = session.Open(); err != nil {
		return fmt.Errorf("error opening discord session: %w", err)
	}

	if _, err = p.discord.registerCommands(); err != nil {
		p.logger.ErrorContext(ctx, "error registering commands", tint.Err(err))
	}

	cfg := p.RuntimeConfig()
	if cfg.DiscordCustomStatus != "" {
		if statusErr := p.discord.updateCustomStatus(cfg.DiscordCustomStatus); statusErr != nil {
			p.logger.WarnContext(
				ctx, "error setting custom status", tint.Err(statusErr),
			)
		}
	}

	access := p.discord.checkChannelAccess(p.botChannelIDs()...)
	for channelID, ok := range access {
		if !ok {
			p.logger.WarnContext(
				ctx,
				"channel inaccessible, some features may not work",
				"channel_id", channelID,
			)
		}
	}
	p.sendWelcomeMessages(ctx)
	return nil
}

func (p *ProdPal) botChannelIDs() []string {
	return []string{
		p.config.Discord.ReminderChannelID,
		p.config.Discord.StatusChannelID,
		p.config.Discord.JobChannelID,
	}
}

// sendWelcomeMessages posts the welcome embed to each configured channel.
func (p *ProdPal) sendWelcomeMessages(ctx context.Context) {
	for _, channelID := range p.botChannelIDs() {
		if _, err := p.discord.channelMessageSendEmbed(
			channelID, welcomeEmbed(time.Now()),
		); err != nil {
			p.logger.WarnContext(
				ctx,
				"error sending welcome message",
				"channel_id", channelID,
				tint.Err(err),
			)
		}
	}
}

// signalShutdown requests a bot shutdown without blocking.
func (p *ProdPal) signalShutdown() {
	select {
	case p.signalStop <- struct{}{}:
	default:
	}
}

// shutdown closes the Discord session, stops the HTTP server, and waits
// for the runtime goroutines, bounded by Config.ShutdownTimeout.
func (p *ProdPal) shutdown() error {
	deadline := time.Now().Add(p.config.ShutdownTimeout)
	shutdownCtx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	for _, removeHandler := range p.discord.discordgoRemoveHandlerFuncs {
		removeHandler()
	}
	if p.discord.session != nil {
		if err := p.discord.session.Close(); err != nil {
			p.logger.Error("error closing discord session", tint.Err(err))
		}
	}

	if err := p.statusServer.httpServer.Shutdown(shutdownCtx); err != nil {
		p.logger.Error("error shutting down status server", tint.Err(err))
	}

	done := make(chan struct{})
	go func() {
		p.runtimeWG.Wait()
		close(done)
	}()

	announce := time.NewTicker(5 * time.Second)
	defer announce.Stop()
	for {
		select {
		case <-done:
			p.logger.Info("shutdown complete")
			return nil
		case <-announce.C:
			p.logger.Info("waiting on runtime goroutines to finish")
		case <-shutdownCtx.Done():
			p.logger.Warn("shutdown deadline passed, exiting anyway")
			return shutdownCtx.Err()
		}
	}
}

// handleDiscordMessage routes incoming messages that reply to one of the
// bot's prompts, and records them.
func (p *ProdPal) handleDiscordMessage(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
) {
	if m == nil || m.Message == nil {
		return
	}
	if m.Author != nil && m.Author.Bot {
		return
	}
	if !p.pendingReplies.Deliver(m.Message) {
		return
	}

	dm := NewDiscordMessage(m.Message)
	ctx := context.Background()
	if _, err := p.writeDB.Create(ctx, &dm); err != nil {
		p.logger.ErrorContext(ctx, "error saving discord message", tint.Err(err))
	}
	p.logger.InfoContext(ctx, "received prompt reply", "message", dm)
}

// handleInteraction routes slash command interactions.
func (p *ProdPal) handleInteraction(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	ctx := context.Background()
	commandName := i.ApplicationCommandData().Name
	logger := p.logger.With(
		"command_name", commandName,
	).With(interactionLogAttrs(*i)...)
	if u := getDiscordUser(i); u != nil {
		logger = logger.With("user_id", u.ID, "username", u.Username)
	}
	logger.InfoContext(ctx, "received interaction")

	switch commandName {
	case DiscordSlashCommandRemind:
		p.ackAndRun(
			ctx, logger, i, "Manual reminder sent!", func(runCtx context.Context) error {
				return p.reminder.Send(runCtx)
			},
		)
	case DiscordSlashCommandCheckIn:
		p.ackAndRun(
			ctx, logger, i, "Manual status check initiated!",
			func(runCtx context.Context) error {
				return p.checkIns.Check(runCtx)
			},
		)
	case DiscordSlashCommandJobs:
		p.ackAndRun(
			ctx, logger, i, "Manual job application tracker initiated!",
			func(runCtx context.Context) error {
				return p.jobTracker.Collect(runCtx)
			},
		)
	case DiscordSlashCommandWelcome:
		p.ackAndRun(
			ctx, logger, i, "Welcome message sent!",
			func(context.Context) error {
				_, err := p.discord.channelMessageSendEmbed(
					i.ChannelID, welcomeEmbed(time.Now()),
				)
				return err
			},
		)
	case DiscordSlashCommandHelp:
		p.respondEmbed(ctx, logger, i, helpEmbed())
	case DiscordSlashCommandDiagnose:
		p.runDiagnose(ctx, logger, i)
	case DiscordSlashCommandPause:
		p.togglePause(ctx, logger, i)
	default:
		logger.WarnContext(ctx, "unknown command")
	}
}

// ackAndRun immediately acknowledges the interaction, runs the given
// action in the background, and edits the response with the ack message
// once the action has started.
func (p *ProdPal) ackAndRun(
	ctx context.Context,
	logger *slog.Logger,
	i *discordgo.InteractionCreate,
	ack string,
	action func(context.Context) error,
) {
	if err := p.discord.session.InteractionRespond(
		i.Interaction, p.discord.ackResponse(),
	); err != nil {
		logger.ErrorContext(ctx, "error acknowledging interaction", tint.Err(err))
		return
	}

	go func() {
		runCtx := WithLogger(context.WithoutCancel(ctx), logger)
		if err := action(runCtx); err != nil {
			logger.Error("command action failed", tint.Err(err))
		}
	}()

	if _, err := p.discord.session.InteractionResponseEdit(
		i.Interaction, &discordgo.WebhookEdit{Content: &ack},
	); err != nil {
		logger.ErrorContext(ctx, "error editing interaction response", tint.Err(err))
	}
}

// togglePause flips the runtime config's Paused flag, announces the
// change to any other bot instances, and reports the new state.
func (p *ProdPal) togglePause(
	ctx context.Context,
	logger *slog.Logger,
	i *discordgo.InteractionCreate,
) {
	if err := p.discord.session.InteractionRespond(
		i.Interaction, p.discord.ackResponse(),
	); err != nil {
		logger.ErrorContext(ctx, "error acknowledging interaction", tint.Err(err))
		return
	}

	cfg := p.RuntimeConfig()
	paused := !cfg.Paused
	ack := "Bot paused. Scheduled reminders, check-ins and job tracking " +
		"are suspended."
	if !paused {
		ack = "Bot resumed. Scheduled activity is back on."
	}

	if _, err := p.writeDB.Updates(
		ctx,
		&RuntimeConfig{ModelUintID: ModelUintID{ID: cfg.ID}},
		map[string]any{columnRuntimeConfigPaused: paused},
	); err != nil {
		logger.ErrorContext(ctx, "error updating runtime config", tint.Err(err))
		ack = "Something went wrong, pause state unchanged."
	} else {
		p.refreshRuntimeConfig(ctx)
		if p.dbNotifier != nil {
			p.dbNotifier.ReloadRuntimeConfig(ctx)
		}
		logger.InfoContext(ctx, "pause state changed", "paused", paused)
	}

	if _, err := p.discord.session.InteractionResponseEdit(
		i.Interaction, &discordgo.WebhookEdit{Content: &ack},
	); err != nil {
		logger.ErrorContext(ctx, "error editing interaction response", tint.Err(err))
	}
}

// replyWindow returns how long check-in and job tracker prompts wait for
// a reply, preferring the runtime config override when one is set.
func (p *ProdPal) replyWindow() time.Duration {
	if override := p.RuntimeConfig().ReplyWindow.Duration; override > 0 {
		return override
	}
	return p.config.Reminder.ReplyWindow
}

// respondEmbed responds to the interaction with a single embed.
func (p *ProdPal) respondEmbed(
	ctx context.Context,
	logger *slog.Logger,
	i *discordgo.InteractionCreate,
	embed *discordgo.MessageEmbed,
) {
	err := p.discord.session.InteractionRespond(
		i.Interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{embed},
			},
		},
	)
	if err != nil {
		logger.ErrorContext(ctx, "error responding to interaction", tint.Err(err))
	}
}

// runDiagnose acknowledges the interaction, gathers diagnostics, and edits
// the response with the results.
func (p *ProdPal) runDiagnose(
	ctx context.Context,
	logger *slog.Logger,
	i *discordgo.InteractionCreate,
) {
	if err := p.discord.session.InteractionRespond(
		i.Interaction, p.discord.ackResponse(),
	); err != nil {
		logger.ErrorContext(ctx, "error acknowledging interaction", tint.Err(err))
		return
	}
	embed := p.diagnoseEmbed(ctx)
	if _, err := p.discord.session.InteractionResponseEdit(
		i.Interaction,
		&discordgo.WebhookEdit{Embeds: &[]*discordgo.MessageEmbed{embed}},
	); err != nil {
		logger.ErrorContext(ctx, "error editing interaction response", tint.Err(err))
	}
}

// diagnoseEmbed reports channel access, configuration presence, data
// directory contents, and status server health.
func (p *ProdPal) diagnoseEmbed(ctx context.Context) *discordgo.MessageEmbed {
	access := p.discord.checkChannelAccess(p.botChannelIDs()...)
	channelsOK := len(access) > 0
	for _, ok := range access {
		if !ok {
			channelsOK = false
		}
	}
	channelAccess := "✅ All channels accessible"
	if !channelsOK {
		channelAccess = "❌ Some channels inaccessible"
	}

	configured := []struct {
		name string
		ok   bool
	}{
		{"discord.token", p.config.Discord.Token != ""},
		{"coach.token", p.config.Coach.Token != ""},
		{"discord.reminder_channel_id", p.config.Discord.ReminderChannelID != ""},
		{"discord.status_channel_id", p.config.Discord.StatusChannelID != ""},
		{"discord.job_channel_id", p.config.Discord.JobChannelID != ""},
	}
	var configStatus []string
	for _, entry := range configured {
		mark := "✅"
		if !entry.ok {
			mark = "❌"
		}
		configStatus = append(configStatus, fmt.Sprintf("%s %s", mark, entry.name))
	}

	dataStatus := "❌ Data directory not found"
	if entries, err := os.ReadDir(p.config.DataDir); err == nil {
		dataStatus = fmt.Sprintf(
			"Found %d files in %s", len(entries), p.config.DataDir,
		)
	}

	httpStatus := "❌ HTTP server not responding"
	selfURL := fmt.Sprintf("http://localhost:%d/", p.config.Status.Port)
	if req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, selfURL, nil,
	); err == nil {
		client := p.config.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: 5 * time.Second}
		}
		if resp, doErr := client.Do(req); doErr == nil {
			httpStatus = fmt.Sprintf(
				"✅ HTTP server running (Status: %d)", resp.StatusCode,
			)
			_ = resp.Body.Close()
		}
	}

	keepAliveStatus := "❌ Not running (no URL configured)"
	if p.keepAlive != nil && p.keepAlive.active.Load() {
		keepAliveStatus = fmt.Sprintf(
			"✅ Running (pinging every %s)", p.config.KeepAlive.Interval,
		)
	}

	return &discordgo.MessageEmbed{
		Title:       "🔍 Bot Diagnostics",
		Description: "Checking bot systems and channel access...",
		Color:       colorDiagnose,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel Access", Value: channelAccess},
			{Name: "Configuration", Value: strings.Join(configStatus, "\n")},
			{Name: "Data Files", Value: dataStatus},
			{Name: "HTTP Health Check", Value: httpStatus},
			{Name: "Keep-Alive Service", Value: keepAliveStatus},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Run /help for available commands",
		},
	}
}

func welcomeEmbed(now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "👋 Hello There!",
		Description: "I'm your Productivity Assistant Bot! Nice to meet you!",
		Color:       colorWelcome,
		Timestamp:   now.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "What I Can Do",
				Value: "I'll help you stay productive with reminders, status " +
					"checks, and job application tracking.",
			},
			{
				Name:  "Getting Started",
				Value: "Type `/help` to see all available commands.",
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "I'm here to help you succeed!",
		},
	}
}

func helpEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "ProductivityPal Help",
		Description: "Here are the available commands:",
		Color:       colorHelp,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "/remind", Value: "Trigger a manual reminder"},
			{Name: "/checkin", Value: "Trigger a manual status check"},
			{Name: "/jobs", Value: "Trigger the job application tracker"},
			{Name: "/help", Value: "Show this help message"},
			{Name: "/diagnose", Value: "Check bot health and diagnose issues"},
			{Name: "/welcome", Value: "Resend the welcome message"},
			{Name: "/pause", Value: "Pause or resume scheduled activity"},
		},
	}
}
