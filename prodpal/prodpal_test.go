package prodpal

import (
	"context"
	"fmt"
	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
}

// gormDB creates a temporary SQLite database for testing purposes.
func gormDB(t testing.TB) *gorm.DB {
	t.Helper()
	tmpdir := t.TempDir()
	dbfile := filepath.Join(tmpdir, fmt.Sprintf("%s.sqlite3", strings.ReplaceAll(t.Name(), "/", "_")))

	db, err := CreateDB(context.Background(), "sqlite", dbfile)
	if err != nil {
		t.Fatalf("error creating db: %v", err)
	}
	t.Cleanup(
		func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				_ = sqlDB.Close()
			}
		},
	)
	return db
}

// testConfig returns a Config with test-safe defaults and the required
// credentials and channel IDs populated.
func testConfig(t testing.TB) *Config {
	t.Helper()
	tmpdir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = tmpdir
	cfg.Database = filepath.Join(tmpdir, "test.sqlite3")
	cfg.Discord.Token = fmt.Sprintf("token-%s", t.Name())
	cfg.Discord.ApplicationID = "test-app"
	cfg.Discord.ReminderChannelID = "channel-reminders"
	cfg.Discord.StatusChannelID = "channel-status"
	cfg.Discord.JobChannelID = "channel-jobs"
	cfg.Coach.Token = fmt.Sprintf("openai-%s", t.Name())
	return cfg
}

// newTestProdPal returns a ProdPal with a temporary SQLite database, a
// recording mock Discord session, and a mock OpenAI client.
func newTestProdPal(t testing.TB) (*ProdPal, *mockDiscordSession, *mockCoachClient) {
	t.Helper()

	cfg := testConfig(t)
	p, err := New(cfg)
	require.NoError(t, err)

	db, err := CreateDB(context.Background(), cfg.DatabaseType, cfg.Database)
	require.NoError(t, err)
	t.Cleanup(
		func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				_ = sqlDB.Close()
			}
		},
	)
	p.db = db
	p.writeDB = NewDatabase(db, p.logger, false)

	runtimeCfg := DefaultRuntimeConfig()
	require.NoError(t, db.Create(&runtimeCfg).Error)
	p.runtimeConfig = &runtimeCfg

	session := newMockDiscordSession()
	p.discord.session = session

	coachClient := &mockCoachClient{
		response: openai.ChatCompletionResponse{
			ID: "chatcmpl-test",
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    openai.ChatMessageRoleAssistant,
						Content: "Nice work, keep going!",
					},
				},
			},
		},
	}
	p.coach.client = coachClient

	p.startedAt = time.Now()

	slog.SetDefault(slog.Default().With("test", t.Name()))
	return p, session, coachClient
}

type mockSentEmbed struct {
	ChannelID string
	Embed     *discordgo.MessageEmbed
	MessageID string
}

type mockSentMessage struct {
	ChannelID string
	Content   string
}

type mockReaction struct {
	ChannelID string
	MessageID string
	Emoji     string
}

// mockDiscordSession implements DiscordSessionHandler, recording calls
// instead of performing real Discord operations.
type mockDiscordSession struct {
	mu             sync.Mutex
	messageCounter int

	SentMessages       []mockSentMessage
	SentEmbeds         []mockSentEmbed
	Reactions          []mockReaction
	RegisteredCommands []*discordgo.ApplicationCommand
	InteractionEdits   []*discordgo.WebhookEdit
	Responses          []*discordgo.InteractionResponse
	CustomStatus       string

	// ChannelErrs simulates inaccessible channels
	ChannelErrs map[string]error
}

func newMockDiscordSession() *mockDiscordSession {
	return &mockDiscordSession{ChannelErrs: map[string]error{}}
}

func (d *mockDiscordSession) nextMessageID() string {
	d.messageCounter++
	return fmt.Sprintf("message-%d", d.messageCounter)
}

func (d *mockDiscordSession) Open() error  { return nil }
func (d *mockDiscordSession) Close() error { return nil }

func (d *mockDiscordSession) AddHandler(_ any) func() {
	return func() {}
}

func (d *mockDiscordSession) ChannelMessageSend(
	channelID string,
	message string,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.SentMessages = append(
		d.SentMessages, mockSentMessage{ChannelID: channelID, Content: message},
	)
	return &discordgo.Message{
		ID:        d.nextMessageID(),
		ChannelID: channelID,
		Content:   message,
	}, nil
}

func (d *mockDiscordSession) ChannelMessageSendEmbed(
	channelID string,
	embed *discordgo.MessageEmbed,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextMessageID()
	d.SentEmbeds = append(
		d.SentEmbeds,
		mockSentEmbed{ChannelID: channelID, Embed: embed, MessageID: id},
	)
	return &discordgo.Message{ID: id, ChannelID: channelID}, nil
}

func (d *mockDiscordSession) MessageReactionAdd(
	channelID string,
	messageID string,
	emojiID string,
	_ ...discordgo.RequestOption,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Reactions = append(
		d.Reactions,
		mockReaction{ChannelID: channelID, MessageID: messageID, Emoji: emojiID},
	)
	return nil
}

func (d *mockDiscordSession) Channel(
	channelID string,
	_ ...discordgo.RequestOption,
) (*discordgo.Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.ChannelErrs[channelID]; ok {
		return nil, err
	}
	return &discordgo.Channel{ID: channelID}, nil
}

func (d *mockDiscordSession) ApplicationCommandBulkOverwrite(
	_ string,
	_ string,
	commands []*discordgo.ApplicationCommand,
	_ ...discordgo.RequestOption,
) ([]*discordgo.ApplicationCommand, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.RegisteredCommands = commands
	return commands, nil
}

func (d *mockDiscordSession) InteractionRespond(
	_ *discordgo.Interaction,
	resp *discordgo.InteractionResponse,
	_ ...discordgo.RequestOption,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Responses = append(d.Responses, resp)
	return nil
}

func (d *mockDiscordSession) InteractionResponseEdit(
	_ *discordgo.Interaction,
	newresp *discordgo.WebhookEdit,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.InteractionEdits = append(d.InteractionEdits, newresp)
	return &discordgo.Message{ID: d.nextMessageID()}, nil
}

func (d *mockDiscordSession) UpdateCustomStatus(status string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CustomStatus = status
	return nil
}

func (d *mockDiscordSession) SetLogLevel(_ slog.Level) error { return nil }

func (d *mockDiscordSession) SetHTTPClient(_ *http.Client) {}

func (d *mockDiscordSession) SetIdentify(_ discordgo.Identify) {}

// embedsSent returns a snapshot of the embeds sent so far.
func (d *mockDiscordSession) embedsSent() []mockSentEmbed {
	d.mu.Lock()
	defer d.mu.Unlock()
	embeds := make([]mockSentEmbed, len(d.SentEmbeds))
	copy(embeds, d.SentEmbeds)
	return embeds
}

func (d *mockDiscordSession) messagesSent() []mockSentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	msgs := make([]mockSentMessage, len(d.SentMessages))
	copy(msgs, d.SentMessages)
	return msgs
}

// mockCoachClient implements CoachClient for tests.
type mockCoachClient struct {
	mu       sync.Mutex
	response openai.ChatCompletionResponse
	err      error
	Requests []openai.ChatCompletionRequest
}

func (m *mockCoachClient) CreateChatCompletion(
	_ context.Context,
	request openai.ChatCompletionRequest,
) (openai.ChatCompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, request)
	return m.response, m.err
}

// replyTo builds an incoming user message replying to the given prompt
// message ID.
func replyTo(promptID string, channelID string, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        fmt.Sprintf("reply-to-%s-%d", promptID, time.Now().UnixNano()),
		ChannelID: channelID,
		Content:   content,
		Author: &discordgo.User{
			ID:       "user-1234",
			Username: "testuser",
		},
		MessageReference: &discordgo.MessageReference{
			MessageID: promptID,
			ChannelID: channelID,
		},
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Discord.Token = ""
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Token")
}

func TestNewComponentsWired(t *testing.T) {
	t.Parallel()
	p, _, _ := newTestProdPal(t)
	require.NotNil(t, p.discord)
	require.NotNil(t, p.coach)
	require.NotNil(t, p.statusServer)
	require.NotNil(t, p.reminder)
	require.NotNil(t, p.checkIns)
	require.NotNil(t, p.jobTracker)
	require.NotNil(t, p.keepAlive)
	require.NotNil(t, p.pendingReplies)
}

func TestDatabasePathRelativeSQLite(t *testing.T) {
	t.Parallel()
	p, _, _ := newTestProdPal(t)
	p.config.Database = "bot.sqlite3"
	assert.Equal(
		t,
		filepath.Join(p.config.DataDir, "bot.sqlite3"),
		p.databasePath(),
	)

	p.config.DatabaseType = dbTypePostgres
	p.config.Database = "host=localhost dbname=prodpal"
	assert.Equal(t, "host=localhost dbname=prodpal", p.databasePath())
}

func TestHandleDiscordMessageDeliversReplies(t *testing.T) {
	t.Parallel()
	p, _, _ := newTestProdPal(t)

	replies := p.pendingReplies.Await("prompt-1")
	msg := replyTo("prompt-1", p.config.Discord.StatusChannelID, "working on tests")
	p.handleDiscordMessage(nil, &discordgo.MessageCreate{Message: msg})

	select {
	case got := <-replies:
		assert.Equal(t, "working on tests", got.Content)
	default:
		t.Fatal("expected reply to be delivered")
	}

	var saved DiscordMessage
	require.NoError(t, p.db.Last(&saved).Error)
	assert.Equal(t, "working on tests", saved.Content)
	assert.Equal(t, "prompt-1", saved.ReferencedMessageID)
}

func TestHandleDiscordMessageIgnoresBots(t *testing.T) {
	t.Parallel()
	p, _, _ := newTestProdPal(t)

	replies := p.pendingReplies.Await("prompt-1")
	msg := replyTo("prompt-1", p.config.Discord.StatusChannelID, "beep boop")
	msg.Author.Bot = true
	p.handleDiscordMessage(nil, &discordgo.MessageCreate{Message: msg})

	select {
	case <-replies:
		t.Fatal("bot messages should not be delivered")
	default:
	}
}

func TestHandleInteractionWelcome(t *testing.T) {
	t.Parallel()
	p, session, _ := newTestProdPal(t)

	interaction := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			ChannelID: "channel-anywhere",
			Data: discordgo.ApplicationCommandInteractionData{
				Name: DiscordSlashCommandWelcome,
			},
			User: &discordgo.User{ID: "user-1", Username: "someone"},
		},
	}
	p.handleInteraction(nil, interaction)

	require.Eventually(
		t, func() bool {
			return len(session.embedsSent()) > 0
		}, 5*time.Second, 10*time.Millisecond,
	)
	embeds := session.embedsSent()
	assert.Equal(t, "channel-anywhere", embeds[0].ChannelID)
	assert.Equal(t, "👋 Hello There!", embeds[0].Embed.Title)

	require.Len(t, session.InteractionEdits, 1)
	require.NotNil(t, session.InteractionEdits[0].Content)
	assert.Equal(t, "Welcome message sent!", *session.InteractionEdits[0].Content)
}

func TestHandleInteractionHelp(t *testing.T) {
	t.Parallel()
	p, session, _ := newTestProdPal(t)

	interaction := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name: DiscordSlashCommandHelp,
			},
			User: &discordgo.User{ID: "user-1", Username: "someone"},
		},
	}
	p.handleInteraction(nil, interaction)

	require.Len(t, session.Responses, 1)
	require.Len(t, session.Responses[0].Data.Embeds, 1)
	embed := session.Responses[0].Data.Embeds[0]
	assert.Equal(t, "ProductivityPal Help", embed.Title)
	require.Len(t, embed.Fields, 7)
	assert.Equal(t, "/remind", embed.Fields[0].Name)
	assert.Equal(t, "/pause", embed.Fields[6].Name)
}

func TestHandleInteractionPauseToggle(t *testing.T) {
	t.Parallel()
	p, session, _ := newTestProdPal(t)

	notifier, err := newDBNotifier(p)
	require.NoError(t, err)
	p.dbNotifier = notifier

	interaction := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name: DiscordSlashCommandPause,
			},
			User: &discordgo.User{ID: "user-1", Username: "someone"},
		},
	}
	p.handleInteraction(nil, interaction)

	require.Len(t, session.InteractionEdits, 1)
	require.NotNil(t, session.InteractionEdits[0].Content)
	assert.Contains(t, *session.InteractionEdits[0].Content, "Bot paused.")
	assert.True(t, p.RuntimeConfig().Paused)

	var saved RuntimeConfig
	require.NoError(t, p.db.Last(&saved).Error)
	assert.True(t, saved.Paused)

	// other instances are told to reload
	select {
	case <-p.triggerRuntimeConfigRefreshCh:
	default:
		t.Fatal("expected refresh trigger")
	}

	p.handleInteraction(nil, interaction)
	require.Len(t, session.InteractionEdits, 2)
	require.NotNil(t, session.InteractionEdits[1].Content)
	assert.Contains(t, *session.InteractionEdits[1].Content, "Bot resumed.")
	assert.False(t, p.RuntimeConfig().Paused)
}

func TestReplyWindowRuntimeOverride(t *testing.T) {
	t.Parallel()
	p, _, _ := newTestProdPal(t)

	assert.Equal(t, p.config.Reminder.ReplyWindow, p.replyWindow())

	p.cfgMu.Lock()
	p.runtimeConfig.ReplyWindow = Duration{Duration: 5 * time.Minute}
	p.cfgMu.Unlock()
	assert.Equal(t, 5*time.Minute, p.replyWindow())
}

func TestWelcomeEmbed(t *testing.T) {
	t.Parallel()
	embed := welcomeEmbed(time.Now())
	assert.Equal(t, "👋 Hello There!", embed.Title)
	assert.Equal(
		t, "I'm your Productivity Assistant Bot! Nice to meet you!",
		embed.Description,
	)
	assert.Equal(t, colorWelcome, embed.Color)
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "What I Can Do", embed.Fields[0].Name)
	assert.Equal(t, "I'm here to help you succeed!", embed.Footer.Text)
}

func TestSendWelcomeMessages(t *testing.T) {
	t.Parallel()
	p, session, _ := newTestProdPal(t)

	p.sendWelcomeMessages(context.Background())
	embeds := session.embedsSent()
	require.Len(t, embeds, 3)
	channelIDs := make([]string, 0, 3)
	for _, e := range embeds {
		channelIDs = append(channelIDs, e.ChannelID)
		assert.Equal(t, "👋 Hello There!", e.Embed.Title)
	}
	assert.ElementsMatch(t, p.botChannelIDs(), channelIDs)
}

func TestRuntimeConfigAccessorCopies(t *testing.T) {
	t.Parallel()
	p, _, _ := newTestProdPal(t)

	cfg := p.RuntimeConfig()
	cfg.Paused = true
	assert.False(t, p.RuntimeConfig().Paused)
}

func TestRefreshRuntimeConfig(t *testing.T) {
	t.Parallel()
	p, session, _ := newTestProdPal(t)

	updated := DefaultRuntimeConfig()
	updated.Paused = true
	updated.DiscordCustomStatus = "heads down"
	require.NoError(t, p.db.Create(&updated).Error)

	p.refreshRuntimeConfig(context.Background())

	got := p.RuntimeConfig()
	assert.True(t, got.Paused)
	assert.Equal(t, "heads down", got.DiscordCustomStatus)
	assert.Equal(t, "heads down", session.CustomStatus)
}

func TestSetRuntimeLevels(t *testing.T) {
	t.Parallel()
	p, _, _ := newTestProdPal(t)

	cfg := p.RuntimeConfig()
	cfg.LogLevel = DBLogLevelError
	cfg.DiscordLogLevel = DBLogLevelDebug
	p.setRuntimeLevels(cfg)

	assert.Equal(t, slog.LevelError, p.config.LogLevel.Level())
	assert.Equal(t, slog.LevelDebug, p.config.Discord.LogLevel.Level())
}

func TestSignalShutdownDoesNotBlock(t *testing.T) {
	t.Parallel()
	p, _, _ := newTestProdPal(t)

	p.signalShutdown()
	p.signalShutdown()

	select {
	case <-p.signalStop:
	default:
		t.Fatal("expected stop signal")
	}
}

func TestDiagnoseEmbedReportsChannels(t *testing.T) {
	t.Parallel()
	p, session, _ := newTestProdPal(t)

	embed := p.diagnoseEmbed(context.Background())
	assert.Equal(t, "🔍 Bot Diagnostics", embed.Title)
	require.NotEmpty(t, embed.Fields)
	assert.Equal(t, "Channel Access", embed.Fields[0].Name)
	assert.Equal(t, "✅ All channels accessible", embed.Fields[0].Value)

	session.ChannelErrs["channel-jobs"] = fmt.Errorf("missing access")
	embed = p.diagnoseEmbed(context.Background())
	assert.Equal(t, "❌ Some channels inaccessible", embed.Fields[0].Value)
}
