package prodpal

import (
	"fmt"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestRegisterCommands(t *testing.T) {
	t.Parallel()
	p, session, _ := newTestProdPal(t)

	registered, err := p.discord.registerCommands()
	require.NoError(t, err)
	require.Len(t, registered, 7)

	names := make([]string, 0, len(registered))
	for _, cmd := range registered {
		names = append(names, cmd.Name)
		assert.NotEmpty(t, cmd.Description)
	}
	assert.ElementsMatch(
		t,
		[]string{
			DiscordSlashCommandRemind,
			DiscordSlashCommandCheckIn,
			DiscordSlashCommandJobs,
			DiscordSlashCommandHelp,
			DiscordSlashCommandDiagnose,
			DiscordSlashCommandWelcome,
			DiscordSlashCommandPause,
		},
		names,
	)
	assert.Equal(t, registered, session.RegisteredCommands)
}

func TestCheckChannelAccess(t *testing.T) {
	t.Parallel()
	p, session, _ := newTestProdPal(t)
	session.ChannelErrs["channel-jobs"] = fmt.Errorf("missing access")

	access := p.discord.checkChannelAccess(p.botChannelIDs()...)
	require.Len(t, access, 3)
	assert.True(t, access["channel-reminders"])
	assert.True(t, access["channel-status"])
	assert.False(t, access["channel-jobs"])
}

func TestCheckChannelAccessSkipsEmptyIDs(t *testing.T) {
	t.Parallel()
	p, _, _ := newTestProdPal(t)

	access := p.discord.checkChannelAccess("", "channel-status")
	assert.Len(t, access, 1)
}

func TestNewDiscordMessage(t *testing.T) {
	t.Parallel()
	msg := &discordgo.Message{
		ID:        "message-1",
		ChannelID: "channel-1",
		GuildID:   "guild-1",
		Content:   "status update",
		Author: &discordgo.User{
			ID:         "user-1",
			Username:   "testuser",
			GlobalName: "Test User",
		},
		MessageReference: &discordgo.MessageReference{
			MessageID: "prompt-1",
		},
	}

	dm := NewDiscordMessage(msg)
	assert.Equal(t, "message-1", dm.MessageID)
	assert.Equal(t, "status update", dm.Content)
	assert.Equal(t, "user-1", dm.UserID)
	assert.Equal(t, "testuser", dm.Username)
	assert.Equal(t, "prompt-1", dm.ReferencedMessageID)
	assert.NotEmpty(t, dm.Payload)
}

func TestNewDiscordMessageMemberUser(t *testing.T) {
	t.Parallel()
	msg := &discordgo.Message{
		ID:        "message-2",
		ChannelID: "channel-1",
		Member: &discordgo.Member{
			User: &discordgo.User{ID: "member-user", Username: "memberuser"},
		},
		ReferencedMessage: &discordgo.Message{ID: "prompt-2"},
	}

	dm := NewDiscordMessage(msg)
	assert.Equal(t, "member-user", dm.UserID)
	assert.Equal(t, "prompt-2", dm.ReferencedMessageID)
}

func TestAckResponseDeferred(t *testing.T) {
	t.Parallel()
	p, _, _ := newTestProdPal(t)
	resp := p.discord.ackResponse()
	assert.Equal(
		t,
		discordgo.InteractionResponseDeferredChannelMessageWithSource,
		resp.Type,
	)
}

func TestGetDiscordUser(t *testing.T) {
	t.Parallel()
	fromUser := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			User: &discordgo.User{ID: "direct-user"},
		},
	}
	assert.Equal(t, "direct-user", getDiscordUser(fromUser).ID)

	fromMember := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Member: &discordgo.Member{User: &discordgo.User{ID: "guild-user"}},
		},
	}
	assert.Equal(t, "guild-user", getDiscordUser(fromMember).ID)
}

func TestUpdateCustomStatus(t *testing.T) {
	t.Parallel()
	p, session, _ := newTestProdPal(t)

	require.NoError(t, p.discord.updateCustomStatus("working hard"))
	assert.Equal(t, "working hard", session.CustomStatus)
}
