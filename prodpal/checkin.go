package prodpal

import (
	"context"
	"fmt"
	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"log/slog"
	"math/rand"
	"sort"
	"time"
)

const checkInTimeoutMessage = "No status update received. I'll check in again later!"

// CheckIn records a status check-in prompt and its outcome.
type CheckIn struct {
	ModelUintID
	ModelUnixTime
	ChannelID       string `json:"channel_id"`
	PromptMessageID string `json:"prompt_message_id"`
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	Status          string `json:"status"`
	Feedback        string `json:"feedback"`
	TimedOut        bool   `json:"timed_out"`
}

func (c CheckIn) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", uint64(c.ID)),
		slog.String("channel_id", c.ChannelID),
		slog.String("prompt_message_id", c.PromptMessageID),
		slog.String("user_id", c.UserID),
		slog.String("username", c.Username),
		slog.Bool("timed_out", c.TimedOut),
	)
}

// CheckInRunner posts status check-in prompts at a random minute within
// each reminder-interval-sized slot of the day, waits for a reply, and
// posts coach feedback on whatever the user shares.
type CheckInRunner struct {
	p      *ProdPal
	logger *slog.Logger

	// randomMinute returns a random minute offset within a slot, swapped
	// out in tests for determinism
	randomMinute func(slotMinutes int) int
}

func newCheckInRunner(p *ProdPal) *CheckInRunner {
	return &CheckInRunner{
		p: p,
		randomMinute: func(slotMinutes int) int {
			return rand.Intn(slotMinutes)
		},
	}
}

// scheduleTimes returns the next firing time for each interval-sized slot
// of the day, each at a random minute within its slot. Times already past
// are pushed to the next day.
func (c *CheckInRunner) scheduleTimes(now time.Time) []time.Time {
	interval := c.p.config.Reminder.Interval
	slotHours := int(interval.Hours())
	if slotHours < 1 {
		slotHours = 1
	}
	slotMinutes := slotHours * 60

	var times []time.Time
	for hour := 0; hour < 24; hour += slotHours {
		offset := c.randomMinute(slotMinutes)
		checkAt := time.Date(
			now.Year(), now.Month(), now.Day(),
			hour, 0, 0, 0, now.Location(),
		).Add(time.Duration(offset) * time.Minute)
		if checkAt.Before(now) {
			checkAt = checkAt.Add(24 * time.Hour)
		}
		times = append(times, checkAt)
	}
	sort.Slice(
		times, func(i, j int) bool {
			return times[i].Before(times[j])
		},
	)
	return times
}

// run fires check-ins at randomly scheduled times until the context is
// canceled. A fresh schedule is drawn once all of the current day's
// check-ins have fired.
func (c *CheckInRunner) run(ctx context.Context) {
	for ctx.Err() == nil {
		times := c.scheduleTimes(time.Now())
		for _, at := range times {
			c.logger.Info("check-in scheduled", "at", at)
		}
		for _, at := range times {
			timer := time.NewTimer(time.Until(at))
			select {
			case <-ctx.Done():
				timer.Stop()
				c.logger.Info("check-in loop stopping")
				return
			case <-timer.C:
			}

			cfg := c.p.RuntimeConfig()
			if cfg.Paused || !cfg.CheckInEnabled {
				c.logger.Debug("check-ins paused, skipping")
				continue
			}
			if err := c.Check(ctx); err != nil {
				c.logger.ErrorContext(ctx, "check-in failed", tint.Err(err))
			}
		}
	}
}

// Check posts a status check-in prompt and waits up to the configured
// reply window for a reply. A reply gets coach feedback posted back to the
// channel; a timeout gets a short notice instead.
func (c *CheckInRunner) Check(ctx context.Context) error {
	now := time.Now()
	channelID := c.p.config.Discord.StatusChannelID

	prompt, err := c.p.discord.channelMessageSendEmbed(
		channelID,
		checkInEmbed(now),
	)
	if err != nil {
		return fmt.Errorf("error sending check-in prompt: %w", err)
	}

	record := &CheckIn{
		ChannelID:       channelID,
		PromptMessageID: prompt.ID,
	}

	replies := c.p.pendingReplies.Await(prompt.ID)
	defer c.p.pendingReplies.Cancel(prompt.ID)

	window := time.NewTimer(c.p.replyWindow())
	defer window.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-window.C:
		record.TimedOut = true
		if sendErr := c.p.discord.channelMessageSend(
			channelID, checkInTimeoutMessage,
		); sendErr != nil {
			c.logger.ErrorContext(
				ctx, "error sending timeout notice", tint.Err(sendErr),
			)
		}
	case reply := <-replies:
		record.Status = reply.Content
		if reply.Author != nil {
			record.UserID = reply.Author.ID
			record.Username = reply.Author.Username
		}

		feedback := c.p.coach.StatusFeedback(ctx, reply.Content)
		record.Feedback = feedback

		if _, sendErr := c.p.discord.channelMessageSendEmbed(
			channelID, feedbackEmbed(feedback, time.Now()),
		); sendErr != nil {
			c.logger.ErrorContext(
				ctx, "error sending manager feedback", tint.Err(sendErr),
			)
		}
	}

	if _, err = c.p.writeDB.Create(ctx, record); err != nil {
		c.logger.ErrorContext(ctx, "error saving check-in", tint.Err(err))
	}
	c.logger.InfoContext(ctx, "check-in complete", "check_in", record)
	return nil
}

func checkInEmbed(now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "📊 Status Check",
		Description: "Let me know what you're currently working on.",
		Color:       colorCheckIn,
		Timestamp:   now.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Instructions",
				Value: "Please share what you're working on, any challenges " +
					"you're facing, and how you're feeling about your progress.",
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Reply to this message with your status update",
		},
	}
}

func feedbackEmbed(feedback string, now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "💬 Manager Feedback",
		Description: shortenString(feedback, discordMaxMessageLength),
		Color:       colorFeedback,
		Timestamp:   now.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Respond to stay motivated and accountable",
		},
	}
}
