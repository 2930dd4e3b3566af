package prodpal

import (
	"context"
	"fmt"
	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	colorReminder = 0x00ff00
	colorCheckIn  = 0x3498db
	colorFeedback = 0x9b59b6
	colorJobs     = 0xe74c3c
	colorNoJobs   = 0xf39c12
	colorAnalysis = 0x2ecc71
	colorWelcome  = 0x1abc9c
	colorHelp     = 0x3498db
	colorDiagnose = 0xf1c40f
)

// ReminderLog records each productivity reminder posted to Discord, and is
// used to restore the reminder sequence number across restarts.
type ReminderLog struct {
	ModelUintID
	ModelUnixTime
	Sequence  int    `json:"sequence" gorm:"index"`
	TimeOfDay string `json:"time_of_day"`
	Weekend   bool   `json:"weekend"`
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

func (r ReminderLog) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("sequence", r.Sequence),
		slog.String("time_of_day", r.TimeOfDay),
		slog.Bool("weekend", r.Weekend),
		slog.String("channel_id", r.ChannelID),
		slog.String("message_id", r.MessageID),
	)
}

// timeOfDay buckets an hour of day into a human label used in reminder text.
func timeOfDay(t time.Time) string {
	hour := t.Hour()
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Reminder posts periodic productivity reminders to the reminder channel.
type Reminder struct {
	p        *ProdPal
	logger   *slog.Logger
	sequence atomic.Int64
}

func newReminder(p *ProdPal) *Reminder {
	return &Reminder{p: p}
}

// restoreSequence loads the highest previously recorded reminder sequence
// number, so counts continue across restarts.
func (r *Reminder) restoreSequence(ctx context.Context) error {
	var last ReminderLog
	rv := r.p.db.WithContext(ctx).Order("sequence desc").Limit(1).Find(&last)
	if rv.Error != nil {
		return fmt.Errorf("error loading reminder state: %w", rv.Error)
	}
	r.sequence.Store(int64(last.Sequence))
	return nil
}

// Send posts a single productivity reminder and records it.
func (r *Reminder) Send(ctx context.Context) error {
	now := time.Now()
	seq := int(r.sequence.Add(1))
	tod := timeOfDay(now)
	weekend := isWeekend(now)

	embed := reminderEmbed(now, seq)
	msg, err := r.p.discord.channelMessageSendEmbed(
		r.p.config.Discord.ReminderChannelID,
		embed,
	)
	if err != nil {
		r.sequence.Add(-1)
		return fmt.Errorf("error sending reminder: %w", err)
	}

	entry := &ReminderLog{
		Sequence:  seq,
		TimeOfDay: tod,
		Weekend:   weekend,
		ChannelID: r.p.config.Discord.ReminderChannelID,
		MessageID: msg.ID,
	}
	if _, err = r.p.writeDB.Create(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "error saving reminder log", tint.Err(err))
	}
	r.logger.InfoContext(ctx, "sent reminder", "reminder", entry)
	return nil
}

// run posts reminders on the configured interval until the context is
// canceled. The first reminder is sent immediately.
func (r *Reminder) run(ctx context.Context) {
	ticker := time.NewTicker(r.p.config.Reminder.Interval)
	defer ticker.Stop()

	send := func() {
		cfg := r.p.RuntimeConfig()
		if cfg.Paused || !cfg.ReminderEnabled {
			r.logger.Debug("reminders paused, skipping")
			return
		}
		if err := r.Send(ctx); err != nil {
			r.logger.ErrorContext(ctx, "reminder failed", tint.Err(err))
		}
	}

	send()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reminder loop stopping")
			return
		case <-ticker.C:
			send()
		}
	}
}

// reminderEmbed builds the reminder message. Weekend reminders include an
// extra study item.
func reminderEmbed(now time.Time, sequence int) *discordgo.MessageEmbed {
	tod := timeOfDay(now)
	fields := []*discordgo.MessageEmbedField{
		{
			Name:  "🧩 DSA Questions",
			Value: "Complete 14 DSA questions",
		},
	}
	if isWeekend(now) {
		fields = append(
			fields, &discordgo.MessageEmbedField{
				Name:  "💻 OS Concepts (Weekend Special)",
				Value: "Study 2 OS concepts",
			},
		)
	}
	fields = append(
		fields,
		&discordgo.MessageEmbedField{
			Name:  "🚀 Personal Projects",
			Value: "Work on your personal projects",
		},
		&discordgo.MessageEmbedField{
			Name:  "💼 Office Projects",
			Value: "Make progress on office assignments",
		},
	)
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Productivity Reminder (%s)", tod),
		Description: fmt.Sprintf("Here's your %s reminder to stay on track!", tod),
		Color:       colorReminder,
		Timestamp:   now.Format(time.RFC3339),
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Reminder #%d", sequence),
		},
	}
}
