package prodpal

import (
	"context"
	"fmt"
	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"github.com/robfig/cron/v3"
	"log/slog"
	"strings"
	"time"
)

// jobDoneWords end the job application collection loop.
var jobDoneWords = map[string]bool{
	"done":     true,
	"finished": true,
	"complete": true,
	"end":      true,
}

// normalizeDoneWord prepares a reply for done-word comparison.
func normalizeDoneWord(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

const (
	jobAppliedStatus  = "Applied"
	jobReactionEmoji  = "✅"
	jobTrackerDateFmt = "2006-01-02"

	// maxEmbedFields is Discord's per-embed field limit
	maxEmbedFields = 25
)

// JobApplication records a single job application reported through the
// daily tracker.
type JobApplication struct {
	ModelUintID
	ModelUnixTime
	Company string `json:"company"`
	Date    string `json:"date" gorm:"index"`
	Status  string `json:"status" gorm:"default:Applied"`
	Notes   string `json:"notes"`
	UserID  string `json:"user_id"`
}

func (j JobApplication) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", uint64(j.ID)),
		slog.String("company", j.Company),
		slog.String("date", j.Date),
		slog.String("status", j.Status),
	)
}

// JobTracker opens a daily job application collection session in the job
// channel at the configured hour.
type JobTracker struct {
	p      *ProdPal
	logger *slog.Logger
	cron   *cron.Cron
}

func newJobTracker(p *ProdPal) *JobTracker {
	return &JobTracker{p: p}
}

// run schedules the daily tracker and blocks until the context is
// canceled.
func (j *JobTracker) run(ctx context.Context) {
	j.cron = cron.New()
	spec := fmt.Sprintf("0 %d * * *", j.p.config.Reminder.JobCheckHour)
	_, err := j.cron.AddFunc(
		spec, func() {
			cfg := j.p.RuntimeConfig()
			if cfg.Paused || !cfg.JobTrackerEnabled {
				j.logger.Debug("job tracker paused, skipping")
				return
			}
			if collectErr := j.Collect(ctx); collectErr != nil {
				j.logger.ErrorContext(
					ctx, "job tracker failed", tint.Err(collectErr),
				)
			}
		},
	)
	if err != nil {
		j.logger.ErrorContext(
			ctx,
			"invalid job tracker schedule",
			"spec", spec,
			tint.Err(err),
		)
		return
	}
	j.logger.Info("job tracker scheduled", "spec", spec)
	j.cron.Start()

	<-ctx.Done()
	stopCtx := j.cron.Stop()
	<-stopCtx.Done()
	j.logger.Info("job tracker stopped")
}

// Collect posts the tracker prompt and gathers replies, one application
// per message, until a done-word or the reply window elapses without a
// response. Collected applications are stored and analyzed.
func (j *JobTracker) Collect(ctx context.Context) error {
	now := time.Now()
	date := now.Format(jobTrackerDateFmt)
	channelID := j.p.config.Discord.JobChannelID

	prompt, err := j.p.discord.channelMessageSendEmbed(
		channelID,
		jobTrackerEmbed(now, date),
	)
	if err != nil {
		return fmt.Errorf("error sending job tracker prompt: %w", err)
	}

	replies := j.p.pendingReplies.Await(prompt.ID)
	defer j.p.pendingReplies.Cancel(prompt.ID)

	window := j.p.replyWindow()
	var jobs []string
	var userID string

	collecting := true
	for collecting {
		timer := time.NewTimer(window)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			if sendErr := j.p.discord.channelMessageSend(
				channelID,
				fmt.Sprintf(
					"No response received for %d minutes. "+
						"Closing job application tracking for today.",
					int(window.Minutes()),
				),
			); sendErr != nil {
				j.logger.ErrorContext(
					ctx, "error sending timeout notice", tint.Err(sendErr),
				)
			}
			collecting = false
		case reply := <-replies:
			timer.Stop()
			if jobDoneWords[normalizeDoneWord(reply.Content)] {
				collecting = false
				continue
			}
			jobs = append(jobs, reply.Content)
			if reply.Author != nil {
				userID = reply.Author.ID
			}
			if reactErr := j.p.discord.session.MessageReactionAdd(
				channelID, reply.ID, jobReactionEmoji,
			); reactErr != nil {
				j.logger.WarnContext(
					ctx, "error adding reaction", tint.Err(reactErr),
				)
			}
		}
	}

	if len(jobs) == 0 {
		if _, sendErr := j.p.discord.channelMessageSendEmbed(
			channelID, noApplicationsEmbed(time.Now()),
		); sendErr != nil {
			return fmt.Errorf("error sending no-applications notice: %w", sendErr)
		}
		return nil
	}

	for _, job := range jobs {
		app := &JobApplication{
			Company: job,
			Date:    date,
			Status:  jobAppliedStatus,
			UserID:  userID,
		}
		if _, createErr := j.p.writeDB.Create(ctx, app); createErr != nil {
			j.logger.ErrorContext(
				ctx, "error saving job application", tint.Err(createErr),
			)
		}
	}

	analysis := j.p.coach.JobAnalysis(ctx, jobs)
	for _, embed := range jobAnalysisEmbeds(analysis, jobs, time.Now()) {
		if _, sendErr := j.p.discord.channelMessageSendEmbed(
			channelID, embed,
		); sendErr != nil {
			return fmt.Errorf("error sending application analysis: %w", sendErr)
		}
	}
	j.logger.InfoContext(ctx, "job tracking complete", "applications", len(jobs))
	return nil
}

func jobTrackerEmbed(now time.Time, date string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "💼 Job Application Tracker",
		Description: "Please list all jobs you applied to today.",
		Color:       colorJobs,
		Timestamp:   now.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Instructions",
				Value: "Reply to this message with each job application on a " +
					"new line. When you're done, reply with 'done' in a " +
					"separate message.",
			},
			{
				Name:  "Format",
				Value: "Company Name - Position",
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Date: %s", date),
		},
	}
}

func noApplicationsEmbed(now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "📝 No Applications Today",
		Description: "No applications recorded today. Remember, consistent " +
			"application is key to finding opportunities!",
		Color:     colorNoJobs,
		Timestamp: now.Format(time.RFC3339),
	}
}

// jobAnalysisEmbeds builds the analysis embeds, one field per
// application, split across embeds at Discord's field limit. The first
// embed carries the analysis text and footer.
func jobAnalysisEmbeds(
	analysis string,
	jobs []string,
	now time.Time,
) []*discordgo.MessageEmbed {
	embeds := make([]*discordgo.MessageEmbed, 0, 1)
	jobNum := 0
	for _, chunk := range chunkItems(maxEmbedFields, jobs...) {
		fields := make([]*discordgo.MessageEmbedField, 0, len(chunk))
		for _, job := range chunk {
			jobNum++
			fields = append(
				fields, &discordgo.MessageEmbedField{
					Name:  fmt.Sprintf("Job %d", jobNum),
					Value: shortenString(job, 1024),
				},
			)
		}
		embeds = append(
			embeds, &discordgo.MessageEmbed{
				Color:     colorAnalysis,
				Timestamp: now.Format(time.RFC3339),
				Fields:    fields,
			},
		)
	}
	if len(embeds) == 0 {
		embeds = append(
			embeds, &discordgo.MessageEmbed{
				Color:     colorAnalysis,
				Timestamp: now.Format(time.RFC3339),
			},
		)
	}
	embeds[0].Title = fmt.Sprintf("📊 Application Analysis (%d jobs)", len(jobs))
	embeds[0].Description = shortenString(analysis, discordMaxMessageLength)
	embeds[0].Footer = &discordgo.MessageEmbedFooter{
		Text: "Keep up the great work on your job search!",
	}
	return embeds
}
