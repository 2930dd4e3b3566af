package prodpal

import (
	"log/slog"
)

var columnRuntimeConfigPaused = "paused"

// coachStatusInstructions is the default system prompt used when generating
// feedback on a status check-in reply.
const coachStatusInstructions = `Act as a supportive team leader and personal productivity coach.
The user has shared their current status.

Respond in 3-5 sentences with:
1. Specific acknowledgment of their work
2. Motivational encouragement that's genuine (not generic)
3. One practical suggestion or question to help them improve or move forward
4. Speak as a supportive leader (not a micromanaging boss)

Keep your tone positive but authentic.`

// coachJobInstructions is the default system prompt used when analyzing the
// day's job applications.
const coachJobInstructions = `As a job search coach, analyze these job applications from today.

Provide:
1. A brief analysis of the job types/industries they're targeting
2. One practical suggestion to improve their application success rate
3. Positive encouragement about their job search process

Keep it concise (3-4 sentences) and genuinely helpful.`

// RuntimeConfig holds the bot's runtime state and settings that can be
// changed while the bot is running. The most recent record in the table
// is the active configuration.
//
// Most fields have a corresponding column in the database, and a `binding`
// tag for validation.
type RuntimeConfig struct {
	ModelUintID
	ModelUnixTime

	// Paused indicates whether the bot's scheduled activity
	// (reminders, check-ins, job tracking) is suspended
	Paused bool `json:"paused" gorm:"default:false"`

	// DiscordCustomStatus sets the bot's Discord custom status
	DiscordCustomStatus string `json:"discord_custom_status" gorm:"type:string"`

	// ReminderEnabled enables the periodic productivity reminder
	ReminderEnabled bool `json:"reminder_enabled" gorm:"default:true"`

	// CheckInEnabled enables the randomly scheduled status check-ins
	CheckInEnabled bool `json:"check_in_enabled" gorm:"default:true"`

	// JobTrackerEnabled enables the daily job application tracker
	JobTrackerEnabled bool `json:"job_tracker_enabled" gorm:"default:true"`

	// ReplyWindow overrides the static reply window for check-in and
	// job tracker prompts when set above 0
	ReplyWindow Duration `json:"reply_window" gorm:"default:'0s'"`

	// CoachStatusInstructions is the system prompt used when generating
	// manager feedback for a status reply
	CoachStatusInstructions string `json:"coach_status_instructions" gorm:"type:string" binding:"required"`

	// CoachJobInstructions is the system prompt used when analyzing
	// job applications
	CoachJobInstructions string `json:"coach_job_instructions" gorm:"type:string" binding:"required"`

	// CoachMaxTokens caps completion length for coach responses (0 = no cap)
	CoachMaxTokens int `json:"coach_max_tokens" gorm:"default:0" binding:"omitempty,min=0"`

	// LogLevel is the log level for the bot's main logger
	LogLevel DBLogLevel `json:"log_level" gorm:"default:INFO" binding:"omitempty,oneof=DEBUG INFO WARN ERROR"`

	// DiscordLogLevel is the log level for the Discord component
	DiscordLogLevel DBLogLevel `json:"discord_log_level" gorm:"default:INFO" binding:"omitempty,oneof=DEBUG INFO WARN ERROR"`

	// DiscordGoLogLevel is the log level for the discordgo library
	DiscordGoLogLevel DBLogLevel `json:"discordgo_log_level" gorm:"default:WARN" binding:"omitempty,oneof=DEBUG INFO WARN ERROR"`

	// DatabaseLogLevel is the log level for database operations
	DatabaseLogLevel DBLogLevel `json:"database_log_level" gorm:"default:INFO" binding:"omitempty,oneof=DEBUG INFO WARN ERROR"`

	// StatusServerLogLevel is the log level for the HTTP status server
	StatusServerLogLevel DBLogLevel `json:"status_server_log_level" gorm:"default:INFO" binding:"omitempty,oneof=DEBUG INFO WARN ERROR"`

	// CoachLogLevel is the log level for the coach (OpenAI) component
	CoachLogLevel DBLogLevel `json:"coach_log_level" gorm:"default:INFO" binding:"omitempty,oneof=DEBUG INFO WARN ERROR"`
}

func (RuntimeConfig) TableName() string {
	return "config"
}

// DefaultRuntimeConfig returns a RuntimeConfig with default values, used
// when initializing a new database.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Paused:                  false,
		DiscordCustomStatus:     DefaultDiscordCustomStatus,
		ReminderEnabled:         true,
		CheckInEnabled:          true,
		JobTrackerEnabled:       true,
		CoachStatusInstructions: coachStatusInstructions,
		CoachJobInstructions:    coachJobInstructions,
		LogLevel:                DBLogLevel(slog.LevelInfo.String()),
		DiscordLogLevel:         DBLogLevel(slog.LevelInfo.String()),
		DiscordGoLogLevel:       DBLogLevel(slog.LevelWarn.String()),
		DatabaseLogLevel:        DBLogLevel(slog.LevelInfo.String()),
		StatusServerLogLevel:    DBLogLevel(slog.LevelInfo.String()),
		CoachLogLevel:           DBLogLevel(slog.LevelInfo.String()),
	}
}
