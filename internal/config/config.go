// Package config loads the bot configuration from defaults, an optional
// YAML file and BOT_* environment variables, then validates it.
package config

import (
	"errors"
	"fmt"

	"github.com/go-telegram/bot/models"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config is the root of the application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Session   SessionConfig   `mapstructure:"session"`
	Nudge     NudgeConfig     `mapstructure:"nudge"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	State     StateConfig     `mapstructure:"state"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Buttons   ButtonsConfig   `mapstructure:"buttons"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type TelegramConfig struct {
	Token    string          `mapstructure:"token"    validate:"required"`
	Commands []CommandConfig `mapstructure:"commands" validate:"dive"`

	// BotInfo is filled from getMe at startup.
	BotInfo *models.User `mapstructure:"-"`
}

// CommandConfig is one entry of the bot's published command list.
type CommandConfig struct {
	Command     string `mapstructure:"command"     validate:"required"`
	Description string `mapstructure:"description" validate:"required"`
}

// SessionConfig describes the daily questions and the choices offered
// during onboarding.
type SessionConfig struct {
	DefaultTimezone string         `mapstructure:"default_timezone" validate:"required,timezone"`
	Regions         []RegionConfig `mapstructure:"regions"          validate:"min=1,dive"`
	TimePresets     []string       `mapstructure:"time_presets"     validate:"min=1,dive,hhmm"`
	Questions       []string       `mapstructure:"questions"        validate:"len=4,dive,required"`
}

type RegionConfig struct {
	Label    string `mapstructure:"label"    validate:"required"`
	Timezone string `mapstructure:"timezone" validate:"required,timezone"`
}

// NudgeConfig controls the daily re-engagement sweep. Hour and Minute are UTC.
type NudgeConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	Hour           int  `mapstructure:"hour"            validate:"min=0,max=23"`
	Minute         int  `mapstructure:"minute"          validate:"min=0,max=59"`
	InactivityDays int  `mapstructure:"inactivity_days" validate:"min=1"`
	CooldownDays   int  `mapstructure:"cooldown_days"   validate:"min=1"`
	Concurrency    int  `mapstructure:"concurrency"     validate:"min=1,max=64"`
}

// Schedule renders the sweep time as a five-field UTC cron expression.
func (n NudgeConfig) Schedule() string {
	return fmt.Sprintf("%d %d * * *", n.Minute, n.Hour)
}

type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// StateConfig selects where conversation state lives.
type StateConfig struct {
	Backend   string `mapstructure:"backend"    validate:"oneof=sqlite redis"`
	RedisAddr string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
}

type GeminiConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	APIKey            string  `mapstructure:"api_key"             validate:"required_if=Enabled true"`
	ModelName         string  `mapstructure:"model_name"          validate:"required_if=Enabled true"`
	Temperature       float32 `mapstructure:"temperature"         validate:"min=0,max=2"`
	SystemInstruction string  `mapstructure:"system_instruction"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=0,max=60"`
}

// MessagesConfig holds every user-facing text. TimeSaved takes the time and
// the region label as %s arguments.
type MessagesConfig struct {
	Welcome              string `mapstructure:"welcome"                validate:"required"`
	InvalidRegion        string `mapstructure:"invalid_region"         validate:"required"`
	ChooseTime           string `mapstructure:"choose_time"            validate:"required"`
	ChangeTime           string `mapstructure:"change_time"            validate:"required"`
	InvalidTime          string `mapstructure:"invalid_time"           validate:"required"`
	TimeSaved            string `mapstructure:"time_saved"             validate:"required"`
	Back                 string `mapstructure:"back"                   validate:"required"`
	Stopped              string `mapstructure:"stopped"                validate:"required"`
	Skipped              string `mapstructure:"skipped"                validate:"required"`
	NotConfigured        string `mapstructure:"not_configured"         validate:"required"`
	Deferred             string `mapstructure:"deferred"               validate:"required"`
	Chained              string `mapstructure:"chained"                validate:"required"`
	Completed            string `mapstructure:"completed"              validate:"required"`
	ChangeTimeMidSession string `mapstructure:"change_time_mid_session" validate:"required"`
	Nudge                string `mapstructure:"nudge"                  validate:"required"`
	Help                 string `mapstructure:"help"                   validate:"required"`
	GeneralError         string `mapstructure:"general_error"          validate:"required"`
	PrivateOnly          string `mapstructure:"private_only"           validate:"required"`
}

// ButtonsConfig holds the reply-keyboard labels. They double as the exact
// texts the handlers match.
type ButtonsConfig struct {
	Launch     string `mapstructure:"launch"      validate:"required"`
	ChangeTime string `mapstructure:"change_time" validate:"required"`
	Stop       string `mapstructure:"stop"        validate:"required"`
	Skip       string `mapstructure:"skip"        validate:"required"`
	Back       string `mapstructure:"back"        validate:"required"`
}
