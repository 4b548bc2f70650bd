// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Script() ScriptConfig
	Connection() ConnectionConfig

	// Script Setters
	SetScriptTimeout(d time.Duration)
	SetScriptLanguage(lang string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	ScriptCfg     ScriptConfig     `mapstructure:"script" yaml:"script"`
	ConnectionCfg ConnectionConfig `mapstructure:"connection" yaml:"connection"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Script() ScriptConfig         { return c.ScriptCfg }
func (c *Config) Connection() ConnectionConfig { return c.ConnectionCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetScriptTimeout(d time.Duration) { c.ScriptCfg.Timeout = d }
func (c *Config) SetScriptLanguage(lang string)    { c.ScriptCfg.Language = lang }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ScriptConfig controls how AppleScript actions are executed.
type ScriptConfig struct {
	// Interpreter is the absolute path of the script interpreter binary.
	Interpreter string `mapstructure:"interpreter" yaml:"interpreter"`
	// Language is passed to the interpreter with -l ("AppleScript" or "JavaScript").
	Language string        `mapstructure:"language" yaml:"language"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// SettingsKey is the key inside an action's settings that holds the script source.
	SettingsKey string `mapstructure:"settings_key" yaml:"settings_key"`
	// PathKey is the key inside an action's settings that holds a script file path.
	PathKey           string  `mapstructure:"path_key" yaml:"path_key"`
	MaxConcurrent     int     `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	LaunchesPerSecond float64 `mapstructure:"launches_per_second" yaml:"launches_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
	ShowOutputAsTitle bool    `mapstructure:"show_output_as_title" yaml:"show_output_as_title"`
}

// ConnectionConfig tunes the WebSocket connection to the host application.
type ConnectionConfig struct {
	Host           string        `mapstructure:"host" yaml:"host"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	WriteWait      time.Duration `mapstructure:"write_wait" yaml:"write_wait"`
	PongWait       time.Duration `mapstructure:"pong_wait" yaml:"pong_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size" yaml:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer" yaml:"send_buffer"`
}

// NewDefaultConfig creates a configuration populated with the defaults from SetDefaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Unmarshal of pure defaults cannot fail in practice.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// SetDefaults registers every default value on the given viper instance.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "deckscript")
	v.SetDefault("logger.log_file", "~/Library/Logs/deckscript/plugin.log")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Script --
	v.SetDefault("script.interpreter", "/usr/bin/osascript")
	v.SetDefault("script.language", "AppleScript")
	v.SetDefault("script.timeout", "30s")
	v.SetDefault("script.settings_key", "applescript")
	v.SetDefault("script.path_key", "scriptPath")
	v.SetDefault("script.max_concurrent", 4)
	v.SetDefault("script.launches_per_second", 5.0)
	v.SetDefault("script.burst", 3)
	v.SetDefault("script.show_output_as_title", false)

	// -- Connection --
	v.SetDefault("connection.host", "127.0.0.1")
	v.SetDefault("connection.dial_timeout", "5s")
	v.SetDefault("connection.write_wait", "10s")
	v.SetDefault("connection.pong_wait", "60s")
	v.SetDefault("connection.max_message_size", 1<<20)
	v.SetDefault("connection.send_buffer", 64)
}

// NewConfigFromViper builds a validated Config from a populated viper instance.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.LoggerCfg.LogFile != "" {
		expanded, err := homedir.Expand(cfg.LoggerCfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("error expanding logger.log_file: %w", err)
		}
		cfg.LoggerCfg.LogFile = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.ScriptCfg.Validate(); err != nil {
		return fmt.Errorf("script configuration invalid: %w", err)
	}
	if err := c.ConnectionCfg.Validate(); err != nil {
		return fmt.Errorf("connection configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the script execution settings.
func (s *ScriptConfig) Validate() error {
	if s.Interpreter == "" {
		return fmt.Errorf("script.interpreter is required")
	}
	if s.SettingsKey == "" {
		return fmt.Errorf("script.settings_key is required")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("script.timeout must be a positive duration")
	}
	if s.MaxConcurrent <= 0 {
		return fmt.Errorf("script.max_concurrent must be a positive integer")
	}
	if s.LaunchesPerSecond < 0 {
		return fmt.Errorf("script.launches_per_second must not be negative")
	}
	if s.LaunchesPerSecond > 0 && s.Burst <= 0 {
		return fmt.Errorf("script.burst must be positive when launches_per_second is set")
	}
	return nil
}

// Validate checks the connection settings.
func (cc *ConnectionConfig) Validate() error {
	if cc.Host == "" {
		return fmt.Errorf("connection.host is required")
	}
	if cc.DialTimeout <= 0 {
		return fmt.Errorf("connection.dial_timeout must be a positive duration")
	}
	if cc.WriteWait <= 0 || cc.PongWait <= 0 {
		return fmt.Errorf("connection.write_wait and connection.pong_wait must be positive")
	}
	if cc.MaxMessageSize <= 0 {
		return fmt.Errorf("connection.max_message_size must be a positive integer")
	}
	if cc.SendBuffer < 0 {
		return fmt.Errorf("connection.send_buffer must not be negative")
	}
	return nil
}
