package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Storage  StorageConfig  `mapstructure:"storage"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Lark     LarkConfig     `mapstructure:"lark"`
	Email    EmailConfig    `mapstructure:"email"`
	Workers  WorkersConfig  `mapstructure:"workers"`
	Matcher  MatcherConfig  `mapstructure:"matcher"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // release or debug
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// PolicyConfig holds the routing policy. The chain resolver reads these
// values; they are deployment configuration, not authoritative law.
type PolicyConfig struct {
	PoliceValueThreshold float64           `mapstructure:"police_value_threshold"`
	PoliceRole           string            `mapstructure:"police_role"`
	EmergencyRole        string            `mapstructure:"emergency_role"`
	EvidenceChain        []string          `mapstructure:"evidence_chain"`
	SpecialistRoles      map[string]string `mapstructure:"specialist_roles"`
}

// StorageConfig holds file storage configuration
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// OpenAIConfig holds claim screening backend configuration
type OpenAIConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	Temperature    float32 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// LarkConfig holds Lark messenger configuration
type LarkConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
}

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// WorkersConfig holds background worker configuration
type WorkersConfig struct {
	NotificationIntervalSeconds int `mapstructure:"notification_interval_seconds"`
	NotificationBatchSize       int `mapstructure:"notification_batch_size"`
	NotificationMaxAttempts     int `mapstructure:"notification_max_attempts"`
	MatchIntervalSeconds        int `mapstructure:"match_interval_seconds"`
}

// MatcherConfig holds item matcher configuration
type MatcherConfig struct {
	MinScore float64 `mapstructure:"min_score"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("LOSTFOUND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/lostfound.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")

	// Routing policy defaults
	viper.SetDefault("policy.police_value_threshold", 500.0)
	viper.SetDefault("policy.police_role", "POLICE")
	viper.SetDefault("policy.emergency_role", "AIRPORT_LOST_FOUND_SPECIALIST")
	viper.SetDefault("policy.evidence_chain", []string{"POLICE"})
	viper.SetDefault("policy.specialist_roles", map[string]string{
		"UNIVERSITY": "CAMPUS_COORDINATOR",
		"TRANSIT":    "TRANSIT_LOST_FOUND_SPECIALIST",
		"AIRPORT":    "AIRPORT_LOST_FOUND_SPECIALIST",
		"POLICE":     "POLICE",
	})

	// Storage defaults
	viper.SetDefault("storage.base_dir", "data/files")

	// Claim screening defaults
	viper.SetDefault("openai.enabled", false)
	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("openai.temperature", 0.3)
	viper.SetDefault("openai.timeout_seconds", 60)

	// Lark defaults
	viper.SetDefault("lark.enabled", false)

	// Email defaults
	viper.SetDefault("email.enabled", false)
	viper.SetDefault("email.port", 587)

	// Worker defaults
	viper.SetDefault("workers.notification_interval_seconds", 30)
	viper.SetDefault("workers.notification_batch_size", 50)
	viper.SetDefault("workers.notification_max_attempts", 5)
	viper.SetDefault("workers.match_interval_seconds", 300)

	// Matcher defaults
	viper.SetDefault("matcher.min_score", 0.45)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("lark.app_id", "LARK_APP_ID")
	viper.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	viper.BindEnv("email.username", "SMTP_USERNAME")
	viper.BindEnv("email.password", "SMTP_PASSWORD")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.Mode != "release" && c.Server.Mode != "debug" {
		return fmt.Errorf("server.mode must be release or debug")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Routing policy must resolve every destination it names
	if c.Policy.PoliceValueThreshold < 0 {
		return fmt.Errorf("policy.police_value_threshold cannot be negative")
	}
	if c.Policy.PoliceRole == "" {
		return fmt.Errorf("policy.police_role is required")
	}
	if c.Policy.EmergencyRole == "" {
		return fmt.Errorf("policy.emergency_role is required")
	}
	if len(c.Policy.EvidenceChain) == 0 {
		return fmt.Errorf("policy.evidence_chain cannot be empty")
	}
	if len(c.Policy.SpecialistRoles) == 0 {
		return fmt.Errorf("policy.specialist_roles cannot be empty")
	}

	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	// Integrations only need credentials when enabled
	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required when openai is enabled")
	}
	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required when lark is enabled")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required when lark is enabled")
		}
	}
	if c.Email.Enabled {
		if c.Email.Host == "" {
			return fmt.Errorf("email.host is required when email is enabled")
		}
		if c.Email.Port <= 0 {
			return fmt.Errorf("email.port is required when email is enabled")
		}
		if c.Email.From == "" {
			return fmt.Errorf("email.from is required when email is enabled")
		}
	}

	if c.Matcher.MinScore < 0 || c.Matcher.MinScore > 1 {
		return fmt.Errorf("matcher.min_score must be between 0 and 1")
	}

	return nil
}
