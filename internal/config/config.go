package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	Server     ServerConfig
	DB         DBConfig
	Log        LogConfig
	Auth       AuthConfig
	CORS       CORSConfig
	Mail       MailConfig
	Tasks      TaskConfig
	Pagination PaginationConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	GinMode    string `mapstructure:"gin_mode"`
}

// DBConfig points at the SQLite database file.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// AuthConfig controls token lifetime. A zero TokenTTL disables expiry.
type AuthConfig struct {
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// CORSConfig lists the origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MailConfig configures outgoing mail. An empty Host means mails are only logged.
type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// TaskConfig sizes the background task dispatcher.
type TaskConfig struct {
	QueueSize int `mapstructure:"queue_size"`
	Workers   int `mapstructure:"workers"`
}

// PaginationConfig bounds list responses.
type PaginationConfig struct {
	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`
}

// Load 从 .env、配置文件和 FOLIO_ 前缀的环境变量读取应用配置，并为缺失项提供默认值。
func Load() (AppConfig, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("folio")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, err
		}
	}

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, err
	}
	cfg.normalize()
	return cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() AppConfig {
	v := viper.New()
	setDefaults(v)

	var cfg AppConfig
	_ = v.Unmarshal(&cfg)
	cfg.normalize()
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("db.path", "folio.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("auth.token_ttl", "720h")
	v.SetDefault("auth.cleanup_interval", "1h")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", "587")
	v.SetDefault("mail.user", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "noreply@example.com")
	v.SetDefault("tasks.queue_size", 64)
	v.SetDefault("tasks.workers", 1)
	v.SetDefault("pagination.page_size", 10)
	v.SetDefault("pagination.max_page_size", 100)
}

func (c *AppConfig) normalize() {
	c.Server.ListenAddr = strings.TrimSpace(c.Server.ListenAddr)
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	c.DB.Path = strings.TrimSpace(c.DB.Path)
	if c.DB.Path == "" {
		c.DB.Path = "folio.db"
	}

	// 环境变量中的列表以逗号分隔
	origins := make([]string, 0, len(c.CORS.AllowedOrigins))
	for _, raw := range c.CORS.AllowedOrigins {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c.CORS.AllowedOrigins = origins

	if c.Tasks.QueueSize <= 0 {
		c.Tasks.QueueSize = 64
	}
	if c.Tasks.Workers <= 0 {
		c.Tasks.Workers = 1
	}
	if c.Pagination.PageSize <= 0 {
		c.Pagination.PageSize = 10
	}
	if c.Pagination.MaxPageSize < c.Pagination.PageSize {
		c.Pagination.MaxPageSize = c.Pagination.PageSize
	}
	if c.Auth.TokenTTL < 0 {
		c.Auth.TokenTTL = 0
	}
}
