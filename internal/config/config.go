package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	sdk "github.com/matrixorigin/moi-go-sdk"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DevSessionSecret signs session tokens when no secret is configured.
const DevSessionSecret = "persona-quest-dev-secret"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Quest    QuestConfig    `yaml:"quest"`
	MOI      MOIConfig      `yaml:"moi"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port            int      `yaml:"port"`
	AllowOrigins    []string `yaml:"allow_origins"`
	ShutdownTimeout int      `yaml:"shutdown_timeout_seconds"`
}

// LLMConfig selects the completion provider. Provider is "gemini" or "openai".
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DatabaseConfig describes the relational store. Driver is "mysql", "postgres" or "sqlite";
// Path is only read by the sqlite driver.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Debug    bool   `yaml:"debug"`
}

type SessionConfig struct {
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttl_hours"`
}

// QuestConfig controls regeneration. Policy is "dedup_append" or "strict_gate".
type QuestConfig struct {
	Policy string `yaml:"policy"`
	Count  int    `yaml:"count"`
}

type MOIConfig struct {
	BaseURL           string `yaml:"base_url"`
	APIKey            string `yaml:"api_key"`
	CatalogID         int64  `yaml:"catalog_id"`
	DatabaseID        int64  `yaml:"database_id"`
	PersonaTableID    int64  `yaml:"persona_table_id"`
	QuestTableID      int64  `yaml:"quest_table_id"`
	QuestEventTableID int64  `yaml:"quest_event_table_id"`
}

func Load(configFile string) *Config {
	c := &Config{
		Server: ServerConfig{Port: 8000, AllowOrigins: []string{"*"}, ShutdownTimeout: 10},
		Log:    LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		LLM: LLMConfig{
			Provider:       "gemini",
			Model:          "gemini-2.5-flash",
			TimeoutSeconds: 60,
		},
		Database: DatabaseConfig{Driver: "mysql", Host: "127.0.0.1", Port: 3306, Name: "persona_quest", Path: "persona_quest.db"},
		Session:  SessionConfig{Secret: DevSessionSecret, TTLHours: 7 * 24},
		Quest:    QuestConfig{Policy: "dedup_append", Count: 10},
		MOI:      MOIConfig{BaseURL: "https://freetier-01.cn-hangzhou.cluster.cn-dev.matrixone.tech"},
	}

	paths := []string{"etc/config-dev.yaml", "/etc/persona-quest/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, c)
			break
		}
	}

	envOverride(&c.LLM.Provider, "LLM_PROVIDER")
	envOverride(&c.LLM.Model, "LLM_MODEL")
	envOverride(&c.LLM.BaseURL, "LLM_BASE_URL")
	switch c.LLM.Provider {
	case "openai":
		envOverride(&c.LLM.APIKey, "OPENAI_API_KEY")
	default:
		envOverride(&c.LLM.APIKey, "GOOGLE_API_KEY")
	}
	envOverrideInt(&c.LLM.TimeoutSeconds, "LLM_TIMEOUT_SECONDS")
	envOverride(&c.Database.Driver, "DB_DRIVER")
	envOverride(&c.Database.Host, "DB_HOST")
	envOverride(&c.Database.User, "DB_USER")
	envOverride(&c.Database.Password, "DB_PASS")
	envOverride(&c.Database.Name, "DB_NAME")
	envOverride(&c.Database.Path, "DB_PATH")
	envOverrideInt(&c.Database.Port, "DB_PORT")
	envOverride(&c.Session.Secret, "SESSION_SECRET")
	envOverride(&c.Quest.Policy, "QUEST_POLICY")
	envOverride(&c.MOI.BaseURL, "MOI_BASE_URL")
	envOverride(&c.MOI.APIKey, "MOI_API_KEY")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverrideInt(&c.Server.Port, "PORT")

	if c.Session.Secret == "" {
		c.Session.Secret = DevSessionSecret
	}
	return c
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *Config) LLMTimeout() time.Duration {
	if c.LLM.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}

// InsecureSessionSecret reports whether tokens are signed with the built-in dev
// secret on a database other than local sqlite.
func (c *Config) InsecureSessionSecret() bool {
	return c.Session.Secret == DevSessionSecret && strings.ToLower(c.Database.Driver) != "sqlite"
}

func (c *Config) SessionTTL() time.Duration {
	if c.Session.TTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.Session.TTLHours) * time.Hour
}

func (c *Config) OpenGormDB() (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if c.Database.Debug {
		gcfg.Logger = logger.Default.LogMode(logger.Info)
	}

	switch strings.ToLower(c.Database.Driver) {
	case "sqlite":
		return gorm.Open(sqlite.Open(c.Database.Path), gcfg)
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name)
		return gorm.Open(postgres.Open(dsn), gcfg)
	case "", "mysql":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	cfg := gomysql.NewConfig()
	cfg.User = c.Database.User
	cfg.Passwd = c.Database.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
	cfg.DBName = c.Database.Name
	cfg.ParseTime = true

	connector, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), gcfg)
}

// NewRawClient returns nil when no MOI key is configured.
func (c *Config) NewRawClient() (*sdk.RawClient, error) {
	if c.MOI.APIKey == "" {
		return nil, nil
	}
	return sdk.NewRawClient(c.MOI.BaseURL, c.MOI.APIKey)
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
