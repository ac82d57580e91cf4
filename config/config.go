package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
	Auth   AuthConfig   `yaml:"auth"`
	Users  []User       `yaml:"users"`
	Limits LimitsConfig `yaml:"limits"`
	Gemini GeminiConfig `yaml:"gemini"`
	Minio  MinioConfig  `yaml:"minio"`
	Mineru MineruConfig `yaml:"mineru"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	MaxAnalyses int `yaml:"max_analyses"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
	// RequireForAnalyze rejects anonymous uploads to /analyze-document.
	RequireForAnalyze bool `yaml:"require_for_analyze"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

// LimitsConfig bounds what a single request may cost.
type LimitsConfig struct {
	MaxUploadMB           int `yaml:"max_upload_mb"`
	MinTextChars          int `yaml:"min_text_chars"`
	MaxDocumentChars      int `yaml:"max_document_chars"`
	RateLimitPerMinute    int `yaml:"rate_limit_per_minute"`
	AnalyzeTimeoutSeconds int `yaml:"analyze_timeout_seconds"`
}

func (l LimitsConfig) MaxUploadBytes() int64 {
	return int64(l.MaxUploadMB) << 20
}

func (l LimitsConfig) AnalyzeTimeout() time.Duration {
	return time.Duration(l.AnalyzeTimeoutSeconds) * time.Second
}

// Gemini backends
const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"
)

type GeminiConfig struct {
	APIKey         string `yaml:"api_key"`
	Backend        string `yaml:"backend"`
	Project        string `yaml:"project"`
	Location       string `yaml:"location"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Enabled reports whether enough credentials are present to call the backend.
func (g GeminiConfig) Enabled() bool {
	switch g.Backend {
	case BackendVertex:
		return g.Project != ""
	default:
		return g.APIKey != ""
	}
}

func (g GeminiConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

type MinioConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type MineruConfig struct {
	Enabled             bool   `yaml:"enabled"`
	APIURL              string `yaml:"api_url"`
	APIToken            string `yaml:"api_token"`
	ModelVersion        string `yaml:"model_version"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	MaxPollAttempts     int    `yaml:"max_poll_attempts"`
	// TimeoutSeconds bounds one remote extraction. It is kept below the
	// analyze timeout so local parsing still has time to run.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

func (m MineruConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

func (m MineruConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// Load reads the YAML file at path, applies environment overrides (a .env in
// the working directory is honoured) and fills defaults. A missing file is not
// an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("config file not found, using defaults and environment", "path", path)
	default:
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("GEMINI_API_KEY", &c.Gemini.APIKey)
	setString("GEMINI_BACKEND", &c.Gemini.Backend)
	setString("PROJECT_ID", &c.Gemini.Project)
	setString("VERTEX_LOCATION", &c.Gemini.Location)
	setString("MODEL_NAME", &c.Gemini.Model)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("JWT_SECRET", &c.Auth.JWTSecret)
	setString("MINIO_ENDPOINT", &c.Minio.Endpoint)
	setString("MINIO_ACCESS_KEY", &c.Minio.AccessKey)
	setString("MINIO_SECRET_KEY", &c.Minio.SecretKey)
	setString("MINIO_BUCKET", &c.Minio.Bucket)
	setString("MINERU_API_TOKEN", &c.Mineru.APIToken)

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Store.MaxAnalyses == 0 {
		c.Store.MaxAnalyses = 100
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}

	if c.Limits.MaxUploadMB == 0 {
		c.Limits.MaxUploadMB = 20
	}
	if c.Limits.MinTextChars == 0 {
		c.Limits.MinTextChars = 50
	}
	if c.Limits.MaxDocumentChars == 0 {
		c.Limits.MaxDocumentChars = 50000
	}
	if c.Limits.RateLimitPerMinute == 0 {
		c.Limits.RateLimitPerMinute = 100
	}
	if c.Limits.AnalyzeTimeoutSeconds == 0 {
		c.Limits.AnalyzeTimeoutSeconds = 180
	}

	if c.Gemini.Backend == "" {
		c.Gemini.Backend = BackendGemini
		if c.Gemini.APIKey == "" && c.Gemini.Project != "" {
			c.Gemini.Backend = BackendVertex
		}
	}
	if c.Gemini.Location == "" {
		c.Gemini.Location = "us-central1"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash-lite"
	}
	if c.Gemini.TimeoutSeconds == 0 {
		c.Gemini.TimeoutSeconds = 60
	}

	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.Mineru.APIURL == "" {
		c.Mineru.APIURL = "https://mineru.net/api/v4"
	}
	if c.Mineru.ModelVersion == "" {
		c.Mineru.ModelVersion = "vlm"
	}
	if c.Mineru.PollIntervalSeconds == 0 {
		c.Mineru.PollIntervalSeconds = 3
	}
	if c.Mineru.MaxPollAttempts == 0 {
		c.Mineru.MaxPollAttempts = 60
	}
	if c.Mineru.TimeoutSeconds == 0 {
		c.Mineru.TimeoutSeconds = 90
	}
	if half := c.Limits.AnalyzeTimeoutSeconds / 2; half > 0 && c.Mineru.TimeoutSeconds > half {
		c.Mineru.TimeoutSeconds = half
	}
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
