package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/fulltheme-backend/internal/chunker"
	"github.com/yungbote/fulltheme-backend/internal/data/db"
	"github.com/yungbote/fulltheme-backend/internal/llm"
	"github.com/yungbote/fulltheme-backend/internal/observability"
	"github.com/yungbote/fulltheme-backend/internal/platform/envutil"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"github.com/yungbote/fulltheme-backend/internal/ratelimit"
)

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SSLMode    string `yaml:"sslmode"`
	SQLitePath string `yaml:"sqlite_path"`
}

type LLMConfig struct {
	DefaultProvider   string `yaml:"default_provider"`
	DefaultModel      string `yaml:"default_model"`
	RefineConcurrency int    `yaml:"refine_concurrency"`
}

type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Config struct {
	LogMode   string                   `yaml:"log_mode"`
	JWTSecret string                   `yaml:"jwt_secret"`
	Server    ServerConfig             `yaml:"server"`
	Database  DatabaseConfig           `yaml:"database"`
	LLM       LLMConfig                `yaml:"llm"`
	Chunking  ChunkingConfig           `yaml:"chunking"`
	RateLimit ratelimit.Config         `yaml:"rate_limit"`
	Redis     RedisConfig              `yaml:"redis"`
	Otel      observability.OtelConfig `yaml:"otel"`
}

func defaultConfig() Config {
	return Config{
		JWTSecret: "defaultsecret",
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "postgres",
			Host:   "localhost",
			Port:   "5432",
			User:   "postgres",
			Name:   "fulltheme",
		},
		LLM: LLMConfig{
			DefaultProvider:   llm.DefaultProvider,
			DefaultModel:      llm.DefaultModel,
			RefineConcurrency: 1,
		},
		Chunking:  ChunkingConfig{Size: chunker.DefaultSize, Overlap: chunker.DefaultOverlap},
		RateLimit: ratelimit.DefaultConfig(),
		Otel: observability.OtelConfig{
			ServiceName: observability.DefaultServiceName,
			SampleRatio: 0.1,
		},
	}
}

// loadDotEnv reads .env from the working directory when present. Variables
// already set in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LoadConfig layers defaults, the optional CONFIG_FILE yaml, and the
// environment, in that order.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info("Loaded config file", "path", path)
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.JWTSecret = envutil.String("JWT_SECRET_KEY", cfg.JWTSecret)

	if port := envutil.String("PORT", ""); port != "" {
		cfg.Server.Addr = ":" + port
	}
	cfg.Server.Addr = envutil.String("SERVER_ADDR", cfg.Server.Addr)
	cfg.Server.ShutdownTimeout = envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", cfg.Server.ShutdownTimeout)
	if origins := envutil.String("CORS_ORIGINS", ""); origins != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}

	d := &cfg.Database
	d.Driver = envutil.String("DB_DRIVER", d.Driver)
	d.Host = envutil.String("POSTGRES_HOST", d.Host)
	d.Port = envutil.String("POSTGRES_PORT", d.Port)
	d.User = envutil.String("POSTGRES_USER", d.User)
	d.Password = envutil.String("POSTGRES_PASSWORD", d.Password)
	d.Name = envutil.String("POSTGRES_NAME", d.Name)
	d.SSLMode = envutil.String("POSTGRES_SSLMODE", d.SSLMode)
	d.SQLitePath = envutil.String("SQLITE_PATH", d.SQLitePath)

	cfg.LLM.DefaultProvider = envutil.String("LLM_DEFAULT_PROVIDER", cfg.LLM.DefaultProvider)
	cfg.LLM.DefaultModel = envutil.String("LLM_DEFAULT_MODEL", cfg.LLM.DefaultModel)
	cfg.LLM.RefineConcurrency = envutil.Int("LLM_REFINE_CONCURRENCY", cfg.LLM.RefineConcurrency)

	cfg.Chunking.Size = envutil.Int("CHUNK_SIZE", cfg.Chunking.Size)
	cfg.Chunking.Overlap = envutil.Int("CHUNK_OVERLAP", cfg.Chunking.Overlap)

	rl := &cfg.RateLimit
	rl.BaseDelay = envutil.Seconds("RATE_LIMIT_BASE_DELAY_SECONDS", rl.BaseDelay)
	rl.MaxDelay = envutil.Seconds("RATE_LIMIT_MAX_DELAY_SECONDS", rl.MaxDelay)
	rl.ResetAfter = envutil.Seconds("RATE_LIMIT_RESET_SECONDS", rl.ResetAfter)
	rl.MaxAttempts = envutil.Int("RATE_LIMIT_MAX_ATTEMPTS", rl.MaxAttempts)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)

	o := &cfg.Otel
	o.Enabled = envutil.Bool("OTEL_ENABLED", o.Enabled)
	o.ServiceName = envutil.String("OTEL_SERVICE_NAME", o.ServiceName)
	o.Environment = envutil.String("OTEL_ENVIRONMENT", o.Environment)
	o.Version = envutil.String("SERVICE_VERSION", o.Version)
	o.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", o.Endpoint)
	o.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", o.Insecure)
	if h := observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")); h != nil {
		o.Headers = h
	}
	if v := envutil.String("OTEL_SAMPLER_RATIO", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			o.SampleRatio = f
		}
	}
}

func (c Config) validate() error {
	if _, err := chunker.NewSplitter(c.Chunking.Size, c.Chunking.Overlap); err != nil {
		return fmt.Errorf("chunking: %w", err)
	}
	switch c.LLM.DefaultProvider {
	case llm.ProviderOpenAI, llm.ProviderGemini:
	default:
		return fmt.Errorf("llm.default_provider %q must be %s or %s", c.LLM.DefaultProvider, llm.ProviderOpenAI, llm.ProviderGemini)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("jwt secret required")
	}
	return nil
}

func (c Config) dbConfig() db.Config {
	d := c.Database
	return db.Config{
		Driver:     d.Driver,
		Host:       d.Host,
		Port:       d.Port,
		User:       d.User,
		Password:   d.Password,
		Name:       d.Name,
		SSLMode:    d.SSLMode,
		SQLitePath: d.SQLitePath,
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
