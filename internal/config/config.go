package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers for saved analyses
const (
	DriverNone     = "none"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Server struct {
		Port            int               `yaml:"port"`
		ReadTimeout     time.Duration     `yaml:"readTimeout"`
		WriteTimeout    time.Duration     `yaml:"writeTimeout"`
		AllowedOrigins  []string          `yaml:"allowedOrigins"`
		SecureCookies   bool              `yaml:"secureCookies"`
		RateLimit       int               `yaml:"rateLimit"`       // burst per caller
		RateLimitRefill int               `yaml:"rateLimitRefill"` // tokens per second
		APIKeys         map[string]string `yaml:"apiKeys"`         // guards deletion when set
	} `yaml:"server"`

	OpenAI struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"openai"`

	SerpAPI struct {
		APIKey string `yaml:"apiKey"`
	} `yaml:"serpapi"`

	Google struct {
		ClientID string `yaml:"clientID"`
	} `yaml:"google"`

	Scrape struct {
		Timeout      time.Duration `yaml:"timeout"`
		MaxRedirects int           `yaml:"maxRedirects"`
	} `yaml:"scrape"`

	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	Redis struct {
		Addr       string        `yaml:"addr"`
		Password   string        `yaml:"password"`
		DB         int           `yaml:"db"`
		SessionTTL time.Duration `yaml:"sessionTTL"`
	} `yaml:"redis"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Load baca .env lalu file config.yaml. A missing file is not an error: defaults and the
// environment are enough to run.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets secrets and deploy-specific values come from the environment.
func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&c.OpenAI.Model, "OPENAI_MODEL")
	set(&c.SerpAPI.APIKey, "SERPAPI_KEY")
	set(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	set(&c.Redis.Addr, "REDIS_ADDR")
	set(&c.Mongo.URI, "MONGO_URI")
	set(&c.Storage.Driver, "STORAGE_DRIVER")
	if v := getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	// redis://host:port is accepted as well as host:port
	c.Redis.Addr = strings.TrimPrefix(c.Redis.Addr, "redis://")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	// analyses can take a while
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 120 * time.Second
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"chrome-extension://*", "http://localhost:*"}
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 20
	}
	if c.Server.RateLimitRefill == 0 {
		c.Server.RateLimitRefill = 1
	}
	if c.Scrape.Timeout == 0 {
		c.Scrape.Timeout = 45 * time.Second
	}
	if c.Scrape.MaxRedirects == 0 {
		c.Scrape.MaxRedirects = 10
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverNone
	}
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	if c.Database.Port == 0 {
		switch c.Storage.Driver {
		case DriverPostgres:
			c.Database.Port = 5432
		default:
			c.Database.Port = 3306
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "clausecode"
	}
	if c.Redis.SessionTTL == 0 {
		c.Redis.SessionTTL = 7 * 24 * time.Hour
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "clausecode-uploads"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverNone, DriverMySQL, DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("unknown storage driver %q (want none, mysql, postgres or mongo)", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverMongo && c.Mongo.URI == "" {
		return errors.New("storage driver mongo needs mongo.uri or MONGO_URI")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection URL.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}
