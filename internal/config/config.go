package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SysConfig system config
type SysConfig struct {
	Appname string `yaml:"appname"`
	Env     string `yaml:"env"`
}

// WebConfig http server config
type WebConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	CorsOrigins  []string      `yaml:"cors_origins"`
	RateLimit    float64       `yaml:"rate_limit"` // requests per second per client IP, 0 disables
	Burst        int           `yaml:"burst"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type GrpcConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// DBConfig database config
type DBConfig struct {
	Type     string `yaml:"type"` // mysql or postgres
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	SSLMode  string `yaml:"sslmode"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Migrate  bool   `yaml:"migrate"`
}

type RedisConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
	EventStream    string        `yaml:"event_stream"`
	StreamMaxLen   int64         `yaml:"stream_maxlen"`
}

// LogConfig logging config
type LogConfig struct {
	Mode       string `yaml:"mode"` // production or development, empty follows system.env
	Level      string `yaml:"level"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type EventsConfig struct {
	Workers        int `yaml:"workers"`
	MaxSubscribers int `yaml:"max_subscribers"`
}

type CartConfig struct {
	AbandonAfter  time.Duration `yaml:"abandon_after"`
	SweepSchedule string        `yaml:"sweep_schedule"` // empty disables the sweeper
}

// DemoConfig identifies the user the storefront hard-codes.
type DemoConfig struct {
	UserID string `yaml:"user_id"`
	Email  string `yaml:"email"`
	Name   string `yaml:"name"`
}

type AppConfig struct {
	System   SysConfig    `yaml:"system"`
	Web      WebConfig    `yaml:"web"`
	Grpc     GrpcConfig   `yaml:"grpc"`
	Database DBConfig     `yaml:"database"`
	Redis    RedisConfig  `yaml:"redis"`
	Logger   LogConfig    `yaml:"logger"`
	Events   EventsConfig `yaml:"events"`
	Cart     CartConfig   `yaml:"cart"`
	Demo     DemoConfig   `yaml:"demo"`
}

func Default() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appname: "storefront",
			Env:     "development",
		},
		Web: WebConfig{
			Host:         "0.0.0.0",
			Port:         3001,
			CorsOrigins:  []string{"http://localhost:3000"},
			RateLimit:    20,
			Burst:        40,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Grpc: GrpcConfig{
			Enabled: true,
			Port:    50051,
		},
		Database: DBConfig{
			Type:     "mysql",
			Host:     "127.0.0.1",
			Port:     3306,
			Name:     "storefront",
			User:     "root",
			Passwd:   "root",
			SSLMode:  "disable",
			MaxConn:  50,
			IdleConn: 25,
			Migrate:  true,
		},
		Redis: RedisConfig{
			Enabled:        false,
			Addr:           "localhost:6379",
			IdempotencyTTL: 24 * time.Hour,
			EventStream:    "storefront:cart-events",
			StreamMaxLen:   10000,
		},
		Logger: LogConfig{
			Level:    "info",
			Filename: "/var/log/storefront/storefront.log",
		},
		Events: EventsConfig{
			Workers:        16,
			MaxSubscribers: 32,
		},
		Cart: CartConfig{
			AbandonAfter:  72 * time.Hour,
			SweepSchedule: "@every 10m",
		},
		Demo: DemoConfig{
			UserID: "5fc8e826-8642-4384-b75e-c2db246ba58c",
			Email:  "demo@carrito.com",
			Name:   "Usuario Demo",
		},
	}
}

// Load builds the config from defaults, the YAML file at path (optional),
// the given .env files (optional) and STOREFRONT_* environment variables, in that order.
func Load(path string, envFiles ...string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, errors.Wrapf(err, "load env file %s", file)
		}
	}

	applyEnv(cfg)

	if cfg.Logger.Mode == "" {
		cfg.Logger.Mode = "development"
		if cfg.IsProduction() {
			cfg.Logger.Mode = "production"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	switch c.Database.Type {
	case "mysql", "postgres":
	default:
		return errors.Errorf("database.type must be mysql or postgres, got %q", c.Database.Type)
	}
	if c.Web.Port <= 0 {
		return errors.Errorf("web.port must be positive, got %d", c.Web.Port)
	}
	if c.Grpc.Enabled && c.Grpc.Port <= 0 {
		return errors.Errorf("grpc.port must be positive, got %d", c.Grpc.Port)
	}
	if c.Cart.SweepSchedule != "" && c.Cart.AbandonAfter <= 0 {
		return errors.New("cart.abandon_after must be positive when the sweeper is enabled")
	}
	if c.Demo.Email == "" {
		return errors.New("demo.email is required")
	}
	return nil
}

func (c *AppConfig) IsProduction() bool {
	return c.System.Env == "production"
}

func (c WebConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c GrpcConfig) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// DriverName is the database/sql driver registered for the configured type.
func (d DBConfig) DriverName() string {
	if d.Type == "postgres" {
		return "pgx"
	}
	return "mysql"
}

func (d DBConfig) DSN() string {
	addr := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))

	if d.Type == "postgres" {
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(d.User, d.Passwd),
			Host:   addr,
			Path:   "/" + d.Name,
		}
		if d.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
		}
		return u.String()
	}

	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Passwd
	cfg.Net = "tcp"
	cfg.Addr = addr
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}
