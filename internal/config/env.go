package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

const envPrefix = "STOREFRONT_"

func applyEnv(c *AppConfig) {
	setString(&c.System.Appname, "SYSTEM_APPNAME")
	setString(&c.System.Env, "SYSTEM_ENV")

	setString(&c.Web.Host, "WEB_HOST")
	setInt(&c.Web.Port, "WEB_PORT")
	setStrings(&c.Web.CorsOrigins, "WEB_CORS_ORIGINS")
	setFloat(&c.Web.RateLimit, "WEB_RATE_LIMIT")
	setInt(&c.Web.Burst, "WEB_BURST")
	setDuration(&c.Web.ReadTimeout, "WEB_READ_TIMEOUT")
	setDuration(&c.Web.WriteTimeout, "WEB_WRITE_TIMEOUT")

	setBool(&c.Grpc.Enabled, "GRPC_ENABLED")
	setInt(&c.Grpc.Port, "GRPC_PORT")

	setString(&c.Database.Type, "DB_TYPE")
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Passwd, "DB_PASSWD")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setInt(&c.Database.MaxConn, "DB_MAX_CONN")
	setInt(&c.Database.IdleConn, "DB_IDLE_CONN")
	setBool(&c.Database.Migrate, "DB_MIGRATE")

	setBool(&c.Redis.Enabled, "REDIS_ENABLED")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")
	setDuration(&c.Redis.IdempotencyTTL, "REDIS_IDEMPOTENCY_TTL")
	setString(&c.Redis.EventStream, "REDIS_EVENT_STREAM")
	if v, ok := lookup("REDIS_STREAM_MAXLEN"); ok {
		c.Redis.StreamMaxLen = cast.ToInt64(v)
	}

	setString(&c.Logger.Mode, "LOGGER_MODE")
	setString(&c.Logger.Level, "LOGGER_LEVEL")
	setBool(&c.Logger.FileEnable, "LOGGER_FILE_ENABLE")
	setString(&c.Logger.Filename, "LOGGER_FILENAME")

	setInt(&c.Events.Workers, "EVENTS_WORKERS")
	setInt(&c.Events.MaxSubscribers, "EVENTS_MAX_SUBSCRIBERS")

	setDuration(&c.Cart.AbandonAfter, "CART_ABANDON_AFTER")
	setString(&c.Cart.SweepSchedule, "CART_SWEEP_SCHEDULE")

	setString(&c.Demo.UserID, "DEMO_USER_ID")
	setString(&c.Demo.Email, "DEMO_EMAIL")
	setString(&c.Demo.Name, "DEMO_NAME")
}

func lookup(key string) (string, bool) {
	return os.LookupEnv(envPrefix + key)
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := lookup(key); ok {
		*dst = cast.ToInt(v)
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := lookup(key); ok {
		*dst = cast.ToFloat64(v)
	}
}

func setBool(dst *bool, key string) {
	if v, ok := lookup(key); ok {
		*dst = cast.ToBool(v)
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := lookup(key); ok {
		*dst = cast.ToDuration(v)
	}
}

func setStrings(dst *[]string, key string) {
	if v, ok := lookup(key); ok {
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*dst = out
	}
}
