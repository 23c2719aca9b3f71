package config

import (
	"database/sql"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション設定を表す
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Transfer TransferConfig
	Events   EventsConfig
	Worker   WorkerConfig
	Metrics  MetricsConfig
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	IsolationLevel  string
	MigrationsPath  string
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int

	PoolSize    int
	DialTimeout time.Duration
	OpTimeout   time.Duration
}

// TransferConfig は送金処理の設定
type TransferConfig struct {
	BlockedAccounts []string
	LockEnabled     bool
	LockTTL         time.Duration
}

// EventsConfig はイベント発行の設定
type EventsConfig struct {
	Backend      string
	KafkaBrokers []string
	KafkaTopic   string
	RedisStream  string
}

// WorkerConfig はバックグラウンドワーカーの設定
type WorkerConfig struct {
	PoolStatsInterval time.Duration
}

// MetricsConfig は /metrics エンドポイントの Basic 認証設定
// User と Password の両方が設定されている場合のみ認証を要求する
type MetricsConfig struct {
	User     string
	Password string
}

// AuthEnabled は認証が有効かどうかを返す
func (c *MetricsConfig) AuthEnabled() bool {
	return c.User != "" && c.Password != ""
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "ledger"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			IsolationLevel:  getEnv("DB_ISOLATION_LEVEL", "read_committed"),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			PoolSize:    getIntEnv("REDIS_POOL_SIZE", 10),
			DialTimeout: getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			OpTimeout:   getDurationEnv("REDIS_OP_TIMEOUT", time.Second),
		},
		Transfer: TransferConfig{
			BlockedAccounts: getListEnv("TRANSFER_BLOCKED_ACCOUNTS", []string{"ex"}),
			LockEnabled:     getBoolEnv("TRANSFER_LOCK_ENABLED", false),
			LockTTL:         getDurationEnv("TRANSFER_LOCK_TTL", 10*time.Second),
		},
		Events: EventsConfig{
			Backend:      getEnv("EVENTS_BACKEND", "none"),
			KafkaBrokers: getListEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			KafkaTopic:   getEnv("KAFKA_TOPIC", "transfer.completed"),
			RedisStream:  getEnv("REDIS_EVENT_STREAM", "transfer-events"),
		},
		Worker: WorkerConfig{
			PoolStatsInterval: getPositiveDurationEnv("POOL_STATS_INTERVAL", 15*time.Second),
		},
		Metrics: MetricsConfig{
			User:     getEnv("METRICS_USER", ""),
			Password: getEnv("METRICS_PASSWORD", ""),
		},
	}

	// DATABASE_URL / REDIS_URL が設定されていれば個別設定より優先する
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		applyDatabaseURL(&cfg.Database, raw)
	}
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		applyRedisURL(&cfg.Redis, raw)
	}
	return cfg
}

// DSN はドライバーごとの接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "mysql":
		return c.User + ":" + c.Password + "@tcp(" + c.Host + ":" + c.Port + ")/" + c.DBName + "?clientFoundRows=true"
	case "oracle":
		return "oracle://" + url.QueryEscape(c.User) + ":" + url.QueryEscape(c.Password) +
			"@" + c.Host + ":" + c.Port + "/" + c.DBName
	case "pgx":
		return "postgres://" + url.QueryEscape(c.User) + ":" + url.QueryEscape(c.Password) +
			"@" + c.Host + ":" + c.Port + "/" + c.DBName + "?sslmode=" + c.SSLMode
	default:
		return "host=" + c.Host +
			" port=" + c.Port +
			" user=" + c.User +
			" password=" + c.Password +
			" dbname=" + c.DBName +
			" sslmode=" + c.SSLMode
	}
}

// Isolation は設定された分離レベルを database/sql の値に変換する
// 未知の値はドライバーの既定値（LevelDefault）とする
func (c *DatabaseConfig) Isolation() sql.IsolationLevel {
	switch strings.ToLower(c.IsolationLevel) {
	case "read_uncommitted":
		return sql.LevelReadUncommitted
	case "read_committed":
		return sql.LevelReadCommitted
	case "repeatable_read":
		return sql.LevelRepeatableRead
	case "serializable":
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func applyDatabaseURL(c *DatabaseConfig, raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		if c.Driver != "pgx" {
			c.Driver = "postgres"
		}
	case "mysql", "oracle":
		c.Driver = u.Scheme
	}
	c.Host = u.Hostname()
	if p := u.Port(); p != "" {
		c.Port = p
	}
	if u.User != nil {
		c.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			c.Password = pw
		}
	}
	c.DBName = strings.TrimPrefix(u.Path, "/")
	c.SSLMode = "require"
	if mode := u.Query().Get("sslmode"); mode != "" {
		c.SSLMode = mode
	}
}

func applyRedisURL(c *RedisConfig, raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return
	}
	c.Enabled = true
	c.Host = u.Hostname()
	if p := u.Port(); p != "" {
		c.Port = p
	}
	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			c.Password = pw
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getPositiveDurationEnv は 0 以下の値を既定値に置き換える
func getPositiveDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if d := getDurationEnv(key, defaultValue); d > 0 {
		return d
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
