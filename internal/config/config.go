package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 MAHJONG_APP_PORT、MAHJONG_REDIS_ENABLED
const EnvPrefix = "MAHJONG"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Auth      AuthConfig      `mapstructure:"auth"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"` // gin 运行模式: debug / release / test
	LogLevel string `mapstructure:"log_level"`
	NodeID   int64  `mapstructure:"node_id"` // 雪花算法节点 ID

	RoomIdleTimeout time.Duration `mapstructure:"room_idle_timeout"` // 空房间淘汰时间，0 表示不淘汰
	EvictInterval   time.Duration `mapstructure:"evict_interval"`
}

type AuthConfig struct {
	Enabled     bool          `mapstructure:"enabled"` // 开启后 JOIN 必须携带 token
	SecretKey   string        `mapstructure:"secret_key"`
	TokenExpire time.Duration `mapstructure:"token_expire"`
}

type NATSConfig struct {
	Enabled       bool          `mapstructure:"enabled"` // 网关模式
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	WorkerCount   int           `mapstructure:"worker_count"`
	BufferSize    int           `mapstructure:"buffer_size"`
}

type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	PresenceTTL time.Duration `mapstructure:"presence_ttl"`
}

// Addr 返回 host:port
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN 返回 PostgreSQL 连接串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

type WebSocketConfig struct {
	ReadLimit    int64         `mapstructure:"read_limit"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	SendBuffer   int           `mapstructure:"send_buffer"`
}

// PongWait 读超时，需大于 ping 间隔
func (c WebSocketConfig) PongWait() time.Duration {
	return c.PingInterval * 4
}

// Load 从指定路径加载配置，path 为空时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mahjong")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.node_id", 1)
	v.SetDefault("app.room_idle_timeout", time.Duration(0))
	v.SetDefault("app.evict_interval", time.Minute)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.secret_key", "")
	v.SetDefault("auth.token_expire", 24*time.Hour)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.worker_count", 16)
	v.SetDefault("nats.buffer_size", 4096)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.presence_ttl", 6*time.Hour)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "mahjong")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("websocket.read_limit", 4096)
	v.SetDefault("websocket.write_timeout", 10*time.Second)
	v.SetDefault("websocket.ping_interval", 30*time.Second)
	v.SetDefault("websocket.send_buffer", 64)
}

// applyEnv 兼容 PaaS 常用的 PORT 环境变量
func (c *Config) applyEnv() {
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil && port > 0 {
		c.App.Port = port
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app.port %d out of range", c.App.Port)
	}
	if c.App.RoomIdleTimeout > 0 && c.App.EvictInterval <= 0 {
		return fmt.Errorf("app.evict_interval must be positive when room eviction is enabled")
	}
	if c.Auth.Enabled && c.Auth.SecretKey == "" {
		return fmt.Errorf("auth.secret_key is required when auth is enabled")
	}
	if c.WebSocket.PingInterval <= 0 {
		return fmt.Errorf("websocket.ping_interval must be positive")
	}
	if c.WebSocket.SendBuffer <= 0 {
		return fmt.Errorf("websocket.send_buffer must be positive")
	}
	return nil
}
