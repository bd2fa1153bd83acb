package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/JLSed/ShoeFreak-Admin/internal/audit"
	"github.com/JLSed/ShoeFreak-Admin/internal/pubsub"
	"github.com/JLSed/ShoeFreak-Admin/internal/repository"
	pkgconfig "github.com/JLSed/ShoeFreak-Admin/pkg/config"
	"github.com/JLSed/ShoeFreak-Admin/pkg/database"
	"github.com/JLSed/ShoeFreak-Admin/pkg/log"
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Gate      GateConfig
	Messages  MessagesConfig
	Database  database.Config
	Cassandra repository.CassandraConfig
	Redis     pubsub.RedisConfig
	Audit     audit.KafkaConfig
	WebSocket WebSocketConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	Secret        string        `mapstructure:"secret"`
	Issuer        string        `mapstructure:"issuer"`
	RevocationTTL time.Duration `mapstructure:"revocation_ttl"`
}

type GateConfig struct {
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout"`
	LoginRoute     string        `mapstructure:"login_route"`
	HomeRoute      string        `mapstructure:"home_route"`
}

type MessagesConfig struct {
	// Driver selects the message store backend: "sql" or "cassandra".
	Driver          string        `mapstructure:"driver"`
	BackfillTimeout time.Duration `mapstructure:"backfill_timeout"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "shoefreak")
	v.SetDefault("auth.revocation_ttl", "24h")
	v.SetDefault("gate.resolve_timeout", "5s")
	v.SetDefault("gate.login_route", "/")
	v.SetDefault("gate.home_route", "/home")
	v.SetDefault("messages.driver", "sql")
	v.SetDefault("messages.backfill_timeout", "10s")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "./shoefreak.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("cassandra.hosts", []string{"localhost:9042"})
	v.SetDefault("cassandra.keyspace", "shoefreak")
	v.SetDefault("cassandra.consistency", "LOCAL_ONE")
	v.SetDefault("cassandra.connect_timeout", "10s")
	v.SetDefault("cassandra.timeout", "5s")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.brokers", "localhost:9092")
	v.SetDefault("audit.topic", "admin-audit-logs")
	v.SetDefault("audit.partitions", 1)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "admin-console")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("auth.secret", "AUTH_SECRET")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("audit.brokers", "KAFKA_BROKERS")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Auth.RevocationTTL = parseDuration(v, "auth.revocation_ttl", 24*time.Hour)
	cfg.Gate.ResolveTimeout = parseDuration(v, "gate.resolve_timeout", 5*time.Second)
	cfg.Messages.BackfillTimeout = parseDuration(v, "messages.backfill_timeout", 10*time.Second)
	cfg.Cassandra.ConnectTimeout = parseDuration(v, "cassandra.connect_timeout", 10*time.Second)
	cfg.Cassandra.Timeout = parseDuration(v, "cassandra.timeout", 5*time.Second)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
