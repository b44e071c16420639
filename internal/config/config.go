package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server ServerConfig `envPrefix:"SERVER_"`
	Mongo  MongoConfig  `envPrefix:"MONGO_"`
	Redis  RedisConfig  `envPrefix:"REDIS_"`
	Kafka  KafkaConfig  `envPrefix:"KAFKA_"`
	Auth   AuthConfig   `envPrefix:"AUTH_"`
	Chat   ChatConfig   `envPrefix:"CHAT_"`
	Call   CallConfig   `envPrefix:"CALL_"`
}

type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:":8080"`
}

type MongoConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"27017"`
	Username string `env:"USERNAME" envDefault:"root"`
	Password string `env:"PASSWORD"`
	Database string `env:"DATABASE" envDefault:"chatcore"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type KafkaConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"chat.events"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET,required"`
}

type ChatConfig struct {
	DefaultPageSize   int           `env:"DEFAULT_PAGE_SIZE" envDefault:"50"`
	MaxPageSize       int           `env:"MAX_PAGE_SIZE" envDefault:"100"`
	RecentMessagesTTL time.Duration `env:"RECENT_MESSAGES_TTL" envDefault:"1h"`
	PresenceTTL       time.Duration `env:"PRESENCE_TTL" envDefault:"5m"`
	TypingTTL         time.Duration `env:"TYPING_TTL" envDefault:"10s"`
}

type CallConfig struct {
	RingTimeout   time.Duration `env:"RING_TIMEOUT" envDefault:"60s"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"30s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
