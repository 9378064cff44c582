package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	RabbitMQ RabbitMQ
	Engine   Engine
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Redis struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RabbitMQ struct {
	Host     string
	Port     string
	User     string
	Password string
	Exchange string
	Enabled  bool
}

// Engine holds the attempt-engine behaviour knobs. They are configuration
// rather than compiled-in constants so test and production setups can diverge
// without touching code.
type Engine struct {
	AutosaveDebounce  time.Duration
	AutosaveInterval  time.Duration
	AutosaveRetries   int
	AutosaveBackoff   time.Duration
	ExpirySweepEvery  time.Duration
	MirrorGrace       time.Duration
	IssuanceEnabled   bool
	CertificationType string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RABBITMQ_EXCHANGE", "certifications")
	viper.SetDefault("RABBITMQ_ENABLED", true)
	viper.SetDefault("ENGINE_AUTOSAVE_DEBOUNCE_MS", 2000)
	viper.SetDefault("ENGINE_AUTOSAVE_INTERVAL_MS", 30000)
	viper.SetDefault("ENGINE_AUTOSAVE_RETRIES", 3)
	viper.SetDefault("ENGINE_AUTOSAVE_BACKOFF_MS", 500)
	viper.SetDefault("ENGINE_EXPIRY_SWEEP_MS", 15000)
	viper.SetDefault("ENGINE_MIRROR_GRACE_MIN", 30)
	viper.SetDefault("ENGINE_ISSUANCE_ENABLED", true)
	viper.SetDefault("ENGINE_CERTIFICATION_TYPE", "bda-associate")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Redis.Host = viper.GetString("REDIS_HOST")
	config.Redis.Port = viper.GetString("REDIS_PORT")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")

	config.RabbitMQ.Host = viper.GetString("RABBITMQ_HOST")
	config.RabbitMQ.Port = viper.GetString("RABBITMQ_PORT")
	config.RabbitMQ.User = viper.GetString("RABBITMQ_USER")
	config.RabbitMQ.Password = viper.GetString("RABBITMQ_PASSWORD")
	config.RabbitMQ.Exchange = viper.GetString("RABBITMQ_EXCHANGE")
	config.RabbitMQ.Enabled = viper.GetBool("RABBITMQ_ENABLED")

	config.Engine.AutosaveDebounce = time.Duration(viper.GetInt("ENGINE_AUTOSAVE_DEBOUNCE_MS")) * time.Millisecond
	config.Engine.AutosaveInterval = time.Duration(viper.GetInt("ENGINE_AUTOSAVE_INTERVAL_MS")) * time.Millisecond
	config.Engine.AutosaveRetries = viper.GetInt("ENGINE_AUTOSAVE_RETRIES")
	config.Engine.AutosaveBackoff = time.Duration(viper.GetInt("ENGINE_AUTOSAVE_BACKOFF_MS")) * time.Millisecond
	config.Engine.ExpirySweepEvery = time.Duration(viper.GetInt("ENGINE_EXPIRY_SWEEP_MS")) * time.Millisecond
	config.Engine.MirrorGrace = time.Duration(viper.GetInt("ENGINE_MIRROR_GRACE_MIN")) * time.Minute
	config.Engine.IssuanceEnabled = viper.GetBool("ENGINE_ISSUANCE_ENABLED")
	config.Engine.CertificationType = viper.GetString("ENGINE_CERTIFICATION_TYPE")

	log.Info().Str("port", config.Server.Port).Msg("Config loaded")
	return &config, nil
}
