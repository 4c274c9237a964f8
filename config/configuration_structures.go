package config

import "time"

type ServerConfig struct {
	Address         string        `yaml:"address" env:"SERVER_ADDR" env-default:":8000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type DatabaseConfig struct {
	DSN          string        `yaml:"dsn" env:"DATABASE_URL" env-required:"true"`
	MaxOpenConns int           `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns int           `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS" env-default:"2"`
	ConnMaxLife  time.Duration `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME" env-default:"1h"`
	SkipMigrate  bool          `yaml:"skip_migrate" env:"DATABASE_SKIP_MIGRATE"`
}

// RedisConfig : an empty Addr disables the revocation cache
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// S3Config : an empty Bucket disables feedback attachments
type S3Config struct {
	Bucket     string        `yaml:"bucket" env:"S3_BUCKET"`
	Region     string        `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Endpoint   string        `yaml:"endpoint" env:"S3_ENDPOINT"`
	Local      bool          `yaml:"local" env:"S3_LOCAL"`
	AccessKey  string        `yaml:"access_key" env:"AWS_ACCESS_KEY_ID"`
	SecretKey  string        `yaml:"secret_key" env:"AWS_SECRET_ACCESS_KEY"`
	PresignTTL time.Duration `yaml:"presign_ttl" env:"S3_PRESIGN_TTL" env-default:"15m"`
}

type JWTConfig struct {
	SecretKey           string        `yaml:"secret_key" env:"SECRET_KEY" env-required:"true"`
	Algorithm           string        `yaml:"algorithm" env:"JWT_ALGORITHM" env-default:"HS256"`
	Issuer              string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"agromind"`
	AccessTokenTTL      time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"24h"`
	RefreshTokenTTL     time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"720h"`
	RotateRefreshTokens bool          `yaml:"rotate_refresh_tokens" env:"JWT_ROTATE_REFRESH_TOKENS"`
	BcryptCost          int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// RevocationConfig : a zero SweepInterval keeps every ledger entry forever
type RevocationConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval" env:"REVOCATION_SWEEP_INTERVAL" env-default:"0s"`
	Retention     time.Duration `yaml:"retention" env:"REVOCATION_RETENTION" env-default:"24h"`
}

// BrokerConfig : an empty URL disables auth events
type BrokerConfig struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL"`
	QueueName string `yaml:"queue_name" env:"RABBITMQ_QUEUE" env-default:"auth.events"`
}
