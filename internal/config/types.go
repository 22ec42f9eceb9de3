package config

import "time"

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type GRPCConfig struct {
	Port                  string `mapstructure:"port"`
	EnableReflection      bool   `mapstructure:"enable_reflection"`
	MaxReceiveMessageSize int    `mapstructure:"max_receive_message_size"`
	MaxSendMessageSize    int    `mapstructure:"max_send_message_size"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenExpiration time.Duration `mapstructure:"token_expiration"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
	OTPTTL          time.Duration `mapstructure:"otp_ttl"`
	ResendCooldown  time.Duration `mapstructure:"resend_cooldown"`
	MaxOTPAttempts  int           `mapstructure:"max_otp_attempts"`
}

// ChallengeConfig selects where OTP challenges are kept.
type ChallengeConfig struct {
	Backend         string        `mapstructure:"backend"` // "postgres", "redis" or "memory"
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	AppName  string `mapstructure:"app_name"`
}

// Configured reports whether every setting needed to reach a mail server is present.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Port != 0 && c.Username != "" && c.Password != "" && c.From != ""
}

type AppConfig struct {
	Server    ServerConfig    `mapstructure:"server"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Challenge ChallengeConfig `mapstructure:"challenge"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
}
