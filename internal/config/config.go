package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khanghh/kmfa/params"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr       = ":3000"
	DefaultStorageBackend   = "memory"
	DefaultMemoryGCInterval = 10 * time.Second
)

var (
	ErrMissingSigningKey    = errors.New("signingKey is required")
	ErrMissingEncryptionKey = errors.New("encryptionKey is required")
	ErrMissingDsn           = errors.New("mysql.dsn is required")
)

type MySQLConfig struct {
	Dsn             string        `mapstructure:"dsn"`
	TablePrefix     string        `mapstructure:"tablePrefix"`
	Replicas        []string      `mapstructure:"replicas"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type TokenConfig struct {
	AccessTokenTTL   time.Duration `mapstructure:"accessTokenTTL"`
	RefreshTokenTTL  time.Duration `mapstructure:"refreshTokenTTL"`
	RecoveryTokenTTL time.Duration `mapstructure:"recoveryTokenTTL"`
}

type HashConfig struct {
	PasswordCost   int `mapstructure:"passwordCost"`
	BackupCodeCost int `mapstructure:"backupCodeCost"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	TLS      bool   `mapstructure:"tls"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`
}

type MailConfig struct {
	Backend string     `mapstructure:"backend"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type StorageConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type Config struct {
	Debug         bool          `mapstructure:"debug"`
	ListenAddr    string        `mapstructure:"listenAddr"`
	IssuerName    string        `mapstructure:"issuerName"`
	SigningKey    string        `mapstructure:"signingKey"`
	EncryptionKey string        `mapstructure:"encryptionKey"`
	AllowOrigins  []string      `mapstructure:"allowOrigins"`
	Token         TokenConfig   `mapstructure:"token"`
	Hash          HashConfig    `mapstructure:"hash"`
	MySQL         MySQLConfig   `mapstructure:"mysql"`
	Storage       StorageConfig `mapstructure:"storage"`
	Mail          MailConfig    `mapstructure:"mail"`
}

// Sanitize fills in defaults and rejects configurations the service cannot
// run with.
func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.IssuerName == "" {
		c.IssuerName = params.DefaultIssuerName
	}
	if c.Token.AccessTokenTTL <= 0 {
		c.Token.AccessTokenTTL = params.AccessTokenExpiration
	}
	if c.Token.RefreshTokenTTL <= 0 {
		c.Token.RefreshTokenTTL = params.RefreshTokenExpiration
	}
	if c.Token.RecoveryTokenTTL <= 0 {
		c.Token.RecoveryTokenTTL = params.RecoveryTokenExpiration
	}
	if c.Hash.PasswordCost == 0 {
		c.Hash.PasswordCost = params.DefaultPasswordHashCost
	}
	if c.Hash.BackupCodeCost == 0 {
		c.Hash.BackupCodeCost = params.DefaultBackupCodeCost
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultStorageBackend
	}

	if c.SigningKey == "" {
		return ErrMissingSigningKey
	}
	if len(c.SigningKey) < params.MinSigningKeyLength {
		return fmt.Errorf("signingKey must be at least %d characters", params.MinSigningKeyLength)
	}
	if c.EncryptionKey == "" {
		return ErrMissingEncryptionKey
	}
	if len(c.EncryptionKey) < params.MinEncryptionKeyLength {
		return fmt.Errorf("encryptionKey must be at least %d characters", params.MinEncryptionKeyLength)
	}
	if c.MySQL.Dsn == "" {
		return ErrMissingDsn
	}
	switch c.Storage.Backend {
	case "memory":
	case "redis":
		if c.Storage.Redis.URL == "" {
			return errors.New("storage.redis.url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	switch c.Mail.Backend {
	case "", "none", "smtp":
	default:
		return fmt.Errorf("unsupported mail backend %q", c.Mail.Backend)
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
