package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_sec"`
	IdleTimeoutSec  int    `mapstructure:"idle_timeout_sec"`
}
type AdminHTTP struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type App struct {
	Name  string    `mapstructure:"name"`
	Env   string    `mapstructure:"env"`
	HTTP  HTTP      `mapstructure:"http"`
	Admin AdminHTTP `mapstructure:"admin"`
}

type Log struct {
	Level string  `mapstructure:"level"`
	JSON  bool    `mapstructure:"json"`
	File  LogFile `mapstructure:"file"`
}

// LogFile 可选文件切割输出
type LogFile struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type JWT struct {
	Secret            string `mapstructure:"secret"`
	Issuer            string `mapstructure:"issuer"`
	AccessTokenTTLMin int    `mapstructure:"access_token_ttl_min"`
}

type Redis struct {
	Enabled       bool   `mapstructure:"enabled"`
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ProductTTLSec int    `mapstructure:"product_ttl_sec"`
}

type DB struct {
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	LogLevel           string `mapstructure:"log_level"`
}

type Mongo struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type Wishlist struct {
	Store string `mapstructure:"store"` // sql | mongo
}

type Payment struct {
	Provider       string `mapstructure:"provider"` // stripe | none
	SecretKey      string `mapstructure:"secret_key"`
	PublishableKey string `mapstructure:"publishable_key"`
	Currency       string `mapstructure:"currency"`
}

type Storage struct {
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type Mail struct {
	SendGridKey string `mapstructure:"sendgrid_key"`
	FromName    string `mapstructure:"from_name"`
	FromAddress string `mapstructure:"from_address"`
	ResetURL    string `mapstructure:"reset_url"`
}

type CORS struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type Admin struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type Config struct {
	App      App      `mapstructure:"app"`
	Log      Log      `mapstructure:"log"`
	JWT      JWT      `mapstructure:"jwt"`
	DB       DB       `mapstructure:"db"`
	Redis    Redis    `mapstructure:"redis"`
	Mongo    Mongo    `mapstructure:"mongo"`
	Wishlist Wishlist `mapstructure:"wishlist"`
	Payment  Payment  `mapstructure:"payment"`
	Storage  Storage  `mapstructure:"storage"`
	Mail     Mail     `mapstructure:"mail"`
	CORS     CORS     `mapstructure:"cors"`
	Admin    Admin    `mapstructure:"admin"`
}

// 已知的占位密钥，生产环境禁止使用
var placeholderSecrets = map[string]struct{}{
	"": {}, "secret": {}, "your-secret-key": {}, "change-me": {}, "luxora_secret": {},
	"dev-only-secret-change-me": {},
}

// MinJWTSecretLen HS256 密钥至少 32 字节
const MinJWTSecretLen = 32

var ErrInsecureJWTSecret = errors.New("jwt secret is empty, a placeholder or shorter than 32 bytes")

func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return c
}

// Read 读取 yaml + 环境变量；默认路径不存在时只用默认值与环境变量
func Read(path string) (*Config, error) {
	v := viper.New()
	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 兼容老部署直接使用的环境变量名
	_ = v.BindEnv("jwt.secret", "APP_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("mongo.uri", "APP_MONGO_URI", "MONGODB_URI")
	_ = v.BindEnv("payment.secret_key", "APP_PAYMENT_SECRET_KEY", "STRIPE_SECRET_KEY")
	_ = v.BindEnv("payment.publishable_key", "APP_PAYMENT_PUBLISHABLE_KEY", "STRIPE_PUBLISHABLE_KEY")
	_ = v.BindEnv("mail.sendgrid_key", "APP_MAIL_SENDGRID_KEY", "SENDGRID_API_KEY")

	if _, err := os.Stat(path); err == nil || explicit {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate 非开发环境拒绝占位或过短的 JWT 密钥；未配置 app.env 时按生产处理
func (c *Config) Validate() error {
	if c.IsDev() {
		return nil
	}
	sec := strings.TrimSpace(c.JWT.Secret)
	if _, bad := placeholderSecrets[sec]; bad || len(sec) < MinJWTSecretLen {
		return ErrInsecureJWTSecret
	}
	return nil
}

func (c *Config) IsDev() bool {
	switch strings.ToLower(c.App.Env) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "luxora")
	v.SetDefault("app.env", "production")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.read_timeout_sec", 5)
	v.SetDefault("app.http.write_timeout_sec", 10)
	v.SetDefault("app.http.idle_timeout_sec", 60)
	v.SetDefault("app.admin.host", "0.0.0.0")
	v.SetDefault("app.admin.port", 8081)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.enable", false)
	v.SetDefault("log.file.filename", "logs/luxora.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.max_age_days", 14)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "luxora")
	v.SetDefault("jwt.access_token_ttl_min", 7*24*60)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.max_open_conns", 50)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime_min", 30)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.product_ttl_sec", 300)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "luxora")
	v.SetDefault("wishlist.store", "sql")

	v.SetDefault("payment.provider", "none")
	v.SetDefault("payment.secret_key", "")
	v.SetDefault("payment.publishable_key", "")
	v.SetDefault("payment.currency", "inr")

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "ap-south-1")
	v.SetDefault("storage.public_base_url", "")

	v.SetDefault("mail.sendgrid_key", "")
	v.SetDefault("mail.from_name", "LUXORA")
	v.SetDefault("mail.from_address", "no-reply@luxora.example")
	v.SetDefault("mail.reset_url", "http://localhost:3000/reset-password")

	v.SetDefault("cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}
