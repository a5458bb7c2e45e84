package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	RequestTimeout  int   // 单请求超时（秒）
	MaxInFlight     int64 // 同时处理的请求上限
	MaxBodyMB       int64
}

type App struct {
	Name      string
	Env       string
	PublicURL string // 对外访问地址，邮件链接用；为空则按请求 Host 拼
	HTTP      HTTP
}

type Log struct {
	Level      string
	JSON       bool
	File       string // 为空则只写 stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret             string
	Algorithm          string
	Issuer             string
	AccessTokenTTLMin  int
	ConfirmTokenTTLMin int
}

type Password struct {
	Cost int
}

type Redis struct {
	Enabled    bool   `mapstructure:"enabled"`
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	FeedTTLSec int    `mapstructure:"feedttlsec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Storage struct {
	Enabled      bool
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UseSSL       bool
	URLExpiryMin int
}

type Mail struct {
	APIKey  string
	Domain  string
	From    string
	BaseURL string
}

type Generator struct {
	BaseURL    string
	APIKey     string
	TimeoutSec int
}

type Tasks struct {
	MaxInFlight int64
	TimeoutSec  int
}

type Config struct {
	App       App
	Log       Log
	JWT       JWT
	Password  Password
	DB        DB
	Redis     Redis `mapstructure:"redis"`
	Storage   Storage
	Mail      Mail
	Generator Generator
	Tasks     Tasks
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "storeapi")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.publicurl", "")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.requesttimeout", 10)
	v.SetDefault("app.http.maxinflight", 300)
	v.SetDefault("app.http.maxbodymb", 16)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 5)
	v.SetDefault("log.maxagedays", 14)
	v.SetDefault("log.file", "")
	v.SetDefault("log.compress", false)

	// 未出现在 yaml 里的 key 也要有默认值，否则 APP_* 环境变量不会被 Unmarshal 读到
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "")
	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.accesstokenttlmin", 30)
	v.SetDefault("jwt.confirmtokenttlmin", 1440)
	v.SetDefault("password.cost", 10)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.automigrate", false)
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.feedttlsec", 30)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.bucket", "storeapi-uploads")
	v.SetDefault("storage.urlexpirymin", 60*24)

	v.SetDefault("mail.apikey", "")
	v.SetDefault("mail.domain", "")
	v.SetDefault("mail.baseurl", "https://api.mailgun.net/v3")
	v.SetDefault("mail.from", "storeapi <noreply@storeapi.local>")

	v.SetDefault("generator.baseurl", "https://api.deepai.org/api/cute-creature-generator")
	v.SetDefault("generator.apikey", "")
	v.SetDefault("generator.timeoutsec", 60)

	v.SetDefault("tasks.maxinflight", 16)
	v.SetDefault("tasks.timeoutsec", 120)
}

// Load 读取 yaml + APP_ 前缀环境变量；结果只在启动时构建一次，之后只读
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("config: unsupported jwt.algorithm %q", c.JWT.Algorithm)
	}
	if c.JWT.AccessTokenTTLMin <= 0 || c.JWT.ConfirmTokenTTLMin <= 0 {
		return fmt.Errorf("config: token ttl must be positive")
	}
	return nil
}
