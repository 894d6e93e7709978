package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	GatewayAMQP     = "amqp"
	GatewaySMTP     = "smtp"
	GatewayTelegram = "telegram"
)

type (
	Config struct {
		App        App        `yaml:"app"        env-prefix:"APP_"`
		Logger     Logger     `yaml:"logger"     env-prefix:"LOGGER_"`
		HTTP       HTTP       `yaml:"http"       env-prefix:"HTTP_"`
		Database   Database   `yaml:"database"   env-prefix:"DB_"`
		Migrations Migrations `yaml:"migrations" env-prefix:"MIGRATIONS_"`
		Cache      Cache      `yaml:"cache"      env-prefix:"CACHE_"`
		Gateway    Gateway    `yaml:"gateway"    env-prefix:"GATEWAY_"`
		Publisher  Publisher  `yaml:"publisher"  env-prefix:"AMQP_"`
		SMTP       SMTP       `yaml:"smtp"       env-prefix:"SMTP_"`
		TG         TG         `yaml:"telegram"   env-prefix:"TG_"`
		Metrics    Metrics    `yaml:"metrics"    env-prefix:"METRICS_"`
		Env        string     `yaml:"env"        env:"ENV" env-default:"local" validate:"oneof=local dev staging prod"`
	}

	App struct {
		Name    string `yaml:"name"    env:"NAME"    env-default:"sales-notifier" validate:"required"`
		Version string `yaml:"version" env:"VERSION" env-default:"dev"            validate:"required"`
	}

	HTTP struct {
		Host              string        `yaml:"host"                env:"HOST"                validate:"required"                 env-default:"0.0.0.0"`
		Port              string        `yaml:"port"                env:"PORT"                validate:"required,numeric"         env-default:"8002"`
		ReadTimeout       time.Duration `yaml:"read_timeout"        env:"READ_TIMEOUT"        validate:"gte=10ms,lte=30s"         env-default:"5s"`
		WriteTimeout      time.Duration `yaml:"write_timeout"       env:"WRITE_TIMEOUT"       validate:"gte=10ms,lte=60s"         env-default:"15s"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"        env:"IDLE_TIMEOUT"        validate:"gte=10ms,lte=120s"        env-default:"60s"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"SHUTDOWN_TIMEOUT"    validate:"gte=10ms,lte=30s"         env-default:"10s"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT" validate:"gte=10ms,lte=30s"         env-default:"5s"`
		RequestTimeout    time.Duration `yaml:"request_timeout"     env:"REQUEST_TIMEOUT"     validate:"gte=10ms,lte=60s"         env-default:"10s"`
		CORS              CORS          `yaml:"cors"                env-prefix:"CORS_"`
	}

	CORS struct {
		Enabled          bool          `yaml:"enabled"           env:"ENABLED"           env-default:"true"`
		AllowOrigins     []string      `yaml:"allow_origins"     env:"ALLOW_ORIGINS"     env-default:"*"     env-separator:"," validate:"required_if=Enabled true,dive,required"`
		AllowCredentials bool          `yaml:"allow_credentials" env:"ALLOW_CREDENTIALS" env-default:"false"`
		MaxAge           time.Duration `yaml:"max_age"           env:"MAX_AGE"           env-default:"12h"   validate:"gte=0,lte=24h"`
	}

	Database struct {
		DSN            string        `yaml:"dsn"              env:"DSN"              validate:"required"`
		PoolMax        int           `yaml:"pool_max"         env:"POOL_MAX"         validate:"min=1,max=100"       env-default:"10"`
		ConnAttempts   int           `yaml:"conn_attempts"    env:"CONN_ATTEMPTS"    validate:"min=1,max=20"        env-default:"5"`
		BaseRetryDelay time.Duration `yaml:"base_retry_delay" env:"BASE_RETRY_DELAY" validate:"gte=10ms,lte=10s"    env-default:"500ms"`
		MaxRetryDelay  time.Duration `yaml:"max_retry_delay"  env:"MAX_RETRY_DELAY"  validate:"gte=10ms,lte=60s"    env-default:"5s"`
	}

	Migrations struct {
		Enabled bool   `yaml:"enabled" env:"ENABLED" env-default:"true"`
		Path    string `yaml:"path"    env:"PATH"    env-default:"./migrations" validate:"required_if=Enabled true"`
	}

	Cache struct {
		Enabled     bool          `yaml:"enabled"       env:"ENABLED"       env-default:"false"`
		Addr        string        `yaml:"addr"          env:"ADDR"          validate:"required_if=Enabled true"`
		Password    string        `yaml:"password"      env:"PASSWORD"`
		DB          int           `yaml:"db"            env:"DB"            validate:"min=0,max=15"            env-default:"0"`
		PoolSize    int           `yaml:"pool_size"     env:"POOL_SIZE"     validate:"min=1,max=100"           env-default:"20"`
		MinIdleCons int           `yaml:"min_idle_cons" env:"MIN_IDLE_CONS" validate:"min=1,max=100"           env-default:"10"`
		PoolTimeout time.Duration `yaml:"pool_timeout"  env:"POOL_TIMEOUT"  validate:"gte=10ms,lte=10s"        env-default:"100ms"`
		TTL         time.Duration `yaml:"ttl"           env:"TTL"           validate:"gte=1s,lte=24h"          env-default:"5m"`
	}

	Gateway struct {
		Kind             string `yaml:"kind"               env:"KIND"               validate:"oneof=amqp smtp telegram" env-default:"amqp"`
		MirrorToTelegram bool   `yaml:"mirror_to_telegram" env:"MIRROR_TO_TELEGRAM" env-default:"false"`
	}

	Publisher struct {
		URL            string        `yaml:"url"             env:"URL"             validate:"required_if=Kind amqp"`
		ConnectionName string        `yaml:"connection_name" env:"CONNECTION_NAME" env-default:"sales-notifier"`
		Exchange       string        `yaml:"exchange"        env:"EXCHANGE"        env-default:"notifications"`
		ExchangeType   string        `yaml:"exchange_type"   env:"EXCHANGE_TYPE"   validate:"oneof=direct fanout topic" env-default:"topic"`
		RoutingKey     string        `yaml:"routing_key"     env:"ROUTING_KEY"     env-default:"notification.email"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT" validate:"gte=100ms,lte=60s" env-default:"10s"`
		Heartbeat      time.Duration `yaml:"heartbeat"       env:"HEARTBEAT"       validate:"gte=1s,lte=120s"   env-default:"10s"`
		ConfirmTimeout time.Duration `yaml:"confirm_timeout" env:"CONFIRM_TIMEOUT" validate:"gte=10ms,lte=60s"  env-default:"5s"`
		// Kind mirrors Gateway.Kind so that required_if can see it; set by validate.
		Kind string `yaml:"-"`
	}

	SMTP struct {
		Host     string `yaml:"host"     env:"HOST"     validate:"required_if=Kind smtp"`
		Port     int    `yaml:"port"     env:"PORT"     validate:"gte=1,lte=65535" env-default:"587"`
		Username string `yaml:"username" env:"USERNAME"`
		Password string `yaml:"password" env:"PASSWORD"`
		From     string `yaml:"from"     env:"FROM"     validate:"omitempty,email"`
		Kind     string `yaml:"-"`
	}

	TG struct {
		Token  string `yaml:"token"   env:"TOKEN"`
		ChatID int64  `yaml:"chat_id" env:"CHAT_ID"`
	}

	Metrics struct {
		Enabled           bool          `yaml:"enabled"             env:"ENABLED"             env-default:"true"`
		Host              string        `yaml:"host"                env:"HOST"                validate:"required"         env-default:"0.0.0.0"`
		Port              string        `yaml:"port"                env:"PORT"                validate:"required,numeric" env-default:"8081"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT" validate:"gte=10ms,lte=30s" env-default:"5s"`
	}

	Logger struct {
		Level      string `yaml:"level"       env:"LEVEL"       env-default:"info" validate:"oneof=debug info warn error"`
		Filename   string `yaml:"filename"    env:"FILENAME"    env-default:""`
		MaxSize    int    `yaml:"max_size"    env:"MAX_SIZE"    env-default:"100"  validate:"min=1,max=1000"`
		MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS" env-default:"3"    validate:"min=0,max=20"`
		MaxAge     int    `yaml:"max_age"     env:"MAX_AGE"     env-default:"28"   validate:"min=1,max=365"`
	}
)

// Load reads the yaml file named by -config or CONFIG_PATH when one is given,
// otherwise the environment alone.
func Load() (*Config, error) {
	path := fetchConfigPath()
	if path == "" {
		return LoadEnv()
	}
	return LoadPath(path)
}

func LoadEnv() (*Config, error) {
	const op = "config.LoadEnv"

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: read env: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func LoadPath(configPath string) (*Config, error) {
	const op = "config.LoadPath"

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
	} else if err != nil {
		return nil, fmt.Errorf("%s: checking config file: %w", op, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: read config: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	c.Publisher.Kind = c.Gateway.Kind
	c.SMTP.Kind = c.Gateway.Kind

	validate := validator.New()

	var validationErrors []string
	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, ve := range validationErrs {
				validationErrors = append(validationErrors,
					fmt.Sprintf("%s=%v must satisfy '%s'", ve.Namespace(), ve.Value(), ve.Tag()))
			}
			return fmt.Errorf("config validation: %v", strings.Join(validationErrors, "; "))
		}
		return fmt.Errorf("config validation: %w", err)
	}

	if c.Gateway.Kind == GatewayTelegram || c.Gateway.MirrorToTelegram {
		if c.TG.Token == "" || c.TG.ChatID == 0 {
			return errors.New("config validation: TG_TOKEN and TG_CHAT_ID are required for telegram delivery")
		}
	}

	if c.Cache.Enabled && c.Cache.MinIdleCons > c.Cache.PoolSize {
		return errors.New("config validation: CACHE_MIN_IDLE_CONS must not exceed CACHE_POOL_SIZE")
	}

	return nil
}

func (h HTTP) Addr() string {
	return h.Host + ":" + h.Port
}

func (m Metrics) Addr() string {
	return m.Host + ":" + m.Port
}

func fetchConfigPath() string {
	var path string
	if !flag.Parsed() {
		flag.StringVar(&path, "config", "", "Path to config file")
		flag.Parse()
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}
