package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/voltride/rental-service/pkg/kafka"
	"github.com/voltride/rental-service/pkg/logger"
	"github.com/voltride/rental-service/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `envconfig:"RENTAL_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `envconfig:"RENTAL_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ" default:"30s"`
	WriteTimeout time.Duration
}

// Policy carries the settlement rates. They are deployment
// configuration, not code: the fee schedule differs per operator.
type Policy struct {
	DepositCents           int64         `envconfig:"POLICY_DEPOSIT_CENTS" default:"20000"`
	LateFeeCentsPerHour    int64         `envconfig:"POLICY_LATE_FEE_CENTS_PER_HOUR" default:"1500"`
	CategoryDamageFeeCents int64         `envconfig:"POLICY_CATEGORY_DAMAGE_FEE_CENTS" default:"5000"`
	DamageItemFeeCents     int64         `envconfig:"POLICY_DAMAGE_ITEM_FEE_CENTS" default:"2500"`
	PickupWindow           time.Duration `envconfig:"POLICY_PICKUP_WINDOW" default:"2h"`
}

type AccessToken struct {
	Secret string `envconfig:"TOKEN_SECRET" default:"change-me" json:"-"`
}

type Config struct {
	Server   HTTPServer
	Database postgres.Config
	Kafka    kafka.Config
	Policy   Policy
	Token    AccessToken
	Log      logger.Log
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		if err := envconfig.Process("", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return &cfg
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = d
	}
}
