package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Database *Database
	HTTP     *HTTP
	Gateway  *Gateway
	Broker   *Broker
	Cache    *Cache
	Sweeper  *Sweeper
	App      *App
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

type App struct {
	LogLevel string `env:"LOG_LEVEL"`
	Mode     string
}

type Database struct {
	DSN string `env:"DATABASE_URI"`
}

type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
}

// Gateway controls the payment processor adapter. With Simulate on, every
// charge is auto-confirmed after ConfirmAfter, which keeps local runs and
// demos self-contained.
type Gateway struct {
	Simulate     bool          `env:"GATEWAY_SIMULATE"`
	ConfirmAfter time.Duration `env:"GATEWAY_CONFIRM_AFTER"`
}

type Broker struct {
	URL string `env:"AMQP_URL"`
}

type Cache struct {
	RedisAddr string        `env:"REDIS_ADDR"`
	TTL       time.Duration `env:"CACHE_TTL"`
}

type Sweeper struct {
	Interval time.Duration `env:"SWEEP_INTERVAL"`
}

func NewConfig() (*Config, error) {
	var db Database
	var http HTTP
	var gateway Gateway
	var broker Broker
	var cache Cache
	var sweeper Sweeper
	var app App

	flag.StringVar(&db.DSN, "d", "", "Database string")
	flag.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	flag.BoolVar(&gateway.Simulate, "s", false, "Simulate payment confirmations")
	flag.DurationVar(&gateway.ConfirmAfter, "c", 30*time.Second, "Simulated confirmation delay")
	flag.StringVar(&broker.URL, "q", "", "AMQP broker URL (empty disables the broker)")
	flag.StringVar(&cache.RedisAddr, "r", "", "Redis address (empty disables the cache)")
	flag.DurationVar(&cache.TTL, "t", 5*time.Second, "Availability cache TTL")
	flag.DurationVar(&sweeper.Interval, "i", time.Minute, "Hold expiration sweep interval")
	flag.StringVar(&app.LogLevel, "l", `error`, "Log level")
	flag.StringVar(&app.Mode, "m", `DEV`, "PROD / DEV")
	flag.Parse()

	err := env.Parse(&db)
	if err != nil {
		return nil, fmt.Errorf("error parsing env database config: %w", err)
	}
	err = env.Parse(&http)
	if err != nil {
		return nil, fmt.Errorf("error parsing http config: %w", err)
	}
	err = env.Parse(&gateway)
	if err != nil {
		return nil, fmt.Errorf("error parsing gateway config: %w", err)
	}
	err = env.Parse(&broker)
	if err != nil {
		return nil, fmt.Errorf("error parsing broker config: %w", err)
	}
	err = env.Parse(&cache)
	if err != nil {
		return nil, fmt.Errorf("error parsing cache config: %w", err)
	}
	err = env.Parse(&sweeper)
	if err != nil {
		return nil, fmt.Errorf("error parsing sweeper config: %w", err)
	}
	err = env.Parse(&app)
	if err != nil {
		return nil, fmt.Errorf("error parsing app config: %w", err)
	}

	config := Config{
		Database: &db,
		HTTP:     &http,
		Gateway:  &gateway,
		Broker:   &broker,
		Cache:    &cache,
		Sweeper:  &sweeper,
		App:      &app,
	}

	return &config, nil
}
