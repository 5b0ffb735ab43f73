// Package configs contains the system configurations.
package configs

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"clinic-booking/internal/timeofday"

	"github.com/joho/godotenv"
)

const (
	defaultTimeFrom    = "09:00"
	defaultTimeTo      = "17:00"
	defaultSlotMinutes = 30
	defaultMaxColumns  = 5
	defaultLogLevel    = "info"
	defaultLogFormat   = "json"
	defaultRateLimit   = 60
	defaultRatePrefix  = "rl"
)

type scheduleData struct {
	DefaultTimeFrom    string `json:"default_time_from"`
	DefaultTimeTo      string `json:"default_time_to"`
	DefaultSlotMinutes int    `json:"default_slot_minutes"`
	DefaultMaxColumns  int    `json:"default_max_columns"`
}

type redisData struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type rateLimitData struct {
	Enabled     bool   `json:"enabled"`
	Capacity    int    `json:"capacity"`
	RefillEvery string `json:"refill_every"`
	KeyPrefix   string `json:"key_prefix"`
}

type configData struct {
	ServerPort     int32         `json:"port"`
	DatabaseDSN    string        `json:"database_dsn"`
	DatabaseDriver string        `json:"database_driver"`
	PrivateKeyFile string        `json:"private_key_file"`
	LogLevel       string        `json:"log_level"`
	LogFormat      string        `json:"log_format"`
	Schedule       scheduleData  `json:"schedule"`
	Redis          redisData     `json:"redis"`
	RateLimit      rateLimitData `json:"rate_limit"`
	AMQPURL        string        `json:"amqp_url"`
}

// ScheduleDefaults is the fallback used when a building has no schedule configuration.
type ScheduleDefaults struct {
	TimeFrom    timeofday.Clock
	TimeTo      timeofday.Clock
	SlotMinutes int
	MaxColumns  int
}

// RedisOptions holds the connection settings of the rate limiter store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RateLimit holds the token bucket settings.
type RateLimit struct {
	Enabled     bool
	Capacity    int
	RefillEvery time.Duration
	KeyPrefix   string
}

// Config holds the system configuration.
type Config interface {
	ServerPort() int32
	DatabaseDSN() string
	DatabaseDriver() string
	PrivateKeyFile() string
	PrivateKey() rsa.PrivateKey
	LogLevel() string
	LogFormat() string
	ScheduleDefaults() ScheduleDefaults
	Redis() RedisOptions
	RateLimit() RateLimit
	AMQPURL() string
}

type defaultConfig struct {
	data       *configData
	privateKey *rsa.PrivateKey
	schedule   ScheduleDefaults
	rateLimit  RateLimit
}

func (c *defaultConfig) ServerPort() int32 {
	return c.data.ServerPort
}

func (c *defaultConfig) DatabaseDSN() string {
	return c.data.DatabaseDSN
}

func (c *defaultConfig) DatabaseDriver() string {
	return c.data.DatabaseDriver
}

func (c *defaultConfig) PrivateKeyFile() string {
	return c.data.PrivateKeyFile
}

func (c *defaultConfig) PrivateKey() rsa.PrivateKey {
	return *c.privateKey
}

func (c *defaultConfig) LogLevel() string {
	return c.data.LogLevel
}

func (c *defaultConfig) LogFormat() string {
	return c.data.LogFormat
}

func (c *defaultConfig) ScheduleDefaults() ScheduleDefaults {
	return c.schedule
}

func (c *defaultConfig) Redis() RedisOptions {
	return RedisOptions{Addr: c.data.Redis.Addr, Password: c.data.Redis.Password, DB: c.data.Redis.DB}
}

func (c *defaultConfig) RateLimit() RateLimit {
	return c.rateLimit
}

func (c *defaultConfig) AMQPURL() string {
	return c.data.AMQPURL
}

func (c *defaultConfig) loadPrivateKey(configPath string) error {
	path := c.PrivateKeyFile()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = filepath.Join(filepath.Dir(configPath), path)
	}
	pemFile, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	privatePem, _ := pem.Decode(pemFile)
	if privatePem == nil {
		return errors.New("the given private key is not PEM encoded")
	}
	pk, err := x509.ParsePKCS1PrivateKey(privatePem.Bytes)
	if err != nil {
		return err
	}
	c.privateKey = pk
	return nil
}

// applyEnv overrides file values with an optional .env file next to the config and
// CLINIC_* environment variables.
func (c *defaultConfig) applyEnv(configPath string) error {
	envFile := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err = godotenv.Load(envFile); err != nil {
			return fmt.Errorf("an error occurred while loading %s: %w", envFile, err)
		}
	}
	overrides := map[string]*string{
		"CLINIC_DATABASE_DSN": &c.data.DatabaseDSN,
		"CLINIC_REDIS_ADDR":   &c.data.Redis.Addr,
		"CLINIC_AMQP_URL":     &c.data.AMQPURL,
		"CLINIC_LOG_LEVEL":    &c.data.LogLevel,
	}
	for key, target := range overrides {
		if v, ok := os.LookupEnv(key); ok {
			*target = v
		}
	}
	if v, ok := os.LookupEnv("CLINIC_PORT"); ok {
		port, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid CLINIC_PORT %q: %w", v, err)
		}
		c.data.ServerPort = int32(port)
	}
	return nil
}

func (c *defaultConfig) applyDefaults() {
	if c.data.LogLevel == "" {
		c.data.LogLevel = defaultLogLevel
	}
	if c.data.LogFormat == "" {
		c.data.LogFormat = defaultLogFormat
	}
	s := &c.data.Schedule
	if s.DefaultTimeFrom == "" {
		s.DefaultTimeFrom = defaultTimeFrom
	}
	if s.DefaultTimeTo == "" {
		s.DefaultTimeTo = defaultTimeTo
	}
	if s.DefaultSlotMinutes == 0 {
		s.DefaultSlotMinutes = defaultSlotMinutes
	}
	if s.DefaultMaxColumns == 0 {
		s.DefaultMaxColumns = defaultMaxColumns
	}
	r := &c.data.RateLimit
	if r.Capacity == 0 {
		r.Capacity = defaultRateLimit
	}
	if r.RefillEvery == "" {
		r.RefillEvery = "1s"
	}
	if r.KeyPrefix == "" {
		r.KeyPrefix = defaultRatePrefix
	}
}

func (c *defaultConfig) validate() error {
	if c.data.ServerPort <= 0 {
		return fmt.Errorf("invalid port %d", c.data.ServerPort)
	}
	s := c.data.Schedule
	from, err := timeofday.Parse(s.DefaultTimeFrom)
	if err != nil {
		return fmt.Errorf("schedule.default_time_from: %w", err)
	}
	to, err := timeofday.Parse(s.DefaultTimeTo)
	if err != nil {
		return fmt.Errorf("schedule.default_time_to: %w", err)
	}
	if !from.Before(to) {
		return errors.New("schedule.default_time_from must be before schedule.default_time_to")
	}
	if s.DefaultSlotMinutes < 0 || s.DefaultMaxColumns < 0 {
		return errors.New("schedule defaults must be positive")
	}
	c.schedule = ScheduleDefaults{
		TimeFrom:    from,
		TimeTo:      to,
		SlotMinutes: s.DefaultSlotMinutes,
		MaxColumns:  s.DefaultMaxColumns,
	}
	refill, err := time.ParseDuration(c.data.RateLimit.RefillEvery)
	if err != nil || refill <= 0 {
		return fmt.Errorf("invalid rate_limit.refill_every %q", c.data.RateLimit.RefillEvery)
	}
	if c.data.RateLimit.Capacity < 1 {
		return errors.New("rate_limit.capacity must be positive")
	}
	c.rateLimit = RateLimit{
		Enabled:     c.data.RateLimit.Enabled,
		Capacity:    c.data.RateLimit.Capacity,
		RefillEvery: refill,
		KeyPrefix:   c.data.RateLimit.KeyPrefix,
	}
	return nil
}

// Load loads the given configuration file.
func Load(configPath string) (Config, error) {
	data := &configData{}
	configFile, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("an error occurred while loading config file: %w", err)
	}
	defer configFile.Close()
	if err = json.NewDecoder(configFile).Decode(data); err != nil {
		return nil, fmt.Errorf("an error occurred while parsing config file: %w", err)
	}
	configuration := &defaultConfig{data: data}
	if err = configuration.applyEnv(configPath); err != nil {
		return nil, err
	}
	configuration.applyDefaults()
	if err = configuration.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if configuration.PrivateKeyFile() != "" {
		if err = configuration.loadPrivateKey(configPath); err != nil {
			return nil, err
		}
	}
	return configuration, nil
}

// MustLoad loads the given configuration file and if any error occurs, will panic.
func MustLoad(configPath string) Config {
	config, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return config
}
