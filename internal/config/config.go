package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joao-fontenele/storefront/internal/pricing"
)

const (
	envPrefix         = "STOREFRONT"
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
)

type PricingConfig struct {
	FlatShippingFee       string `mapstructure:"flat_shipping_fee"`
	FreeShippingThreshold string `mapstructure:"free_shipping_threshold"`
}

type OTelConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Endpoint       string `mapstructure:"endpoint"`
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
}

type Config struct {
	HTTPAddr       string        `mapstructure:"http_addr"`
	LogLevel       string        `mapstructure:"log_level"`
	PostgresURL    string        `mapstructure:"postgres_url"`
	PostgresSchema string        `mapstructure:"postgres_schema"`
	KafkaBrokers   []string      `mapstructure:"kafka_brokers"`
	CompareTopic   string        `mapstructure:"compare_topic"`
	ConsumerGroup  string        `mapstructure:"consumer_group"`
	CouponAPIURL   string        `mapstructure:"coupon_api_url"`
	Pricing        PricingConfig `mapstructure:"pricing"`
	OTel           OTelConfig    `mapstructure:"otel"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("postgres_url", "")
	v.SetDefault("postgres_schema", "storefront")
	v.SetDefault("kafka_brokers", []string{})
	v.SetDefault("compare_topic", "storefront.compare-list-updated")
	v.SetDefault("consumer_group", "compare-badge")
	v.SetDefault("coupon_api_url", "")
	v.SetDefault("pricing.flat_shipping_fee", "100")
	v.SetDefault("pricing.free_shipping_threshold", "3000")
	v.SetDefault("otel.service_name", "storefront")
	v.SetDefault("otel.service_version", "0.1.0")
	v.SetDefault("otel.endpoint", "localhost:4317")
	v.SetDefault("otel.tracing_enabled", false)
}

// Load reads an optional YAML file named by --config or STOREFRONT_CONFIG_FILE
// and then applies STOREFRONT_* environment overrides, e.g.
// STOREFRONT_PRICING_FLAT_SHIPPING_FEE for pricing.flat_shipping_fee.
func Load(args []string) (Config, error) {
	path, err := configFilePath(args)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if _, err := cfg.PricingConfig(); err != nil {
		return Config{}, err
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func configFilePath(args []string) (string, error) {
	flags := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	path := flags.String("config", "", "path to a YAML config file")
	if err := flags.Parse(args); err != nil {
		return "", fmt.Errorf("parse flags: %w", err)
	}

	if env, ok := os.LookupEnv(configFileEnvName); ok && *path == "" {
		return env, nil
	}
	return *path, nil
}

func (c Config) PricingConfig() (pricing.Config, error) {
	fee, err := decimal.NewFromString(c.Pricing.FlatShippingFee)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("pricing.flat_shipping_fee: %w", err)
	}

	threshold, err := decimal.NewFromString(c.Pricing.FreeShippingThreshold)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("pricing.free_shipping_threshold: %w", err)
	}

	if fee.IsNegative() || threshold.IsNegative() {
		return pricing.Config{}, errors.New("pricing values must not be negative")
	}

	return pricing.Config{FlatShippingFee: fee, FreeShippingThreshold: threshold}, nil
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Logger builds the JSON logger used by every binary.
func (c Config) Logger() *slog.Logger {
	level, _ := c.SlogLevel()
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("service", c.OTel.ServiceName)
}
