package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AddonRule mirrors one add-on catalog entry as configured.
type AddonRule struct {
	FlatCents     float64 `koanf:"flat_cents"`
	PercentOfBase float64 `koanf:"percent_of_base"`
}

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Cache struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"cache"`

	Rabbit struct {
		URL string `koanf:"url"`
	} `koanf:"rabbitmq"`

	Notify struct {
		WebhookURL    string        `koanf:"webhook_url"`
		RelayInterval time.Duration `koanf:"relay_interval"`
	} `koanf:"notify"`

	Kafka struct {
		Brokers        []string `koanf:"brokers"`
		GroupID        string   `koanf:"group_id"`
		StatusTopic    string   `koanf:"status_topic"`
		AnalyticsTopic string   `koanf:"analytics_topic"`
	} `koanf:"kafka"`

	Tracker struct {
		PollInterval     time.Duration `koanf:"poll_interval"`
		SimulateInterval time.Duration `koanf:"simulate_interval"`
	} `koanf:"tracker"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`

	Pricing struct {
		Rates             map[string]float64   `koanf:"rates"` // cents per unit, keyed by service type
		DefaultRate       float64              `koanf:"default_rate"`
		Addons            map[string]AddonRule `koanf:"addons"`
		Urgency           map[string]float64   `koanf:"urgency"`
		DiscountThreshold int                  `koanf:"discount_threshold"`
		DiscountRate      float64              `koanf:"discount_rate"`
		TaxRate           float64              `koanf:"tax_rate"`
	} `koanf:"pricing"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix ORDERAPI_, nested with __)
	// e.g. ORDERAPI_MYSQL__DSN, ORDERAPI_REDIS__PASSWORD
	if err := k.Load(env.Provider("ORDERAPI_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "ORDERAPI_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required")
	}
	if c.Pricing.TaxRate < 0 || c.Pricing.DiscountRate < 0 || c.Pricing.DiscountRate >= 1 {
		return fmt.Errorf("pricing rates out of range")
	}
	for tier, mult := range c.Pricing.Urgency {
		if mult < 1 {
			return fmt.Errorf("pricing.urgency.%s must be >= 1", tier)
		}
	}
	return nil
}
