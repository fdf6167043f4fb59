package buildCFG

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"github.com/sticonf/registration/internal/mailer"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type PaystackConfig struct {
	BaseURL   string
	PublicKey string
	SecretKey string
	// WidgetWindowMinutes bounds how long an initiated attempt stays
	// pending before the expiry worker fails it.
	WidgetWindowMinutes int
}

type AuthConfig struct {
	Secret string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("db.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("db.master_dsn is required")
	}
	slaveDSNs := cfg.GetStringSlice("db.slave_dsns")

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("db.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("db.max_idle_conns"),
		ConnMaxLifetime: time.Duration(cfg.GetInt("db.conn_max_lifetime_seconds")) * time.Second,
	}
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 10
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("database configuration loaded")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.url is required")
	}
	if rc.Exchange == "" {
		rc.Exchange = "payment-expiry-exchange"
	}
	if rc.Queue == "" {
		rc.Queue = "payment-expiry"
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit configuration loaded")
	return rc, nil
}

// BuildPaystackConfig reads the provider keys from the environment, never
// from config.yaml: the secret key must not sit in a file that gets
// committed, and the public key follows it for symmetry.
func BuildPaystackConfig(cfg *config.Config, log *zerolog.Logger) (PaystackConfig, error) {
	pc := PaystackConfig{
		BaseURL:             cfg.GetString("paystack.base_url"),
		PublicKey:           os.Getenv("PAYSTACK_PUBLIC_KEY"),
		SecretKey:           os.Getenv("PAYSTACK_SECRET_KEY"),
		WidgetWindowMinutes: cfg.GetInt("paystack.widget_window_minutes"),
	}
	if pc.PublicKey == "" {
		return PaystackConfig{}, fmt.Errorf("PAYSTACK_PUBLIC_KEY is not set")
	}
	if pc.SecretKey == "" {
		return PaystackConfig{}, fmt.Errorf("PAYSTACK_SECRET_KEY is not set")
	}
	if pc.WidgetWindowMinutes <= 0 {
		pc.WidgetWindowMinutes = 30
	}
	log.Info().Int("widget_window_minutes", pc.WidgetWindowMinutes).Msg("paystack configuration loaded")
	return pc, nil
}

func BuildSMTPConfig(cfg *config.Config, log *zerolog.Logger) (mailer.Config, error) {
	mc := mailer.Config{
		Host: cfg.GetString("smtp.host"),
		Port: cfg.GetString("smtp.port"),
		From: cfg.GetString("smtp.from"),
		Pass: os.Getenv("SMTP_PASS"),
	}
	if mc.Host == "" || mc.From == "" {
		return mailer.Config{}, fmt.Errorf("smtp.host and smtp.from are required")
	}
	if mc.Port == "" {
		mc.Port = "587"
	}
	log.Info().Str("host", mc.Host).Str("from", mc.From).Msg("smtp configuration loaded")
	return mc, nil
}

func BuildAuthConfig(_ *config.Config, _ *zerolog.Logger) (AuthConfig, error) {
	secret := os.Getenv("AUTH_SECRET")
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("AUTH_SECRET is not set")
	}
	return AuthConfig{Secret: secret}, nil
}
