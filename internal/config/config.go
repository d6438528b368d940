package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type SettlementConfig struct {
	Env             string `yaml:"env"`
	HTTPServer      `yaml:"http_server"`
	SettlementDB    `yaml:"settlement_db"`
	LogConfig       `yaml:"log_config"`
	PaymentGateway  `yaml:"payment-gateway"`
	GradingRegistry `yaml:"grading-registry"`
	KafkaService    `yaml:"kafka-service"`
	Settlement      `yaml:"settlement"`
}

type HTTPServer struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type SettlementDB struct {
	Dsn string `yaml:"dsn"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogOutput string `yaml:"log_output"`
}

type PaymentGateway struct {
	Host    string        `yaml:"host"`
	Port    string        `yaml:"port"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

type GradingRegistry struct {
	Host    string        `yaml:"host"`
	Port    string        `yaml:"port"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

type KafkaService struct {
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Mechanism  string `yaml:"mechanism"`
	TLSEnabled bool   `yaml:"tls_enabled"`
}

type Settlement struct {
	// ReleaseRequiresDelivery gates escrow release on a DELIVERED outbound
	// shipment in addition to a VERIFIED card. Some deployments release on
	// verification alone.
	ReleaseRequiresDelivery bool          `yaml:"release_requires_delivery" env-default:"true"`
	ClaimTTL                time.Duration `yaml:"claim_ttl" env-default:"2h"`
	RateLimitPerActor       float64       `yaml:"rate_limit_per_actor" env-default:"10"`
	RateLimitBurst          int           `yaml:"rate_limit_burst" env-default:"20"`
}

func MustLoad() *SettlementConfig {

	// Processing env config variable and file
	configPath := os.Getenv("SETTLEMENT_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("SETTLEMENT_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg SettlementConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
