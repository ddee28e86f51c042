package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type IPNConfig struct {
	Env          string `yaml:"env" env:"IPN_ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	GRPCServer   `yaml:"grpc_server"`
	IPNDB        `yaml:"ipn_db"`
	LogConfig    `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
	Monetico     `yaml:"monetico"`
}

type HTTPServer struct {
	Host string `yaml:"host" env:"IPN_HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"IPN_HTTP_PORT" env-default:"8080"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"IPN_GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"IPN_GRPC_PORT" env-default:"50061"`
}

type IPNDB struct {
	Dsn            string `yaml:"dsn" env:"IPN_DB_DSN" env-required:"true"`
	MigrationsPath string `yaml:"migrations_path" env:"IPN_MIGRATIONS_PATH" env-default:"migrations"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"IPN_LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"IPN_LOG_FORMAT" env-default:"json"`
	LogOutput string `yaml:"log_output" env:"IPN_LOG_OUTPUT" env-default:"stdout"`
}

type KafkaService struct {
	Host  string `yaml:"host" env:"IPN_KAFKA_HOST" env-default:"localhost"`
	Port  string `yaml:"port" env:"IPN_KAFKA_PORT" env-default:"9092"`
	Topic string `yaml:"topic" env:"IPN_KAFKA_TOPIC" env-default:"payment-notifications"`
}

// Monetico holds the merchant terminal settings. SecurityKey is the key the
// gateway seals notifications with.
type Monetico struct {
	EPTCode     string `yaml:"ept_code" env:"MONETICO_EPT_CODE" env-required:"true"`
	SecurityKey string `yaml:"security_key" env:"MONETICO_SECURITY_KEY" env-required:"true"`
	Timezone    string `yaml:"timezone" env:"MONETICO_TIMEZONE" env-default:"Europe/Paris"`
}

func MustLoad() *IPNConfig {

	// Processing env config variable and file
	configPath := os.Getenv("IPN_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("IPN_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return cfg
}

// Load reads the YAML file at path, then applies environment overrides.
func Load(path string) (*IPNConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	var cfg IPNConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
