package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Gateway  GatewayConfig
	OpenAI   OpenAIConfig
	S3Config *S3Config
}

type ServerConfig struct {
	Port           string `envconfig:"PORT" default:"8000"`
	BotName        string `envconfig:"BOT_NAME" default:"Mia"`
	AttendantPhone string `envconfig:"ATTENDANT_PHONE"`
	Timezone       string `envconfig:"TIMEZONE" default:"America/New_York"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
}

type MongoConfig struct {
	URI      string `envconfig:"URI"`
	Database string `envconfig:"DATABASE" default:"mia_database"`
}

type GatewayConfig struct {
	BaseURL     string `envconfig:"BASE_URL" default:"https://api.z-api.io"`
	InstanceID  string `envconfig:"INSTANCE_ID"`
	Token       string `envconfig:"TOKEN"`
	ClientToken string `envconfig:"CLIENT_TOKEN"`
}

// SendTextURL builds the provider URL for the send-text operation.
func (g GatewayConfig) SendTextURL() string {
	return fmt.Sprintf("%s/instances/%s/token/%s/send-text",
		strings.TrimSuffix(g.BaseURL, "/"), g.InstanceID, g.Token)
}

func (g GatewayConfig) Configured() bool {
	return g.InstanceID != "" && g.Token != ""
}

type OpenAIConfig struct {
	APIKey  string `envconfig:"API_KEY"`
	Model   string `envconfig:"MODEL" default:"gpt-4o"`
	BaseURL string `envconfig:"BASE_URL" default:"https://api.openai.com/v1"`
}

type S3Config struct {
	AccessKey  string `envconfig:"ACCESS_KEY"`
	SecretKey  string `envconfig:"SECRET_KEY"`
	BucketName string `envconfig:"BUCKET"`
	Region     string `envconfig:"REGION" default:"us-east-1"`
	ServiceUrl string `envconfig:"ENDPOINT"`
	BucketUrl  string `envconfig:"BUCKET_URL"`
}

func (c *S3Config) Configured() bool {
	return c != nil && c.BucketName != ""
}

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{S3Config: &S3Config{}}

	groups := []struct {
		prefix string
		spec   interface{}
	}{
		{"", &cfg.Server},
		{"MONGODB", &cfg.Mongo},
		{"ZAPI", &cfg.Gateway},
		{"OPENAI", &cfg.OpenAI},
		{"S3", cfg.S3Config},
	}
	for _, g := range groups {
		if err := envconfig.Process(g.prefix, g.spec); err != nil {
			return nil, fmt.Errorf("erro ao ler configuração %s: %w", g.prefix, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGODB_URI não configurado")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("PORT não pode ser vazio")
	}
	if c.Server.BotName == "" {
		return fmt.Errorf("BOT_NAME não pode ser vazio")
	}
	return nil
}

// Warnings lists optional integrations that are disabled by missing values.
func (c *Config) Warnings() []string {
	var warnings []string
	if !c.Gateway.Configured() {
		warnings = append(warnings, "ZAPI_INSTANCE_ID/ZAPI_TOKEN ausentes: envio de mensagens desativado")
	}
	if c.OpenAI.APIKey == "" {
		warnings = append(warnings, "OPENAI_API_KEY ausente: respostas automáticas irão falhar")
	}
	if !c.S3Config.Configured() {
		warnings = append(warnings, "S3_BUCKET ausente: exportação de conversas desativada")
	}
	return warnings
}
