package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Redis struct {
		Addr          string `yaml:"addr"`
		Password      string `yaml:"password"`
		DB            int    `yaml:"db"`
		UploadChannel string `yaml:"uploadChannel"`
	} `yaml:"redis"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Auth struct {
		JWKSURL  string `yaml:"jwksUrl"`
		Issuer   string `yaml:"issuer"`
		Audience string `yaml:"audience"`
	} `yaml:"auth"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Analysis struct {
		CacheTTLHours      int    `yaml:"cacheTTLHours"`
		WaitTimeoutSeconds int    `yaml:"waitTimeoutSeconds"`
		JobTimeoutSeconds  int    `yaml:"jobTimeoutSeconds"`
		SummarizeAttempts  uint64 `yaml:"summarizeAttempts"`
		CorpusPath         string `yaml:"corpusPath"`
	} `yaml:"analysis"`
}

// Load reads the config.yaml file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Redis.UploadChannel == "" {
		c.Redis.UploadChannel = "uploads"
	}
	if c.Analysis.CacheTTLHours == 0 {
		c.Analysis.CacheTTLHours = 24
	}
	if c.Analysis.WaitTimeoutSeconds == 0 {
		c.Analysis.WaitTimeoutSeconds = 120
	}
	if c.Analysis.JobTimeoutSeconds == 0 {
		c.Analysis.JobTimeoutSeconds = 600
	}
	if c.Analysis.SummarizeAttempts == 0 {
		c.Analysis.SummarizeAttempts = 3
	}
	if c.Analysis.CorpusPath == "" {
		c.Analysis.CorpusPath = "statutes.yaml"
	}
}

// Helper to build the MySQL DSN
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper to build the Postgres DSN
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}

// CacheTTL returns the memo lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Analysis.CacheTTLHours) * time.Hour
}

// WaitTimeout returns how long one request waits for a job.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.Analysis.WaitTimeoutSeconds) * time.Second
}

// JobTimeout returns the bound on a whole analysis job.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.Analysis.JobTimeoutSeconds) * time.Second
}
