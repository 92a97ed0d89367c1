package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Storage struct {
		DBPath     string `yaml:"db_path"`
		CorpusPath string `yaml:"corpus_path"` // CSV of historical flows for retrieval
	} `yaml:"storage"`
	AI struct {
		Provider       string `yaml:"provider"`
		Model          string `yaml:"model"` // completion model
		EmbeddingModel string `yaml:"embedding_model"`
		APIKey         string `yaml:"api_key"`
		BaseURL        string `yaml:"base_url"`
		Dimension      int    `yaml:"dimension"`
		TopK           int    `yaml:"top_k"`
	} `yaml:"ai"`
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if apiKey := os.Getenv("IA_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("IA_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if addr := os.Getenv("IA_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if db := os.Getenv("IA_DB"); db != "" {
		cfg.Storage.DBPath = db
	}

	// 4. Defaults
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = "ia-agent.db"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if c.AI.EmbeddingModel == "" {
		c.AI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.AI.Dimension == 0 {
		c.AI.Dimension = 1536
	}
	if c.AI.TopK == 0 {
		c.AI.TopK = 3
	}
}
