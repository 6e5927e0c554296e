package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"GoLetterAI/app/clients"
	"GoLetterAI/app/models"
	"GoLetterAI/app/teams"
)

type Config struct {
	Server   ServerConfig     `yaml:"server"`
	LLM      LLMConfig        `yaml:"llm"`
	Workflow WorkflowConfig   `yaml:"workflow"`
	Storage  StorageConfig    `yaml:"storage"`
	Team     []MemberConfig   `yaml:"team,omitempty"`
	RAG      RAGConfig        `yaml:"rag"`
	Clients  []clients.Config `yaml:"clients,omitempty"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	LogsDir      string        `yaml:"logs_dir"`
	AuditBuffer  int           `yaml:"audit_buffer"`
}

type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	APIVersion      string        `yaml:"api_version,omitempty"`
	Model           string        `yaml:"model"`
	EmbeddingsModel string        `yaml:"embeddings_model,omitempty"`
	Temperature     float64       `yaml:"temperature"`
	MaxTokens       int           `yaml:"max_tokens"`
	MaxRetries      int           `yaml:"max_retries"`
	Timeout         time.Duration `yaml:"timeout"`
}

type WorkflowConfig struct {
	MaxRounds           int  `yaml:"max_rounds"`
	PersistConversation bool `yaml:"persist_conversation"`
	NotifyOnReview      bool `yaml:"notify_on_review"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

// MemberConfig customizes one role of the review team.
type MemberConfig struct {
	Role   string   `yaml:"role"`
	System string   `yaml:"system,omitempty"`
	Rules  []string `yaml:"rules,omitempty"`
}

type RAGConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key,omitempty"`
	Collection string `yaml:"collection"`
	VectorSize int    `yaml:"vector_size"`
	Folder     string `yaml:"folder"`
	TopK       int    `yaml:"top_k"`
}

const (
	defaultModel           = "openai/gpt-oss-20b"
	defaultEmbeddingsModel = "text-embedding-nomic-embed-text-v1.5@q8_0"
)

// Default is the configuration used without a config file, filled from the environment.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
			LogsDir:      "logs",
			AuditBuffer:  500,
		},
		LLM: LLMConfig{
			Provider:        models.ProviderLocal,
			BaseURL:         os.Getenv("LLM_BASE_URL"),
			APIKey:          os.Getenv("LLM_API_KEY"),
			Model:           envOr("LLM_MODEL", defaultModel),
			EmbeddingsModel: envOr("LLM_EMBEDDINGS_MODEL", defaultEmbeddingsModel),
			Temperature:     0.7,
			MaxRetries:      3,
			Timeout:         2 * time.Minute,
		},
		Workflow: WorkflowConfig{
			MaxRounds:      teams.DefaultMaxRounds,
			NotifyOnReview: true,
		},
		Storage: StorageConfig{Path: os.Getenv("DB_PATH")},
		RAG: RAGConfig{
			Host:       envOr("QDRANT_URL", "localhost"),
			Collection: "letter_guidelines",
			VectorSize: 768,
			Folder:     envOr("FOLDER_RAG", "./rag_data"),
			TopK:       4,
		},
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.LLM.Provider = provider
	}
	if port, err := strconv.Atoi(os.Getenv("QDRANT_PORT")); err == nil {
		cfg.RAG.Port = port
	}
	return cfg
}

// LoadConfig reads a YAML file over the defaults. A missing file is not an error: the
// defaults are returned as they are.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read configs file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Workflow.MaxRounds < 1 {
		return fmt.Errorf("workflow.max_rounds must be at least 1")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model cannot be empty")
	}
	switch c.LLM.Provider {
	case "", models.ProviderLocal, models.ProviderOpenAI, models.ProviderAnthropic:
	case models.ProviderAzure:
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm.base_url is required for the azure provider")
		}
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}

	seen := make(map[teams.RoleID]bool)
	for _, member := range c.Team {
		role, err := teams.ParseRole(member.Role)
		if err != nil {
			return fmt.Errorf("team: %w", err)
		}
		if seen[role] {
			return fmt.Errorf("team: role %s configured twice", role)
		}
		seen[role] = true
	}

	if c.RAG.Enabled {
		if c.RAG.VectorSize <= 0 {
			return fmt.Errorf("rag.vector_size must be positive")
		}
		if c.RAG.Folder == "" {
			return fmt.Errorf("rag.folder cannot be empty")
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
