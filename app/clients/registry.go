package clients

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"GoLetterAI/app/letters"
)

// Config defines the configuration for a client connector
type Config struct {
	Type    string            `yaml:"type" json:"type"`
	Enabled bool              `yaml:"enabled" json:"enabled"`
	Config  map[string]string `yaml:"config,omitempty" json:"config,omitempty"`
}

type Registry struct {
	mu      sync.RWMutex
	clients []Interface
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make([]Interface, 0),
	}
}

func (r *Registry) Register(client Interface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = append(r.clients, client)
}

func (r *Registry) GetAll() []Interface {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Interface, len(r.clients))
	copy(result, r.clients)
	return result
}

// NotifyAll sends doc to every client; one failing client does not stop the others.
func (r *Registry) NotifyAll(ctx context.Context, doc letters.Document) error {
	var errs []error
	for _, client := range r.GetAll() {
		if err := client.Notify(ctx, doc); err != nil {
			log.Printf("⚠️ %s notification for letter %s failed: %v", client.Name(), doc.ID, err)
			errs = append(errs, fmt.Errorf("%s: %w", client.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		if closer, ok := client.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				log.Printf("⚠️ Error closing client: %v\n", err)
			}
		}
	}
	r.clients = make([]Interface, 0)
}

func CreateClient(cfg Config) (Interface, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("client %s is disabled", cfg.Type)
	}

	switch cfg.Type {
	case "discord":
		return NewDiscordClientFromConfig(cfg.Config)
	case "webhook":
		return NewWebhookClientFromConfig(cfg.Config)
	default:
		return nil, fmt.Errorf("unknown client type: %s", cfg.Type)
	}
}

// Initialize builds and registers every enabled client.
func Initialize(registry *Registry, configs []Config) error {
	if len(configs) == 0 {
		log.Println("ℹ️ No clients configured")
		return nil
	}

	for _, clientCfg := range configs {
		if !clientCfg.Enabled {
			log.Printf("⏭️ Client %s is disabled, skipping\n", clientCfg.Type)
			continue
		}

		log.Printf("🔌 Initializing %s client...\n", clientCfg.Type)
		client, err := CreateClient(clientCfg)
		if err != nil {
			return fmt.Errorf("failed to create %s client: %w", clientCfg.Type, err)
		}
		registry.Register(client)
		log.Printf("✅ %s client initialized\n", clientCfg.Type)
	}
	return nil
}
