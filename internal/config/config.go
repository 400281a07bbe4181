// Package config handles Scout configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./scout.yaml, ~/.config/scout/config.yaml, /etc/scout/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"scout.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "scout", "config.yaml"))
	}

	paths = append(paths, "/etc/scout/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Scout configuration.
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Model     ModelConfig     `yaml:"model"`
	Agent     AgentConfig     `yaml:"agent"`
	Auth      AuthConfig      `yaml:"auth"`
	History   HistoryConfig   `yaml:"history"`
	Weather   WeatherConfig   `yaml:"weather"`
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	GitHub    GitHubConfig    `yaml:"github"`
	LogLevel  string          `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// ModelConfig defines the completion endpoint settings.
type ModelConfig struct {
	// BaseURL is the OpenAI-compatible API root, e.g. http://localhost:11434/v1.
	BaseURL string `yaml:"base_url"`
	// Name is the model identifier passed on every request.
	Name string `yaml:"name"`
	// APIKey is sent as a bearer token when set. Local Ollama ignores it.
	APIKey string `yaml:"api_key"`
}

// AgentConfig defines conversation loop settings.
type AgentConfig struct {
	// Kind selects the tool set served by the network surface:
	// "github", "weather", or "wiki".
	Kind string `yaml:"kind"`
	// MaxRounds caps model round-trips per request. Zero means the default.
	MaxRounds int `yaml:"max_rounds"`
}

// AuthConfig defines API authentication.
type AuthConfig struct {
	// BearerToken is compared against the Authorization header on every
	// API request. An empty value is a server misconfiguration: requests
	// are rejected with 500 rather than served unauthenticated.
	BearerToken string `yaml:"bearer_token"`
}

// HistoryConfig defines conversation persistence settings.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty means ./scout.db.
	Path string `yaml:"path"`
	// FetchLimit is the rolling window of turns loaded per request.
	FetchLimit int `yaml:"fetch_limit"`
}

// WeatherConfig holds weather tool provider keys. Both are optional;
// without keys the tools return fixed fallback data.
type WeatherConfig struct {
	APIKey    string `yaml:"api_key"`     // tomorrow.io
	GeoAPIKey string `yaml:"geo_api_key"` // geocode.maps.co
}

// WikipediaConfig holds Wikipedia tool settings.
type WikipediaConfig struct {
	// UserAgent identifies Scout to the MediaWiki API.
	UserAgent string `yaml:"user_agent"`
}

// GitHubConfig holds the GitHub tool provider settings.
type GitHubConfig struct {
	// Token is a personal access token. Optional; unauthenticated
	// requests work with a lower rate limit.
	Token string `yaml:"token"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8080},
		Model: ModelConfig{
			BaseURL: "http://localhost:11434/v1",
			Name:    "llama3.2",
		},
		Agent: AgentConfig{
			Kind:      "github",
			MaxRounds: 10,
		},
		History: HistoryConfig{
			Path:       "scout.db",
			FetchLimit: 10,
		},
		Wikipedia: WikipediaConfig{
			UserAgent: "WikipediaBot/1.0",
		},
	}
}
