package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider kinds.
const (
	KindDisabled     = "disabled"
	KindMock         = "mock"
	KindRemote       = "remote"
	KindPlaces       = "places"
	KindGooglePlaces = "google_places"
	KindFile         = "file"
)

// Config holds the application configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Location LocationConfig `yaml:"location"`
	Request  RequestConfig  `yaml:"request"`
	Log      LogConfig      `yaml:"log"`
	DB       DBConfig       `yaml:"db"`
	History  HistoryConfig  `yaml:"history"`
	Server   ServerConfig   `yaml:"server"`
}

// ProviderConfig selects and configures the cafe data source.
type ProviderConfig struct {
	Kind   string       `yaml:"kind"`
	Remote RemoteConfig `yaml:"remote"`
	Places PlacesConfig `yaml:"places"`
	File   FileConfig   `yaml:"file"`
	Menu   MenuConfig   `yaml:"menu"`
}

// NormalizedKind returns Kind trimmed and lower-cased, with google_places folded into places.
func (p *ProviderConfig) NormalizedKind() string {
	kind := strings.ToLower(strings.TrimSpace(p.Kind))
	if kind == KindGooglePlaces {
		return KindPlaces
	}
	return kind
}

// RemoteConfig holds settings for a generic REST endpoint.
// Header values may reference environment variables, see ResolveValue.
type RemoteConfig struct {
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body,omitempty"`
}

// PlacesConfig holds settings for the nearby place search.
type PlacesConfig struct {
	APIKey     string   `yaml:"api_key"`
	Endpoint   string   `yaml:"endpoint"`
	Radius     Distance `yaml:"radius"`
	MaxResults int      `yaml:"max_results"`
	CacheTTL   Duration `yaml:"cache_ttl"`
}

// FileConfig holds settings for a local JSON payload.
type FileConfig struct {
	Path string `yaml:"path"`
}

// MenuConfig holds settings for chain menu enrichment.
type MenuConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// CatalogConfig holds reload settings.
type CatalogConfig struct {
	RefreshInterval Duration `yaml:"refresh_interval"`
	FetchTimeout    Duration `yaml:"fetch_timeout"`
	WatchInterval   Duration `yaml:"watch_interval"` // Poll local data files for changes; 0 disables
}

// LocationConfig holds the default-city fallback and the accepted service area.
type LocationConfig struct {
	DefaultCity DefaultCityConfig `yaml:"default_city"`
	ServiceArea string            `yaml:"service_area"`
}

// DefaultCityConfig is used when no client location is known.
type DefaultCityConfig struct {
	Enabled bool    `yaml:"enabled"`
	Name    string  `yaml:"name"`
	Lat     float64 `yaml:"lat"`
	Lon     float64 `yaml:"lon"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Timeout Duration `yaml:"timeout"`
	Gap     Duration `yaml:"gap"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// HistoryConfig holds view history settings.
type HistoryConfig struct {
	Retention Duration `yaml:"retention"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Kind: KindDisabled,
			Remote: RemoteConfig{
				Method:  "GET",
				Headers: map[string]string{},
			},
			Places: PlacesConfig{
				APIKey:     "${GOOGLE_PLACES_API_KEY}",
				Endpoint:   "https://places.googleapis.com/v1/places:searchNearby",
				Radius:     Distance(1000),
				MaxResults: 20,
				CacheTTL:   Duration(300 * time.Second),
			},
			File: FileConfig{
				Path: "./data/chains.json",
			},
			Menu: MenuConfig{
				Enabled: false,
				Path:    "./configs/chains_menu.yaml",
			},
		},
		Catalog: CatalogConfig{
			RefreshInterval: Duration(15 * time.Minute),
			FetchTimeout:    Duration(20 * time.Second),
			WatchInterval:   Duration(5 * time.Second),
		},
		Location: LocationConfig{
			DefaultCity: DefaultCityConfig{
				Enabled: true,
				Name:    "Tokyo Station",
				Lat:     35.6812,
				Lon:     139.7671,
			},
		},
		Request: RequestConfig{
			Timeout: Duration(30 * time.Second),
			Gap:     Duration(100 * time.Millisecond),
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/cafedoko.db",
		},
		History: HistoryConfig{
			Retention: Duration(90 * Day),
		},
		Server: ServerConfig{
			Address: "localhost:8080",
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.Provider.Kind = cfg.Provider.NormalizedKind()
		return cfg, nil
	}

	// If file does not exist, save defaults
	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# cafedoko configuration
# ----------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers)
# Secrets may reference the environment: $env:NAME, $ENV:NAME, $env{NAME}, $ENV{NAME}, ${NAME}

`)
	data = append(header, data...)

	// Provider kind options
	reKind := regexp.MustCompile(`(?m)^(\s+)kind:`)
	data = reKind.ReplaceAll(data, []byte("${1}# Options: disabled, mock, remote, places, file\n${1}kind:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, do nothing
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
