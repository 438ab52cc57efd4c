package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// Config is the on-disk service configuration. Sites maps a stable key to
// the upstream catalogue it describes.
type Config struct {
	StorageDir string                `toml:"storage_dir"`
	CacheTime  Duration              `toml:"cache_time"`
	Sites      map[string]SiteConfig `toml:"sites"`
}

// SiteConfig describes one Apple CMS compatible catalogue API.
type SiteConfig struct {
	Name   string `toml:"name"`
	API    string `toml:"api"`
	Detail string `toml:"detail,omitempty"`
	// Adult marks sites whose results are subject to the adult filter.
	Adult   bool      `toml:"adult,omitempty"`
	Timeout *Duration `toml:"timeout,omitempty"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	return &Config{
		StorageDir: storageDir,
		CacheTime:  Duration{5 * time.Minute},
		Sites:      make(map[string]SiteConfig),
	}, nil
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		config.StorageDir = storageDir
	}

	if config.CacheTime.Duration == 0 {
		config.CacheTime = Duration{5 * time.Minute}
	}

	if config.Sites == nil {
		config.Sites = make(map[string]SiteConfig)
	}

	return &config, nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return "", fmt.Errorf("getting default storage directory: %w", err)
		}
	}

	// Replace the placeholder storage_dir with the actual path
	template := strings.Replace(configTemplate, "/home/user/.local/share/katelyatv", storageDir, 1)
	return template, nil
}

// CacheSeconds returns the cache duration rounded down to whole seconds,
// the unit CDN cache headers are expressed in.
func (c *Config) CacheSeconds() int {
	return int(c.CacheTime.Duration / time.Second)
}

// GetSiteTimeout returns the per-site upstream request timeout,
// defaulting to 10 seconds.
func (c *Config) GetSiteTimeout(key string) time.Duration {
	site, exists := c.Sites[key]
	if !exists || site.Timeout == nil {
		return 10 * time.Second
	}
	return site.Timeout.Duration
}

func (c *Config) ListSites() []string {
	keys := make([]string, 0, len(c.Sites))
	for key := range c.Sites {
		keys = append(keys, key)
	}
	return keys
}

func (c *Config) RemoveSite(key string) {
	delete(c.Sites, key)
}

// GetDefaultStorageDir returns the default directory for databases
func GetDefaultStorageDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	tvDir := filepath.Join(dataDir, "katelyatv")

	if err := os.MkdirAll(tvDir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", tvDir, err)
	}

	return tvDir, nil
}

// GetConfigDir returns the configuration directory for katelyatv
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	tvConfigDir := filepath.Join(configDir, "katelyatv")

	if err := os.MkdirAll(tvConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", tvConfigDir, err)
	}

	return tvConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
