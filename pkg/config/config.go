package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const defaultConfigTmpl = `# readlater configuration file.

# Directory where articles and settings are stored.
data_dir = %q

# Storage backend: "file" keeps everything in data_dir/storage.json, "redis"
# uses the server at redis_addr.
backend = "file"
redis_addr = "127.0.0.1:6379"

# Address the reader page is served on.
reader_addr = "127.0.0.1:7180"

# Browser to save from: "safari", or "http" to fetch pages directly.
browser = "safari"

# How long to let a linked page settle after it loads, before saving it.
settle_delay = "1.5s"

# How long notifications stay on screen.
toast_delay = "5s"

# Log file; the TUI owns the terminal.
log_file = %q
`

// Backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Browsers.
const (
	BrowserSafari = "safari"
	BrowserHTTP   = "http"
)

type Config struct {
	DataDir     string        `toml:"data_dir"`
	Backend     string        `toml:"backend"`
	RedisAddr   string        `toml:"redis_addr"`
	ReaderAddr  string        `toml:"reader_addr"`
	Browser     string        `toml:"browser"`
	SettleDelay time.Duration `toml:"settle_delay"`
	ToastDelay  time.Duration `toml:"toast_delay"`
	LogFile     string        `toml:"log_file"`
}

// Default returns the configuration used for keys missing from the file.
func Default(dir string) Config {
	return Config{
		DataDir:     filepath.Join(dir, "data"),
		Backend:     BackendFile,
		RedisAddr:   "127.0.0.1:6379",
		ReaderAddr:  "127.0.0.1:7180",
		Browser:     BrowserSafari,
		SettleDelay: 1500 * time.Millisecond,
		ToastDelay:  5 * time.Second,
		LogFile:     filepath.Join(dir, "readlater.log"),
	}
}

// ReaderBase is the base URL of the reader page.
func (c Config) ReaderBase() string {
	return "http://" + c.ReaderAddr
}

// Dir returns the readlater configuration directory (~/.readlater).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".readlater"), nil
}

// Path returns the path to the readlater config file.
func Path() string {
	dir, _ := Dir()
	return filepath.Join(dir, "readlater.toml")
}

// Load reads the config from ~/.readlater/readlater.toml, creating a default
// config file if one doesn't exist.
func Load() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(dir)
}

// LoadFrom reads readlater.toml from dir, creating it with defaults if it
// doesn't exist.
func LoadFrom(dir string) (Config, error) {
	path := filepath.Join(dir, "readlater.toml")
	def := Default(dir)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Config{}, fmt.Errorf("could not create config directory: %w", err)
		}
		contents := fmt.Sprintf(defaultConfigTmpl, def.DataDir, def.LogFile)
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			return Config{}, fmt.Errorf("could not write default config: %w", err)
		}
	}

	cfg := def
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse %s: %w", path, err)
	}

	for _, p := range []*string{&cfg.DataDir, &cfg.LogFile} {
		expanded, err := expandHome(*p)
		if err != nil {
			return Config{}, err
		}
		*p = expanded
	}

	switch cfg.Backend {
	case BackendFile, BackendRedis:
	default:
		return Config{}, fmt.Errorf("%s: unknown backend %q", path, cfg.Backend)
	}
	switch cfg.Browser {
	case BrowserSafari, BrowserHTTP:
	default:
		return Config{}, fmt.Errorf("%s: unknown browser %q", path, cfg.Browser)
	}
	return cfg, nil
}

func expandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, p[2:]), nil
}
