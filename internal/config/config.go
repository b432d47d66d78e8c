// Package config loads server settings from the environment and an optional .env file
package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all server settings
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Print     PrintConfig
	MDNS      MDNSConfig
}

type ServerConfig struct {
	Port         string
	RegistryPath string
	ProfilePath  string
}

type DatabaseConfig struct {
	Driver string // sqlite or postgres
	DSN    string
	Debug  bool
}

// AuthConfig enables bearer-token checks when Secret is set
type AuthConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type PrintConfig struct {
	DefaultPaperWidth int
	MaxRetries        int
}

type MDNSConfig struct {
	Enabled  bool
	Instance string
}

// Load reads .env (if present) and the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️  failed to read .env: %v", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "12212")
	v.SetDefault("REGISTRY_PATH", "")
	v.SetDefault("PROFILE_PATH", "store.yaml")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "receipts.db")
	v.SetDefault("DB_DEBUG", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("DEFAULT_PAPER_WIDTH", 32)
	v.SetDefault("PRINT_MAX_RETRIES", 3)
	v.SetDefault("MDNS_ENABLED", true)
	v.SetDefault("MDNS_INSTANCE", "Kantin Receipt")

	return v
}

// FromViper builds a Config from an already populated viper instance
func FromViper(v *viper.Viper) *Config {
	registryPath := v.GetString("REGISTRY_PATH")
	if registryPath == "" {
		registryPath = defaultRegistryPath()
	}

	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			RegistryPath: registryPath,
			ProfilePath:  v.GetString("PROFILE_PATH"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:    v.GetString("DB_DSN"),
			Debug:  v.GetBool("DB_DEBUG"),
		},
		Auth: AuthConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
		Print: PrintConfig{
			DefaultPaperWidth: v.GetInt("DEFAULT_PAPER_WIDTH"),
			MaxRetries:        v.GetInt("PRINT_MAX_RETRIES"),
		},
		MDNS: MDNSConfig{
			Enabled:  v.GetBool("MDNS_ENABLED"),
			Instance: v.GetString("MDNS_INSTANCE"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// defaultRegistryPath places the registry next to the executable when that
// directory is writable, then falls back to the working directory and
// finally the user config directory.
func defaultRegistryPath() string {
	const name = "printer_registry.json"

	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		testFile := filepath.Join(exeDir, ".kantin-receipt-write-test")
		if f, err := os.Create(testFile); err == nil {
			f.Close()
			os.Remove(testFile)
			return filepath.Join(exeDir, name)
		}
	}

	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, name)
	}

	var configDir string
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			configDir = filepath.Join(appData, "kantin-receipt")
		} else {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "kantin-receipt")
		}
	} else if home := os.Getenv("HOME"); home != "" {
		configDir = filepath.Join(home, ".config", "kantin-receipt")
	}

	if configDir != "" {
		os.MkdirAll(configDir, 0755)
		return filepath.Join(configDir, name)
	}

	return name
}
