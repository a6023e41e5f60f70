package doorbellctl

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/larsks/doorbell/internal/config"
)

const (
	defaultServerURL = "http://localhost:8080"
	serverURLEnv     = "DOORBELL_SERVER_URL"
)

// Config holds the doorbellctl configuration
type Config struct {
	ServerURL  string `mapstructure:"server-url"`
	ConfigFile string `mapstructure:"config-file"`
	Output     string `mapstructure:"output"`
}

// LoadEnv reads KEY=value pairs from a .env file in the working directory
// into the environment. Variables that are already set are left alone.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func getDefaultServerURL() string {
	if url := os.Getenv(serverURLEnv); url != "" {
		return url
	}
	return defaultServerURL
}

func getDefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, "doorbell", "doorbellctl.toml")
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		ServerURL:  getDefaultServerURL(),
		ConfigFile: getDefaultConfigFile(),
		Output:     "text",
	}
}

// AddFlags adds command-line flags for all configuration options
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "Config file to use")
	fs.StringVar(&c.ServerURL, "server-url", c.ServerURL, "doorbell-relay server URL (env "+serverURLEnv+")")
	fs.StringVarP(&c.Output, "output", "o", c.Output, "Output format for status and config (text, json or yaml)")
}

// LoadConfigWithFlagSet loads configuration with precedence
// defaults < config file < flags
func (c *Config) LoadConfigWithFlagSet(fs *pflag.FlagSet) error {
	configFile, err := config.ResolveConfigFile(c.ConfigFile, getDefaultConfigFile())
	if err != nil {
		return err
	}

	loader := config.NewConfigLoader()
	loader.SetConfigFile(configFile)
	loader.SetDefaults(map[string]any{
		"server-url": getDefaultServerURL(),
		"output":     "text",
	})
	return loader.LoadConfigWithFlagSet(c, fs)
}
