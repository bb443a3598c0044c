package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrSnakeDoc/appdir/internal/client"
)

// Config holds the appdirctl settings. Precedence: flags, APPDIRCTL_*
// environment variables, the YAML config file, defaults.
type Config struct {
	Server   string        `mapstructure:"server"`    // appdir base url
	Mirror   string        `mapstructure:"mirror"`    // sqlite file holding the offline mirror
	Timeout  time.Duration `mapstructure:"timeout"`   // per-request HTTP timeout
	Retries  int           `mapstructure:"retries"`   // attempts per read request
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // snapshot freshness
	Reprobe  time.Duration `mapstructure:"reprobe"`   // wait before retrying an unreachable server
	LogLevel string        `mapstructure:"log_level"`
}

// DefaultConfigPath returns ~/.config/appdirctl/config.yml (or the OS
// equivalent).
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "appdirctl", "config.yml")
}

func defaultMirrorPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "appdirctl", "mirror.db")
}

// loadConfig reads the config for cmd. path overrides APPDIRCTL_CONFIG and
// the default location; a missing file is not an error.
func loadConfig(cmd *cobra.Command, path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server", "http://localhost:8080")
	v.SetDefault("mirror", defaultMirrorPath())
	v.SetDefault("timeout", "15s")
	v.SetDefault("retries", client.DefaultRetry.Attempts)
	v.SetDefault("cache_ttl", client.DefaultTTL.String())
	v.SetDefault("reprobe", client.DefaultReprobe.String())
	v.SetDefault("log_level", "error")

	v.SetEnvPrefix("APPDIRCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"server", "mirror"} {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(name, f); err != nil {
				return nil, fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}

	if path == "" {
		path = os.Getenv("APPDIRCTL_CONFIG")
	}
	if path == "" {
		path = DefaultConfigPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	return &cfg, nil
}
